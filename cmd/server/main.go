package main

import (
	"log"
	"strings"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/checkout"
	"kafe-backend/internal/config"
	"kafe-backend/internal/customer"
	"kafe-backend/internal/database"
	"kafe-backend/internal/employee"
	"kafe-backend/internal/inventory"
	"kafe-backend/internal/menu"
	"kafe-backend/internal/models"
	"kafe-backend/internal/reporting"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	// JSON cevaplarda tutarlar string değil sayı olsun
	decimal.MarshalJSONWithoutQuotes = true

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Beklenmeyen sunucu hatası",
			})
		},
	})

	// CORS origins'i virgülle ayrılmış string'den array'e çevir
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))
	app.Use(requestid.New())
	app.Use(logger.New())

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-manager", auth.RegisterManagerHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Manager routes
	managerRoutes := protected.Group("")
	managerRoutes.Use(auth.RequireRole(models.RoleManager))

	// Kullanıcı yönetimi
	managerRoutes.Post("/auth/cashiers", auth.CreateCashierHandler())

	// Çalışan yönetimi
	managerRoutes.Post("/employees", employee.CreateEmployeeHandler())
	managerRoutes.Put("/employees/:id", employee.UpdateEmployeeHandler())
	managerRoutes.Delete("/employees/:id", employee.DeleteEmployeeHandler())

	// Menü yönetimi
	managerRoutes.Post("/menu-items", menu.CreateMenuItemHandler())
	managerRoutes.Put("/menu-items/:id", menu.UpdateMenuItemHandler())
	managerRoutes.Delete("/menu-items/:id", menu.DeleteMenuItemHandler())
	managerRoutes.Put("/menu-items/:id/recipe", menu.SetRecipeHandler())

	// Malzeme yönetimi
	managerRoutes.Post("/ingredients", inventory.CreateIngredientHandler())
	managerRoutes.Put("/ingredients/:id", inventory.UpdateIngredientHandler())
	managerRoutes.Delete("/ingredients/:id", inventory.DeleteIngredientHandler())
	managerRoutes.Post("/ingredients/:id/restock", inventory.RestockHandler())

	// Audit logs
	managerRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())
	managerRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	// Raporlar
	managerRoutes.Get("/reports/sales/hourly", reporting.HourlySalesHandler())
	managerRoutes.Get("/reports/sales/daily", reporting.DailySalesHandler())

	// Ortak (auth gerektiren) route'lar

	// Kasa
	protected.Post("/checkout", checkout.CheckoutHandler())

	// Menü
	protected.Get("/menu-items", menu.ListMenuItemsHandler())
	protected.Get("/menu-items/:id/recipe", menu.GetRecipeHandler())

	// Malzemeler
	protected.Get("/ingredients", inventory.ListIngredientsHandler())
	protected.Get("/ingredients/low-stock", inventory.LowStockHandler())

	// Çalışanlar
	protected.Get("/employees", employee.ListEmployeesHandler())

	// Müşteriler
	protected.Get("/customers", customer.ListCustomersHandler())
	protected.Get("/customers/by-phone", customer.GetCustomerByPhoneHandler())
	protected.Get("/customers/:id/receipts", customer.ListCustomerReceiptsHandler())

	log.Println("Server çalışıyor port:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
