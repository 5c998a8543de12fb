package inventory

import (
	"fmt"
	"strings"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateIngredientRequest struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

type UpdateIngredientRequest struct {
	Name     *string          `json:"name"`
	Quantity *decimal.Decimal `json:"quantity"`
	Unit     *string          `json:"unit"`
}

type RestockRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type IngredientResponse struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
}

func toResponse(ing models.Ingredient) IngredientResponse {
	return IngredientResponse{
		ID:       ing.ID,
		Name:     ing.Name,
		Quantity: ing.Quantity,
		Unit:     ing.Unit,
	}
}

func getUserInfo(c *fiber.Ctx) (uint, string, error) {
	userIDVal := c.Locals(auth.CtxUserIDKey)
	userID, ok := userIDVal.(uint)
	if !ok {
		return 0, "", fiber.NewError(fiber.StatusForbidden, "Kullanıcı bilgisi alınamadı")
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return 0, "", fiber.NewError(fiber.StatusInternalServerError, "Kullanıcı bulunamadı")
	}

	return userID, user.Name, nil
}

// POST /api/ingredients
func CreateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		name := strings.TrimSpace(body.Name)
		unit := strings.TrimSpace(body.Unit)
		if name == "" || unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name ve unit boş olamaz")
		}
		if body.Quantity.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "quantity negatif olamaz")
		}

		ing := models.Ingredient{Name: name, Quantity: body.Quantity, Unit: unit}
		if err := database.DB.Create(&ing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme kaydedilemedi")
		}

		// Audit log yaz
		if userID, userName, err := getUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "ingredient",
				EntityID:    ing.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Malzeme eklendi: %s (%s %s)", ing.Name, ing.Quantity, ing.Unit),
				Before:      nil,
				After:       ing,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(ing))
	}
}

// GET /api/ingredients
func ListIngredientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ingredients []models.Ingredient
		if err := database.DB.Order("name asc").Find(&ingredients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		resp := make([]IngredientResponse, 0, len(ingredients))
		for _, ing := range ingredients {
			resp = append(resp, toResponse(ing))
		}

		return c.JSON(resp)
	}
}

// GET /api/ingredients/low-stock?threshold=10
func LowStockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		threshold := decimal.NewFromInt(10)
		if thresholdStr := c.Query("threshold"); thresholdStr != "" {
			parsed, err := decimal.NewFromString(thresholdStr)
			if err != nil || parsed.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "threshold geçersiz")
			}
			threshold = parsed
		}

		var ingredients []models.Ingredient
		if err := database.DB.Where("quantity < ?", threshold).
			Order("quantity asc, name asc").
			Find(&ingredients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler listelenemedi")
		}

		resp := make([]IngredientResponse, 0, len(ingredients))
		for _, ing := range ingredients {
			resp = append(resp, toResponse(ing))
		}

		return c.JSON(resp)
	}
}

// PUT /api/ingredients/:id
func UpdateIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body UpdateIngredientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := ing

		updated := false
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			ing.Name = name
			updated = true
		}
		if body.Quantity != nil {
			if body.Quantity.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "quantity negatif olamaz")
			}
			ing.Quantity = *body.Quantity
			updated = true
		}
		if body.Unit != nil {
			unit := strings.TrimSpace(*body.Unit)
			if unit == "" {
				return fiber.NewError(fiber.StatusBadRequest, "unit boş olamaz")
			}
			ing.Unit = unit
			updated = true
		}

		if updated {
			if err := database.DB.Save(&ing).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Malzeme güncellenemedi")
			}

			if userID, userName, err := getUserInfo(c); err == nil {
				if logErr := audit.WriteLog(audit.LogOptions{
					UserID:      userID,
					UserName:    userName,
					EntityType:  "ingredient",
					EntityID:    ing.ID,
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Malzeme güncellendi: %s", ing.Name),
					Before:      before,
					After:       ing,
				}); logErr != nil {
					fmt.Printf("Audit log yazılamadı: %v\n", logErr)
				}
			}
		}

		return c.JSON(toResponse(ing))
	}
}

// POST /api/ingredients/:id/restock
// Stok ekleme tek UPDATE ile yapılır; eşzamanlı kasa düşümleriyle yarışmaz.
func RestockHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		var body RestockRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}
		if !body.Amount.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "amount 0'dan büyük olmalı")
		}

		before := ing

		if err := database.DB.Model(&models.Ingredient{}).
			Where("id = ?", ing.ID).
			Update("quantity", gorm.Expr("quantity + ?", body.Amount)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Stok güncellenemedi")
		}

		// Güncel değeri tekrar oku
		if err := database.DB.First(&ing, "id = ?", ing.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme okunamadı")
		}

		if userID, userName, err := getUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "ingredient",
				EntityID:    ing.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Stok girişi: %s +%s %s", ing.Name, body.Amount, ing.Unit),
				Before:      before,
				After:       ing,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.JSON(toResponse(ing))
	}
}

// DELETE /api/ingredients/:id
func DeleteIngredientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var ing models.Ingredient
		if err := database.DB.First(&ing, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Malzeme bulunamadı")
		}

		// Reçetede kullanılan malzeme silinmez
		var recipeCount int64
		database.DB.Model(&models.Recipe{}).Where("ingredient_id = ?", ing.ID).Count(&recipeCount)
		if recipeCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Reçetede kullanılan malzeme silinemez")
		}

		if err := database.DB.Delete(&ing).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Malzeme silinemedi")
		}

		if userID, userName, err := getUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "ingredient",
				EntityID:    ing.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Malzeme silindi: %s", ing.Name),
				Before:      ing,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
