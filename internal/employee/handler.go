package employee

import (
	"fmt"
	"strings"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// -------------------------
// Request/Response Types
// -------------------------

type CreateEmployeeRequest struct {
	Name   string `json:"name"`
	Active *bool  `json:"active"` // opsiyonel, varsayılan true
}

type UpdateEmployeeRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

type EmployeeResponse struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// PickRandomActive: aktif çalışanlardan rastgele birini seçer. Kasa isteği
// çalışan belirtmediğinde fiş ataması buradan yapılır.
func PickRandomActive(db *gorm.DB) (*models.Employee, error) {
	var emp models.Employee
	// RANDOM() hem Postgres hem SQLite'ta var
	if err := db.Where("active = ?", true).Order("RANDOM()").First(&emp).Error; err != nil {
		return nil, fmt.Errorf("aktif çalışan seçilemedi: %w", err)
	}
	return &emp, nil
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

// POST /api/employees
func CreateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		name := strings.TrimSpace(body.Name)
		if name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
		}

		active := true
		if body.Active != nil {
			active = *body.Active
		}

		emp := models.Employee{Name: name, Active: active}
		if err := database.DB.Create(&emp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışan kaydedilemedi")
		}

		// Audit log yaz
		if userID, userName, err := getUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "employee",
				EntityID:    emp.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Çalışan eklendi: %s", emp.Name),
				Before:      nil,
				After:       emp,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(EmployeeResponse{
			ID:     emp.ID,
			Name:   emp.Name,
			Active: emp.Active,
		})
	}
}

// GET /api/employees?active=true
func ListEmployeesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Employee{})

		if activeStr := c.Query("active"); activeStr != "" {
			dbq = dbq.Where("active = ?", activeStr == "true")
		}

		var employees []models.Employee
		if err := dbq.Order("name asc").Find(&employees).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışanlar listelenemedi")
		}

		resp := make([]EmployeeResponse, 0, len(employees))
		for _, emp := range employees {
			resp = append(resp, EmployeeResponse{ID: emp.ID, Name: emp.Name, Active: emp.Active})
		}

		return c.JSON(resp)
	}
}

// PUT /api/employees/:id
func UpdateEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var emp models.Employee
		if err := database.DB.First(&emp, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Çalışan bulunamadı")
		}

		var body UpdateEmployeeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := emp

		updated := false
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			emp.Name = name
			updated = true
		}
		if body.Active != nil {
			emp.Active = *body.Active
			updated = true
		}

		if updated {
			if err := database.DB.Save(&emp).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Çalışan güncellenemedi")
			}

			if userID, userName, err := getUserInfo(c); err == nil {
				if logErr := audit.WriteLog(audit.LogOptions{
					UserID:      userID,
					UserName:    userName,
					EntityType:  "employee",
					EntityID:    emp.ID,
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Çalışan güncellendi: %s", emp.Name),
					Before:      before,
					After:       emp,
				}); logErr != nil {
					fmt.Printf("Audit log yazılamadı: %v\n", logErr)
				}
			}
		}

		return c.JSON(EmployeeResponse{ID: emp.ID, Name: emp.Name, Active: emp.Active})
	}
}

// DELETE /api/employees/:id
func DeleteEmployeeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var emp models.Employee
		if err := database.DB.First(&emp, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Çalışan bulunamadı")
		}

		// Fişi olan çalışan silinmez, pasife çekilir
		var receiptCount int64
		database.DB.Model(&models.Receipt{}).Where("employee_id = ?", emp.ID).Count(&receiptCount)
		if receiptCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Fiş kaydı olan çalışan silinemez, pasife çekin")
		}

		if err := database.DB.Delete(&emp).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Çalışan silinemedi")
		}

		if userID, userName, err := getUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "employee",
				EntityID:    emp.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Çalışan silindi: %s", emp.Name),
				Before:      emp,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}
