package menu

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

type CreateMenuItemRequest struct {
	Name      string          `json:"name"`
	Category  string          `json:"category"` // "topping" rezerve kategori
	Price     decimal.Decimal `json:"price"`
	Available *bool           `json:"available"`
}

type UpdateMenuItemRequest struct {
	Name      *string          `json:"name"`
	Category  *string          `json:"category"`
	Price     *decimal.Decimal `json:"price"`
	Available *bool            `json:"available"`
}

type SetRecipeRequest struct {
	IngredientIDs []uint `json:"ingredient_ids"`
}

type MenuItemResponse struct {
	ID        uint            `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Available bool            `json:"available"`
	IsTopping bool            `json:"is_topping"`
}

func toResponse(m models.MenuItem) MenuItemResponse {
	return MenuItemResponse{
		ID:        m.ID,
		Name:      m.Name,
		Category:  m.Category,
		Price:     m.Price,
		Available: m.Available,
		IsTopping: m.IsTopping(),
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

// POST /api/menu-items
func CreateMenuItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateMenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		name := strings.TrimSpace(body.Name)
		category := strings.TrimSpace(body.Category)
		if name == "" || category == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name ve category boş olamaz")
		}
		if body.Price.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "price negatif olamaz")
		}

		available := true
		if body.Available != nil {
			available = *body.Available
		}

		item := models.MenuItem{
			Name:      name,
			Category:  category,
			Price:     body.Price,
			Available: available,
		}
		if err := database.DB.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün kaydedilemedi")
		}

		// Audit log yaz
		if userID, userName, err := getUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "menu_item",
				EntityID:    item.ID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Ürün eklendi: %s (%s)", item.Name, item.Category),
				Before:      nil,
				After:       item,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(item))
	}
}

// GET /api/menu-items?category=...&available=true
func ListMenuItemsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.MenuItem{})

		if category := c.Query("category"); category != "" {
			dbq = dbq.Where("LOWER(category) = LOWER(?)", category)
		}
		if availableStr := c.Query("available"); availableStr != "" {
			dbq = dbq.Where("available = ?", availableStr == "true")
		}

		var items []models.MenuItem
		if err := dbq.Order("category asc, name asc").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürünler listelenemedi")
		}

		resp := make([]MenuItemResponse, 0, len(items))
		for _, item := range items {
			resp = append(resp, toResponse(item))
		}

		return c.JSON(resp)
	}
}

// PUT /api/menu-items/:id
func UpdateMenuItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var item models.MenuItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var body UpdateMenuItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		before := item

		updated := false
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "name boş olamaz")
			}
			item.Name = name
			updated = true
		}
		if body.Category != nil {
			category := strings.TrimSpace(*body.Category)
			if category == "" {
				return fiber.NewError(fiber.StatusBadRequest, "category boş olamaz")
			}
			item.Category = category
			updated = true
		}
		if body.Price != nil {
			if body.Price.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "price negatif olamaz")
			}
			item.Price = *body.Price
			updated = true
		}
		if body.Available != nil {
			item.Available = *body.Available
			updated = true
		}

		if updated {
			if err := database.DB.Save(&item).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Ürün güncellenemedi")
			}

			if userID, userName, err := getUserInfo(c); err == nil {
				if logErr := audit.WriteLog(audit.LogOptions{
					UserID:      userID,
					UserName:    userName,
					EntityType:  "menu_item",
					EntityID:    item.ID,
					Action:      models.AuditActionUpdate,
					Description: fmt.Sprintf("Ürün güncellendi: %s", item.Name),
					Before:      before,
					After:       item,
				}); logErr != nil {
					fmt.Printf("Audit log yazılamadı: %v\n", logErr)
				}
			}
		}

		return c.JSON(toResponse(item))
	}
}

// DELETE /api/menu-items/:id
func DeleteMenuItemHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var item models.MenuItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		// Satış kaydı olan ürün silinmez, menüden kaldırılır (available=false)
		var lineCount int64
		database.DB.Model(&models.OrderLine{}).Where("item_id = ?", item.ID).Count(&lineCount)
		if lineCount > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Satış kaydı olan ürün silinemez, available=false yapın")
		}

		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("item_id = ?", item.ID).Delete(&models.Recipe{}).Error; err != nil {
				return err
			}
			return tx.Delete(&item).Error
		}); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ürün silinemedi")
		}

		if userID, userName, err := getUserInfo(c); err == nil {
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "menu_item",
				EntityID:    item.ID,
				Action:      models.AuditActionDelete,
				Description: fmt.Sprintf("Ürün silindi: %s", item.Name),
				Before:      item,
				After:       nil,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PUT /api/menu-items/:id/recipe
// Ürünün reçetesini komple değiştirir (eski satırlar silinir, yenileri yazılır).
func SetRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var item models.MenuItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		if item.IsTopping() {
			return fiber.NewError(fiber.StatusBadRequest, "Topping'lere reçete tanımlanamaz")
		}

		var body SetRecipeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Geçersiz veri")
		}

		// Tüm malzemeler mevcut olmalı
		if len(body.IngredientIDs) > 0 {
			var count int64
			database.DB.Model(&models.Ingredient{}).Where("id IN ?", body.IngredientIDs).Count(&count)
			if count != int64(len(body.IngredientIDs)) {
				return fiber.NewError(fiber.StatusBadRequest, "Listedeki bazı malzemeler bulunamadı")
			}
		}

		if err := database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("item_id = ?", item.ID).Delete(&models.Recipe{}).Error; err != nil {
				return err
			}
			for _, ingredientID := range body.IngredientIDs {
				if err := tx.Create(&models.Recipe{ItemID: item.ID, IngredientID: ingredientID}).Error; err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete kaydedilemedi")
		}

		return c.JSON(fiber.Map{
			"item_id":        item.ID,
			"ingredient_ids": body.IngredientIDs,
		})
	}
}

// GET /api/menu-items/:id/recipe
func GetRecipeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var item models.MenuItem
		if err := database.DB.First(&item, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Ürün bulunamadı")
		}

		var ingredientIDs []uint
		if err := database.DB.Model(&models.Recipe{}).
			Where("item_id = ?", item.ID).
			Pluck("ingredient_id", &ingredientIDs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Reçete okunamadı")
		}

		var ingredients []models.Ingredient
		if len(ingredientIDs) > 0 {
			if err := database.DB.Where("id IN ?", ingredientIDs).Order("name asc").Find(&ingredients).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Malzemeler okunamadı")
			}
		}

		type recipeIngredient struct {
			ID   uint   `json:"id"`
			Name string `json:"name"`
			Unit string `json:"unit"`
		}
		resp := make([]recipeIngredient, 0, len(ingredients))
		for _, ing := range ingredients {
			resp = append(resp, recipeIngredient{ID: ing.ID, Name: ing.Name, Unit: ing.Unit})
		}

		return c.JSON(fiber.Map{
			"item_id":     item.ID,
			"ingredients": resp,
		})
	}
}
