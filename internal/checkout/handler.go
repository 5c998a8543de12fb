package checkout

import (
	"errors"
	"fmt"
	"time"

	"kafe-backend/internal/audit"
	"kafe-backend/internal/auth"
	"kafe-backend/internal/database"
	"kafe-backend/internal/employee"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// -------------------------
// Request/Response Types
// -------------------------

// Kasa sözleşmesi camelCase kullanır (POS istemcisiyle paylaşılan format).

type CheckoutCustomer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

type CheckoutRequestItem struct {
	ItemID uint            `json:"itemId"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

type CheckoutRequest struct {
	Customer   CheckoutCustomer      `json:"customer"`
	TipPercent decimal.Decimal       `json:"tipPercent"` // opsiyonel, varsayılan 0
	EmployeeID uint                  `json:"employeeId"` // opsiyonel; boşsa aktif çalışanlardan rastgele seçilir
	Items      []CheckoutRequestItem `json:"items"`
}

type CheckoutResponse struct {
	Success       bool            `json:"success"`
	ReceiptID     uint            `json:"receiptId"`
	Reference     string          `json:"reference"`
	OrderIDs      []uint          `json:"orderIds"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	TipAmount     decimal.Decimal `json:"tipAmount"`
	RewardApplied bool            `json:"rewardApplied"`
	RewardType    *string         `json:"rewardType"`
	OrderTime     int             `json:"orderTime"`
}

// POST /api/checkout
func CheckoutHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CheckoutRequest
		if err := c.BodyParser(&body); err != nil {
			return respondError(c, fiber.StatusBadRequest, "Geçersiz istek gövdesi")
		}

		// Çalışan ataması: istekte verilmemişse rastgele aktif çalışan
		employeeID := body.EmployeeID
		if employeeID == 0 {
			emp, err := employee.PickRandomActive(database.DB)
			if err != nil {
				return respondError(c, fiber.StatusInternalServerError, "Aktif çalışan bulunamadı")
			}
			employeeID = emp.ID
		}

		items := make([]CheckoutItem, 0, len(body.Items))
		for _, it := range body.Items {
			items = append(items, CheckoutItem{ItemID: it.ItemID, Name: it.Name, Price: it.Price})
		}

		result, err := Process(database.DB, time.Now(), CheckoutInput{
			FirstName:  body.Customer.FirstName,
			LastName:   body.Customer.LastName,
			Phone:      body.Customer.Phone,
			TipPercent: body.TipPercent,
			EmployeeID: employeeID,
			Items:      items,
		})
		if err != nil {
			return respondError(c, statusFor(err), err.Error())
		}

		// Audit log yaz
		if userID, userName, uerr := currentUser(c); uerr == nil {
			after := map[string]interface{}{
				"receipt_id":  result.ReceiptID,
				"reference":   result.Reference,
				"customer_id": result.CustomerID,
				"subtotal":    result.Subtotal,
				"discount":    result.Discount,
				"total":       result.Total,
			}
			if logErr := audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  "receipt",
				EntityID:    result.ReceiptID,
				Action:      models.AuditActionCreate,
				Description: fmt.Sprintf("Fiş kesildi: %s TL, müşteri #%d", result.Total.StringFixed(2), result.CustomerID),
				Before:      nil,
				After:       after,
			}); logErr != nil {
				fmt.Printf("Audit log yazılamadı: %v\n", logErr)
			}
		}

		var rewardType *string
		if result.RewardType != models.RewardNone {
			s := string(result.RewardType)
			rewardType = &s
		}

		return c.Status(fiber.StatusCreated).JSON(CheckoutResponse{
			Success:       true,
			ReceiptID:     result.ReceiptID,
			Reference:     result.Reference,
			OrderIDs:      result.OrderLineIDs,
			Subtotal:      result.Subtotal,
			Discount:      result.Discount,
			Total:         result.Total,
			TipAmount:     result.TipAmount,
			RewardApplied: result.RewardApplied,
			RewardType:    rewardType,
			OrderTime:     result.OrderTime,
		})
	}
}

// statusFor: hata sınıfı → HTTP durum kodu
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidPhone), errors.Is(err, ErrNotFound):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// Kasa cevapları her zaman {success, ...} şeklinde; fiber.NewError yerine
// sözleşmenin hata gövdesi dönülür.
func respondError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"error":   msg,
	})
}

func currentUser(c *fiber.Ctx) (uint, string, error) {
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
