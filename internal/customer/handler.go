package customer

import (
	"time"

	"kafe-backend/internal/checkout"
	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// -------------------------
// Response Types
// -------------------------

type CustomerResponse struct {
	ID         uint   `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`     // kanonik 10 hane
	Formatted  string `json:"formatted"` // ddd-ddd-dddd
	OrderCount int    `json:"order_count"`
	CreatedAt  string `json:"created_at"`
}

type ReceiptSummaryResponse struct {
	ID             uint            `json:"id"`
	Reference      string          `json:"reference"`
	OrderDate      string          `json:"order_date"`
	OrderTime      int             `json:"order_time"`
	Tip            decimal.Decimal `json:"tip"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	RewardApplied  bool            `json:"reward_applied"`
	RewardType     string          `json:"reward_type"`
	ItemCount      int             `json:"item_count"`
}

func toResponse(cust models.Customer) CustomerResponse {
	formatted := ""
	if p, err := checkout.NormalizePhone(cust.Phone); err == nil {
		formatted = p.Formatted
	}
	return CustomerResponse{
		ID:         cust.ID,
		FirstName:  cust.FirstName,
		LastName:   cust.LastName,
		Phone:      cust.Phone,
		Formatted:  formatted,
		OrderCount: cust.OrderCount,
		CreatedAt:  cust.CreatedAt.Format(time.RFC3339),
	}
}

// GET /api/customers
func ListCustomersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var customers []models.Customer
		if err := database.DB.Order("last_name asc, first_name asc").Find(&customers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Müşteriler listelenemedi")
		}

		resp := make([]CustomerResponse, 0, len(customers))
		for _, cust := range customers {
			resp = append(resp, toResponse(cust))
		}

		return c.JSON(resp)
	}
}

// GET /api/customers/by-phone?phone=...
// Telefon önce kanonik forma çevrilir; kasadaki aramayla aynı eşleşme kuralı.
func GetCustomerByPhoneHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("phone")
		if raw == "" {
			return fiber.NewError(fiber.StatusBadRequest, "phone zorunlu")
		}

		phone, err := checkout.NormalizePhone(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Telefon 10 haneye çevrilemedi")
		}

		var cust models.Customer
		if err := database.DB.Where("phone = ?", phone.Digits).First(&cust).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		return c.JSON(toResponse(cust))
	}
}

// GET /api/customers/:id/receipts
func ListCustomerReceiptsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		var cust models.Customer
		if err := database.DB.First(&cust, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Müşteri bulunamadı")
		}

		var receipts []models.Receipt
		if err := database.DB.Where("customer_id = ?", cust.ID).
			Order("order_date desc, id desc").
			Find(&receipts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fişler listelenemedi")
		}

		receiptIDs := make([]uint, 0, len(receipts))
		for _, r := range receipts {
			receiptIDs = append(receiptIDs, r.ID)
		}

		// Fiş başına satır sayısı
		lineCounts := make(map[uint]int)
		if len(receiptIDs) > 0 {
			var lines []models.OrderLine
			if err := database.DB.Where("receipt_id IN ?", receiptIDs).Find(&lines).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "Sipariş satırları okunamadı")
			}
			for _, line := range lines {
				lineCounts[line.ReceiptID]++
			}
		}

		resp := make([]ReceiptSummaryResponse, 0, len(receipts))
		for _, r := range receipts {
			resp = append(resp, ReceiptSummaryResponse{
				ID:             r.ID,
				Reference:      r.Reference,
				OrderDate:      r.OrderDate.Format("2006-01-02"),
				OrderTime:      r.OrderTime,
				Tip:            r.Tip,
				DiscountAmount: r.DiscountAmount,
				RewardApplied:  r.RewardApplied,
				RewardType:     string(r.RewardType),
				ItemCount:      lineCounts[r.ID],
			})
		}

		return c.JSON(resp)
	}
}
