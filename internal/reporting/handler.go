package reporting

import (
	"time"

	"kafe-backend/internal/database"
	"kafe-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type HourlySalesResponse struct {
	Date    string       `json:"date"`
	Buckets []HourBucket `json:"buckets"`
}

type HourBucket struct {
	Hour         int             `json:"hour"` // 11-23
	ReceiptCount int             `json:"receipt_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	Tips         decimal.Decimal `json:"tips"`
	Discounts    decimal.Decimal `json:"discounts"`
}

type DailySalesResponse struct {
	StartDate string      `json:"start_date"`
	EndDate   string      `json:"end_date"`
	Days      []DailySale `json:"days"`
}

type DailySale struct {
	Date         string          `json:"date"`
	ReceiptCount int             `json:"receipt_count"`
	Revenue      decimal.Decimal `json:"revenue"`
	Tips         decimal.Decimal `json:"tips"`
	Discounts    decimal.Decimal `json:"discounts"`
}

// receiptTotals: fiş başına ciro (satırlar + topping bağları, indirim düşülmüş).
// Topping bağları ayrı sipariş satırı açmadığı için ciroya buradan eklenir.
func receiptTotals(receipts []models.Receipt) (map[uint]decimal.Decimal, error) {
	totals := make(map[uint]decimal.Decimal, len(receipts))
	if len(receipts) == 0 {
		return totals, nil
	}

	receiptIDs := make([]uint, 0, len(receipts))
	for _, r := range receipts {
		receiptIDs = append(receiptIDs, r.ID)
	}

	var lines []models.OrderLine
	if err := database.DB.Where("receipt_id IN ?", receiptIDs).Find(&lines).Error; err != nil {
		return nil, err
	}

	lineIDs := make([]uint, 0, len(lines))
	lineToReceipt := make(map[uint]uint, len(lines))
	for _, line := range lines {
		lineIDs = append(lineIDs, line.ID)
		lineToReceipt[line.ID] = line.ReceiptID
	}

	var links []models.ToppingLink
	if len(lineIDs) > 0 {
		if err := database.DB.Where("order_line_id IN ?", lineIDs).Find(&links).Error; err != nil {
			return nil, err
		}
	}

	// İlgili ürünlerin fiyatları
	itemIDSet := make(map[uint]bool)
	for _, line := range lines {
		itemIDSet[line.ItemID] = true
	}
	for _, link := range links {
		itemIDSet[link.ToppingItemID] = true
	}
	itemIDs := make([]uint, 0, len(itemIDSet))
	for id := range itemIDSet {
		itemIDs = append(itemIDs, id)
	}

	prices := make(map[uint]decimal.Decimal, len(itemIDs))
	if len(itemIDs) > 0 {
		var items []models.MenuItem
		if err := database.DB.Where("id IN ?", itemIDs).Find(&items).Error; err != nil {
			return nil, err
		}
		for _, item := range items {
			prices[item.ID] = item.Price
		}
	}

	for _, line := range lines {
		totals[line.ReceiptID] = totals[line.ReceiptID].Add(prices[line.ItemID])
	}
	for _, link := range links {
		receiptID := lineToReceipt[link.OrderLineID]
		totals[receiptID] = totals[receiptID].Add(prices[link.ToppingItemID])
	}
	for _, r := range receipts {
		totals[r.ID] = totals[r.ID].Sub(r.DiscountAmount)
	}

	return totals, nil
}

// GET /api/reports/sales/hourly?date=YYYY-MM-DD
// Günün fişleri 11-23 saat kovalarına dağıtılır.
func HourlySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dateStr := c.Query("date")
		if dateStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date zorunlu (YYYY-MM-DD)")
		}
		day, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "date geçersiz")
		}

		var receipts []models.Receipt
		if err := database.DB.Where("order_date >= ? AND order_date < ?", day, day.AddDate(0, 0, 1)).
			Find(&receipts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fişler okunamadı")
		}

		totals, err := receiptTotals(receipts)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ciro hesaplanamadı")
		}

		bucketMap := make(map[int]*HourBucket)
		for hour := 11; hour <= 23; hour++ {
			bucketMap[hour] = &HourBucket{
				Hour:      hour,
				Revenue:   decimal.Zero,
				Tips:      decimal.Zero,
				Discounts: decimal.Zero,
			}
		}

		for _, r := range receipts {
			bucket, ok := bucketMap[r.OrderTime]
			if !ok {
				continue
			}
			bucket.ReceiptCount++
			bucket.Revenue = bucket.Revenue.Add(totals[r.ID])
			bucket.Tips = bucket.Tips.Add(r.Tip)
			bucket.Discounts = bucket.Discounts.Add(r.DiscountAmount)
		}

		buckets := make([]HourBucket, 0, len(bucketMap))
		for hour := 11; hour <= 23; hour++ {
			buckets = append(buckets, *bucketMap[hour])
		}

		return c.JSON(HourlySalesResponse{
			Date:    dateStr,
			Buckets: buckets,
		})
	}
}

// GET /api/reports/sales/daily?from=YYYY-MM-DD&to=YYYY-MM-DD
func DailySalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fromStr := c.Query("from")
		toStr := c.Query("to")
		if fromStr == "" || toStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "from ve to tarihleri zorunlu (YYYY-MM-DD)")
		}

		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "from tarihi geçersiz")
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "to tarihi geçersiz")
		}
		if to.Before(from) {
			return fiber.NewError(fiber.StatusBadRequest, "to, from'dan önce olamaz")
		}

		var receipts []models.Receipt
		if err := database.DB.Where("order_date >= ? AND order_date < ?", from, to.AddDate(0, 0, 1)).
			Find(&receipts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Fişler okunamadı")
		}

		totals, err := receiptTotals(receipts)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Ciro hesaplanamadı")
		}

		// Aralıktaki her gün için boş satır oluştur
		dailyMap := make(map[string]*DailySale)
		for current := from; !current.After(to); current = current.AddDate(0, 0, 1) {
			dateStr := current.Format("2006-01-02")
			dailyMap[dateStr] = &DailySale{
				Date:      dateStr,
				Revenue:   decimal.Zero,
				Tips:      decimal.Zero,
				Discounts: decimal.Zero,
			}
		}

		for _, r := range receipts {
			dateStr := r.OrderDate.Format("2006-01-02")
			day, ok := dailyMap[dateStr]
			if !ok {
				continue
			}
			day.ReceiptCount++
			day.Revenue = day.Revenue.Add(totals[r.ID])
			day.Tips = day.Tips.Add(r.Tip)
			day.Discounts = day.Discounts.Add(r.DiscountAmount)
		}

		days := make([]DailySale, 0, len(dailyMap))
		for current := from; !current.After(to); current = current.AddDate(0, 0, 1) {
			days = append(days, *dailyMap[current.Format("2006-01-02")])
		}

		return c.JSON(DailySalesResponse{
			StartDate: fromStr,
			EndDate:   toStr,
			Days:      days,
		})
	}
}
