package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"kafe-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Çakışan (kilit/serialization) işlemler en fazla bu kadar yeniden denenir.
const maxConflictRetries = 3

type CheckoutItem struct {
	ItemID uint
	Name   string
	Price  decimal.Decimal
}

type CheckoutInput struct {
	FirstName  string
	LastName   string
	Phone      string
	TipPercent decimal.Decimal
	EmployeeID uint
	Items      []CheckoutItem
}

type CheckoutResult struct {
	ReceiptID     uint
	Reference     string
	OrderLineIDs  []uint
	CustomerID    uint
	NewCustomer   bool
	OrderCount    int
	Subtotal      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	TipAmount     decimal.Decimal
	RewardApplied bool
	RewardType    models.RewardType
	OrderTime     int
}

// Process: tek kasa işlemini tek transaction olarak işler.
//
// Akış: doğrulama (transaction dışı) → müşteri çözümleme (satır kilidiyle) →
// ödül hesabı → fiş yazımı → sipariş satırları + topping bağları + stok düşümü
// → commit. Herhangi bir adım hata verirse her şey geri alınır; kısmi kayıt
// asla görünür olmaz. Çakışma hataları sınırlı sayıda baştan denenir.
func Process(db *gorm.DB, now time.Time, in CheckoutInput) (*CheckoutResult, error) {
	phone, err := validate(&in)
	if err != nil {
		return nil, err
	}

	var res *CheckoutResult
	var lastErr error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		res, lastErr = runOnce(db, now, phone, &in)
		if !isConflict(lastErr) {
			break
		}
	}

	switch {
	case lastErr == nil:
		return res, nil
	case isConflict(lastErr):
		return nil, fmt.Errorf("%w: %v", ErrConflict, lastErr)
	case errors.Is(lastErr, ErrNotFound),
		errors.Is(lastErr, ErrValidation),
		errors.Is(lastErr, ErrInvalidPhone):
		return nil, lastErr
	default:
		return nil, fmt.Errorf("%w: %v", ErrStore, lastErr)
	}
}

// validate: transaction açılmadan ucuz red. Telefon, isimler ve sepet dolu
// olmalı; her kalem pozitif bir ürün id'si ve negatif olmayan fiyat taşımalı.
func validate(in *CheckoutInput) (Phone, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if strings.TrimSpace(in.Phone) == "" {
		return Phone{}, fmt.Errorf("%w: telefon zorunlu", ErrValidation)
	}
	if in.FirstName == "" || in.LastName == "" {
		return Phone{}, fmt.Errorf("%w: isim ve soyisim zorunlu", ErrValidation)
	}
	if len(in.Items) == 0 {
		return Phone{}, fmt.Errorf("%w: sepet boş olamaz", ErrValidation)
	}
	for _, it := range in.Items {
		if it.ItemID == 0 {
			return Phone{}, fmt.Errorf("%w: geçersiz ürün id", ErrValidation)
		}
		if it.Price.IsNegative() {
			return Phone{}, fmt.Errorf("%w: fiyat negatif olamaz", ErrValidation)
		}
	}
	if in.TipPercent.IsNegative() {
		return Phone{}, fmt.Errorf("%w: bahşiş yüzdesi negatif olamaz", ErrValidation)
	}
	if in.EmployeeID == 0 {
		return Phone{}, fmt.Errorf("%w: çalışan zorunlu", ErrValidation)
	}

	return NormalizePhone(in.Phone)
}

func runOnce(db *gorm.DB, now time.Time, phone Phone, in *CheckoutInput) (*CheckoutResult, error) {
	var out CheckoutResult

	err := db.Transaction(func(tx *gorm.DB) error {
		cust, isNew, err := resolveCustomer(tx, phone, in.FirstName, in.LastName)
		if err != nil {
			return err
		}

		// Sepetteki ürünlerin menü kayıtları: topping/içecek sınıflandırması
		// tüm geçiş boyunca bu küme üzerinden yapılır.
		itemIDs := make([]uint, 0, len(in.Items))
		for _, it := range in.Items {
			itemIDs = append(itemIDs, it.ItemID)
		}
		var menuRows []models.MenuItem
		if err := tx.Where("id IN ?", itemIDs).Find(&menuRows).Error; err != nil {
			return err
		}
		menu := make(map[uint]models.MenuItem, len(menuRows))
		for _, m := range menuRows {
			menu[m.ID] = m
		}
		isTopping := func(itemID uint) bool {
			m, ok := menu[itemID]
			return ok && m.IsTopping()
		}

		subtotal := decimal.Zero
		for _, it := range in.Items {
			subtotal = subtotal.Add(it.Price)
		}

		// İlk ziyaret ödül tetikleyemez: sayaç 0'dan başlar ve ödül dalı
		// sadece eşleşen müşteri için çalışır.
		reward := Reward{Type: models.RewardNone, Discount: decimal.Zero}
		if !isNew {
			reward = EvaluateReward(cust.OrderCount, in.Items, isTopping)
		}
		if reward.Discount.GreaterThan(subtotal) {
			reward.Discount = subtotal
		}

		total := subtotal.Sub(reward.Discount)
		tip := total.Mul(in.TipPercent).Div(decimal.NewFromInt(100)).Round(2)

		receipt := models.Receipt{
			Reference:      uuid.NewString(),
			EmployeeID:     in.EmployeeID,
			CustomerID:     cust.ID,
			OrderDate:      now,
			OrderTime:      hourBucket(now),
			Tip:            tip,
			DiscountAmount: reward.Discount,
			RewardApplied:  reward.Applied,
			RewardType:     reward.Type,
		}
		if err := tx.Create(&receipt).Error; err != nil {
			return err
		}

		lineIDs, err := commitItems(tx, receipt.ID, in.Items, menu)
		if err != nil {
			return err
		}

		out = CheckoutResult{
			ReceiptID:     receipt.ID,
			Reference:     receipt.Reference,
			OrderLineIDs:  lineIDs,
			CustomerID:    cust.ID,
			NewCustomer:   isNew,
			OrderCount:    cust.OrderCount,
			Subtotal:      subtotal,
			Discount:      reward.Discount,
			Total:         total,
			TipAmount:     tip,
			RewardApplied: reward.Applied,
			RewardType:    reward.Type,
			OrderTime:     receipt.OrderTime,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// resolveCustomer: kanonik telefona göre bul-veya-oluştur. Mevcut müşteride
// sayaç artışı, aynı telefondan eşzamanlı iki kasanın aynı değeri okumaması
// için satır kilidi altında yapılır.
func resolveCustomer(tx *gorm.DB, phone Phone, firstName, lastName string) (*models.Customer, bool, error) {
	q := tx.Where("phone = ?", phone.Digits)
	// SQLite FOR UPDATE desteklemez; orada yazma zaten serileşir
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var cust models.Customer
	err := q.First(&cust).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		cust = models.Customer{
			FirstName:  firstName,
			LastName:   lastName,
			Phone:      phone.Digits,
			OrderCount: 0,
		}
		if err := tx.Create(&cust).Error; err != nil {
			return nil, false, err
		}
		return &cust, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	cust.OrderCount++
	if err := tx.Model(&models.Customer{}).
		Where("id = ?", cust.ID).
		Update("order_count", cust.OrderCount).Error; err != nil {
		return nil, false, err
	}
	return &cust, false, nil
}

// commitItems: sepet üzerinden tek pozisyonel geçiş. İçecekler sipariş satırı
// açar ve reçetelerini tüketir; topping'ler aynı geçişte kendilerinden önce
// gelen son içeceğin satırına bağlanır. Önünde içecek olmayan topping yine
// faturalansın diye kendi satırını açar, bağ kurulmaz. Menüde olmayan ürün
// id'si işlemi iptal eder.
func commitItems(tx *gorm.DB, receiptID uint, items []CheckoutItem, menu map[uint]models.MenuItem) ([]uint, error) {
	lineIDs := make([]uint, 0, len(items))
	var lastDrinkLineID, lastDrinkItemID uint

	for _, it := range items {
		m, ok := menu[it.ItemID]
		if !ok {
			return nil, fmt.Errorf("%w: ürün id %d menüde yok", ErrNotFound, it.ItemID)
		}

		if m.IsTopping() && lastDrinkLineID != 0 {
			link := models.ToppingLink{
				OrderLineID:   lastDrinkLineID,
				ItemID:        lastDrinkItemID,
				ToppingItemID: m.ID,
			}
			if err := tx.Create(&link).Error; err != nil {
				return nil, err
			}
			continue
		}

		line := models.OrderLine{ReceiptID: receiptID, ItemID: m.ID}
		if err := tx.Create(&line).Error; err != nil {
			return nil, err
		}
		lineIDs = append(lineIDs, line.ID)

		if !m.IsTopping() {
			lastDrinkLineID, lastDrinkItemID = line.ID, m.ID
			if err := consumeRecipe(tx, m.ID); err != nil {
				return nil, err
			}
		}
	}

	return lineIDs, nil
}

// consumeRecipe: içeceğin reçetesindeki her malzemeden 1 birim düşer.
// Düşüm tek UPDATE içinde sıfırda kelepçelenir; read-modify-write yarışı yok.
func consumeRecipe(tx *gorm.DB, itemID uint) error {
	var ingredientIDs []uint
	if err := tx.Model(&models.Recipe{}).
		Where("item_id = ?", itemID).
		Pluck("ingredient_id", &ingredientIDs).Error; err != nil {
		return err
	}
	if len(ingredientIDs) == 0 {
		return nil
	}

	return tx.Model(&models.Ingredient{}).
		Where("id IN ?", ingredientIDs).
		Update("quantity", gorm.Expr("CASE WHEN quantity > 1 THEN quantity - 1 ELSE 0 END")).Error
}

// hourBucket: 11-23 arası saat kovası
func hourBucket(t time.Time) int {
	return (t.Hour() % 13) + 11
}

func isConflict(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 40001") || // serialization_failure
		strings.Contains(msg, "SQLSTATE 40P01") || // deadlock_detected
		strings.Contains(msg, "deadlock detected")
}
