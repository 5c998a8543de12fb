package checkout

import (
	"testing"
	"time"

	"kafe-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	// :memory: veritabanı bağlantıya bağlı, tek bağlantıda kalmalı
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Employee{},
		&models.Customer{},
		&models.MenuItem{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.Receipt{},
		&models.OrderLine{},
		&models.ToppingLink{},
		&models.AuditLog{},
	))

	return db
}

type fixture struct {
	db  *gorm.DB
	emp models.Employee

	drinkA, drinkB     models.MenuItem
	topX, topY, topZ   models.MenuItem
	milk, syrup, pearl models.Ingredient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{db: newTestDB(t)}

	f.emp = models.Employee{Name: "Mehmet", Active: true}
	require.NoError(t, f.db.Create(&f.emp).Error)

	f.drinkA = models.MenuItem{Name: "Latte", Category: "coffee", Price: decimal.NewFromInt(45), Available: true}
	f.drinkB = models.MenuItem{Name: "Bubble Tea", Category: "tea", Price: decimal.NewFromFloat(38.50), Available: true}
	f.topX = models.MenuItem{Name: "Ekstra Shot", Category: "Topping", Price: decimal.NewFromInt(8), Available: true}
	f.topY = models.MenuItem{Name: "Karamel", Category: "topping", Price: decimal.NewFromInt(5), Available: true}
	f.topZ = models.MenuItem{Name: "Tapyoka", Category: "TOPPING", Price: decimal.NewFromInt(6), Available: true}
	for _, m := range []*models.MenuItem{&f.drinkA, &f.drinkB, &f.topX, &f.topY, &f.topZ} {
		require.NoError(t, f.db.Create(m).Error)
	}

	f.milk = models.Ingredient{Name: "Süt", Quantity: decimal.NewFromInt(10), Unit: "ml"}
	f.syrup = models.Ingredient{Name: "Şurup", Quantity: decimal.NewFromInt(5), Unit: "ml"}
	f.pearl = models.Ingredient{Name: "İnci", Quantity: decimal.NewFromInt(7), Unit: "gr"}
	for _, ing := range []*models.Ingredient{&f.milk, &f.syrup, &f.pearl} {
		require.NoError(t, f.db.Create(ing).Error)
	}

	// Latte: süt + şurup; Bubble Tea: süt + inci
	for _, r := range []models.Recipe{
		{ItemID: f.drinkA.ID, IngredientID: f.milk.ID},
		{ItemID: f.drinkA.ID, IngredientID: f.syrup.ID},
		{ItemID: f.drinkB.ID, IngredientID: f.milk.ID},
		{ItemID: f.drinkB.ID, IngredientID: f.pearl.ID},
	} {
		require.NoError(t, f.db.Create(&r).Error)
	}

	return f
}

func (f *fixture) input(items ...CheckoutItem) CheckoutInput {
	return CheckoutInput{
		FirstName:  "Ayşe",
		LastName:   "Yılmaz",
		Phone:      "(532) 123 45 67",
		EmployeeID: f.emp.ID,
		Items:      items,
	}
}

func asItem(m models.MenuItem) CheckoutItem {
	return CheckoutItem{ItemID: m.ID, Name: m.Name, Price: m.Price}
}

func (f *fixture) seedCustomer(t *testing.T, orderCount int) models.Customer {
	t.Helper()
	cust := models.Customer{
		FirstName:  "Ayşe",
		LastName:   "Yılmaz",
		Phone:      "5321234567",
		OrderCount: orderCount,
	}
	require.NoError(t, f.db.Create(&cust).Error)
	return cust
}

func (f *fixture) ingredientQty(t *testing.T, id uint) decimal.Decimal {
	t.Helper()
	var ing models.Ingredient
	require.NoError(t, f.db.First(&ing, "id = ?", id).Error)
	return ing.Quantity
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

var noon = time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

func TestProcessFirstVisit(t *testing.T) {
	f := newFixture(t)

	res, err := Process(f.db, noon, f.input(asItem(f.drinkA)))
	require.NoError(t, err)

	assert.True(t, res.NewCustomer)
	assert.Equal(t, 0, res.OrderCount)
	assert.False(t, res.RewardApplied)
	assert.Equal(t, models.RewardNone, res.RewardType)
	assert.True(t, res.Subtotal.Equal(decimal.NewFromInt(45)))
	assert.True(t, res.Discount.IsZero())
	assert.True(t, res.Total.Equal(decimal.NewFromInt(45)))
	assert.Len(t, res.OrderLineIDs, 1)

	// Müşteri kanonik telefonla yazılmış olmalı
	var cust models.Customer
	require.NoError(t, f.db.First(&cust, "id = ?", res.CustomerID).Error)
	assert.Equal(t, "5321234567", cust.Phone)
	assert.Equal(t, 0, cust.OrderCount)

	// Reçete tüketimi: süt 10→9, şurup 5→4, inci dokunulmadı
	assert.True(t, f.ingredientQty(t, f.milk.ID).Equal(decimal.NewFromInt(9)))
	assert.True(t, f.ingredientQty(t, f.syrup.ID).Equal(decimal.NewFromInt(4)))
	assert.True(t, f.ingredientQty(t, f.pearl.ID).Equal(decimal.NewFromInt(7)))
}

func TestProcessToppingAttachment(t *testing.T) {
	f := newFixture(t)

	// [İçecekA, ToppingX, ToppingY, İçecekB, ToppingZ]
	res, err := Process(f.db, noon, f.input(
		asItem(f.drinkA), asItem(f.topX), asItem(f.topY), asItem(f.drinkB), asItem(f.topZ),
	))
	require.NoError(t, err)

	// Sadece içecekler satır açar
	require.Len(t, res.OrderLineIDs, 2)

	var lines []models.OrderLine
	require.NoError(t, f.db.Order("id asc").Find(&lines).Error)
	require.Len(t, lines, 2)
	assert.Equal(t, f.drinkA.ID, lines[0].ItemID)
	assert.Equal(t, f.drinkB.ID, lines[1].ItemID)

	var links []models.ToppingLink
	require.NoError(t, f.db.Order("id asc").Find(&links).Error)
	require.Len(t, links, 3)

	// X ve Y, A'nın satırına; Z, B'nin satırına
	assert.Equal(t, lines[0].ID, links[0].OrderLineID)
	assert.Equal(t, f.topX.ID, links[0].ToppingItemID)
	assert.Equal(t, f.drinkA.ID, links[0].ItemID)

	assert.Equal(t, lines[0].ID, links[1].OrderLineID)
	assert.Equal(t, f.topY.ID, links[1].ToppingItemID)

	assert.Equal(t, lines[1].ID, links[2].OrderLineID)
	assert.Equal(t, f.topZ.ID, links[2].ToppingItemID)
	assert.Equal(t, f.drinkB.ID, links[2].ItemID)

	// Topping'ler faturada: ara toplam 45 + 8 + 5 + 38.50 + 6
	assert.True(t, res.Subtotal.Equal(decimal.NewFromFloat(102.50)))
}

func TestProcessLeadingToppingBilledStandalone(t *testing.T) {
	f := newFixture(t)

	// Önünde içecek olmayan topping kendi satırını açar, bağ kurulmaz
	res, err := Process(f.db, noon, f.input(asItem(f.topX), asItem(f.drinkA)))
	require.NoError(t, err)

	require.Len(t, res.OrderLineIDs, 2)

	var lines []models.OrderLine
	require.NoError(t, f.db.Order("id asc").Find(&lines).Error)
	require.Len(t, lines, 2)
	assert.Equal(t, f.topX.ID, lines[0].ItemID)
	assert.Equal(t, f.drinkA.ID, lines[1].ItemID)

	assert.Equal(t, int64(0), f.count(t, &models.ToppingLink{}))

	// Topping satırı reçete tüketmez
	assert.True(t, f.ingredientQty(t, f.milk.ID).Equal(decimal.NewFromInt(9)))
}

func TestProcessStockClampedAtZero(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Model(&models.Ingredient{}).
		Where("id = ?", f.milk.ID).
		Update("quantity", decimal.NewFromFloat(0.5)).Error)

	// Aynı fişte iki Latte: süt 0.5 → 0 → 0, asla negatif değil
	_, err := Process(f.db, noon, f.input(asItem(f.drinkA), asItem(f.drinkA)))
	require.NoError(t, err)

	assert.True(t, f.ingredientQty(t, f.milk.ID).IsZero(), "süt = %s", f.ingredientQty(t, f.milk.ID))
	assert.True(t, f.ingredientQty(t, f.syrup.ID).Equal(decimal.NewFromInt(3)))
}

func TestProcessUnknownItemRollsBackEverything(t *testing.T) {
	f := newFixture(t)

	// Fiş yazıldıktan sonra bilinmeyen ürün: her şey geri alınmalı
	_, err := Process(f.db, noon, f.input(asItem(f.drinkA), CheckoutItem{ItemID: 999, Name: "Hayalet", Price: decimal.NewFromInt(10)}))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int64(0), f.count(t, &models.Receipt{}))
	assert.Equal(t, int64(0), f.count(t, &models.OrderLine{}))
	assert.Equal(t, int64(0), f.count(t, &models.ToppingLink{}))
	assert.Equal(t, int64(0), f.count(t, &models.Customer{}))

	// Stok da dokunulmamış olmalı
	assert.True(t, f.ingredientQty(t, f.milk.ID).Equal(decimal.NewFromInt(10)))
	assert.True(t, f.ingredientQty(t, f.syrup.ID).Equal(decimal.NewFromInt(5)))
}

func TestProcessRewardMilestoneSingleDrink(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 9)

	// 9→10 geçişi, tek içecek: sipariş komple bedava
	res, err := Process(f.db, noon, f.input(asItem(f.drinkA), asItem(f.topX)))
	require.NoError(t, err)

	assert.False(t, res.NewCustomer)
	assert.Equal(t, 10, res.OrderCount)
	assert.True(t, res.RewardApplied)
	assert.Equal(t, models.RewardSingleDrinkFree, res.RewardType)
	assert.True(t, res.Discount.Equal(decimal.NewFromInt(53)))
	assert.True(t, res.Total.IsZero())

	var receipt models.Receipt
	require.NoError(t, f.db.First(&receipt, "id = ?", res.ReceiptID).Error)
	assert.True(t, receipt.RewardApplied)
	assert.Equal(t, models.RewardSingleDrinkFree, receipt.RewardType)
	assert.True(t, receipt.DiscountAmount.Equal(decimal.NewFromInt(53)))
}

func TestProcessRewardMilestoneMultiDrink(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 9)

	res, err := Process(f.db, noon, f.input(asItem(f.drinkA), asItem(f.drinkB)))
	require.NoError(t, err)

	assert.Equal(t, 10, res.OrderCount)
	assert.True(t, res.RewardApplied)
	assert.Equal(t, models.RewardMultiDrink20Pct, res.RewardType)
	// (45 + 38.50) * 0.20 = 16.70
	assert.True(t, res.Discount.Equal(decimal.NewFromFloat(16.70)), "discount = %s", res.Discount)
	assert.True(t, res.Total.Equal(decimal.NewFromFloat(66.80)))
}

func TestProcessNoRewardOffMilestone(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 7)

	// 7→8 geçişi ödül tetiklemez
	res, err := Process(f.db, noon, f.input(asItem(f.drinkA)))
	require.NoError(t, err)

	assert.Equal(t, 8, res.OrderCount)
	assert.False(t, res.RewardApplied)
	assert.Equal(t, models.RewardNone, res.RewardType)
	assert.True(t, res.Discount.IsZero())
}

func TestProcessTipOnTotalAfterDiscount(t *testing.T) {
	f := newFixture(t)
	f.seedCustomer(t, 9)

	in := f.input(asItem(f.drinkA), asItem(f.drinkB))
	in.TipPercent = decimal.NewFromInt(15)

	res, err := Process(f.db, noon, in)
	require.NoError(t, err)

	// Bahşiş indirim sonrası tutardan: 66.80 * 0.15 = 10.02
	assert.True(t, res.TipAmount.Equal(decimal.NewFromFloat(10.02)), "tip = %s", res.TipAmount)

	var receipt models.Receipt
	require.NoError(t, f.db.First(&receipt, "id = ?", res.ReceiptID).Error)
	assert.True(t, receipt.Tip.Equal(decimal.NewFromFloat(10.02)))
}

func TestProcessSequentialVisitsIncrementCount(t *testing.T) {
	f := newFixture(t)

	first, err := Process(f.db, noon, f.input(asItem(f.drinkA)))
	require.NoError(t, err)
	assert.True(t, first.NewCustomer)
	assert.Equal(t, 0, first.OrderCount)

	second, err := Process(f.db, noon, f.input(asItem(f.drinkB)))
	require.NoError(t, err)
	assert.False(t, second.NewCustomer)
	assert.Equal(t, 1, second.OrderCount)
	assert.Equal(t, first.CustomerID, second.CustomerID)

	third, err := Process(f.db, noon, f.input(asItem(f.drinkA)))
	require.NoError(t, err)
	assert.Equal(t, 2, third.OrderCount)

	var cust models.Customer
	require.NoError(t, f.db.First(&cust, "id = ?", first.CustomerID).Error)
	assert.Equal(t, 2, cust.OrderCount)
	assert.Equal(t, int64(1), f.count(t, &models.Customer{}))
}

func TestProcessReceiptTimeBucket(t *testing.T) {
	f := newFixture(t)

	// Gece yarısından sonraki saatler de 11-23 aralığına katlanır
	late := time.Date(2026, 3, 14, 2, 0, 0, 0, time.UTC)
	res, err := Process(f.db, late, f.input(asItem(f.drinkA)))
	require.NoError(t, err)
	assert.Equal(t, 13, res.OrderTime) // (2 % 13) + 11

	var receipt models.Receipt
	require.NoError(t, f.db.First(&receipt, "id = ?", res.ReceiptID).Error)
	assert.Equal(t, 13, receipt.OrderTime)
	assert.GreaterOrEqual(t, receipt.OrderTime, 11)
	assert.LessOrEqual(t, receipt.OrderTime, 23)
}

func TestProcessValidationRejectsBeforeStore(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		mutate  func(*CheckoutInput)
		wantErr error
	}{
		{"empty phone", func(in *CheckoutInput) { in.Phone = "" }, ErrValidation},
		{"short phone", func(in *CheckoutInput) { in.Phone = "532" }, ErrInvalidPhone},
		{"empty first name", func(in *CheckoutInput) { in.FirstName = "  " }, ErrValidation},
		{"empty last name", func(in *CheckoutInput) { in.LastName = "" }, ErrValidation},
		{"empty items", func(in *CheckoutInput) { in.Items = nil }, ErrValidation},
		{"zero item id", func(in *CheckoutInput) { in.Items[0].ItemID = 0 }, ErrValidation},
		{"negative price", func(in *CheckoutInput) { in.Items[0].Price = decimal.NewFromInt(-1) }, ErrValidation},
		{"negative tip", func(in *CheckoutInput) { in.TipPercent = decimal.NewFromInt(-5) }, ErrValidation},
		{"missing employee", func(in *CheckoutInput) { in.EmployeeID = 0 }, ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := f.input(asItem(f.drinkA))
			tt.mutate(&in)

			_, err := Process(f.db, noon, in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Ucuz red: hiçbir satır yazılmamış olmalı
	assert.Equal(t, int64(0), f.count(t, &models.Receipt{}))
	assert.Equal(t, int64(0), f.count(t, &models.Customer{}))
}

func TestHourBucketRange(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		ts := time.Date(2026, 1, 1, hour, 0, 0, 0, time.UTC)
		bucket := hourBucket(ts)
		assert.GreaterOrEqual(t, bucket, 11)
		assert.LessOrEqual(t, bucket, 23)
	}
	assert.Equal(t, 11, hourBucket(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 23, hourBucket(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, 11, hourBucket(time.Date(2026, 1, 1, 13, 0, 0, 0, time.UTC)))
	assert.Equal(t, 21, hourBucket(time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC)))
}
