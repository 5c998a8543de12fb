package checkout

import (
	"testing"

	"kafe-backend/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const (
	drinkID   = uint(1)
	toppingID = uint(2)
)

func isToppingStub(itemID uint) bool { return itemID == toppingID }

func drink(price float64) CheckoutItem {
	return CheckoutItem{ItemID: drinkID, Name: "Latte", Price: decimal.NewFromFloat(price)}
}

func topping(price float64) CheckoutItem {
	return CheckoutItem{ItemID: toppingID, Name: "Ekstra shot", Price: decimal.NewFromFloat(price)}
}

func TestEvaluateRewardSingleDrinkFree(t *testing.T) {
	// 10. sipariş, tek içecek: sipariş komple bedava (topping dahil)
	items := []CheckoutItem{drink(45), topping(8)}

	r := EvaluateReward(10, items, isToppingStub)

	assert.True(t, r.Applied)
	assert.Equal(t, models.RewardSingleDrinkFree, r.Type)
	assert.True(t, r.Discount.Equal(decimal.NewFromInt(53)), "discount = %s", r.Discount)
}

func TestEvaluateRewardMultiDrink20Pct(t *testing.T) {
	// 10. sipariş, iki içecek: ara toplamın %20'si
	items := []CheckoutItem{drink(45), drink(38.50), topping(8)}

	r := EvaluateReward(20, items, isToppingStub)

	assert.True(t, r.Applied)
	assert.Equal(t, models.RewardMultiDrink20Pct, r.Type)
	// (45 + 38.50 + 8) * 0.20 = 18.30
	assert.True(t, r.Discount.Equal(decimal.NewFromFloat(18.30)), "discount = %s", r.Discount)
}

func TestEvaluateRewardOffMilestone(t *testing.T) {
	items := []CheckoutItem{drink(45)}

	for _, count := range []int{1, 9, 11, 19, 25} {
		r := EvaluateReward(count, items, isToppingStub)
		assert.False(t, r.Applied, "orderCount=%d", count)
		assert.Equal(t, models.RewardNone, r.Type)
		assert.True(t, r.Discount.IsZero())
	}
}

func TestEvaluateRewardToppingsOnly(t *testing.T) {
	// Dejenere durum: sepette hiç içecek yok
	items := []CheckoutItem{topping(8), topping(8)}

	r := EvaluateReward(10, items, isToppingStub)

	assert.False(t, r.Applied)
	assert.Equal(t, models.RewardNone, r.Type)
	assert.True(t, r.Discount.IsZero())
}

func TestEvaluateRewardZeroCount(t *testing.T) {
	items := []CheckoutItem{drink(45)}

	r := EvaluateReward(0, items, isToppingStub)

	assert.False(t, r.Applied)
	assert.Equal(t, models.RewardNone, r.Type)
}

func TestEvaluateRewardRounding(t *testing.T) {
	// 2 içecek, ara toplam 33.33 → %20 = 6.666 → 6.67
	items := []CheckoutItem{drink(16.67), drink(16.66)}

	r := EvaluateReward(10, items, isToppingStub)

	assert.True(t, r.Applied)
	assert.True(t, r.Discount.Equal(decimal.NewFromFloat(6.67)), "discount = %s", r.Discount)
}

func TestEvaluateRewardIsPure(t *testing.T) {
	items := []CheckoutItem{drink(45), topping(8)}

	first := EvaluateReward(10, items, isToppingStub)
	second := EvaluateReward(10, items, isToppingStub)

	assert.Equal(t, first, second)
	// Girdi dilimi değişmemiş olmalı
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(45)))
}
