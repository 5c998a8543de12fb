package checkout

import (
	"kafe-backend/internal/models"

	"github.com/shopspring/decimal"
)

// Her 10. sipariş ödül kontrolünü tetikler.
const rewardMilestone = 10

var rewardMultiDrinkRate = decimal.NewFromFloat(0.20)

type Reward struct {
	Applied  bool
	Type     models.RewardType
	Discount decimal.Decimal
}

// EvaluateReward: saf fonksiyon, state değiştirmez.
//
// Sadece geri dönen müşteriler için çağrılır (ilk ziyaret ödül tetikleyemez;
// sayaç ancak ikinci ziyaretten itibaren artar). Güncellenmiş sipariş sayısı
// 10'un katı değilse ödül yok. Katıysa:
//   - sepette tek içecek varsa sipariş komple bedava (topping'ler dahil),
//   - birden fazla içecek varsa ara toplamın %20'si,
//   - hiç içecek yoksa (sadece topping, dejenere durum) ödül yok.
func EvaluateReward(orderCount int, items []CheckoutItem, isTopping func(itemID uint) bool) Reward {
	none := Reward{Type: models.RewardNone, Discount: decimal.Zero}

	if orderCount <= 0 || orderCount%rewardMilestone != 0 {
		return none
	}

	drinks := 0
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Price)
		if !isTopping(it.ItemID) {
			drinks++
		}
	}

	var rewardType models.RewardType
	var discount decimal.Decimal
	switch {
	case drinks == 0:
		return none
	case drinks == 1:
		// Tek içecekli sipariş komple bedava, üstündeki topping'ler dahil
		rewardType = models.RewardSingleDrinkFree
		discount = subtotal
	default:
		rewardType = models.RewardMultiDrink20Pct
		discount = subtotal.Mul(rewardMultiDrinkRate).Round(2)
	}

	if !discount.IsPositive() {
		return none
	}
	return Reward{Applied: true, Type: rewardType, Discount: discount}
}
