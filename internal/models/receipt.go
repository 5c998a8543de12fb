package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RewardType string

const (
	RewardNone            RewardType = ""
	RewardSingleDrinkFree RewardType = "single-drink-free"
	RewardMultiDrink20Pct RewardType = "multi-drink-20pct"
)

// Receipt: bir kasa işleminin tek ve değişmez kaydı.
type Receipt struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	Reference  string `gorm:"size:36;uniqueIndex;not null"` // fiş üzerine basılan harici referans (uuid)
	EmployeeID uint   `gorm:"index;not null"`
	Employee   Employee
	CustomerID uint `gorm:"index;not null"`
	Customer   Customer
	OrderDate  time.Time `gorm:"index;not null"`
	// 11-23 arası saat kovası: (saat mod 13) + 11
	OrderTime      int             `gorm:"not null"`
	Tip            decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	RewardApplied  bool            `gorm:"not null;default:false"`
	RewardType     RewardType      `gorm:"size:30;not null;default:''"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Receipt) TableName() string { return "receipt" }

// OrderLine: fiş içindeki tek bir satılan kalem. İçeceğe eklenen topping'ler
// satır açmaz, ToppingLink üzerinden içeceğin satırına bağlanır.
type OrderLine struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	ReceiptID uint      `gorm:"index;not null"`
	ItemID    uint      `gorm:"index;not null"`
	Item      MenuItem  `gorm:"foreignKey:ItemID"`
	CreatedAt time.Time
}

func (OrderLine) TableName() string { return "orders" }

// ToppingLink: bir topping'in, aynı siparişte kendinden önce gelen içeceğin
// sipariş satırına bağlanması. ItemID içeceğin ürün id'sidir (satırda da var,
// rapor sorguları join'siz okusun diye tekrarlanır).
type ToppingLink struct {
	ID            uint `gorm:"primaryKey;autoIncrement"`
	OrderLineID   uint `gorm:"index;not null"`
	ItemID        uint `gorm:"not null"`
	ToppingItemID uint `gorm:"index;not null"`
	CreatedAt     time.Time
}

func (ToppingLink) TableName() string { return "toppingstodrinks" }
