package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Ingredient struct {
	ID   uint   `gorm:"primaryKey;autoIncrement"`
	Name string `gorm:"size:100;not null;unique"`
	// Stok miktarı hiçbir zaman negatife düşmez; düşümler sıfırda kelepçelenir.
	Quantity  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Unit      string          `gorm:"size:20;not null"` // ml, gr, adet vs.
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (Ingredient) TableName() string { return "ingredient" }
