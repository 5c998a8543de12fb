package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// "topping" kategorisi rezervedir: bu kategorideki ürünler içeceklere eklenir,
// kendi başlarına satılırlarsa ayrı sipariş satırı açılır.
const CategoryTopping = "topping"

type MenuItem struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	Name      string          `gorm:"size:100;not null;unique"`
	Category  string          `gorm:"size:50;not null;index"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Available bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MenuItem) TableName() string { return "item" }

// IsTopping: kategori karşılaştırması büyük/küçük harf duyarsız
func (m MenuItem) IsTopping() bool {
	return strings.EqualFold(m.Category, CategoryTopping)
}

// Recipe: içecek başına tüketilen malzemeler (item ↔ ingredient).
// Satırlarda miktar yok; satılan her içecek, bağlı her malzemeden tam 1 birim düşer.
type Recipe struct {
	ItemID       uint `gorm:"primaryKey"`
	IngredientID uint `gorm:"primaryKey"`
}

func (Recipe) TableName() string { return "recipe" }
