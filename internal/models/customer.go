package models

import "time"

type Customer struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	FirstName string `gorm:"size:100;not null"`
	LastName  string `gorm:"size:100;not null"`
	Phone     string `gorm:"size:10;uniqueIndex;not null"` // 10 haneli kanonik form (sadece rakam)
	// Kaçıncı siparişinde olduğu. İlk ziyarette 0, her tekrar ziyarette +1.
	// Her 10. sipariş ödül kontrolünü tetikler.
	OrderCount int `gorm:"not null;default:0"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Customer) TableName() string { return "customer" }
