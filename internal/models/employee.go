package models

import "time"

type Employee struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Name      string `gorm:"size:100;not null"`
	Active    bool   `gorm:"not null;default:true"` // pasif çalışanlara fiş atanmaz
	CreatedAt time.Time
	UpdatedAt time.Time
}
