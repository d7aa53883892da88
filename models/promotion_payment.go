package models

import "gorm.io/gorm"

type PromotionPayment struct {
	gorm.Model
	PaymentIntentID string `gorm:"unique;not null"`
	PropertyID      uint   `gorm:"index;not null"`
	UserID          uint   `gorm:"not null"`
	Amount          int64  `gorm:"not null"` // smallest currency unit
	Currency        string `gorm:"not null"`
	Status          string `gorm:"not null"` // e.g., "Pending", "Succeeded", "Failed"
}
