package models

import "gorm.io/gorm"

type AgentProfile struct {
	gorm.Model
	UserID         uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	Agency         string `json:"agency"`
	Bio            string `gorm:"type:text" json:"bio"`
	LicenseNumber  string `json:"license_number"`
	WhatsAppNumber string `json:"whatsapp_number"`
	City           string `gorm:"index" json:"city"`
}
