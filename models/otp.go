package models

import "time"

// OTP delivery channels
const (
	OTPChannelEmail    = "email"
	OTPChannelWhatsApp = "whatsapp"
)

type OTP struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time
	Channel   string `gorm:"not null"`
	Recipient string `gorm:"index;not null"`
	Code      string `gorm:"not null"`
	ExpiresAt time.Time
	Consumed  bool `gorm:"default:false"`
	Attempts  int  `gorm:"default:0"`
}
