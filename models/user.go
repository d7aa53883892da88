package models

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

type User struct {
	gorm.Model
	Name         string     `json:"name"`
	Email        string     `gorm:"unique;not null" json:"email"`
	PhoneNumber  string     `gorm:"index" json:"phone_number"`
	Password     string     `json:"-"` // empty for OTP/Google-only accounts
	Role         string     `gorm:"not null;default:user" json:"role"`
	GoogleID     string     `gorm:"index" json:"-"`
	Verified     bool       `gorm:"default:false" json:"verified"`
	AvatarURL    string     `json:"avatar_url"`
	RefreshToken string     `json:"-"`
	PushToken    string     `gorm:"column:push_token" json:"-"`
	LastLogoutAt *time.Time `gorm:"column:last_logout_at" json:"-"`
}
