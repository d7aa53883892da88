package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Property statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
	StatusExpired  = "expired"
)

// Listing lifetime granted on creation and on renewal.
const ListingLifetime = 90 * 24 * time.Hour

type Property struct {
	gorm.Model
	ReferenceNo   string         `gorm:"unique;not null" json:"reference_no"`
	AgentID       uint           `gorm:"index;not null" json:"agent_id"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"type:text" json:"description"`
	PropertyType  string         `gorm:"index" json:"property_type"` // house, apartment, land, commercial
	ListingType   string         `gorm:"index" json:"listing_type"`  // sale, rent
	Price         float64        `gorm:"not null" json:"price"`
	Currency      string         `gorm:"default:USD" json:"currency"`
	City          string         `gorm:"index" json:"city"`
	Address       string         `json:"address"`
	AreaSqM       float64        `json:"area_sqm"`
	Bedrooms      int            `json:"bedrooms"`
	Bathrooms     int            `json:"bathrooms"`
	Amenities     datatypes.JSON `json:"amenities"`
	Status        string         `gorm:"index;default:pending" json:"status"`
	RejectReason  string         `json:"reject_reason,omitempty"`
	Featured      bool           `gorm:"default:false" json:"featured"`
	FeaturedUntil *time.Time     `json:"featured_until,omitempty"`
	ExpiresAt     time.Time      `gorm:"index" json:"expires_at"`
	ViewCount     uint           `gorm:"default:0" json:"view_count"`

	Images []PropertyImage `gorm:"foreignKey:PropertyID" json:"images"`
}
