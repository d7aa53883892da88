package models

import "time"

// PropertyImage is one image attached to a listing. ObjectKey is the key in the
// storage bucket; URL is the resolved public URL served to clients.
type PropertyImage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PropertyID uint      `gorm:"index;not null" json:"property_id"`
	ObjectKey  string    `gorm:"not null" json:"object_key"`
	URL        string    `gorm:"type:text;not null" json:"url"`
	SortOrder  int       `gorm:"not null;default:0;index" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
