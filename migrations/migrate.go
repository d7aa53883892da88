package migrations

import (
	"property-marketplace-server/models"

	"gorm.io/gorm"
)

// Migrate brings the schema up to date for every model
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AgentProfile{},
		&models.Property{},
		&models.PropertyImage{},
		&models.OTP{},
		&models.Review{},
		&models.Notification{},
		&models.PromotionPayment{},
	)
}
