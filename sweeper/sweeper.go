// Package sweeper expires listings past their TTL and purges long-dead rows.
package sweeper

import (
	"log"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/storage"
	"property-marketplace-server/utils"

	"gorm.io/gorm"
)

const (
	defaultInterval = time.Hour
	// Expired and rejected listings are kept this long before hard deletion
	defaultGracePeriod = 30 * 24 * time.Hour
)

type Sweeper struct {
	DB          *gorm.DB
	Interval    time.Duration
	GracePeriod time.Duration
	Bucket      *storage.Client // nil when object storage is not configured

	stop chan struct{}
}

type Result struct {
	Expired    int
	Unfeatured int64
	Purged     int64
}

func New(db *gorm.DB) *Sweeper {
	return &Sweeper{
		DB:          db,
		Interval:    defaultInterval,
		GracePeriod: defaultGracePeriod,
		Bucket:      storage.DefaultClient,
		stop:        make(chan struct{}),
	}
}

// Start runs the sweep loop in the background until Stop is called.
func (s *Sweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.Sweep(); err != nil {
					log.Printf("Listing sweep failed: %v", err)
				}
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *Sweeper) Stop() {
	close(s.stop)
}

// Sweep runs one pass: expire approved listings past their TTL, close lapsed
// featured windows, and purge listings dead longer than the grace period.
func (s *Sweeper) Sweep() (Result, error) {
	var result Result
	now := time.Now()

	// Expire approved listings past their TTL, notifying each owner
	var overdue []models.Property
	if err := s.DB.Where("status = ? AND expires_at <= ?", models.StatusApproved, now).
		Find(&overdue).Error; err != nil {
		return result, err
	}

	for _, property := range overdue {
		if err := s.DB.Model(&models.Property{}).Where("id = ?", property.ID).
			Update("status", models.StatusExpired).Error; err != nil {
			return result, err
		}
		result.Expired++

		if err := utils.Notify(s.DB, property.AgentID, "Listing expired",
			"Your listing \""+property.Title+"\" has expired. Renew it to put it back on the market.",
			property.ReferenceNo); err != nil {
			log.Printf("Failed to notify agent %d about expiry: %v", property.AgentID, err)
		}
	}

	// Close lapsed featured windows
	unfeature := s.DB.Model(&models.Property{}).
		Where("featured = ? AND featured_until <= ?", true, now).
		Updates(map[string]interface{}{"featured": false})
	if unfeature.Error != nil {
		return result, unfeature.Error
	}
	result.Unfeatured = unfeature.RowsAffected

	// Purge listings dead longer than the grace period: bucket objects, then
	// image rows, then the listing itself
	cutoff := now.Add(-s.GracePeriod)
	var dead []models.Property
	if err := s.DB.Where("status IN ? AND updated_at <= ?",
		[]string{models.StatusExpired, models.StatusRejected}, cutoff).
		Find(&dead).Error; err != nil {
		return result, err
	}

	for _, property := range dead {
		var images []models.PropertyImage
		if err := s.DB.Where("property_id = ?", property.ID).
			Find(&images).Error; err != nil {
			return result, err
		}
		for _, image := range images {
			if s.Bucket == nil {
				continue
			}
			if err := s.Bucket.Delete(image.ObjectKey); err != nil {
				log.Printf("Failed to delete object %s from the bucket: %v", image.ObjectKey, err)
			}
		}

		if err := s.DB.Where("property_id = ?", property.ID).
			Delete(&models.PropertyImage{}).Error; err != nil {
			return result, err
		}
		if err := s.DB.Unscoped().Delete(&models.Property{}, property.ID).Error; err != nil {
			return result, err
		}
		result.Purged++
	}

	if result.Expired > 0 || result.Unfeatured > 0 || result.Purged > 0 {
		log.Printf("Listing sweep: %d expired, %d unfeatured, %d purged",
			result.Expired, result.Unfeatured, result.Purged)
	}

	return result, nil
}
