package payments

import (
	"testing"
	"time"

	"property-marketplace-server/migrations"
	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/stretchr/testify/assert"
	stripe "github.com/stripe/stripe-go/v80"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, migrations.Migrate(db))
	utils.DB = db
}

func createPendingPromotion(t *testing.T, intentID, reference string) models.Property {
	property := models.Property{
		ReferenceNo: reference,
		AgentID:     1,
		Title:       "Promoted listing",
		Price:       250000,
		City:        "Springfield",
		Status:      models.StatusApproved,
		ExpiresAt:   time.Now().Add(models.ListingLifetime),
	}
	assert.NoError(t, utils.DB.Create(&property).Error)

	payment := models.PromotionPayment{
		PaymentIntentID: intentID,
		PropertyID:      property.ID,
		UserID:          1,
		Amount:          2900,
		Currency:        "usd",
		Status:          "Pending",
	}
	assert.NoError(t, utils.DB.Create(&payment).Error)
	return property
}

func TestPaymentSuccessOpensFeaturedWindow(t *testing.T) {
	setupTest(t)
	property := createPendingPromotion(t, "pi_123", "ref-a")

	handlePaymentSuccess(stripe.PaymentIntent{
		ID:       "pi_123",
		Metadata: map[string]string{"listing_reference": "ref-a"},
	})

	var payment models.PromotionPayment
	assert.NoError(t, utils.DB.Where("payment_intent_id = ?", "pi_123").First(&payment).Error)
	assert.Equal(t, "Succeeded", payment.Status)

	var got models.Property
	assert.NoError(t, utils.DB.First(&got, property.ID).Error)
	assert.True(t, got.Featured)
	assert.NotNil(t, got.FeaturedUntil)
	assert.True(t, got.FeaturedUntil.After(time.Now().Add(29*24*time.Hour)))
}

func TestPaymentSuccessWithoutReferenceIsIgnored(t *testing.T) {
	setupTest(t)
	property := createPendingPromotion(t, "pi_123", "ref-a")

	handlePaymentSuccess(stripe.PaymentIntent{ID: "pi_123"})

	var got models.Property
	assert.NoError(t, utils.DB.First(&got, property.ID).Error)
	assert.False(t, got.Featured)
}

func TestPaymentFailureMarksPayment(t *testing.T) {
	setupTest(t)
	property := createPendingPromotion(t, "pi_123", "ref-a")

	handlePaymentFailure(stripe.PaymentIntent{ID: "pi_123"})

	var payment models.PromotionPayment
	assert.NoError(t, utils.DB.Where("payment_intent_id = ?", "pi_123").First(&payment).Error)
	assert.Equal(t, "Failed", payment.Status)

	var got models.Property
	assert.NoError(t, utils.DB.First(&got, property.ID).Error)
	assert.False(t, got.Featured)
}
