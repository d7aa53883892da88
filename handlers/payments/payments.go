package payments

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	stripe "github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/paymentintent"
	"github.com/stripe/stripe-go/v80/webhook"
)

// How long a paid promotion keeps a listing featured.
const promotionDuration = 30 * 24 * time.Hour

func promotionPrice() int64 {
	if v, err := strconv.ParseInt(os.Getenv("PROMOTION_PRICE_CENTS"), 10, 64); err == nil && v > 0 {
		return v
	}
	return 2900
}

// PromoteListing creates a Stripe payment intent for featuring one of the
// caller's listings
func PromoteListing(c *gin.Context) {
	var input struct {
		Reference string `json:"reference"`
	}

	if err := c.ShouldBindJSON(&input); err != nil || input.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A listing reference is required."})
		return
	}

	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	var property models.Property
	if err := utils.DB.Where("reference_no = ?", input.Reference).First(&property).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	if property.AgentID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "This listing does not belong to you"})
		return
	}

	if property.Status != models.StatusApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only approved listings can be promoted."})
		return
	}

	stripe.Key = os.Getenv("STRIPE_SECRET_KEY")

	amount := promotionPrice()
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(amount),
		Currency:     stripe.String(string(stripe.CurrencyUSD)),
		ReceiptEmail: stripe.String(user.Email),
	}
	params.AddMetadata("listing_reference", property.ReferenceNo)
	params.AddMetadata("user_id", strconv.FormatUint(uint64(user.ID), 10))

	pi, err := paymentintent.New(params)
	if err != nil {
		log.Printf("Failed to create payment intent: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start the payment"})
		return
	}

	payment := models.PromotionPayment{
		PaymentIntentID: pi.ID,
		PropertyID:      property.ID,
		UserID:          user.ID,
		Amount:          amount,
		Currency:        "usd",
		Status:          "Pending",
	}
	if err := utils.DB.Create(&payment).Error; err != nil {
		log.Printf("Failed to record promotion payment: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record the payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"client_secret": pi.ClientSecret,
		"amount":        amount,
		"currency":      "usd",
	})
}

// HandleStripeWebhook processes Stripe events; a succeeded payment opens the
// listing's featured window
func HandleStripeWebhook(c *gin.Context) {
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Writer.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	endpointSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	event, err := webhook.ConstructEvent(payload, c.Request.Header.Get("Stripe-Signature"), endpointSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		c.Writer.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			log.Printf("Error parsing webhook JSON: %v", err)
			c.Writer.WriteHeader(http.StatusBadRequest)
			return
		}

		if event.Type == "payment_intent.succeeded" {
			handlePaymentSuccess(paymentIntent)
		} else {
			handlePaymentFailure(paymentIntent)
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func handlePaymentSuccess(paymentIntent stripe.PaymentIntent) {
	reference := paymentIntent.Metadata["listing_reference"]
	if reference == "" {
		log.Printf("PaymentIntent does not have listing_reference in metadata")
		return
	}

	if err := utils.DB.Model(&models.PromotionPayment{}).
		Where("payment_intent_id = ?", paymentIntent.ID).
		Update("status", "Succeeded").Error; err != nil {
		log.Printf("Failed to update promotion payment: %v", err)
	}

	featuredUntil := time.Now().Add(promotionDuration)
	if err := utils.DB.Model(&models.Property{}).
		Where("reference_no = ?", reference).
		Updates(map[string]interface{}{
			"featured":       true,
			"featured_until": featuredUntil,
		}).Error; err != nil {
		log.Printf("Failed to feature listing %s: %v", reference, err)
		return
	}

	log.Printf("Listing %s featured until %s", reference, featuredUntil.Format(time.RFC3339))
}

func handlePaymentFailure(paymentIntent stripe.PaymentIntent) {
	if err := utils.DB.Model(&models.PromotionPayment{}).
		Where("payment_intent_id = ?", paymentIntent.ID).
		Update("status", "Failed").Error; err != nil {
		log.Printf("Failed to update promotion payment: %v", err)
	}
}
