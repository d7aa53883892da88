package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RequestOTP generates a one-time code and sends it to the given email address
// or phone number
func RequestOTP(c *gin.Context) {
	var input struct {
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please provide an email address or a phone number."})
		return
	}

	channel := models.OTPChannelEmail
	recipient := strings.TrimSpace(strings.ToLower(input.Email))
	if recipient == "" {
		channel = models.OTPChannelWhatsApp
		recipient = strings.TrimSpace(input.PhoneNumber)
	}
	if recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An email address or a phone number is required."})
		return
	}

	// One live code per recipient: kill any earlier unconsumed codes first
	if err := utils.DB.Model(&models.OTP{}).
		Where("recipient = ? AND consumed = ?", recipient, false).
		Update("consumed", true).Error; err != nil {
		log.Printf("Failed to invalidate previous OTPs for %s: %v", recipient, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue processing your request. Please try again later."})
		return
	}

	otp := models.OTP{
		Channel:   channel,
		Recipient: recipient,
		Code:      generateOTP(),
		ExpiresAt: time.Now().Add(otpValidityDuration),
	}

	if err := utils.DB.Create(&otp).Error; err != nil {
		log.Printf("Failed to save OTP for %s: %v", recipient, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue saving the code. Please try again later."})
		return
	}

	sendOTP(channel, recipient, otp.Code)

	c.JSON(http.StatusOK, gin.H{"message": "A verification code has been sent."})
}

// VerifyOTP validates a one-time code and signs the user in, creating the
// account on first sign-in
func VerifyOTP(c *gin.Context) {
	var input struct {
		Email       string `json:"email"`
		PhoneNumber string `json:"phone_number"`
		Code        string `json:"code"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please ensure all required fields are filled correctly."})
		return
	}

	recipient := strings.TrimSpace(strings.ToLower(input.Email))
	if recipient == "" {
		recipient = strings.TrimSpace(input.PhoneNumber)
	}
	if recipient == "" || input.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A recipient and the verification code are required."})
		return
	}

	var otp models.OTP
	if err := utils.DB.Where("recipient = ? AND consumed = ?", recipient, false).
		Order("id DESC").First(&otp).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No verification code is pending. Please request a new one."})
		return
	}

	if otp.Attempts >= maxOTPAttempts {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Too many attempts. Please request a new verification code."})
		return
	}

	if time.Now().After(otp.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "The verification code has expired. Please request a new one."})
		return
	}

	if input.Code != otp.Code {
		utils.DB.Model(&otp).Update("attempts", otp.Attempts+1)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "The verification code is incorrect. Please try again."})
		return
	}

	if err := utils.DB.Model(&otp).Update("consumed", true).Error; err != nil {
		log.Printf("Failed to consume OTP for %s: %v", recipient, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue processing your request. Please try again later."})
		return
	}

	// Find or create the account for this recipient
	var user models.User
	query := utils.DB.Where("email = ?", recipient)
	if otp.Channel == models.OTPChannelWhatsApp {
		query = utils.DB.Where("phone_number = ?", recipient)
	}
	if err := query.First(&user).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue signing you in. Please try again later."})
			return
		}
		user = models.User{
			Role:     models.RoleUser,
			Verified: true,
		}
		if otp.Channel == models.OTPChannelWhatsApp {
			user.PhoneNumber = recipient
			user.Email = recipient + "@phone.local" // placeholder; email column is unique
		} else {
			user.Email = recipient
		}
		if err := utils.DB.Create(&user).Error; err != nil {
			log.Printf("Failed to create user for %s: %v", recipient, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue creating your account. Please contact support."})
			return
		}
	}

	accessToken, refreshToken, err := issueTokens(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "Signed in successfully.",
		"access_token":  accessToken,
		"refresh_token": refreshToken,
		"user":          user,
	})
}
