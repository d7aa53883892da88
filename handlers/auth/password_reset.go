package auth

import (
	"log"
	"net/http"
	"strings"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RequestPasswordReset sends a reset code to a password-carrying account
func RequestPasswordReset(c *gin.Context) {
	var input struct {
		Email string `json:"email"`
	}

	if err := c.ShouldBindJSON(&input); err != nil || input.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please provide a valid email address."})
		return
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))

	var user models.User
	if err := utils.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found. Please check your email address."})
		return
	}

	if user.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This account signs in with a verification code or Google and has no password to reset."})
		return
	}

	otp := models.OTP{
		Channel:   models.OTPChannelEmail,
		Recipient: email,
		Code:      generateOTP(),
		ExpiresAt: time.Now().Add(otpValidityDuration),
	}

	if err := utils.DB.Create(&otp).Error; err != nil {
		log.Printf("Failed to save password reset code for %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue saving the code. Please try again later."})
		return
	}

	sendOTP(models.OTPChannelEmail, email, otp.Code)

	c.JSON(http.StatusOK, gin.H{"message": "A reset code has been sent to your registered email address."})
}

// ResetPassword sets a new password after verifying the reset code
func ResetPassword(c *gin.Context) {
	var input struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please ensure all required fields are filled correctly."})
		return
	}

	if input.Email == "" || input.Code == "" || input.NewPassword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, code, and new password are required."})
		return
	}

	email := strings.TrimSpace(strings.ToLower(input.Email))

	var user models.User
	if err := utils.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found. Please check your email address."})
		return
	}

	var otp models.OTP
	if err := utils.DB.Where("recipient = ? AND consumed = ?", email, false).
		Order("id DESC").First(&otp).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No reset code is pending. Please request a new one."})
		return
	}

	if otp.Attempts >= maxOTPAttempts {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Too many attempts. Please request a new reset code."})
		return
	}

	if time.Now().After(otp.ExpiresAt) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "The reset code has expired. Please request a new one."})
		return
	}

	if input.Code != otp.Code {
		utils.DB.Model(&otp).Update("attempts", otp.Attempts+1)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "The reset code is incorrect. Please try again or request a new one."})
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing your password. Please try again."})
		return
	}

	user.Password = string(hashedPassword)
	user.RefreshToken = "" // force re-login everywhere
	if err := utils.DB.Save(&user).Error; err != nil {
		log.Printf("Failed to update user password in the database: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue updating your password. Please try again later."})
		return
	}

	utils.DB.Model(&otp).Update("consumed", true)

	c.JSON(http.StatusOK, gin.H{"message": "Your password has been reset successfully. You can now log in with your new password."})
}
