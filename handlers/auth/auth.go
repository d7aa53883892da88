package auth

import (
	"math/rand"
	"net/http"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
)

const otpValidityDuration = 10 * time.Minute

// An OTP is dead after this many wrong guesses.
const maxOTPAttempts = 5

// generateOTP generates a 6-digit OTP
func generateOTP() string {
	source := rand.NewSource(time.Now().UnixNano())
	r := rand.New(source)
	const digits = "0123456789"
	otp := make([]byte, 6)
	for i := range otp {
		otp[i] = digits[r.Intn(len(digits))]
	}
	return string(otp)
}

// sendOTP delivers the OTP over the requested channel. Package variable so
// tests can capture codes instead of hitting SMTP or the WhatsApp gateway.
var sendOTP = func(channel, recipient, otp string) {
	if channel == models.OTPChannelWhatsApp {
		utils.SendOTPWhatsApp(recipient, otp)
		return
	}
	utils.SendOTPEmail(recipient, otp)
}

// issueTokens mints an access token and rotates the stored refresh token for the user
func issueTokens(user *models.User) (string, string, error) {
	accessToken, err := utils.GenerateAccessToken(user.ID)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := utils.GenerateRefreshToken()
	if err != nil {
		return "", "", err
	}

	user.RefreshToken = utils.HashToken(refreshToken)
	if err := utils.DB.Save(user).Error; err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func SavePushToken(c *gin.Context) {
	var req struct {
		PushToken string `json:"push_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	if err := utils.DB.Model(&user).Update("push_token", req.PushToken).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save push token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "Push token saved"})
}
