package auth

import (
	"log"
	"net/http"
	"strings"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GoogleSignIn verifies a Google ID token and signs the user in, creating or
// linking the account as needed
func GoogleSignIn(c *gin.Context) {
	var input struct {
		IDToken string `json:"id_token"`
	}

	if err := c.ShouldBindJSON(&input); err != nil || input.IDToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data. Please provide a Google ID token."})
		return
	}

	claims, err := utils.VerifyGoogleIDToken(input.IDToken)
	if err != nil {
		log.Printf("Google ID token verification failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Google sign-in failed. Please try again."})
		return
	}

	email := strings.ToLower(claims.Email)

	var user models.User
	err = utils.DB.Where("google_id = ?", claims.Sub).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		// Link by email if the account already exists, otherwise create it
		err = utils.DB.Where("email = ?", email).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			user = models.User{
				Name:      claims.Name,
				Email:     email,
				GoogleID:  claims.Sub,
				AvatarURL: claims.Picture,
				Role:      models.RoleUser,
				Verified:  true,
			}
			if err := utils.DB.Create(&user).Error; err != nil {
				log.Printf("Failed to create user for %s: %v", email, err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue creating your account. Please contact support."})
				return
			}
		} else if err == nil {
			user.GoogleID = claims.Sub
			if user.AvatarURL == "" {
				user.AvatarURL = claims.Picture
			}
			user.Verified = true
			if err := utils.DB.Save(&user).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue linking your account. Please try again later."})
				return
			}
		}
	}
	if err != nil && err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "We encountered an issue signing you in. Please try again later."})
		return
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
