package auth

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/storage"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
)

const maxAvatarUploadBytes = 5 << 20

// GetMe returns the calling user's account
func GetMe(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateMe edits the calling user's name, phone number, and avatar
func UpdateMe(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	var input struct {
		Name        *string `json:"name"`
		PhoneNumber *string `json:"phone_number"`
		AvatarURL   *string `json:"avatar_url"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
		return
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = strings.TrimSpace(*input.PhoneNumber)
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	if err := utils.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UploadAvatar replaces the caller's avatar. Avatars live under a stable
// per-user key in the bucket, so the resolved URL is cache-busted to make
// clients re-fetch the new image.
func UploadAvatar(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required"})
		return
	}

	if fileHeader.Size > maxAvatarUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is too large"})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG, PNG, and WebP images are accepted"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded image"})
		return
	}
	defer file.Close()

	key := "avatars/" + strconv.FormatUint(uint64(user.ID), 10)
	if err := storage.DefaultClient.Upload(key, contentType, file); err != nil {
		log.Printf("Failed to upload avatar for user %d: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store the image"})
		return
	}

	avatarURL := storage.CacheBust(storage.DefaultClient.ResolveURL(key), time.Now().Unix())
	if err := utils.DB.Model(&user).Update("avatar_url", avatarURL).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": avatarURL})
}
