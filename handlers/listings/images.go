package listings

import (
	"log"
	"net/http"
	"strconv"

	"property-marketplace-server/models"
	"property-marketplace-server/storage"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
)

const maxImageUploadBytes = 10 << 20 // 10 MiB

// UploadImage stores a listing photo in the bucket and appends it to the
// listing with the next sort order
func UploadImage(c *gin.Context) {
	property, _, ok := ownedListing(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "An image file is required"})
		return
	}

	if fileHeader.Size > maxImageUploadBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image is too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded image"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" && contentType != "image/webp" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only JPEG, PNG, and WebP images are accepted"})
		return
	}

	key := storage.NewObjectKey(fileHeader.Filename)
	if err := storage.DefaultClient.Upload(key, contentType, file); err != nil {
		log.Printf("Failed to upload image for listing %s: %v", property.ReferenceNo, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store the image"})
		return
	}

	var maxOrder int
	utils.DB.Model(&models.PropertyImage{}).
		Where("property_id = ?", property.ID).
		Select("COALESCE(MAX(sort_order), -1)").Scan(&maxOrder)

	image := models.PropertyImage{
		PropertyID: property.ID,
		ObjectKey:  key,
		URL:        storage.DefaultClient.ResolveURL(key),
		SortOrder:  maxOrder + 1,
	}

	if err := utils.DB.Create(&image).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save the image record"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"image": image})
}

// DeleteImage removes one listing photo from the bucket and the database
func DeleteImage(c *gin.Context) {
	property, _, ok := ownedListing(c)
	if !ok {
		return
	}

	imageID, err := strconv.Atoi(c.Param("image_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image ID"})
		return
	}

	var image models.PropertyImage
	if err := utils.DB.Where("id = ? AND property_id = ?", imageID, property.ID).First(&image).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}

	if err := storage.DefaultClient.Delete(image.ObjectKey); err != nil {
		log.Printf("Failed to delete object %s from the bucket: %v", image.ObjectKey, err)
	}

	if err := utils.DB.Delete(&image).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete the image record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted."})
}
