package listings

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/storage"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// SearchListings is the public search endpoint. Only approved, unexpired
// listings are returned, ordered by id so that paging is stable and clients
// can restore their position deterministically.
func SearchListings(c *gin.Context) {
	query := utils.DB.Model(&models.Property{}).
		Where("status = ?", models.StatusApproved).
		Where("expires_at > ?", time.Now())

	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	if propertyType := c.Query("property_type"); propertyType != "" {
		query = query.Where("property_type = ?", propertyType)
	}
	if listingType := c.Query("listing_type"); listingType != "" {
		query = query.Where("listing_type = ?", listingType)
	}
	if minPrice := c.Query("min_price"); minPrice != "" {
		if v, err := strconv.ParseFloat(minPrice, 64); err == nil {
			query = query.Where("price >= ?", v)
		}
	}
	if maxPrice := c.Query("max_price"); maxPrice != "" {
		if v, err := strconv.ParseFloat(maxPrice, 64); err == nil {
			query = query.Where("price <= ?", v)
		}
	}
	if bedrooms := c.Query("bedrooms"); bedrooms != "" {
		if v, err := strconv.Atoi(bedrooms); err == nil {
			query = query.Where("bedrooms >= ?", v)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultPageSize
	}

	var properties []models.Property
	if err := query.Preload("Images").
		Order("id").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&properties).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listings":  properties,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetFeaturedListings returns approved listings whose featured window is open
func GetFeaturedListings(c *gin.Context) {
	now := time.Now()

	var properties []models.Property
	if err := utils.DB.Preload("Images").
		Where("status = ? AND featured = ? AND featured_until > ?", models.StatusApproved, true, now).
		Where("expires_at > ?", now).
		Order("id").
		Find(&properties).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch featured listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": properties})
}

// GetListing returns one listing by reference number and counts the view
func GetListing(c *gin.Context) {
	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Listing reference is required"})
		return
	}

	var property models.Property
	if err := utils.DB.Preload("Images").
		Where("reference_no = ?", reference).First(&property).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	if property.Status != models.StatusApproved {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	if err := utils.DB.Model(&property).Update("view_count", property.ViewCount+1).Error; err != nil {
		log.Printf("Failed to count view for listing %s: %v", reference, err)
	}

	var agent models.User
	if err := utils.DB.First(&agent, property.AgentID).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"listing": property})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"listing": property,
		"agent": gin.H{
			"id":         agent.ID,
			"name":       agent.Name,
			"avatar_url": agent.AvatarURL,
		},
	})
}

// CreateListing creates a pending listing owned by the calling agent
func CreateListing(c *gin.Context) {
	var input struct {
		Title        string   `json:"title"`
		Description  string   `json:"description"`
		PropertyType string   `json:"property_type"`
		ListingType  string   `json:"listing_type"`
		Price        float64  `json:"price"`
		Currency     string   `json:"currency"`
		City         string   `json:"city"`
		Address      string   `json:"address"`
		AreaSqM      float64  `json:"area_sqm"`
		Bedrooms     int      `json:"bedrooms"`
		Bathrooms    int      `json:"bathrooms"`
		Amenities    []string `json:"amenities"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
		return
	}

	if input.Title == "" || input.City == "" || input.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, city, and a positive price are required."})
		return
	}

	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	amenities, err := amenitiesJSON(input.Amenities)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amenities"})
		return
	}

	property := models.Property{
		ReferenceNo:  uuid.NewString(),
		AgentID:      user.ID,
		Title:        input.Title,
		Description:  input.Description,
		PropertyType: input.PropertyType,
		ListingType:  input.ListingType,
		Price:        input.Price,
		Currency:     input.Currency,
		City:         input.City,
		Address:      input.Address,
		AreaSqM:      input.AreaSqM,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		Amenities:    amenities,
		Status:       models.StatusPending,
		ExpiresAt:    time.Now().Add(models.ListingLifetime),
	}
	if property.Currency == "" {
		property.Currency = "USD"
	}

	if err := utils.DB.Create(&property).Error; err != nil {
		log.Printf("Failed to create listing: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Listing submitted for review.",
		"listing": property,
	})
}

// UpdateListing edits a listing owned by the caller (admins may edit any).
// Edits send an approved listing back to the moderation queue.
func UpdateListing(c *gin.Context) {
	property, user, ok := ownedListing(c)
	if !ok {
		return
	}

	var input struct {
		Title        *string  `json:"title"`
		Description  *string  `json:"description"`
		PropertyType *string  `json:"property_type"`
		ListingType  *string  `json:"listing_type"`
		Price        *float64 `json:"price"`
		City         *string  `json:"city"`
		Address      *string  `json:"address"`
		AreaSqM      *float64 `json:"area_sqm"`
		Bedrooms     *int     `json:"bedrooms"`
		Bathrooms    *int     `json:"bathrooms"`
		Amenities    []string `json:"amenities"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
		return
	}

	if input.Title != nil {
		property.Title = *input.Title
	}
	if input.Description != nil {
		property.Description = *input.Description
	}
	if input.PropertyType != nil {
		property.PropertyType = *input.PropertyType
	}
	if input.ListingType != nil {
		property.ListingType = *input.ListingType
	}
	if input.Price != nil {
		property.Price = *input.Price
	}
	if input.City != nil {
		property.City = *input.City
	}
	if input.Address != nil {
		property.Address = *input.Address
	}
	if input.AreaSqM != nil {
		property.AreaSqM = *input.AreaSqM
	}
	if input.Bedrooms != nil {
		property.Bedrooms = *input.Bedrooms
	}
	if input.Bathrooms != nil {
		property.Bathrooms = *input.Bathrooms
	}
	if input.Amenities != nil {
		amenities, err := amenitiesJSON(input.Amenities)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amenities"})
			return
		}
		property.Amenities = amenities
	}

	// Agent edits go back through moderation; admin edits do not
	if user.Role != models.RoleAdmin && property.Status == models.StatusApproved {
		property.Status = models.StatusPending
	}

	if err := utils.DB.Save(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": property})
}

// DeleteListing removes a listing, its image rows, and the bucket objects
// behind them. Bucket deletes are best-effort: a stray object is better than a
// listing that cannot be removed.
func DeleteListing(c *gin.Context) {
	property, _, ok := ownedListing(c)
	if !ok {
		return
	}

	var images []models.PropertyImage
	if err := utils.DB.Where("property_id = ?", property.ID).Find(&images).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing images"})
		return
	}
	for _, image := range images {
		if err := storage.DefaultClient.Delete(image.ObjectKey); err != nil {
			log.Printf("Failed to delete object %s from the bucket: %v", image.ObjectKey, err)
		}
	}

	if err := utils.DB.Where("property_id = ?", property.ID).Delete(&models.PropertyImage{}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing images"})
		return
	}

	if err := utils.DB.Delete(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted."})
}

// RenewListing extends the listing lifetime, re-activating an expired listing
func RenewListing(c *gin.Context) {
	property, _, ok := ownedListing(c)
	if !ok {
		return
	}

	if property.Status != models.StatusApproved && property.Status != models.StatusExpired {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only approved or expired listings can be renewed."})
		return
	}

	property.ExpiresAt = time.Now().Add(models.ListingLifetime)
	if property.Status == models.StatusExpired {
		property.Status = models.StatusApproved
	}

	if err := utils.DB.Save(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to renew listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing renewed.",
		"listing": property,
	})
}

// ownedListing loads the listing from the :reference param and checks that the
// caller owns it or is an admin
func ownedListing(c *gin.Context) (models.Property, models.User, bool) {
	var property models.Property

	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return property, models.User{}, false
	}
	user := userInterface.(models.User)

	reference := c.Param("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Listing reference is required"})
		return property, user, false
	}

	if err := utils.DB.Where("reference_no = ?", reference).First(&property).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return property, user, false
	}

	if property.AgentID != user.ID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "This listing does not belong to you"})
		return property, user, false
	}

	return property, user, true
}

func amenitiesJSON(amenities []string) (datatypes.JSON, error) {
	if amenities == nil {
		amenities = []string{}
	}
	b, err := json.Marshal(amenities)
	return datatypes.JSON(b), err
}
