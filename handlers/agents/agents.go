package agents

import (
	"net/http"
	"strconv"
	"time"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetAgents lists the public agent directory
func GetAgents(c *gin.Context) {
	var agents []models.User
	query := utils.DB.Where("role = ?", models.RoleAgent)
	if city := c.Query("city"); city != "" {
		query = query.Joins("JOIN agent_profiles ON agent_profiles.user_id = users.id AND agent_profiles.city = ?", city)
	}
	if err := query.Order("users.id").Find(&agents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch agents"})
		return
	}

	result := make([]gin.H, 0, len(agents))
	for _, agent := range agents {
		entry := gin.H{
			"id":         agent.ID,
			"name":       agent.Name,
			"avatar_url": agent.AvatarURL,
		}
		var profile models.AgentProfile
		if err := utils.DB.Where("user_id = ?", agent.ID).First(&profile).Error; err == nil {
			entry["agency"] = profile.Agency
			entry["city"] = profile.City
		}
		result = append(result, entry)
	}

	c.JSON(http.StatusOK, gin.H{"agents": result})
}

// GetAgent returns one agent's public profile with aggregate rating and
// listing count
func GetAgent(c *gin.Context) {
	agentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
		return
	}

	var agent models.User
	if err := utils.DB.Where("id = ? AND role = ?", agentID, models.RoleAgent).First(&agent).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	var profile models.AgentProfile
	hasProfile := utils.DB.Where("user_id = ?", agent.ID).First(&profile).Error == nil

	var listingCount int64
	utils.DB.Model(&models.Property{}).
		Where("agent_id = ? AND status = ?", agent.ID, models.StatusApproved).
		Count(&listingCount)

	var rating float64
	var reviewCount int64
	utils.DB.Model(&models.Review{}).Where("agent_id = ?", agent.ID).Count(&reviewCount)
	if reviewCount > 0 {
		utils.DB.Model(&models.Review{}).Where("agent_id = ?", agent.ID).
			Select("AVG(rating)").Scan(&rating)
	}

	response := gin.H{
		"id":            agent.ID,
		"name":          agent.Name,
		"avatar_url":    agent.AvatarURL,
		"listing_count": listingCount,
		"rating":        rating,
		"review_count":  reviewCount,
	}
	if hasProfile {
		response["agency"] = profile.Agency
		response["bio"] = profile.Bio
		response["license_number"] = profile.LicenseNumber
		response["whatsapp_number"] = profile.WhatsAppNumber
		response["city"] = profile.City
	}

	c.JSON(http.StatusOK, gin.H{"agent": response})
}

// GetAgentListings returns an agent's approved, unexpired listings
func GetAgentListings(c *gin.Context) {
	agentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
		return
	}

	var properties []models.Property
	if err := utils.DB.Preload("Images").
		Where("agent_id = ? AND status = ? AND expires_at > ?", agentID, models.StatusApproved, time.Now()).
		Order("id").
		Find(&properties).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": properties})
}

// UpsertMyProfile creates or updates the calling agent's profile
func UpsertMyProfile(c *gin.Context) {
	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	var input struct {
		Agency         string `json:"agency"`
		Bio            string `json:"bio"`
		LicenseNumber  string `json:"license_number"`
		WhatsAppNumber string `json:"whatsapp_number"`
		City           string `json:"city"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
		return
	}

	var profile models.AgentProfile
	err := utils.DB.Where("user_id = ?", user.ID).First(&profile).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load profile"})
		return
	}

	profile.UserID = user.ID
	profile.Agency = input.Agency
	profile.Bio = input.Bio
	profile.LicenseNumber = input.LicenseNumber
	profile.WhatsAppNumber = input.WhatsAppNumber
	profile.City = input.City

	if err := utils.DB.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
