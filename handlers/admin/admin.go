package admin

import (
	"log"
	"net/http"
	"strconv"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
)

// GetListings is the moderation queue, filterable by status
func GetListings(c *gin.Context) {
	query := utils.DB.Model(&models.Property{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var properties []models.Property
	if err := query.Preload("Images").Order("id").Find(&properties).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": properties})
}

// ApproveListing approves a pending listing and notifies the owner
func ApproveListing(c *gin.Context) {
	var property models.Property
	if err := utils.DB.Where("reference_no = ?", c.Param("reference")).First(&property).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	if property.Status != models.StatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending listings can be approved"})
		return
	}

	property.Status = models.StatusApproved
	property.RejectReason = ""
	if err := utils.DB.Save(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve listing"})
		return
	}

	if err := utils.Notify(utils.DB, property.AgentID, "Listing approved",
		"Your listing \""+property.Title+"\" is now live.", property.ReferenceNo); err != nil {
		log.Printf("Failed to notify agent %d: %v", property.AgentID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing approved.", "listing": property})
}

// RejectListing rejects a pending listing with a reason and notifies the owner
func RejectListing(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
		return
	}

	var property models.Property
	if err := utils.DB.Where("reference_no = ?", c.Param("reference")).First(&property).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return
	}

	if property.Status != models.StatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only pending listings can be rejected"})
		return
	}

	property.Status = models.StatusRejected
	property.RejectReason = input.Reason
	if err := utils.DB.Save(&property).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reject listing"})
		return
	}

	if err := utils.Notify(utils.DB, property.AgentID, "Listing rejected",
		"Your listing \""+property.Title+"\" was rejected: "+input.Reason, property.ReferenceNo); err != nil {
		log.Printf("Failed to notify agent %d: %v", property.AgentID, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing rejected.", "listing": property})
}

// GetUsers lists accounts for the back-office
func GetUsers(c *gin.Context) {
	query := utils.DB.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}

	var users []models.User
	if err := query.Order("id").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateUserRole promotes or demotes an account
func UpdateUserRole(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var input struct {
		Role string `json:"role"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
		return
	}

	if input.Role != models.RoleUser && input.Role != models.RoleAgent && input.Role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	var user models.User
	if err := utils.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Role = input.Role
	if err := utils.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// DeleteUser removes an account
func DeleteUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	callerInterface, _ := c.Get("user")
	caller := callerInterface.(models.User)
	if caller.ID == uint(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
		return
	}

	if err := utils.DB.Delete(&models.User{}, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted."})
}

// GetStats returns back-office dashboard counts
func GetStats(c *gin.Context) {
	stats := gin.H{}

	for _, status := range []string{models.StatusPending, models.StatusApproved, models.StatusRejected, models.StatusExpired} {
		var count int64
		utils.DB.Model(&models.Property{}).Where("status = ?", status).Count(&count)
		stats["listings_"+status] = count
	}

	var userCount, agentCount int64
	utils.DB.Model(&models.User{}).Count(&userCount)
	utils.DB.Model(&models.User{}).Where("role = ?", models.RoleAgent).Count(&agentCount)
	stats["users"] = userCount
	stats["agents"] = agentCount

	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
