package agents

import (
	"net/http"
	"strconv"

	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
)

// SubmitReview records a review of an agent by the calling user
func SubmitReview(c *gin.Context) {
	agentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
		return
	}

	var input struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input data"})
		return
	}

	if input.Rating < 1 || input.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Rating must be between 1 and 5"})
		return
	}

	userInterface, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found in context"})
		return
	}
	user := userInterface.(models.User)

	if uint(agentID) == user.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot review yourself"})
		return
	}

	var agent models.User
	if err := utils.DB.Where("id = ? AND role = ?", agentID, models.RoleAgent).First(&agent).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
		return
	}

	review := models.Review{
		AgentID:  uint(agentID),
		AuthorID: user.ID,
		Rating:   input.Rating,
		Comment:  input.Comment,
	}

	if err := utils.DB.Create(&review).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit review"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Review submitted successfully"})
}

// GetAgentReviews lists reviews of an agent
func GetAgentReviews(c *gin.Context) {
	agentID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid agent ID"})
		return
	}

	var reviews []models.Review
	if err := utils.DB.Where("agent_id = ?", agentID).Order("id DESC").Find(&reviews).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reviews"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
