package admin

import (
	"net/http"

	"property-marketplace-server/sweeper"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
)

// RunSweep triggers one expiry sweep outside the hourly schedule
func RunSweep(c *gin.Context) {
	result, err := sweeper.New(utils.DB).Sweep()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sweep failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"expired":    result.Expired,
		"unfeatured": result.Unfeatured,
		"purged":     result.Purged,
	})
}
