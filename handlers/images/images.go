package images

import (
	"io"
	"net/http"
	"strings"

	"property-marketplace-server/storage"

	"github.com/gin-gonic/gin"
)

// ServeImage proxies an object from the storage bucket. Responses carry a
// long-lived cache header; cache-busted URLs carry a version query parameter,
// so the key itself never changes meaning.
func ServeImage(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" || strings.Contains(key, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid object key"})
		return
	}

	resp, err := storage.DefaultClient.Fetch(key)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach the storage bucket"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Image not found"})
		return
	}
	if resp.StatusCode != http.StatusOK {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Storage bucket returned an error"})
		return
	}

	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)

	c.Status(http.StatusOK)
	io.Copy(c.Writer, resp.Body)
}
