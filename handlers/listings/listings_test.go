package listings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"property-marketplace-server/handlers/auth"
	"property-marketplace-server/migrations"
	"property-marketplace-server/models"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	utils.JwtSecret = []byte("test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, migrations.Migrate(db))
	utils.DB = db
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.GET("/listings", SearchListings)
	r.GET("/listings/featured", GetFeaturedListings)
	r.GET("/listings/:reference", GetListing)

	agent := r.Group("/")
	agent.Use(auth.AuthMiddleware(), auth.RequireRole(models.RoleAgent))
	agent.POST("/listings", CreateListing)
	agent.PUT("/listings/:reference", UpdateListing)
	agent.DELETE("/listings/:reference", DeleteListing)
	agent.POST("/listings/:reference/renew", RenewListing)

	return r
}

func createAgent(t *testing.T, email string) (models.User, string) {
	user := models.User{Email: email, Role: models.RoleAgent}
	assert.NoError(t, utils.DB.Create(&user).Error)
	token, err := utils.GenerateAccessToken(user.ID)
	assert.NoError(t, err)
	return user, token
}

func createApprovedListing(t *testing.T, agentID uint, ref, city string, price float64, bedrooms int) models.Property {
	property := models.Property{
		ReferenceNo:  ref,
		AgentID:      agentID,
		Title:        "Listing " + ref,
		PropertyType: "house",
		ListingType:  "sale",
		Price:        price,
		City:         city,
		Bedrooms:     bedrooms,
		Status:       models.StatusApproved,
		ExpiresAt:    time.Now().Add(models.ListingLifetime),
	}
	assert.NoError(t, utils.DB.Create(&property).Error)
	return property
}

func doJSON(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateListingStartsPending(t *testing.T) {
	setupTest(t)
	r := newRouter()
	_, token := createAgent(t, "agent@example.com")

	w := doJSON(r, "POST", "/listings", gin.H{
		"title":         "Sunny bungalow",
		"property_type": "house",
		"listing_type":  "sale",
		"price":         250000,
		"city":          "Springfield",
		"bedrooms":      3,
		"amenities":     []string{"garden", "garage"},
	}, token)
	assert.Equal(t, http.StatusCreated, w.Code)

	var property models.Property
	assert.NoError(t, utils.DB.Where("title = ?", "Sunny bungalow").First(&property).Error)
	assert.Equal(t, models.StatusPending, property.Status)
	assert.NotEmpty(t, property.ReferenceNo)
	assert.True(t, property.ExpiresAt.After(time.Now().Add(80*24*time.Hour)))
}

func TestCreateListingRequiresAgentRole(t *testing.T) {
	setupTest(t)
	r := newRouter()

	user := models.User{Email: "buyer@example.com", Role: models.RoleUser}
	assert.NoError(t, utils.DB.Create(&user).Error)
	token, _ := utils.GenerateAccessToken(user.ID)

	w := doJSON(r, "POST", "/listings", gin.H{"title": "X", "price": 1, "city": "Y"}, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSearchFiltersAndPaging(t *testing.T) {
	setupTest(t)
	r := newRouter()
	agent, _ := createAgent(t, "agent@example.com")

	createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)
	createApprovedListing(t, agent.ID, "ref-b", "Springfield", 300000, 4)
	createApprovedListing(t, agent.ID, "ref-c", "Shelbyville", 200000, 3)

	// Pending listings never show up
	pending := models.Property{
		ReferenceNo: "ref-pending", AgentID: agent.ID, Title: "Hidden",
		Price: 1, City: "Springfield", Status: models.StatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.NoError(t, utils.DB.Create(&pending).Error)

	// Neither do expired ones
	expired := createApprovedListing(t, agent.ID, "ref-expired", "Springfield", 100, 1)
	assert.NoError(t, utils.DB.Model(&expired).Update("expires_at", time.Now().Add(-time.Hour)).Error)

	var resp struct {
		Listings []models.Property `json:"listings"`
		Total    int64             `json:"total"`
	}

	w := doJSON(r, "GET", "/listings", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Total)

	w = doJSON(r, "GET", "/listings?city=Springfield", nil, "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Len(t, resp.Listings, 2)

	w = doJSON(r, "GET", "/listings?min_price=150000&max_price=250000", nil, "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Len(t, resp.Listings, 1)
	assert.Equal(t, "ref-c", resp.Listings[0].ReferenceNo)

	w = doJSON(r, "GET", "/listings?bedrooms=3", nil, "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Len(t, resp.Listings, 2)

	// Stable id ordering across pages
	w = doJSON(r, "GET", "/listings?page=1&page_size=2", nil, "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Len(t, resp.Listings, 2)
	firstPageLast := resp.Listings[1].ID

	w = doJSON(r, "GET", "/listings?page=2&page_size=2", nil, "")
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Len(t, resp.Listings, 1)
	assert.Greater(t, resp.Listings[0].ID, firstPageLast)
}

func TestGetListingCountsViews(t *testing.T) {
	setupTest(t)
	r := newRouter()
	agent, _ := createAgent(t, "agent@example.com")
	property := createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)

	w := doJSON(r, "GET", "/listings/ref-a", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Property
	assert.NoError(t, utils.DB.First(&got, property.ID).Error)
	assert.Equal(t, uint(1), got.ViewCount)
}

func TestGetListingHidesUnapproved(t *testing.T) {
	setupTest(t)
	r := newRouter()
	agent, _ := createAgent(t, "agent@example.com")

	pending := models.Property{
		ReferenceNo: "ref-p", AgentID: agent.ID, Title: "Hidden",
		Price: 1, City: "Springfield", Status: models.StatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.NoError(t, utils.DB.Create(&pending).Error)

	w := doJSON(r, "GET", "/listings/ref-p", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateListingSendsBackToModeration(t *testing.T) {
	setupTest(t)
	r := newRouter()
	agent, token := createAgent(t, "agent@example.com")
	property := createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)

	w := doJSON(r, "PUT", "/listings/ref-a", gin.H{"price": 90000}, token)
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Property
	assert.NoError(t, utils.DB.First(&got, property.ID).Error)
	assert.Equal(t, float64(90000), got.Price)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestUpdateListingRefusesForeignListing(t *testing.T) {
	setupTest(t)
	r := newRouter()
	owner, _ := createAgent(t, "owner@example.com")
	_, intruderToken := createAgent(t, "intruder@example.com")
	createApprovedListing(t, owner.ID, "ref-a", "Springfield", 100000, 2)

	w := doJSON(r, "PUT", "/listings/ref-a", gin.H{"price": 1}, intruderToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRenewListingReactivatesExpired(t *testing.T) {
	setupTest(t)
	r := newRouter()
	agent, token := createAgent(t, "agent@example.com")
	property := createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)
	assert.NoError(t, utils.DB.Model(&property).Updates(map[string]interface{}{
		"status":     models.StatusExpired,
		"expires_at": time.Now().Add(-time.Hour),
	}).Error)

	w := doJSON(r, "POST", "/listings/ref-a/renew", gin.H{}, token)
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.Property
	assert.NoError(t, utils.DB.First(&got, property.ID).Error)
	assert.Equal(t, models.StatusApproved, got.Status)
	assert.True(t, got.ExpiresAt.After(time.Now()))
}

func TestRenewListingRefusesPending(t *testing.T) {
	setupTest(t)
	r := newRouter()
	agent, token := createAgent(t, "agent@example.com")
	pending := models.Property{
		ReferenceNo: "ref-p", AgentID: agent.ID, Title: "Hidden",
		Price: 1, City: "Springfield", Status: models.StatusPending,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	assert.NoError(t, utils.DB.Create(&pending).Error)

	w := doJSON(r, "POST", "/listings/ref-p/renew", gin.H{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteListingRemovesImagesAndBucketObjects(t *testing.T) {
	setupTest(t)
	bucket := startBucket(t)
	r := newRouter()
	agent, token := createAgent(t, "agent@example.com")
	property := createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)

	for i := 0; i < 2; i++ {
		assert.NoError(t, utils.DB.Create(&models.PropertyImage{
			PropertyID: property.ID,
			ObjectKey:  fmt.Sprintf("listings/%d.jpg", i),
			URL:        fmt.Sprintf("https://cdn.example.com/listings/%d.jpg", i),
			SortOrder:  i,
		}).Error)
	}

	w := doJSON(r, "DELETE", "/listings/ref-a", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	utils.DB.Model(&models.PropertyImage{}).Where("property_id = ?", property.ID).Count(&count)
	assert.Equal(t, int64(0), count)

	// The bucket objects went too
	assert.ElementsMatch(t, []string{"listings/0.jpg", "listings/1.jpg"}, bucket.deleted)
}

func TestFeaturedListings(t *testing.T) {
	setupTest(t)
	r := newRouter()
	agent, _ := createAgent(t, "agent@example.com")

	featured := createApprovedListing(t, agent.ID, "ref-f", "Springfield", 100000, 2)
	until := time.Now().Add(24 * time.Hour)
	assert.NoError(t, utils.DB.Model(&featured).Updates(map[string]interface{}{
		"featured": true, "featured_until": until,
	}).Error)

	lapsed := createApprovedListing(t, agent.ID, "ref-l", "Springfield", 100000, 2)
	assert.NoError(t, utils.DB.Model(&lapsed).Updates(map[string]interface{}{
		"featured": true, "featured_until": time.Now().Add(-time.Hour),
	}).Error)

	createApprovedListing(t, agent.ID, "ref-plain", "Springfield", 100000, 2)

	var resp struct {
		Listings []models.Property `json:"listings"`
	}
	w := doJSON(r, "GET", "/listings/featured", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Listings, 1)
	assert.Equal(t, "ref-f", resp.Listings[0].ReferenceNo)
}
