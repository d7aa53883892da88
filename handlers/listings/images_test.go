package listings

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"property-marketplace-server/handlers/auth"
	"property-marketplace-server/models"
	"property-marketplace-server/storage"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newImageRouter() *gin.Engine {
	r := gin.New()
	agent := r.Group("/")
	agent.Use(auth.AuthMiddleware(), auth.RequireRole(models.RoleAgent))
	agent.POST("/listings/:reference/images", UploadImage)
	agent.DELETE("/listings/:reference/images/:image_id", DeleteImage)
	return r
}

// bucketLog records the object keys deleted from the test bucket.
type bucketLog struct {
	deleted []string
}

func startBucket(t *testing.T) *bucketLog {
	rec := &bucketLog{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "PUT":
			w.WriteHeader(http.StatusCreated)
		case "DELETE":
			rec.deleted = append(rec.deleted, strings.TrimPrefix(r.URL.Path, "/"))
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(server.Close)

	storage.DefaultClient = &storage.Client{
		PublicBaseURL: server.URL,
		APIBaseURL:    server.URL,
		APIKey:        "test-key",
		HTTPClient:    server.Client(),
	}
	return rec
}

func multipartImage(t *testing.T, field, filename, contentType string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	assert.NoError(t, err)
	part.Write([]byte("fake image bytes"))
	assert.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadImageAppendsWithNextSortOrder(t *testing.T) {
	setupTest(t)
	startBucket(t)
	r := newImageRouter()

	agent, token := createAgent(t, "agent@example.com")
	property := createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)

	for i := 0; i < 2; i++ {
		body, contentType := multipartImage(t, "image", "photo.jpg", "image/jpeg")
		req := httptest.NewRequest("POST", "/listings/ref-a/images", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	var imgs []models.PropertyImage
	assert.NoError(t, utils.DB.Where("property_id = ?", property.ID).Order("sort_order").Find(&imgs).Error)
	assert.Len(t, imgs, 2)
	assert.Equal(t, 0, imgs[0].SortOrder)
	assert.Equal(t, 1, imgs[1].SortOrder)
	assert.NotEmpty(t, imgs[0].ObjectKey)
	assert.Contains(t, imgs[0].URL, imgs[0].ObjectKey)
}

func TestUploadImageRejectsUnsupportedType(t *testing.T) {
	setupTest(t)
	startBucket(t)
	r := newImageRouter()

	agent, token := createAgent(t, "agent@example.com")
	createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)

	body, contentType := multipartImage(t, "image", "doc.pdf", "application/pdf")
	req := httptest.NewRequest("POST", "/listings/ref-a/images", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteImage(t *testing.T) {
	setupTest(t)
	startBucket(t)
	r := newImageRouter()

	agent, token := createAgent(t, "agent@example.com")
	property := createApprovedListing(t, agent.ID, "ref-a", "Springfield", 100000, 2)

	image := models.PropertyImage{
		PropertyID: property.ID,
		ObjectKey:  "listings/x.jpg",
		URL:        "https://cdn.example.com/listings/x.jpg",
	}
	assert.NoError(t, utils.DB.Create(&image).Error)

	req := httptest.NewRequest("DELETE", "/listings/ref-a/images/1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	utils.DB.Model(&models.PropertyImage{}).Where("property_id = ?", property.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}
