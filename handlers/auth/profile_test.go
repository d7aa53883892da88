package auth

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"property-marketplace-server/models"
	"property-marketplace-server/storage"
	"property-marketplace-server/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newProfileRouter() *gin.Engine {
	r := gin.New()
	protected := r.Group("/")
	protected.Use(AuthMiddleware())
	protected.PUT("/me", UpdateMe)
	protected.POST("/me/avatar", UploadAvatar)
	return r
}

func startBucket(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == "PUT" {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	storage.DefaultClient = &storage.Client{
		PublicBaseURL: server.URL,
		APIBaseURL:    server.URL,
		APIKey:        "test-key",
		HTTPClient:    server.Client(),
	}
}

func multipartAvatar(t *testing.T, contentType string) (*bytes.Buffer, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="avatar"; filename="me.jpg"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	assert.NoError(t, err)
	part.Write([]byte("fake image bytes"))
	assert.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUpdateMe(t *testing.T) {
	setupTest(t)
	r := newProfileRouter()

	user := models.User{Email: "me@example.com", Name: "Old Name"}
	assert.NoError(t, utils.DB.Create(&user).Error)
	token, err := utils.GenerateAccessToken(user.ID)
	assert.NoError(t, err)

	w := postJSON(r, "/me", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code) // PUT only

	req := httptest.NewRequest("PUT", "/me", strings.NewReader(`{"name":"New Name","phone_number":" +15550100 "}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	var got models.User
	assert.NoError(t, utils.DB.First(&got, user.ID).Error)
	assert.Equal(t, "New Name", got.Name)
	assert.Equal(t, "+15550100", got.PhoneNumber)
	assert.Equal(t, "me@example.com", got.Email) // email is not editable here
}

func TestUploadAvatarCacheBustsURL(t *testing.T) {
	setupTest(t)
	startBucket(t)
	r := newProfileRouter()

	user := models.User{Email: "me@example.com"}
	assert.NoError(t, utils.DB.Create(&user).Error)
	token, err := utils.GenerateAccessToken(user.ID)
	assert.NoError(t, err)

	upload := func() string {
		body, contentType := multipartAvatar(t, "image/jpeg")
		req := httptest.NewRequest("POST", "/me/avatar", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)

		var got models.User
		assert.NoError(t, utils.DB.First(&got, user.ID).Error)
		return got.AvatarURL
	}

	url := upload()
	assert.Contains(t, url, "avatars/")
	assert.Contains(t, url, "v=") // replacement under the same key must bust caches
}

func TestUploadAvatarRejectsUnsupportedType(t *testing.T) {
	setupTest(t)
	startBucket(t)
	r := newProfileRouter()

	user := models.User{Email: "me@example.com"}
	assert.NoError(t, utils.DB.Create(&user).Error)
	token, err := utils.GenerateAccessToken(user.ID)
	assert.NoError(t, err)

	body, contentType := multipartAvatar(t, "application/pdf")
	req := httptest.NewRequest("POST", "/me/avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
