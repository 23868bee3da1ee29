package admin

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/heyirisdotdev/hades-kitten/config"
	"github.com/heyirisdotdev/hades-kitten/internal/model"
	"github.com/heyirisdotdev/hades-kitten/internal/service"
	"github.com/heyirisdotdev/hades-kitten/internal/storage"
	"github.com/heyirisdotdev/hades-kitten/internal/util"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	util.Logger = zap.NewNop()
	zap.ReplaceGlobals(util.Logger)

	hash, _ := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.DefaultCost)
	config.AppConfig.AdminPasswordHash = string(hash)
	config.AppConfig.JWTSecret = "test-secret"

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("tg_channel", util.ValidateTGChannelID)
	}

	os.Exit(m.Run())
}

// MockRegionRepository 是 RegionRepository 接口的模拟实现
type MockRegionRepository struct {
	mock.Mock
}

func (m *MockRegionRepository) FindByGuild(guildID string) (*model.Region, error) {
	args := m.Called(guildID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Region), args.Error(1)
}

func (m *MockRegionRepository) Upsert(region *model.Region) error {
	args := m.Called(region)
	return args.Error(0)
}

func setupRouter(t *testing.T, regions *MockRegionRepository) *gin.Engine {
	t.Helper()
	avatars, err := storage.NewAvatarStorage(t.TempDir(), "http://localhost:8080")
	assert.NoError(t, err)

	handler := NewAdminHandler(service.NewRegionService(regions), nil, avatars)
	r := gin.New()
	r.POST("/api/admin/login", handler.Login)
	r.GET("/api/admin/regions/:guild_id", handler.GetRegion)
	r.PUT("/api/admin/regions/:guild_id", handler.UpdateRegion)
	r.POST("/api/admin/avatars", handler.UploadAvatar)
	return r
}

func avatarUploadRequest(t *testing.T, filename string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("avatar", filename)
	assert.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())

	req, _ := http.NewRequest("POST", "/api/admin/avatars", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestLoginWithCorrectPassword(t *testing.T) {
	r := setupRouter(t, new(MockRegionRepository))

	body, _ := json.Marshal(gin.H{"password": "hunter2"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/admin/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)
	assert.NoError(t, util.ValidateAdminToken(resp.Data.Token))
}

func TestLoginWithWrongPassword(t *testing.T) {
	r := setupRouter(t, new(MockRegionRepository))

	body, _ := json.Marshal(gin.H{"password": "wrong"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/admin/login", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetRegionNotConfigured(t *testing.T) {
	regions := new(MockRegionRepository)
	regions.On("FindByGuild", "g1").Return(nil, nil)
	r := setupRouter(t, regions)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/admin/regions/g1", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRegion(t *testing.T) {
	regions := new(MockRegionRepository)
	regions.On("Upsert", &model.Region{GuildID: "g1", TweetChannelID: "-1001234567890"}).Return(nil)
	r := setupRouter(t, regions)

	body, _ := json.Marshal(gin.H{"tweet_channel_id": "-1001234567890"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/admin/regions/g1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	regions.AssertExpectations(t)
}

func TestUploadAvatar(t *testing.T) {
	r := setupRouter(t, new(MockRegionRepository))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, avatarUploadRequest(t, "portrait.png"))

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Ref string `json:"ref"`
			URL string `json:"url"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Ref)
	assert.Contains(t, resp.Data.Ref, ".png")
	assert.Equal(t, "http://localhost:8080/avatars/"+resp.Data.Ref, resp.Data.URL)
}

func TestUploadAvatarRejectsUnsupportedFormat(t *testing.T) {
	r := setupRouter(t, new(MockRegionRepository))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, avatarUploadRequest(t, "payload.exe"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateRegionRejectsBadChannelID(t *testing.T) {
	regions := new(MockRegionRepository)
	r := setupRouter(t, regions)

	body, _ := json.Marshal(gin.H{"tweet_channel_id": "not-a-channel"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/admin/regions/g1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	regions.AssertNotCalled(t, "Upsert", mock.Anything)
}
