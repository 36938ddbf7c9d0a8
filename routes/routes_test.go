package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"grocery-marketplace-api/config"
	"grocery-marketplace-api/handlers"
	"grocery-marketplace-api/mailer"
	"grocery-marketplace-api/middleware"
	"grocery-marketplace-api/models"
	"grocery-marketplace-api/services"
	"grocery-marketplace-api/storage"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    json.RawMessage `json:"meta"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	jwt    *middleware.JWT
	fs     afero.Fs
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	db, err := config.OpenDB(config.DatabaseConfig{Driver: "sqlite", DSN: dsn}, zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, config.Migrate(db))

	log := zap.NewNop()
	fs := afero.NewMemMapFs()
	blobs := storage.NewFSStore(fs, "/uploads")
	jwt := middleware.NewJWT("0123456789abcdef0123", time.Hour)

	h := &handlers.Handler{
		Users:     services.NewUserService(db, jwt, log),
		Drivers:   services.NewDriverApplicationService(db, blobs, mailer.NewLogSender(log), log),
		Catalog:   services.NewCatalogService(db),
		Cart:      services.NewCartService(db),
		Wishlist:  services.NewWishlistService(db),
		Orders:    services.NewOrderService(db, log),
		Reviews:   services.NewReviewService(db),
		Wholesale: services.NewWholesaleService(db),
		Dashboard: services.NewDashboardService(db),
	}
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.RequestLogger(log))
	SetupRoutes(r, h, jwt)

	return &testServer{t: t, router: r, db: db, jwt: jwt, fs: fs}
}

func (s *testServer) do(req *http.Request, token string) (int, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	var body envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func (s *testServer) json(method, path, token string, payload any) (int, envelope) {
	s.t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(s.t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func (s *testServer) multipart(path, token string, fields map[string]string, docs int) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	for i := 0; i < docs; i++ {
		fw, err := mw.CreateFormFile("documents", fmt.Sprintf("doc-%d.png", i))
		require.NoError(s.t, err)
		_, err = fw.Write(pngBytes)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, token)
}

func (s *testServer) user(email string, role models.UserRole) (*models.User, string) {
	s.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(s.t, err)
	u := &models.User{FirstName: "Test", Email: email, Phone: "+1-" + email, PasswordHash: string(hash), Role: role}
	require.NoError(s.t, s.db.Create(u).Error)
	token, err := s.jwt.Issue(services.Identity{UserID: u.ID, Email: u.Email, Role: u.Role})
	require.NoError(s.t, err)
	return u, token
}

func (s *testServer) storedFiles() int {
	s.t.Helper()
	n := 0
	require.NoError(s.t, afero.Walk(s.fs, "/", func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			n++
		}
		return err
	}))
	return n
}

func driverFields(email string) map[string]string {
	return map[string]string{
		"firstName":         "Jane",
		"lastName":          "Doe",
		"email":             email,
		"phone":             "555-" + email,
		"password":          "secret123",
		"address":           "1 Main St",
		"licenseExpiryDate": "2030-01-01",
		"yearsOfExperience": "4",
	}
}

func TestGuestDriverRegistrationAndApproval(t *testing.T) {
	s := newTestServer(t)

	code, body := s.multipart("/api/drivers/register", "", driverFields("jane@x.com"), 2)
	require.Equal(t, http.StatusCreated, code, body.Message)
	var result services.UnifiedResult
	require.NoError(t, json.Unmarshal(body.Data, &result))
	assert.NotZero(t, result.UserID)
	assert.NotZero(t, result.ApplicationID)
	assert.Equal(t, 2, s.storedFiles())

	code, body = s.multipart("/api/drivers/register", "", driverFields("jane@x.com"), 1)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "Email or Phone already exists", body.Message)
	assert.Equal(t, 2, s.storedFiles(), "rejected registrations leave no files behind")

	code, body = s.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "jane@x.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, code, body.Message)
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &auth))

	code, body = s.do(httptest.NewRequest(http.MethodGet, "/api/drivers/me", nil), auth.Token)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body.Data), `"status":"pending"`)

	_, adminToken := s.user("admin@x.com", models.RoleAdmin)
	path := fmt.Sprintf("/api/admin/drivers/%d/status", result.ApplicationID)

	code, _ = s.json(http.MethodPatch, path, auth.Token, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, code, "applicants cannot decide their own application")

	code, body = s.json(http.MethodPatch, path, adminToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, code, body.Message)

	var user models.User
	require.NoError(t, s.db.First(&user, result.UserID).Error)
	assert.Equal(t, models.RoleDriver, user.Role)

	code, body = s.json(http.MethodPatch, path, adminToken, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body.Message, "terminal state")
}

func TestDriverRegistrationValidation(t *testing.T) {
	s := newTestServer(t)

	fields := driverFields("bad-email")
	code, _ := s.multipart("/api/drivers/register", "", fields, 1)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := s.multipart("/api/drivers/register", "", driverFields("jane@x.com"), 0)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Documents are required", body.Message)

	var users int64
	require.NoError(t, s.db.Model(&models.User{}).Count(&users).Error)
	assert.Zero(t, users, "the guest account is rolled back")

	code, body = s.multipart("/api/drivers/register", "not-a-token", driverFields("jane@x.com"), 1)
	require.Equal(t, http.StatusCreated, code, "an unusable token registers as a guest: %s", body.Message)
	require.NoError(t, s.db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)
}

func TestLoggedInDriverJoin(t *testing.T) {
	s := newTestServer(t)
	_, token := s.user("sam@x.com", models.RoleCustomer)

	code, body := s.do(httptest.NewRequest(http.MethodGet, "/api/drivers/me", nil), token)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "You have not applied as a driver", body.Message)

	code, body = s.multipart("/api/drivers/join", token, driverFields("sam@x.com"), 1)
	require.Equal(t, http.StatusCreated, code, body.Message)

	code, body = s.multipart("/api/drivers/join", token, driverFields("sam@x.com"), 1)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Request already pending", body.Message)

	code, _ = s.multipart("/api/drivers/join", "", driverFields("sam@x.com"), 1)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminListingIsPaged(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user("admin@x.com", models.RoleAdmin)
	for i := 0; i < 3; i++ {
		code, body := s.multipart("/api/drivers/register", "", driverFields(fmt.Sprintf("d%d@x.com", i)), 1)
		require.Equal(t, http.StatusCreated, code, body.Message)
	}

	code, body := s.do(httptest.NewRequest(http.MethodGet, "/api/admin/drivers?status=pending&limit=2&page=2", nil), adminToken)
	require.Equal(t, http.StatusOK, code, body.Message)
	var meta services.Meta
	require.NoError(t, json.Unmarshal(body.Meta, &meta))
	assert.Equal(t, services.Meta{Page: 2, Limit: 2, Total: 3, TotalPage: 2}, meta)

	var apps []models.DriverApplication
	require.NoError(t, json.Unmarshal(body.Data, &apps))
	assert.Len(t, apps, 1)

	code, _ = s.do(httptest.NewRequest(http.MethodGet, "/api/admin/drivers/abc", nil), adminToken)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRegisterAndRoleGuards(t *testing.T) {
	s := newTestServer(t)

	code, body := s.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Cara", "email": "cara@x.com", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, code, body.Message)

	code, _ = s.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Root", "email": "root@x.com", "password": "secret123", "role": "admin",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	_, customer := s.user("c@x.com", models.RoleCustomer)
	code, body = s.do(httptest.NewRequest(http.MethodGet, "/api/dashboard/analytics", nil), customer)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Access denied. Required role(s): admin", body.Message)

	code, body = s.do(httptest.NewRequest(http.MethodGet, "/api/state-machine", nil), "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body.Data), `"driverApplications"`)
}
