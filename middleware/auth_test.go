package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"grocery-marketplace-api/models"
	"grocery-marketplace-api/response"
	"grocery-marketplace-api/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123"

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Body {
	t.Helper()
	var body response.Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func identityRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		c.JSON(http.StatusOK, gin.H{"ok": ok, "email": id.Email, "role": id.Role})
	})
	r.GET("/", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	j := NewJWT(secret, time.Hour)
	token, err := j.Issue(services.Identity{UserID: 7, Email: "jane@x.com", Role: models.RoleCustomer})
	require.NoError(t, err)
	r := identityRouter(j.AuthRequired())

	w := get(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"email":"jane@x.com","role":"customer"}`, w.Body.String())

	w = get(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Authorization header required (Bearer <token>)", decode(t, w).Message)

	w = get(r, token+"x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid or expired token", decode(t, w).Message)
}

func TestAuthRequired_RejectsExpiredAndForeignTokens(t *testing.T) {
	expired := NewJWT(secret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.Issue(services.Identity{UserID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	foreign, err := NewJWT("another-secret-value-123", time.Hour).Issue(services.Identity{UserID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Email: "a@x.com"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	r := identityRouter(NewJWT(secret, time.Hour).AuthRequired())
	for name, token := range map[string]string{"expired": old, "foreign": foreign, "alg none": none} {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	j := NewJWT(secret, time.Hour)
	token, err := j.Issue(services.Identity{UserID: 7, Email: "jane@x.com", Role: models.RoleCustomer})
	require.NoError(t, err)
	r := identityRouter(j.OptionalAuth())

	w := get(r, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":false,"email":"","role":""}`, w.Body.String())

	w = get(r, token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"email":"jane@x.com","role":"customer"}`, w.Body.String())

	expired, err := NewJWT(secret, -time.Minute).Issue(services.Identity{UserID: 7, Email: "jane@x.com", Role: models.RoleCustomer})
	require.NoError(t, err)
	for _, bad := range []string{"garbage", expired} {
		w = get(r, bad)
		require.Equal(t, http.StatusOK, w.Code, "bad tokens fall back to a guest")
		assert.JSONEq(t, `{"ok":false,"email":"","role":""}`, w.Body.String())
	}
}

func TestRoleRequired(t *testing.T) {
	j := NewJWT(secret, time.Hour)
	r := identityRouter(j.AuthRequired(), RoleRequired(models.RoleAdmin, models.RoleSupplier))

	admin, err := j.Issue(services.Identity{UserID: 1, Email: "a@x.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	customer, err := j.Issue(services.Identity{UserID: 2, Email: "c@x.com", Role: models.RoleCustomer})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, admin).Code)

	w := get(r, customer)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. Required role(s): admin, supplier", decode(t, w).Message)

	w = get(identityRouter(RoleRequired(models.RoleAdmin)), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
