package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret"

func signTestToken(t *testing.T, secret, userID string) string {
	t.Helper()
	claims := &JWTClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthTestRouter(secret string) *gin.Engine {
	router := setupTestRouter()
	middleware := NewAuthMiddleware(secret)

	router.GET("/protected", middleware.Authenticate(), func(c *gin.Context) {
		userID, _ := c.Get("user_id")
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})

	return router
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := newAuthTestRouter(testJWTSecret)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, testJWTSecret, "user-42"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-42")
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router := newAuthTestRouter(testJWTSecret)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_NotBearer(t *testing.T) {
	router := newAuthTestRouter(testJWTSecret)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	router := newAuthTestRouter(testJWTSecret)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "another-secret", "user-42"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	router := newAuthTestRouter(testJWTSecret)

	claims := &JWTClaims{
		UserID: "user-42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func newInternalTestRouter(token string) *gin.Engine {
	router := setupTestRouter()
	middleware := NewInternalAuthMiddleware(token)

	router.POST("/internal/process", middleware.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}

func TestInternalAuthMiddleware_ValidToken(t *testing.T) {
	router := newInternalTestRouter("internal-secret")

	req, _ := http.NewRequest(http.MethodPost, "/internal/process", nil)
	req.Header.Set("X-Internal-Token", "internal-secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInternalAuthMiddleware_WrongToken(t *testing.T) {
	router := newInternalTestRouter("internal-secret")

	req, _ := http.NewRequest(http.MethodPost, "/internal/process", nil)
	req.Header.Set("X-Internal-Token", "guess")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInternalAuthMiddleware_DisabledWhenUnconfigured(t *testing.T) {
	// Пустой секрет выключает endpoint целиком, а не открывает его
	router := newInternalTestRouter("")

	req, _ := http.NewRequest(http.MethodPost, "/internal/process", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
