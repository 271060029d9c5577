package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datptitudu2/backendthuvienptit/internal/config"
	"github.com/datptitudu2/backendthuvienptit/internal/entities"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(t *testing.T) (*gin.Engine, string, string) {
	t.Helper()
	svc := setupService(t, config.Auth{AdminEmail: "admin@example.com", AdminPassword: "admin-secret"})
	ctx := context.Background()

	_, err := svc.EnsureAdmin(ctx)
	require.NoError(t, err)
	_, err = svc.Register(ctx, "reader@example.com", "Reader", "secret123")
	require.NoError(t, err)

	admin, err := svc.Login(ctx, "admin@example.com", "admin-secret")
	require.NoError(t, err)
	reader, err := svc.Login(ctx, "reader@example.com", "secret123")
	require.NoError(t, err)

	m := NewMiddleware(svc)
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	api := router.Group("/api", m.Handler())
	api.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetUserRole(c), "admin": IsAdmin(c)})
	})
	api.GET("/admin", m.RequireRole(entities.UserRoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	return router, admin.Token, reader.Token
}

func doRequest(router http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_RequiresToken(t *testing.T) {
	router, _, _ := setupRouter(t)

	rr := doRequest(router, "/api/me", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "authentication required")

	rr = doRequest(router, "/api/me", "Basic abc")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = doRequest(router, "/api/me", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid or expired token")
}

func TestMiddleware_ValidToken(t *testing.T) {
	router, _, readerToken := setupRouter(t)

	rr := doRequest(router, "/api/me", "Bearer "+readerToken)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"role":"user"`)
	assert.Contains(t, rr.Body.String(), `"admin":false`)
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = doRequest(router, "/api/me", "bearer "+readerToken)
	assert.Equal(t, http.StatusOK, rr.Code, "scheme is case-insensitive")
}

func TestMiddleware_RequireRole(t *testing.T) {
	router, adminToken, readerToken := setupRouter(t)

	rr := doRequest(router, "/api/admin", "Bearer "+readerToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = doRequest(router, "/api/admin", "Bearer "+adminToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestStrictTransportSecurityMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := doRequest(router, "/", "")
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}
