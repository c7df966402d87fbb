package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutrifarm-backend/pkg/jwt"
)

func newRouter(manager *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())

	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	authed := r.Group("/", AuthMiddleware(manager))
	authed.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.MustGet("userID").(uuid.UUID).String())
	})
	authed.GET("/admin", AdminMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute)
	r := newRouter(manager)
	userID := uuid.New()

	token, err := manager.GenerateAccessToken(userID.String(), "u@example.com", jwt.RoleCustomer)
	require.NoError(t, err)

	w := get(r, "/me", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "not-a-token").Code)

	badID, err := manager.GenerateAccessToken("not-a-uuid", "", jwt.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", badID).Code)
}

func TestAdminMiddleware(t *testing.T) {
	manager := jwt.NewManager("secret", time.Minute)
	r := newRouter(manager)

	customer, err := manager.GenerateAccessToken(uuid.NewString(), "", jwt.RoleCustomer)
	require.NoError(t, err)
	admin, err := manager.GenerateAccessToken(uuid.NewString(), "", jwt.RoleAdmin)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, get(r, "/admin", customer).Code)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", admin).Code)
}

func TestRequestIDAndRecovery(t *testing.T) {
	r := newRouter(jwt.NewManager("secret", time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Contains(t, w.Body.String(), `"request_id":"req-123"`)

	w = get(r, "/panic", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}
