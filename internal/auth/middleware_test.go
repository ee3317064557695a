package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatapp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(tokens *jwt.Manager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	whoami := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": UserID(c), "username": c.GetString(ContextUsername)})
	}
	r.GET("/private", AuthMiddleware(tokens), whoami)
	r.GET("/stream", StreamAuthMiddleware(tokens), whoami)
	return r
}

func get(r *gin.Engine, path, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour, time.Hour)
	r := newRouter(tokens)

	access, err := tokens.GenerateAccessToken(7, "alice", "alice@example.com")
	require.NoError(t, err)
	verify, err := tokens.GenerateVerificationToken(7, "alice@example.com")
	require.NoError(t, err)
	expired, err := jwt.NewManager("secret", -time.Minute, time.Hour).GenerateAccessToken(7, "alice", "a@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + access, http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"garbage", "Bearer abc.def.ghi", http.StatusForbidden},
		{"verification token", "Bearer " + verify, http.StatusForbidden},
		{"expired", "Bearer " + expired, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/private", tt.header)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := get(r, "/private", "Bearer "+access)
	assert.JSONEq(t, `{"id":7,"username":"alice"}`, w.Body.String())
}

func TestStreamAuthMiddleware_AcceptsQueryToken(t *testing.T) {
	tokens := jwt.NewManager("secret", time.Hour, time.Hour)
	r := newRouter(tokens)
	access, err := tokens.GenerateAccessToken(3, "bob", "bob@example.com")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, get(r, "/stream?token="+access, "").Code)
	assert.Equal(t, http.StatusOK, get(r, "/stream", "Bearer "+access).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/stream", "").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/stream?token=nope", "").Code)

	// Query tokens are not accepted on regular routes.
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private?token="+access, "").Code)
}
