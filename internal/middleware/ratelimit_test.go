package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ssohub/ssohub/internal/config"
)

func limiterConfig(login, token, api int64) *config.Config {
	return &config.Config{
		RateLimitStore:  "memory",
		RateLimitWindow: 15 * time.Minute,
		LoginRateLimit:  login,
		TokenRateLimit:  token,
		APIRateLimit:    api,
	}
}

func newLimitedRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()

	limiters, err := NewRateLimiters(cfg)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.POST("/auth/login", limiters.Login, ok)
	r.POST("/token", limiters.Token, ok)
	r.GET("/api/ping", limiters.API, ok)
	return r
}

func hit(r *gin.Engine, method, path string) int {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitEnforced(t *testing.T) {
	r := newLimitedRouter(t, limiterConfig(2, 3, 100))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, hit(r, http.MethodPost, "/auth/login"))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodPost, "/auth/login"))
}

func TestRateLimitPerEndpoint(t *testing.T) {
	r := newLimitedRouter(t, limiterConfig(1, 2, 100))

	// Exhausting the login budget leaves the token endpoint untouched.
	assert.Equal(t, http.StatusOK, hit(r, http.MethodPost, "/auth/login"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodPost, "/auth/login"))

	assert.Equal(t, http.StatusOK, hit(r, http.MethodPost, "/token"))
	assert.Equal(t, http.StatusOK, hit(r, http.MethodPost, "/token"))
	assert.Equal(t, http.StatusTooManyRequests, hit(r, http.MethodPost, "/token"))

	assert.Equal(t, http.StatusOK, hit(r, http.MethodGet, "/api/ping"))
}

func TestRateLimitErrorBody(t *testing.T) {
	r := newLimitedRouter(t, limiterConfig(1, 1, 1))

	require.Equal(t, http.StatusOK, hit(r, http.MethodPost, "/auth/login"))

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}
