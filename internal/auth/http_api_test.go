package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-ssohub/ssohub/internal/client"
	"github.com/go-ssohub/ssohub/internal/config"
)

func newHTTPAPIProvider(t *testing.T, cfg *config.Config) *HTTPAPIProvider {
	t.Helper()
	retryClient, err := client.CreateRetryClient(
		cfg.HTTPAPIAuthMode,
		cfg.HTTPAPIAuthSecret,
		10*time.Second,
		false,
		1,
		10*time.Millisecond,
		50*time.Millisecond,
		cfg.HTTPAPIAuthHeader,
	)
	require.NoError(t, err)
	return NewHTTPAPIProvider(cfg, retryClient)
}

func TestHTTPAPIProvider_Authenticate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req APIAuthRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "user@example.com", req.Email)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(APIAuthResponse{
			Success:  true,
			UserID:   "ext-user-123",
			Email:    "user@example.com",
			FullName: "Test User",
		})
	}))
	defer server.Close()

	provider := newHTTPAPIProvider(t, &config.Config{HTTPAPIURL: server.URL})
	result, err := provider.Authenticate(context.Background(), "user@example.com", "password123")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ext-user-123", result.ExternalID)
	assert.Equal(t, "user@example.com", result.Email)
}

func TestHTTPAPIProvider_Authenticate_MissingUserID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(APIAuthResponse{
			Success: true,
			Email:   "user@example.com",
		})
	}))
	defer server.Close()

	provider := newHTTPAPIProvider(t, &config.Config{HTTPAPIURL: server.URL})
	result, err := provider.Authenticate(context.Background(), "user@example.com", "password123")

	assert.ErrorIs(t, err, ErrHTTPAPIInvalidResp)
	assert.Nil(t, result)
}

func TestHTTPAPIProvider_Authenticate_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(APIAuthResponse{
			Success: false,
			Message: "Invalid credentials",
		})
	}))
	defer server.Close()

	provider := newHTTPAPIProvider(t, &config.Config{HTTPAPIURL: server.URL})
	result, err := provider.Authenticate(context.Background(), "user@example.com", "wrongpassword")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, result)
}

func TestHTTPAPIProvider_Authenticate_Non2xxStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(APIAuthResponse{
			Success: false,
			Message: "Unauthorized access",
		})
	}))
	defer server.Close()

	provider := newHTTPAPIProvider(t, &config.Config{HTTPAPIURL: server.URL})
	result, err := provider.Authenticate(context.Background(), "user@example.com", "password123")

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestHTTPAPIProvider_Authenticate_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	provider := newHTTPAPIProvider(t, &config.Config{HTTPAPIURL: server.URL})
	result, err := provider.Authenticate(context.Background(), "user@example.com", "password123")

	assert.ErrorIs(t, err, ErrHTTPAPIInvalidResp)
	assert.Nil(t, result)
}

func TestHTTPAPIProvider_SimpleAuthHeader(t *testing.T) {
	const testSecret = "auth-secret-key-123" //nolint:gosec // Test secret, not production

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Secret") != testSecret {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(APIAuthResponse{
				Success: false,
				Message: "Invalid API secret",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(APIAuthResponse{
			Success: true,
			UserID:  "ext-user-123",
		})
	}))
	defer server.Close()

	provider := newHTTPAPIProvider(t, &config.Config{
		HTTPAPIURL:        server.URL,
		HTTPAPIAuthMode:   "simple",
		HTTPAPIAuthSecret: testSecret,
		HTTPAPIAuthHeader: "X-API-Secret",
	})
	result, err := provider.Authenticate(context.Background(), "user@example.com", "password123")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "ext-user-123", result.ExternalID)
}

func TestHTTPAPIProvider_Name(t *testing.T) {
	provider := newHTTPAPIProvider(t, &config.Config{})
	assert.Equal(t, "http_api", provider.Name())
}
