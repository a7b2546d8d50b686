package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryDocument(t *testing.T) {
	ts := newTestServer(t)

	var doc map[string]any
	w := ts.getJSON(t, "/.well-known/openid-configuration", "", &doc)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "http://localhost:8080", doc["issuer"])
	assert.Equal(t, "http://localhost:8080/oauth2/authorize", doc["authorization_endpoint"])
	assert.Equal(t, "http://localhost:8080/token", doc["token_endpoint"])
	assert.Equal(t, "http://localhost:8080/userinfo", doc["userinfo_endpoint"])
	assert.Equal(t, "http://localhost:8080/.well-known/jwks.json", doc["jwks_uri"])
	assert.Contains(t, doc["grant_types_supported"], "authorization_code")
	// HMAC fallback is active in tests.
	assert.Contains(t, doc["id_token_signing_alg_values_supported"], "HS256")
}

func TestJWKSEmptyInHMACMode(t *testing.T) {
	ts := newTestServer(t)

	var jwks map[string]any
	w := ts.getJSON(t, "/.well-known/jwks.json", "", &jwks)
	require.Equal(t, http.StatusOK, w.Code)

	keys, ok := jwks["keys"].([]any)
	require.True(t, ok)
	assert.Empty(t, keys)
}

func TestUserInfo(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t, "demo",
		[]string{"http://localhost:4000/cb"},
		[]string{"openid", "email", "profile", "organization"},
	)
	user := ts.createUser(t, "alice@example.com", "correct horse", "user")

	access := ts.issueToken(t, client.ClientSecretPlain,
		"alice@example.com", "correct horse", "openid email profile organization")

	var info map[string]any
	w := ts.getJSON(t, "/userinfo", access, &info)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, user.ID, info["sub"])
	assert.Equal(t, "alice", info["preferred_username"])
	assert.Equal(t, "alice@example.com", info["email"])
	assert.Equal(t, true, info["email_verified"])
	assert.Equal(t, "Alice Smith", info["name"])
	assert.Contains(t, info, "updated_at")

	// Organization attributes appear both nested and flattened.
	org, ok := info["organization"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Engineering", org["department"])
	assert.Equal(t, "Engineering", info["department"])
}

func TestUserInfoScopeGating(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t, "demo", []string{"http://localhost:4000/cb"}, []string{"openid"})
	user := ts.createUser(t, "alice@example.com", "correct horse", "user")

	access := ts.issueToken(t, client.ClientSecretPlain,
		"alice@example.com", "correct horse", "openid")

	var info map[string]any
	w := ts.getJSON(t, "/userinfo", access, &info)
	require.Equal(t, http.StatusOK, w.Code)

	// Only sub and preferred_username without further scopes; email needs
	// the email scope.
	assert.Equal(t, user.ID, info["sub"])
	assert.Equal(t, "alice", info["preferred_username"])
	assert.NotContains(t, info, "email")
	assert.NotContains(t, info, "email_verified")
	assert.NotContains(t, info, "name")
	assert.NotContains(t, info, "organization")
	assert.NotContains(t, info, "department")
	assert.NotContains(t, info, "updated_at")
}

func TestUserInfoEmailScope(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t, "demo",
		[]string{"http://localhost:4000/cb"},
		[]string{"openid", "email"},
	)
	ts.createUser(t, "alice@example.com", "correct horse", "user")

	access := ts.issueToken(t, client.ClientSecretPlain,
		"alice@example.com", "correct horse", "openid email")

	var info map[string]any
	w := ts.getJSON(t, "/userinfo", access, &info)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "alice@example.com", info["email"])
	assert.Equal(t, true, info["email_verified"])
	assert.NotContains(t, info, "name")
}

func TestUserInfoUnknownUser(t *testing.T) {
	ts := newTestServer(t)
	client := ts.createClient(t, "demo", []string{"http://localhost:4000/cb"}, []string{"openid"})
	user := ts.createUser(t, "alice@example.com", "correct horse", "user")

	access := ts.issueToken(t, client.ClientSecretPlain,
		"alice@example.com", "correct horse", "openid")

	// Signature-only verification keeps the token alive, but the user row
	// behind it is gone.
	require.NoError(t, ts.store.DeleteUser(user.ID))

	var body map[string]any
	w := ts.getJSON(t, "/userinfo", access, &body)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "user_not_found", body["error"])
}

func TestUserInfoRequiresToken(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/userinfo", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Access token required")
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}
