package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-ssohub/ssohub/internal/auth"
	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/store"
	"github.com/go-ssohub/ssohub/internal/token"
)

// testEnv wires the full service stack over an in-memory database with the
// HS256 fallback signer.
type testEnv struct {
	cfg     *config.Config
	store   *store.Store
	keys    *signing.KeySet
	origins *OriginService
	clients *ClientService
	users   *UserService
	tokens  *TokenService
	flow    *AuthorizationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		BaseURL:               "http://localhost:8080",
		Audience:              "http://localhost:8080",
		JWTSecret:             "test-secret",
		RSAPrivateKeyPath:     "testdata/missing-private.pem",
		RSAPublicKeyPath:      "testdata/missing-public.pem",
		AccessTokenExpiration: time.Hour,
		IDTokenExpiration:     time.Hour,
		CodeExpiration:        10 * time.Minute,
		BcryptCost:            bcrypt.MinCost,
		OriginCacheTTL:        30 * time.Second,
		CORSDefaultOrigins:    []string{"http://localhost:3000"},
	}

	s, err := store.New("sqlite", ":memory:")
	require.NoError(t, err)

	keys, err := signing.Load(cfg)
	require.NoError(t, err)

	origins := NewOriginService(
		s,
		cache.NewMemoryCache[OriginSnapshot](),
		cfg.OriginCacheTTL,
		cfg.CORSDefaultOrigins,
		cfg.BaseURL,
	)
	clients := NewClientService(s, origins)
	users := NewUserService(s, cfg.BcryptCost)

	issuer := token.NewIssuer(cfg, keys)
	tokens := NewTokenService(s, issuer, keys)
	flow := NewAuthorizationService(s, clients, auth.NewLocalProvider(s), cfg.CodeExpiration)

	return &testEnv{
		cfg:     cfg,
		store:   s,
		keys:    keys,
		origins: origins,
		clients: clients,
		users:   users,
		tokens:  tokens,
		flow:    flow,
	}
}

func (e *testEnv) createUser(t *testing.T, email, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New().String(),
		Username:     email[:1] + "user" + uuid.New().String()[:8],
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    "Test",
		LastName:     "User",
		Department:   "Engineering",
		Team:         models.OrgFieldUnset,
		Supervisor:   models.OrgFieldUnset,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, e.store.CreateUser(user))
	return user
}

func (e *testEnv) createClient(t *testing.T, clientID string, redirectURIs, scopes []string) *ClientResponse {
	t.Helper()
	resp, err := e.clients.CreateClient(t.Context(), CreateClientRequest{
		ClientID:     clientID,
		Name:         clientID + " app",
		RedirectURIs: redirectURIs,
		Scopes:       scopes,
	})
	require.NoError(t, err)
	return resp
}
