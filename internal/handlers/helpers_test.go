package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-ssohub/ssohub/internal/auth"
	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/middleware"
	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/store"
	"github.com/go-ssohub/ssohub/internal/token"
)

// testServer wires the full handler surface over in-memory infrastructure,
// mirroring the production route layout.
type testServer struct {
	router  *gin.Engine
	cfg     *config.Config
	store   *store.Store
	keys    *signing.KeySet
	users   *services.UserService
	clients *services.ClientService
	origins *services.OriginService
	tokens  *services.TokenService
	flow    *services.AuthorizationService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		BaseURL:               "http://localhost:8080",
		Audience:              "http://localhost:8080",
		JWTSecret:             "handler-test-secret",
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

	origins := services.NewOriginService(
		s,
		cache.NewMemoryCache[services.OriginSnapshot](),
		cfg.OriginCacheTTL,
		cfg.CORSDefaultOrigins,
		cfg.BaseURL,
	)
	clients := services.NewClientService(s, origins)
	users := services.NewUserService(s, cfg.BcryptCost)
	issuer := token.NewIssuer(cfg, keys)
	tokens := services.NewTokenService(s, issuer, keys)
	flow := services.NewAuthorizationService(s, clients, auth.NewLocalProvider(s), cfg.CodeExpiration)
	audit := services.NewAuditService(s, false, 0)

	oauthH := NewOAuthHandler(flow, clients, tokens, audit)
	oidcH := NewOIDCHandler(cfg, keys, tokens)
	clientH := NewClientAdminHandler(clients, audit)
	userH := NewUserAdminHandler(users, audit)
	originH := NewOriginAdminHandler(origins, audit)
	auditH := NewAuditAdminHandler(audit)
	healthH := NewHealthHandler(s)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("sso_session", cookie.NewStore([]byte("test-session-secret"))))

	r.GET("/oauth2/authorize", oauthH.Authorize)
	r.POST("/auth/login", oauthH.Login)
	r.POST("/token", oauthH.Token)

	r.GET("/.well-known/openid-configuration", oidcH.Discovery)
	r.GET("/.well-known/jwks.json", oidcH.JWKS)
	r.GET("/userinfo", middleware.RequireTokenSignature(tokens), oidcH.UserInfo)
	r.GET("/healthz", healthH.Health)

	admin := r.Group("/api/admin", middleware.RequireToken(tokens), middleware.RequireAdmin())
	{
		admin.GET("/clients", clientH.List)
		admin.GET("/clients/stats", clientH.Stats)
		admin.GET("/clients/:id", clientH.Get)
		admin.POST("/clients", clientH.Create)
		admin.PUT("/clients/:id", clientH.Update)
		admin.DELETE("/clients/:id", clientH.Delete)
		admin.POST("/clients/:id/secret", clientH.RegenerateSecret)

		admin.GET("/users", userH.List)
		admin.GET("/users/stats", userH.Stats)
		admin.GET("/users/:id", userH.Get)
		admin.POST("/users", userH.Create)
		admin.PUT("/users/:id", userH.Update)
		admin.DELETE("/users/:id", userH.Delete)

		admin.GET("/origins", originH.List)
		admin.POST("/origins", originH.Add)
		admin.DELETE("/origins/:id", originH.Remove)
		admin.POST("/origins/:id/toggle", originH.Toggle)
		admin.POST("/origins/:id/convert", originH.ConvertToManual)
		admin.POST("/origins/refresh", originH.Refresh)

		admin.GET("/audit", auditH.List)
	}

	return &testServer{
		router:  r,
		cfg:     cfg,
		store:   s,
		keys:    keys,
		users:   users,
		clients: clients,
		origins: origins,
		tokens:  tokens,
		flow:    flow,
	}
}

func (ts *testServer) createUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()
	user, err := ts.users.CreateUser(services.CreateUserRequest{
		Username:   strings.SplitN(email, "@", 2)[0],
		Email:      email,
		Password:   password,
		FirstName:  "Alice",
		LastName:   "Smith",
		Department: "Engineering",
		Role:       role,
	})
	require.NoError(t, err)
	return user
}

func (ts *testServer) createClient(t *testing.T, clientID string, redirectURIs, scopes []string) *services.ClientResponse {
	t.Helper()
	resp, err := ts.clients.CreateClient(t.Context(), services.CreateClientRequest{
		ClientID:     clientID,
		Name:         clientID + " app",
		RedirectURIs: redirectURIs,
		Scopes:       scopes,
	})
	require.NoError(t, err)
	return resp
}

// issueToken drives the full code flow and returns the access token.
func (ts *testServer) issueToken(t *testing.T, clientSecret, email, password, scope string) string {
	t.Helper()

	_, redirect, err := ts.flow.Login(t.Context(), email, password, services.AuthorizeRequest{
		ResponseType: "code",
		ClientID:     "demo",
		RedirectURI:  "http://localhost:4000/cb",
		Scope:        scope,
	})
	require.NoError(t, err)

	parsed, err := url.Parse(redirect)
	require.NoError(t, err)

	resp, err := ts.tokens.Exchange(t.Context(), services.ExchangeRequest{
		GrantType:    "authorization_code",
		Code:         parsed.Query().Get("code"),
		ClientID:     "demo",
		ClientSecret: clientSecret,
	})
	require.NoError(t, err)
	return resp.AccessToken
}

func (ts *testServer) do(method, path, bearer string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) getJSON(t *testing.T, path, bearer string, out any) *httptest.ResponseRecorder {
	t.Helper()
	w := ts.do(http.MethodGet, path, bearer, nil, "")
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func (ts *testServer) postJSON(method, path, bearer, body string) *httptest.ResponseRecorder {
	return ts.do(method, path, bearer, strings.NewReader(body), "application/json")
}

func (ts *testServer) postForm(path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}
