package bootstrap

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/middleware"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/util"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(
	cfg *config.Config,
	h handlerSet,
	originService *services.OriginService,
	tokenService *services.TokenService,
	recorder metrics.Recorder,
) *gin.Engine {
	r := gin.New()

	// Setup middleware
	r.Use(metrics.HTTPMetricsMiddleware(recorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(util.IPMiddleware())
	r.Use(middleware.CORS(originService))
	r.Use(middleware.SecurityHeaders(originService))

	// Setup session middleware
	setupSessionMiddleware(r, cfg)

	// Health check endpoint
	r.GET("/healthz", h.health.Health)

	// Setup metrics endpoint
	setupMetricsEndpoint(r, cfg)

	// Setup rate limiting
	rateLimiters, err := middleware.NewRateLimiters(cfg)
	if err != nil {
		log.Fatalf("Failed to create rate limiters: %v", err)
	}

	// Setup all routes
	setupAllRoutes(r, h, tokenService, rateLimiters)

	// Log server startup info
	logServerStartup(cfg)

	return r
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600,
		HttpOnly: true,
		Secure:   strings.HasPrefix(cfg.BaseURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("sso_session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsAuthToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuth(cfg.MetricsAuthToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(
	r *gin.Engine,
	h handlerSet,
	tokenService *services.TokenService,
	rateLimiters *middleware.RateLimiters,
) {
	// Browser-facing authorization flow (sessions + CSRF)
	browser := r.Group("")
	browser.Use(middleware.CSRF())
	{
		browser.GET("/oauth2/authorize", h.oauth.Authorize)
		browser.POST("/auth/login", rateLimiters.Login, h.oauth.Login)
	}

	// Token endpoint (machine clients, no session)
	r.POST("/token", rateLimiters.Token, h.oauth.Token)

	// OIDC discovery surface
	r.GET("/.well-known/openid-configuration", h.oidc.Discovery)
	r.GET("/.well-known/jwks.json", h.oidc.JWKS)

	// UserInfo accepts tokens whose ledger rows may live in another
	// deployment, so only the signature is checked.
	r.GET("/userinfo", middleware.RequireTokenSignature(tokenService), h.oidc.UserInfo)

	// Admin API (bearer token with admin role)
	admin := r.Group("/api/admin")
	admin.Use(rateLimiters.API, middleware.RequireToken(tokenService), middleware.RequireAdmin())
	{
		admin.GET("/clients", h.clients.List)
		admin.GET("/clients/stats", h.clients.Stats)
		admin.GET("/clients/:id", h.clients.Get)
		admin.POST("/clients", h.clients.Create)
		admin.PUT("/clients/:id", h.clients.Update)
		admin.DELETE("/clients/:id", h.clients.Delete)
		admin.POST("/clients/:id/secret", h.clients.RegenerateSecret)

		admin.GET("/users", h.users.List)
		admin.GET("/users/stats", h.users.Stats)
		admin.GET("/users/:id", h.users.Get)
		admin.POST("/users", h.users.Create)
		admin.PUT("/users/:id", h.users.Update)
		admin.DELETE("/users/:id", h.users.Delete)

		admin.GET("/origins", h.origins.List)
		admin.POST("/origins", h.origins.Add)
		admin.DELETE("/origins/:id", h.origins.Remove)
		admin.POST("/origins/:id/toggle", h.origins.Toggle)
		admin.POST("/origins/:id/convert", h.origins.ConvertToManual)
		admin.POST("/origins/refresh", h.origins.Refresh)

		admin.GET("/audit", h.audit.List)
	}
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Authentication mode: %s", cfg.AuthMode)
	log.Printf("SSO authorization server starting on %s", cfg.ServerAddr)
	log.Printf("Issuer: %s", cfg.BaseURL)
	log.Printf("Discovery: %s/.well-known/openid-configuration", cfg.BaseURL)
	log.Printf("Default admin: admin@localhost (check logs for password on first run)")
}
