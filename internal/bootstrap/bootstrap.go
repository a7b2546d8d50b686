package bootstrap

import (
	"net/http"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/store"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                *store.Store
	Keys              *signing.KeySet
	MetricsRecorder   metrics.Recorder
	OriginCache       cache.CacheWithFetch[services.OriginSnapshot]
	OriginCacheCloser func() error
	MetricsCache      cache.CacheWithFetch[int64]
	MetricsCacheClose func() error

	// Services
	AuditService         *services.AuditService
	UserService          *services.UserService
	ClientService        *services.ClientService
	OriginService        *services.OriginService
	TokenService         *services.TokenService
	AuthorizationService *services.AuthorizationService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application
func Run(cfg *config.Config) error {
	app := &Application{Config: cfg}

	// Phase 1: Validate configuration
	validateAllConfiguration(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	app.initializeBusinessLayer()

	// Phase 4: Initialize HTTP layer
	app.initializeHTTPLayer()

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, signing keys, metrics, and caches
func (app *Application) initializeInfrastructure() error {
	var err error

	// Database
	app.DB, err = initializeDatabase(app.Config)
	if err != nil {
		return err
	}

	// Signing keys (RSA with HMAC fallback)
	app.Keys, err = initializeSigningKeys(app.Config)
	if err != nil {
		return err
	}

	// Metrics
	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheClose, err = initializeMetricsCache(app.Config)
	if err != nil {
		return err
	}

	// Origin snapshot cache
	app.OriginCache, app.OriginCacheCloser, err = initializeOriginCache(app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() {
	// Audit service (required by other services)
	app.AuditService = services.NewAuditService(
		app.DB,
		app.Config.EnableAuditLogging,
		app.Config.AuditLogBufferSize,
	)

	// Initialize all business services
	app.UserService,
		app.ClientService,
		app.OriginService,
		app.TokenService,
		app.AuthorizationService = initializeServices(
		app.Config,
		app.DB,
		app.Keys,
		app.OriginCache,
		app.MetricsRecorder,
	)
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() {
	// Handlers
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.DB,
		app.Keys,
		app.UserService,
		app.ClientService,
		app.OriginService,
		app.TokenService,
		app.AuthorizationService,
		app.AuditService,
	)

	// Router
	app.Router = setupRouter(
		app.Config,
		app.HandlerSet,
		app.OriginService,
		app.TokenService,
		app.MetricsRecorder,
	)

	// HTTP Server
	app.Server = createHTTPServer(app.Config, app.Router)
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	// Add jobs
	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server)
	addAuditServiceShutdownJob(m, app.AuditService)
	addAuditLogCleanupJob(m, app.Config, app.AuditService)
	addExpirySweepJob(m, app.Config, app.DB)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addCacheCleanupJob(m, app.OriginCacheCloser)
	addCacheCleanupJob(m, app.MetricsCacheClose)

	// Wait for graceful shutdown
	<-m.Done()
}
