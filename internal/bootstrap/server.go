package bootstrap

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/appleboy/graceful"

	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/store"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server forced to shutdown: %v", err)
			return err
		}

		log.Println("Server exited")
		return nil
	})
}

// addAuditServiceShutdownJob adds audit service shutdown handler
func addAuditServiceShutdownJob(m *graceful.Manager, auditService *services.AuditService) {
	m.AddShutdownJob(func() error {
		log.Println("Shutting down audit service...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := auditService.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down audit service: %v", err)
			return err
		}
		return nil
	})
}

// addAuditLogCleanupJob adds periodic audit log cleanup job
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	if !cfg.EnableAuditLogging || cfg.AuditLogRetention <= 0 {
		return
	}

	cleanup := func() {
		if deleted, err := auditService.CleanupOldLogs(cfg.AuditLogRetention); err != nil {
			log.Printf("Failed to cleanup old audit logs: %v", err)
		} else if deleted > 0 {
			log.Printf("Cleaned up %d old audit logs", deleted)
		}
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		// Run cleanup immediately on startup
		cleanup()

		for {
			select {
			case <-ticker.C:
				cleanup()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addExpirySweepJob adds the periodic sweep of expired authorization codes
// and access-token ledger rows. Reads filter on expiry themselves, so the
// sweep only reclaims space.
func addExpirySweepJob(m *graceful.Manager, cfg *config.Config, db *store.Store) {
	if cfg.SweepInterval <= 0 {
		return
	}

	sweep := func() {
		if err := db.DeleteExpiredAuthorizationCodes(); err != nil {
			log.Printf("Failed to sweep expired authorization codes: %v", err)
		}
		if err := db.DeleteExpiredTokens(); err != nil {
			log.Printf("Failed to sweep expired access tokens: %v", err)
		}
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sweep()
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder metrics.Recorder,
	metricsCache cache.CacheWithFetch[int64],
) {
	if !cfg.MetricsEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		ticker := time.NewTicker(cfg.MetricsGaugeInterval)
		defer ticker.Stop()

		// Create cache wrapper
		cacheWrapper := metrics.NewCacheWrapper(db, metricsCache)

		// Update immediately on startup
		updateGaugeMetrics(ctx, cacheWrapper, recorder, cfg.MetricsGaugeInterval)

		for {
			select {
			case <-ticker.C:
				updateGaugeMetrics(ctx, cacheWrapper, recorder, cfg.MetricsGaugeInterval)
			case <-ctx.Done():
				return nil
			}
		}
	})
}

// addCacheCleanupJob adds cache cleanup on shutdown
func addCacheCleanupJob(m *graceful.Manager, closer func() error) {
	if closer == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := closer(); err != nil {
			log.Printf("Error closing cache: %v", err)
		}
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows
func (e *errorLogger) logIfNeeded(operation string, err error) {
	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]

	if !exists || now.Sub(lastTime) >= e.rateLimitWindow {
		log.Printf("Database query failed for %s: %v (further errors will be suppressed for %v)",
			operation, err, e.rateLimitWindow)
		e.lastErrorTimes[operation] = now
	}
}

var gaugeErrorLogger = newErrorLogger()

// updateGaugeMetrics refreshes the registry gauges using cache-backed counts.
// The cache TTL matches the update interval so multi-instance deployments
// query the database roughly once per interval in total.
func updateGaugeMetrics(
	ctx context.Context,
	cacheWrapper *metrics.CacheWrapper,
	recorder metrics.Recorder,
	cacheTTL time.Duration,
) {
	if tokens, err := cacheWrapper.GetLiveAccessTokenCount(ctx, cacheTTL); err != nil {
		recorder.RecordStoreQueryError("count_access_tokens")
		gaugeErrorLogger.logIfNeeded("count_access_tokens", err)
	} else {
		recorder.SetActiveAccessTokens(int(tokens))
	}

	if clients, err := cacheWrapper.GetActiveClientCount(ctx, cacheTTL); err != nil {
		recorder.RecordStoreQueryError("count_clients")
		gaugeErrorLogger.logIfNeeded("count_clients", err)
	} else {
		recorder.SetActiveClients(int(clients))
	}

	if users, err := cacheWrapper.GetActiveUserCount(ctx, cacheTTL); err != nil {
		recorder.RecordStoreQueryError("count_users")
		gaugeErrorLogger.logIfNeeded("count_users", err)
	} else {
		recorder.SetActiveUsers(int(users))
	}
}
