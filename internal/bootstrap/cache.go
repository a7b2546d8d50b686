package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/services"
)

// initializeMetrics initializes Prometheus metrics
func initializeMetrics(cfg *config.Config) metrics.Recorder {
	recorder := metrics.Init(cfg.MetricsEnabled)
	if cfg.MetricsEnabled {
		log.Println("Prometheus metrics initialized")
	} else {
		log.Println("Metrics disabled (using noop implementation)")
	}
	return recorder
}

// initializeOriginCache initializes the origin snapshot cache based on
// configuration. The redis-aside backend shares one snapshot across instances
// and invalidates it cluster-wide when an admin mutates the allow list.
func initializeOriginCache(
	cfg *config.Config,
) (cache.CacheWithFetch[services.OriginSnapshot], func() error, error) {
	switch cfg.CacheMode {
	case config.CacheModeRedis:
		c, err := cache.NewRueidisAsideCache[services.OriginSnapshot](
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			"ssohub:origins:",
			cfg.OriginCacheTTL,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis origin cache: %w", err)
		}
		log.Printf(
			"Origin cache: redis-aside (addr=%s, db=%d, ttl=%s)",
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.OriginCacheTTL,
		)
		return c, c.Close, nil

	default: // memory
		c := cache.NewMemoryCache[services.OriginSnapshot]()
		log.Println("Origin cache: memory (single instance only)")
		return c, c.Close, nil
	}
}

// initializeMetricsCache initializes the gauge-count cache. Returns nil when
// metrics are disabled, which also disables the periodic gauge update job.
func initializeMetricsCache(
	cfg *config.Config,
) (cache.CacheWithFetch[int64], func() error, error) {
	if !cfg.MetricsEnabled {
		return nil, nil, nil //nolint:nilnil // cache not needed in this configuration
	}

	switch cfg.CacheMode {
	case config.CacheModeRedis:
		c, err := cache.NewRueidisAsideCache[int64](
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.RedisDB,
			"ssohub:metrics:",
			cfg.MetricsGaugeInterval,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize redis metrics cache: %w", err)
		}
		log.Printf("Metrics cache: redis-aside (addr=%s, db=%d)", cfg.RedisAddr, cfg.RedisDB)
		return c, c.Close, nil

	default: // memory
		c := cache.NewMemoryCache[int64]()
		log.Println("Metrics cache: memory (single instance only)")
		return c, c.Close, nil
	}
}
