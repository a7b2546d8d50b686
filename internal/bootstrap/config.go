package bootstrap

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-ssohub/ssohub/internal/config"
)

// validateAllConfiguration validates all configuration settings
func validateAllConfiguration(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := validateAuthConfig(cfg); err != nil {
		log.Fatalf("Invalid authentication configuration: %v", err)
	}
	if err := validateDatabaseConfig(cfg); err != nil {
		log.Fatalf("Invalid database configuration: %v", err)
	}
	if err := validateCacheConfig(cfg); err != nil {
		log.Fatalf("Invalid cache configuration: %v", err)
	}
}

// validateAuthConfig checks that required config is present for the selected auth mode
func validateAuthConfig(cfg *config.Config) error {
	switch cfg.AuthMode {
	case config.AuthModeHTTPAPI:
		if cfg.HTTPAPIURL == "" {
			return errors.New("HTTP_API_URL is required when AUTH_MODE=http_api")
		}
	case config.AuthModeLocal:
		// No additional validation needed
	default:
		return fmt.Errorf("invalid AUTH_MODE: %s (must be: local, http_api)", cfg.AuthMode)
	}
	return nil
}

// validateDatabaseConfig checks driver and DSN consistency
func validateDatabaseConfig(cfg *config.Config) error {
	switch cfg.DatabaseDriver {
	case "sqlite":
		// DSN defaults to a local file
	case "postgres":
		if cfg.DatabaseDSN == "" {
			return errors.New("DATABASE_DSN is required when DATABASE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf(
			"invalid DATABASE_DRIVER: %s (must be: sqlite, postgres)",
			cfg.DatabaseDriver,
		)
	}
	return nil
}

// validateCacheConfig checks the origin snapshot cache backend selection
func validateCacheConfig(cfg *config.Config) error {
	switch cfg.CacheMode {
	case config.CacheModeMemory, config.CacheModeRedis:
		return nil
	default:
		return fmt.Errorf("invalid CACHE_MODE: %s (must be: memory, redis)", cfg.CacheMode)
	}
}
