package bootstrap

import (
	"fmt"
	"log"

	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/store"
)

// initializeDatabase creates and initializes the database connection
func initializeDatabase(cfg *config.Config) (*store.Store, error) {
	db, err := store.New(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	log.Printf("Database initialized (driver: %s)", cfg.DatabaseDriver)
	return db, nil
}

// initializeSigningKeys loads the RSA key pair, falling back to the shared
// HMAC secret when the PEM files are absent.
func initializeSigningKeys(cfg *config.Config) (*signing.KeySet, error) {
	keys, err := signing.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing keys: %w", err)
	}
	log.Printf("Token signing algorithm: %s", keys.Algorithm)
	return keys, nil
}
