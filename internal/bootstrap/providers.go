package bootstrap

import (
	"log"

	"github.com/go-ssohub/ssohub/internal/auth"
	"github.com/go-ssohub/ssohub/internal/client"
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/store"
)

// initializeAuthProvider selects the password verification backend. Local mode
// checks bcrypt hashes in the user table; http_api mode delegates to an
// external credential API with retry support.
func initializeAuthProvider(cfg *config.Config, db *store.Store) auth.Provider {
	switch cfg.AuthMode {
	case config.AuthModeHTTPAPI:
		retryClient, err := client.CreateRetryClientFromConfig(cfg)
		if err != nil {
			log.Fatalf("Failed to create HTTP API auth client: %v", err)
		}
		log.Printf("HTTP API authentication enabled: %s", cfg.HTTPAPIURL)
		return auth.NewHTTPAPIProvider(cfg, retryClient)
	default:
		log.Printf("Local authentication enabled")
		return auth.NewLocalProvider(db)
	}
}
