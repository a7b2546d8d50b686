package bootstrap

import (
	"github.com/go-ssohub/ssohub/internal/cache"
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/metrics"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/store"
	"github.com/go-ssohub/ssohub/internal/token"
)

// initializeServices creates all business logic services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	keys *signing.KeySet,
	originCache cache.CacheWithFetch[services.OriginSnapshot],
	recorder metrics.Recorder,
) (*services.UserService, *services.ClientService, *services.OriginService, *services.TokenService, *services.AuthorizationService) {
	originService := services.NewOriginService(
		db,
		originCache,
		cfg.OriginCacheTTL,
		cfg.CORSDefaultOrigins,
		cfg.BaseURL,
	)
	clientService := services.NewClientService(db, originService)
	userService := services.NewUserService(db, cfg.BcryptCost)

	issuer := token.NewIssuer(cfg, keys)
	tokenService := services.NewTokenService(db, issuer, keys)

	provider := initializeAuthProvider(cfg, db)
	authorizationService := services.NewAuthorizationService(
		db,
		clientService,
		provider,
		cfg.CodeExpiration,
	)

	originService.SetMetrics(recorder)
	tokenService.SetMetrics(recorder)
	authorizationService.SetMetrics(recorder)

	return userService, clientService, originService, tokenService, authorizationService
}
