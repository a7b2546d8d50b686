package bootstrap

import (
	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/handlers"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/store"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	oauth   *handlers.OAuthHandler
	oidc    *handlers.OIDCHandler
	clients *handlers.ClientAdminHandler
	users   *handlers.UserAdminHandler
	origins *handlers.OriginAdminHandler
	audit   *handlers.AuditAdminHandler
	health  *handlers.HealthHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	db *store.Store,
	keys *signing.KeySet,
	userService *services.UserService,
	clientService *services.ClientService,
	originService *services.OriginService,
	tokenService *services.TokenService,
	authorizationService *services.AuthorizationService,
	auditService *services.AuditService,
) handlerSet {
	return handlerSet{
		oauth:   handlers.NewOAuthHandler(authorizationService, clientService, tokenService, auditService),
		oidc:    handlers.NewOIDCHandler(cfg, keys, tokenService),
		clients: handlers.NewClientAdminHandler(clientService, auditService),
		users:   handlers.NewUserAdminHandler(userService, auditService),
		origins: handlers.NewOriginAdminHandler(originService, auditService),
		audit:   handlers.NewAuditAdminHandler(auditService),
		health:  handlers.NewHealthHandler(db),
	}
}
