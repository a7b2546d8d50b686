package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/config"
	"github.com/go-ssohub/ssohub/internal/middleware"
	"github.com/go-ssohub/ssohub/internal/services"
	"github.com/go-ssohub/ssohub/internal/signing"
	"github.com/go-ssohub/ssohub/internal/token"
)

// OIDCHandler serves the discovery document, the JWKS endpoint, and UserInfo.
type OIDCHandler struct {
	config *config.Config
	keys   *signing.KeySet
	tokens *services.TokenService
}

func NewOIDCHandler(cfg *config.Config, keys *signing.KeySet, tokens *services.TokenService) *OIDCHandler {
	return &OIDCHandler{config: cfg, keys: keys, tokens: tokens}
}

// Discovery handles GET /.well-known/openid-configuration.
func (h *OIDCHandler) Discovery(c *gin.Context) {
	base := h.config.BaseURL
	c.JSON(http.StatusOK, gin.H{
		"issuer":                 base,
		"authorization_endpoint": base + "/oauth2/authorize",
		"token_endpoint":         base + "/token",
		"userinfo_endpoint":      base + "/userinfo",
		"jwks_uri":               base + "/.well-known/jwks.json",

		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code"},
		"subject_types_supported":               []string{"public"},
		"scopes_supported":                      []string{"openid", "profile", "email", "organization", "admin"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post"},
		"id_token_signing_alg_values_supported": []string{h.keys.Algorithm},
		"claims_supported": []string{
			"sub", "iss", "aud", "exp", "iat", "email", "email_verified",
			"name", "given_name", "family_name", "preferred_username",
			"department", "team", "supervisor", "role",
		},
	})
}

// JWKS handles GET /.well-known/jwks.json. In HMAC fallback mode the key list
// is empty.
func (h *OIDCHandler) JWKS(c *gin.Context) {
	c.JSON(http.StatusOK, h.keys.JWKS())
}

// UserInfo handles GET /userinfo behind signature-only verification, so a
// token remains usable here for its whole signed lifetime even if the local
// ledger no longer knows it. The response is rebuilt from the live user
// record through the same scope gating as token issuance, exposing the
// organization attributes both nested and flattened.
func (h *OIDCHandler) UserInfo(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}

	user, err := h.tokens.UserForClaims(claims)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}

	scope, _ := claims["scope"].(string)
	scopes := token.ScopeSet(scope)

	// Only sub and preferred_username are unconditional; everything else,
	// email included, is gated by the token's scopes.
	info := map[string]any{
		"sub":                user.ID,
		"preferred_username": user.Username,
	}
	if scopes["email"] {
		info["email"] = user.Email
		info["email_verified"] = true
	}
	token.AppendScopeClaims(info, user, scopes, token.OrgBoth)
	if scopes["profile"] {
		info["updated_at"] = user.UpdatedAt.Unix()
	}

	c.JSON(http.StatusOK, info)
}
