package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/go-ssohub/ssohub/internal/models"
	"github.com/go-ssohub/ssohub/internal/services"
)

const (
	// ContextUser holds the *models.User resolved from the bearer token.
	ContextUser = "user"
	// ContextClaims holds the verified jwt.MapClaims.
	ContextClaims = "claims"
)

// bearerToken extracts the token from the Authorization header.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func abortTokenError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTokenSignature):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Invalid token signature",
		})
	default:
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid or expired token",
		})
	}
}

// RequireToken verifies the bearer token strictly: the signature must check
// out under the active verification chain and the token must still be live in
// the issuance ledger. The resolved user and claims land in the context.
func RequireToken(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Header("WWW-Authenticate", `Bearer realm="ssohub"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			return
		}

		user, claims, err := tokens.ValidateToken(raw)
		if err != nil {
			abortTokenError(c, err)
			return
		}

		c.Set(ContextUser, user)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireTokenSignature verifies only the token signature and expiry, without
// consulting the issuance ledger. UserInfo uses this variant so tokens remain
// usable for the whole signed lifetime.
func RequireTokenSignature(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Header("WWW-Authenticate", `Bearer realm="ssohub"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			return
		}

		claims, err := tokens.VerifySignatureOnly(raw)
		if err != nil {
			abortTokenError(c, err)
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireAdmin gates admin API routes. Must run after RequireToken.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUser)
		user, ok := value.(*models.User)
		if !exists || !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Access token required",
			})
			return
		}
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the verified claims set by the token middleware.
func ClaimsFromContext(c *gin.Context) (jwt.MapClaims, bool) {
	value, exists := c.Get(ContextClaims)
	if !exists {
		return nil, false
	}
	claims, ok := value.(jwt.MapClaims)
	return claims, ok
}

// UserFromContext returns the user set by RequireToken.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
