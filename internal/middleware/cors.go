package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/services"
)

// CORS answers cross-origin requests from the dynamic allow list owned by the
// origin service. Allowed origins are echoed back; disallowed real origins get
// no CORS headers at all, so the browser blocks the response. Preflights are
// answered here and never reach the handlers.
func CORS(origins *services.OriginService) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		c.Header("Vary", "Origin")

		if origin != "" && origin != "null" && origins.AllowOrigin(c.Request.Context(), origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-CSRF-Token")
			c.Header("Access-Control-Max-Age", "600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SecurityHeaders sets the browser hardening headers on every response. The
// CSP form-action directive is rebuilt from the same allow list CORS uses, so
// the login form may submit to any registered callback origin.
func SecurityHeaders(origins *services.OriginService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy",
			"default-src 'self'; style-src 'self' 'unsafe-inline'; form-action "+
				origins.FormAction(c.Request.Context()))
		c.Next()
	}
}
