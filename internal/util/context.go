package util

import (
	"context"

	"github.com/gin-gonic/gin"
)

type contextKey int

const ipContextKey contextKey = iota

// IPMiddleware extracts client IP and stores it in the context
func IPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Gin's ClientIP() handles X-Forwarded-For and other headers
		c.Set("client_ip", c.ClientIP())
		c.Next()
	}
}

// SetIPContext stores the client IP in a plain context.Context
func SetIPContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ipContextKey, ip)
}

// GetIPFromContext extracts the client IP address from the context
func GetIPFromContext(ctx context.Context) string {
	// Try to extract from Gin context first
	if ginCtx, ok := ctx.(*gin.Context); ok {
		return ginCtx.ClientIP()
	}

	if ip, ok := ctx.Value(ipContextKey).(string); ok {
		return ip
	}

	return ""
}

// GetUsernameFromContext extracts the username from the user object in
// context. The user value only needs to expose GetUsername, which keeps this
// package free of a dependency on the model types that depend on it.
func GetUsernameFromContext(ctx context.Context) string {
	if ginCtx, ok := ctx.(*gin.Context); ok {
		if userVal, exists := ginCtx.Get("user"); exists {
			if user, ok := userVal.(interface{ GetUsername() string }); ok {
				return user.GetUsername()
			}
		}
	}

	return ""
}
