package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/go-ssohub/ssohub/internal/store"
)

// oauthError writes the RFC 6749 error body.
func oauthError(c *gin.Context, status int, code, description string) {
	c.JSON(status, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// apiError writes the admin API error body with a machine-readable code.
func apiError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"error":   code,
		"message": message,
	})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// pageParams reads the shared page/page_size/search query parameters.
func pageParams(c *gin.Context) store.PaginationParams {
	return store.NewPaginationParams(
		queryInt(c, "page", 1),
		queryInt(c, "page_size", 10),
		c.Query("search"),
	)
}

// queryBoolPtr parses an optional boolean filter, nil when absent or invalid.
func queryBoolPtr(c *gin.Context, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

func listResponse(c *gin.Context, key string, items any, page store.PaginationResult) {
	c.JSON(http.StatusOK, gin.H{
		key:          items,
		"pagination": page,
	})
}
