package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/go-ssohub/ssohub/internal/config"
)

// RateLimiters carries the per-endpoint limiters built from one shared store.
// Login and token are tight (credential and code guessing), the admin API is
// loose.
type RateLimiters struct {
	Login gin.HandlerFunc
	Token gin.HandlerFunc
	API   gin.HandlerFunc
}

// NewRateLimiters builds the three endpoint limiters. With the redis store
// the counters are shared across instances; the memory store is per-process.
func NewRateLimiters(cfg *config.Config) (*RateLimiters, error) {
	store, err := newLimiterStore(cfg)
	if err != nil {
		return nil, err
	}

	build := func(limit int64) gin.HandlerFunc {
		instance := limiter.New(store, limiter.Rate{
			Period: cfg.RateLimitWindow,
			Limit:  limit,
		})
		return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(limitReached))
	}

	return &RateLimiters{
		Login: build(cfg.LoginRateLimit),
		Token: build(cfg.TokenRateLimit),
		API:   build(cfg.APIRateLimit),
	}, nil
}

func newLimiterStore(cfg *config.Config) (limiter.Store, error) {
	if cfg.RateLimitStore != config.RateLimitStoreRedis {
		return memory.NewStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("rate limiter redis at %s: %w", cfg.RedisAddr, err)
	}

	return limiterRedis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix:          "ratelimit",
		CleanUpInterval: 5 * time.Minute,
	})
}

func limitReached(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":             "rate_limit_exceeded",
		"error_description": "Too many requests. Please try again later.",
	})
}
