package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Authentication mode constants
const (
	AuthModeLocal   = "local"
	AuthModeHTTPAPI = "http_api"
)

// Cache mode constants
const (
	CacheModeMemory = "memory"
	CacheModeRedis  = "redis"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

const defaultJWTSecret = "your-256-bit-secret-change-in-production"

type Config struct {
	// Server settings
	ServerAddr string
	BaseURL    string // issuer URL
	Audience   string // generic access-token audience

	// Signing settings
	JWTSecret             string // HMAC fallback secret
	RSAPrivateKeyPath     string
	RSAPublicKeyPath      string
	AccessTokenExpiration time.Duration
	IDTokenExpiration     time.Duration

	// Authorization code settings
	CodeExpiration time.Duration

	// Password hashing
	BcryptCost int

	// Session settings
	SessionSecret string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Authentication
	AuthMode string // "local" or "http_api"

	// HTTP API Authentication
	HTTPAPIURL                string
	HTTPAPITimeout            time.Duration
	HTTPAPIInsecureSkipVerify bool
	HTTPAPIAuthMode           string // Authentication mode: "none", "simple", or "hmac"
	HTTPAPIAuthSecret         string // Shared secret for authentication
	HTTPAPIAuthHeader         string // Custom header name for simple mode (default: "X-API-Secret")
	HTTPAPIMaxRetries         int    // Maximum retry attempts (default: 3)
	HTTPAPIRetryDelay         time.Duration
	HTTPAPIMaxRetryDelay      time.Duration

	// Rate limiting
	RateLimitStore  string // "memory" or "redis"
	RateLimitWindow time.Duration
	LoginRateLimit  int64 // login attempts per window per IP
	TokenRateLimit  int64 // token exchanges per window per IP
	APIRateLimit    int64 // general API requests per window per IP

	// Redis (rate limiter store and origin cache backend)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Origin policy
	CacheMode          string // origin snapshot cache backend
	OriginCacheTTL     time.Duration
	CORSDefaultOrigins []string

	// Audit logging
	EnableAuditLogging bool
	AuditLogBufferSize int
	AuditLogRetention  time.Duration

	// Expired-row sweeper
	SweepInterval time.Duration

	// Metrics
	MetricsEnabled       bool
	MetricsAuthToken     string
	MetricsGaugeInterval time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "sso.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")

	jwtSecret := getEnv("JWT_SECRET", defaultJWTSecret)
	if jwtSecret == defaultJWTSecret {
		log.Printf("[Config] WARNING: JWT_SECRET is using the built-in default; " +
			"set a strong secret before exposing this server")
	}

	return &Config{
		ServerAddr:            getEnv("SERVER_ADDR", ":8080"),
		BaseURL:               baseURL,
		Audience:              getEnv("TOKEN_AUDIENCE", baseURL),
		JWTSecret:             jwtSecret,
		RSAPrivateKeyPath:     getEnv("RSA_PRIVATE_KEY_PATH", "keys/private.pem"),
		RSAPublicKeyPath:      getEnv("RSA_PUBLIC_KEY_PATH", "keys/public.pem"),
		AccessTokenExpiration: getEnvDuration("ACCESS_TOKEN_EXPIRATION", time.Hour),
		IDTokenExpiration:     getEnvDuration("ID_TOKEN_EXPIRATION", time.Hour),
		CodeExpiration:        getEnvDuration("CODE_EXPIRATION", 10*time.Minute),
		BcryptCost:            getEnvInt("BCRYPT_COST", 12),
		SessionSecret:         getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		DatabaseDriver:        driver,
		DatabaseDSN:           dsn,

		// Authentication
		AuthMode: getEnv("AUTH_MODE", AuthModeLocal),

		// HTTP API Authentication
		HTTPAPIURL:                getEnv("HTTP_API_URL", ""),
		HTTPAPITimeout:            getEnvDuration("HTTP_API_TIMEOUT", 10*time.Second),
		HTTPAPIInsecureSkipVerify: getEnvBool("HTTP_API_INSECURE_SKIP_VERIFY", false),
		HTTPAPIAuthMode:           getEnv("HTTP_API_AUTH_MODE", "none"),
		HTTPAPIAuthSecret:         getEnv("HTTP_API_AUTH_SECRET", ""),
		HTTPAPIAuthHeader:         getEnv("HTTP_API_AUTH_HEADER", "X-API-Secret"),
		HTTPAPIMaxRetries:         getEnvInt("HTTP_API_MAX_RETRIES", 3),
		HTTPAPIRetryDelay:         getEnvDuration("HTTP_API_RETRY_DELAY", 1*time.Second),
		HTTPAPIMaxRetryDelay:      getEnvDuration("HTTP_API_MAX_RETRY_DELAY", 10*time.Second),

		// Rate limiting
		RateLimitStore:  getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		LoginRateLimit:  int64(getEnvInt("LOGIN_RATE_LIMIT", 5)),
		TokenRateLimit:  int64(getEnvInt("TOKEN_RATE_LIMIT", 10)),
		APIRateLimit:    int64(getEnvInt("API_RATE_LIMIT", 100)),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		// Origin policy
		CacheMode:          getEnv("CACHE_MODE", CacheModeMemory),
		OriginCacheTTL:     getEnvDuration("ORIGIN_CACHE_TTL", 30*time.Second),
		CORSDefaultOrigins: getEnvSlice("CORS_DEFAULT_ORIGINS", []string{"http://localhost:3000"}),

		// Audit logging
		EnableAuditLogging: getEnvBool("AUDIT_LOGGING", true),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 256),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),

		// Expired-row sweeper
		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),

		// Metrics
		MetricsEnabled:       getEnvBool("METRICS_ENABLED", true),
		MetricsAuthToken:     getEnv("METRICS_AUTH_TOKEN", ""),
		MetricsGaugeInterval: getEnvDuration("METRICS_GAUGE_INTERVAL", time.Minute),
	}
}

// Validate checks enum-valued settings that Load cannot default away, such
// as values explicitly set to an unsupported backend.
func (c *Config) Validate() error {
	switch c.RateLimitStore {
	case RateLimitStoreMemory, RateLimitStoreRedis:
	default:
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be: memory, redis)",
			c.RateLimitStore,
		)
	}

	if c.RateLimitStore == RateLimitStoreRedis && c.RedisAddr == "" {
		return fmt.Errorf(`RATE_LIMIT_STORE="redis" requires REDIS_ADDR`)
	}
	if c.CacheMode == CacheModeRedis && c.RedisAddr == "" {
		return fmt.Errorf(`CACHE_MODE="redis" requires REDIS_ADDR`)
	}

	if c.OriginCacheTTL <= 0 {
		return fmt.Errorf("ORIGIN_CACHE_TTL must be a positive duration")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := splitAndTrim(value, ",")
		if len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
