// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// TokenIssuerConfig provides settings for minting operator tokens.
type TokenIssuerConfig interface {
	JWTConfig
	GetAdminTokenTTL() time.Duration
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// NutshellConfig provides settings for the Nutshell REST client.
type NutshellConfig interface {
	GetNutshellBaseURL() string
	GetNutshellUsername() string
	GetNutshellAPIKey() string
	GetNutshellTimeout() time.Duration
	GetNutshellRateLimit() float64
	GetNutshellRateBurst() int
	IsNutshellConfigured() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetSchedulerConcurrency() int
	IsSchedulerEnabled() bool
}

// CacheConfig provides settings for the shared lookup cache.
type CacheConfig interface {
	GetCacheBackend() string
	GetCacheSize() int
	GetRedisURL() string
	GetUsersCacheTTL() time.Duration
	GetMappingCacheTTL() time.Duration
}

// ArchiveConfig provides settings for the raw submission archive (MinIO).
type ArchiveConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetArchiveBucket() string
	IsArchiveEnabled() bool
}

// WebhookConfig provides settings for the submission webhook.
type WebhookConfig interface {
	GetWebhookAPIKeys() []string
	GetWebhookRateLimit() float64
	GetWebhookRateBurst() int
}

// SyncDefaultsConfig provides fallbacks used when a form mapping leaves a value unset.
type SyncDefaultsConfig interface {
	GetStagesetFallbackID() string
	GetLeadURLBase() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                  string
	LogLevel             string
	HTTPAddr             string
	DatabaseURL          string
	JWTAccessSecret      string
	AdminTokenTTL        time.Duration
	CORSAllowAll         bool
	CORSOrigins          []string
	CORSAllowCreds       bool
	NutshellBaseURL      string
	NutshellUsername     string
	NutshellAPIKey       string
	NutshellTimeout      time.Duration
	NutshellRateLimit    float64
	NutshellRateBurst    int
	RedisURL             string
	RedisTLSInsecure     bool
	SchedulerConcurrency int
	CacheBackend         string
	CacheSize            int
	UsersCacheTTL        time.Duration
	MappingCacheTTL      time.Duration
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOUseSSL          bool
	ArchiveBucket        string
	WebhookAPIKeys       []string
	WebhookRateLimit     float64
	WebhookRateBurst     int
	StagesetFallbackID   string
	LeadURLBase          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string     { return c.JWTAccessSecret }
func (c *Config) GetAdminTokenTTL() time.Duration { return c.AdminTokenTTL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// NutshellConfig implementation
func (c *Config) GetNutshellBaseURL() string        { return c.NutshellBaseURL }
func (c *Config) GetNutshellUsername() string       { return c.NutshellUsername }
func (c *Config) GetNutshellAPIKey() string         { return c.NutshellAPIKey }
func (c *Config) GetNutshellTimeout() time.Duration { return c.NutshellTimeout }
func (c *Config) GetNutshellRateLimit() float64     { return c.NutshellRateLimit }
func (c *Config) GetNutshellRateBurst() int         { return c.NutshellRateBurst }
func (c *Config) IsNutshellConfigured() bool {
	return c.NutshellUsername != "" && c.NutshellAPIKey != ""
}

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool    { return c.RedisTLSInsecure }
func (c *Config) GetSchedulerConcurrency() int { return c.SchedulerConcurrency }
func (c *Config) IsSchedulerEnabled() bool     { return c.RedisURL != "" }

// CacheConfig implementation
func (c *Config) GetCacheBackend() string            { return c.CacheBackend }
func (c *Config) GetCacheSize() int                  { return c.CacheSize }
func (c *Config) GetUsersCacheTTL() time.Duration    { return c.UsersCacheTTL }
func (c *Config) GetMappingCacheTTL() time.Duration  { return c.MappingCacheTTL }

// ArchiveConfig implementation
func (c *Config) GetMinIOEndpoint() string  { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool      { return c.MinIOUseSSL }
func (c *Config) GetArchiveBucket() string  { return c.ArchiveBucket }
func (c *Config) IsArchiveEnabled() bool    { return c.MinIOEndpoint != "" }

// WebhookConfig implementation
func (c *Config) GetWebhookAPIKeys() []string   { return c.WebhookAPIKeys }
func (c *Config) GetWebhookRateLimit() float64 { return c.WebhookRateLimit }
func (c *Config) GetWebhookRateBurst() int     { return c.WebhookRateBurst }

// SyncDefaultsConfig implementation
func (c *Config) GetStagesetFallbackID() string { return c.StagesetFallbackID }
func (c *Config) GetLeadURLBase() string        { return c.LeadURLBase }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                  getEnv("APP_ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", ""),
		HTTPAddr:             getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		JWTAccessSecret:      getEnv("JWT_ACCESS_SECRET", ""),
		AdminTokenTTL:        mustDuration(getEnv("ADMIN_TOKEN_TTL", "12h")),
		CORSAllowAll:         corsAllowAll,
		CORSOrigins:          corsOrigins,
		CORSAllowCreds:       strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		NutshellBaseURL:      getEnv("NUTSHELL_BASE_URL", "https://app.nutshell.com/rest/"),
		NutshellUsername:     getEnv("NUTSHELL_USERNAME", ""),
		NutshellAPIKey:       getEnv("NUTSHELL_API_KEY", ""),
		NutshellTimeout:      mustDuration(getEnv("NUTSHELL_TIMEOUT", "30s")),
		NutshellRateLimit:    mustFloat(getEnv("NUTSHELL_RATE_LIMIT", "5")),
		NutshellRateBurst:    mustInt(getEnv("NUTSHELL_RATE_BURST", "10")),
		RedisURL:             getEnv("REDIS_URL", ""),
		RedisTLSInsecure:     strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		SchedulerConcurrency: mustInt(getEnv("SCHEDULER_CONCURRENCY", "5")),
		CacheBackend:         strings.ToLower(getEnv("CACHE_BACKEND", "memory")),
		CacheSize:            mustInt(getEnv("CACHE_SIZE", "256")),
		UsersCacheTTL:        mustDuration(getEnv("USERS_CACHE_TTL", "24h")),
		MappingCacheTTL:      mustDuration(getEnv("MAPPING_CACHE_TTL", "5m")),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:          strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		ArchiveBucket:        getEnv("MINIO_BUCKET_SUBMISSIONS", "form-submissions"),
		WebhookAPIKeys:       splitCSV(getEnv("WEBHOOK_API_KEYS", "")),
		WebhookRateLimit:     mustFloat(getEnv("WEBHOOK_RATE_LIMIT", "2")),
		WebhookRateBurst:     mustInt(getEnv("WEBHOOK_RATE_BURST", "20")),
		StagesetFallbackID:   getEnv("NUTSHELL_FALLBACK_STAGESET", "1-stagesets"),
		LeadURLBase:          getEnv("NUTSHELL_LEAD_URL_BASE", "https://app.nutshell.com/lead/"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		return nil, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", cfg.CacheBackend)
	}
	if cfg.CacheBackend == "redis" && cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required when CACHE_BACKEND is redis")
	}
	if cfg.NutshellTimeout <= 0 {
		cfg.NutshellTimeout = 30 * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func mustFloat(value string) float64 {
	result, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
