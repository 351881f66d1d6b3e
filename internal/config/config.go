package config

import (
	"fmt"
	"strings"
	"time"

	"doc-reader-api/internal/domain"

	"github.com/caarlos0/env/v11"
)

const defaultServerPort = "8080"

// AppConfig implements the domain.Config interface
type AppConfig struct {
	// Cloud Run (and many PaaS) provide the listening port via PORT.
	// SERVER_PORT is kept for local/dev compatibility.
	Port       string `env:"PORT"`
	ServerPort string `env:"SERVER_PORT" envDefault:"8080"`

	MaxFileSize int64  `env:"MAX_FILE_SIZE" envDefault:"52428800"` // 50MB
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	SupabaseURL string `env:"SUPABASE_URL"`
	SupabaseKey string `env:"SUPABASE_ANON_KEY"`
	AdminSecret string `env:"ADMIN_API_SECRET"`

	DatabaseURL           string        `env:"DATABASE_URL"`
	DatabaseMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DatabaseRetryAttempts int           `env:"DB_RETRY_ATTEMPTS" envDefault:"3"`
	DatabaseRetryInterval time.Duration `env:"DB_RETRY_INTERVAL" envDefault:"2s"`

	RedisURL      string        `env:"REDIS_URL"`
	LimitCacheTTL time.Duration `env:"LIMIT_CACHE_TTL" envDefault:"5m"`

	AccountCacheTTL time.Duration `env:"ACCOUNT_CACHE_TTL" envDefault:"30s"`

	GCPProjectID string `env:"GCP_PROJECT_ID"`
	GCPLocation  string `env:"GCP_LOCATION" envDefault:"us-central1"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173,http://localhost:4173,http://localhost:3000"`
}

// NewConfig parses the process environment into an AppConfig.
func NewConfig() (domain.Config, error) {
	return load(env.Options{})
}

func load(opts env.Options) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	if c.Port != "" {
		return c.Port
	}
	if c.ServerPort != "" {
		return c.ServerPort
	}
	return defaultServerPort
}

// GetMaxFileSize returns the maximum allowed upload size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetAdminSecret returns the shared secret for admin endpoints
func (c *AppConfig) GetAdminSecret() string {
	return c.AdminSecret
}

// GetDatabaseURL returns the Postgres connection string. Empty means in-memory stores.
func (c *AppConfig) GetDatabaseURL() string {
	return c.DatabaseURL
}

func (c *AppConfig) GetDatabaseMaxConns() int32 {
	return c.DatabaseMaxConns
}

func (c *AppConfig) GetDatabaseRetryAttempts() int {
	return c.DatabaseRetryAttempts
}

func (c *AppConfig) GetDatabaseRetryInterval() time.Duration {
	return c.DatabaseRetryInterval
}

// GetRedisURL returns the Redis URL for the limit cache. Empty disables the cache.
func (c *AppConfig) GetRedisURL() string {
	return c.RedisURL
}

func (c *AppConfig) GetLimitCacheTTL() time.Duration {
	return c.LimitCacheTTL
}

func (c *AppConfig) GetAccountCacheTTL() time.Duration {
	return c.AccountCacheTTL
}

func (c *AppConfig) GetGCPProjectID() string {
	return c.GCPProjectID
}

func (c *AppConfig) GetGCPLocation() string {
	return c.GCPLocation
}

func (c *AppConfig) GetGeminiModel() string {
	return c.GeminiModel
}

// GetCORSAllowedOrigins returns the trimmed, non-empty allowed origins
func (c *AppConfig) GetCORSAllowedOrigins() []string {
	out := make([]string, 0, len(c.CORSAllowedOrigins))
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
