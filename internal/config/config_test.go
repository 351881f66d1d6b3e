package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultMaxFileSize int64 = 50 * 1024 * 1024

func TestNewConfig_Defaults(t *testing.T) {
	cfg, err := load(env.Options{Environment: map[string]string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.GetServerPort() != "8080" {
		t.Fatalf("expected default server port 8080, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != defaultMaxFileSize {
		t.Fatalf("expected default max file size %d, got %d", defaultMaxFileSize, cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.GetLogLevel())
	}
	if cfg.GetDatabaseURL() != "" {
		t.Fatalf("expected empty database url, got %s", cfg.GetDatabaseURL())
	}
	if cfg.GetDatabaseMaxConns() != 10 {
		t.Fatalf("expected 10 max conns, got %d", cfg.GetDatabaseMaxConns())
	}
	if cfg.GetDatabaseRetryInterval() != 2*time.Second {
		t.Fatalf("expected 2s retry interval, got %s", cfg.GetDatabaseRetryInterval())
	}
	if cfg.GetLimitCacheTTL() != 5*time.Minute {
		t.Fatalf("expected 5m limit cache ttl, got %s", cfg.GetLimitCacheTTL())
	}
	if cfg.GetAccountCacheTTL() != 30*time.Second {
		t.Fatalf("expected 30s account cache ttl, got %s", cfg.GetAccountCacheTTL())
	}
	if cfg.GetGeminiModel() != "gemini-1.5-flash" {
		t.Fatalf("expected default gemini model, got %s", cfg.GetGeminiModel())
	}
	if len(cfg.GetCORSAllowedOrigins()) != 3 {
		t.Fatalf("expected 3 default origins, got %v", cfg.GetCORSAllowedOrigins())
	}
}

func TestNewConfig_Overrides(t *testing.T) {
	cfg, err := load(env.Options{Environment: map[string]string{
		"PORT":                 "9090",
		"SERVER_PORT":          "7070",
		"MAX_FILE_SIZE":        "12345",
		"LOG_LEVEL":            "debug",
		"SUPABASE_URL":         "http://localhost:54321",
		"SUPABASE_ANON_KEY":    "test-key",
		"ADMIN_API_SECRET":     "s3cret",
		"DATABASE_URL":         "postgres://localhost/usage",
		"DB_MAX_CONNS":         "4",
		"REDIS_URL":            "redis://localhost:6379/0",
		"LIMIT_CACHE_TTL":      "1m",
		"CORS_ALLOWED_ORIGINS": " https://app.example.com , ,https://admin.example.com",
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.GetServerPort() != "9090" {
		t.Fatalf("expected server port 9090, got %s", cfg.GetServerPort())
	}
	if cfg.GetMaxFileSize() != 12345 {
		t.Fatalf("expected max file size 12345, got %d", cfg.GetMaxFileSize())
	}
	if cfg.GetLogLevel() != "debug" {
		t.Fatalf("expected log level debug, got %s", cfg.GetLogLevel())
	}
	if cfg.GetSupabaseURL() != "http://localhost:54321" {
		t.Fatalf("expected supabase url http://localhost:54321, got %s", cfg.GetSupabaseURL())
	}
	if cfg.GetSupabaseKey() != "test-key" {
		t.Fatalf("expected supabase key test-key, got %s", cfg.GetSupabaseKey())
	}
	if cfg.GetAdminSecret() != "s3cret" {
		t.Fatalf("expected admin secret s3cret, got %s", cfg.GetAdminSecret())
	}
	if cfg.GetDatabaseMaxConns() != 4 {
		t.Fatalf("expected 4 max conns, got %d", cfg.GetDatabaseMaxConns())
	}
	if cfg.GetRedisURL() != "redis://localhost:6379/0" {
		t.Fatalf("unexpected redis url %s", cfg.GetRedisURL())
	}
	if cfg.GetLimitCacheTTL() != time.Minute {
		t.Fatalf("expected 1m limit cache ttl, got %s", cfg.GetLimitCacheTTL())
	}
	origins := cfg.GetCORSAllowedOrigins()
	if len(origins) != 2 || origins[0] != "https://app.example.com" || origins[1] != "https://admin.example.com" {
		t.Fatalf("unexpected origins %v", origins)
	}
}

func TestNewConfig_ServerPortFallback(t *testing.T) {
	cfg, err := load(env.Options{Environment: map[string]string{"SERVER_PORT": "9091"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetServerPort() != "9091" {
		t.Fatalf("expected server port 9091, got %s", cfg.GetServerPort())
	}
}

func TestNewConfig_Malformed(t *testing.T) {
	_, err := load(env.Options{Environment: map[string]string{"MAX_FILE_SIZE": "not-a-number"}})
	if err == nil {
		t.Fatalf("expected error for malformed MAX_FILE_SIZE")
	}
}
