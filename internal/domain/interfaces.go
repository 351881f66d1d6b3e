package domain

import "time"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetMaxFileSize() int64
	GetLogLevel() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetAdminSecret() string
	GetDatabaseURL() string
	GetDatabaseMaxConns() int32
	GetDatabaseRetryAttempts() int
	GetDatabaseRetryInterval() time.Duration
	GetRedisURL() string
	GetLimitCacheTTL() time.Duration
	GetAccountCacheTTL() time.Duration
	GetGCPProjectID() string
	GetGCPLocation() string
	GetGeminiModel() string
	GetCORSAllowedOrigins() []string
}
