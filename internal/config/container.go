package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"doc-reader-api/internal/domain"
	"doc-reader-api/internal/infra/postgres"
	infraredis "doc-reader-api/internal/infra/redis"
	"doc-reader-api/internal/infra/supabase"
	"doc-reader-api/internal/infra/vertex"
	"doc-reader-api/internal/metrics"
	"doc-reader-api/internal/repository"
	"doc-reader-api/internal/service"
	"doc-reader-api/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const redisConnectAttempts = 3

// Container holds all application dependencies
type Container struct {
	Config         domain.Config
	Logger         domain.Logger
	Metrics        *metrics.EntitlementMetrics
	MetricsHandler http.Handler
	SupabaseClient domain.SupabaseClient

	LimitRepository   domain.LimitRepository
	UsageRepository   domain.UsageRepository
	AccountRepository domain.AccountRepository

	EntitlementService *service.EntitlementService
	AuthService        domain.AuthService
	DocumentAIService  domain.DocumentAIService
	OCRService         domain.OCRService

	// HealthChecks are the checks /health runs, keyed by dependency name.
	HealthChecks map[string]func(context.Context) error

	closers []func() error
}

// NewContainer wires the application. Postgres and Redis are used when their
// URLs are configured; otherwise the usage ledger and limit catalog live in
// process memory.
func NewContainer(ctx context.Context) (*Container, error) {
	cfg, err := NewConfig()
	if err != nil {
		return nil, err
	}
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	c := &Container{
		Config:         cfg,
		Logger:         appLogger,
		Metrics:        metrics.NewEntitlementMetrics(nil),
		MetricsHandler: promhttp.Handler(),
		HealthChecks:   make(map[string]func(context.Context) error),
	}

	if err := c.initStorage(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}

	supabaseClient := supabase.NewSupabaseClient(cfg, appLogger)
	if err := supabaseClient.Initialize(); err != nil {
		// Token validation fails closed until Supabase is configured.
		appLogger.Error("Supabase client not initialized", err)
	}
	c.SupabaseClient = supabaseClient
	c.AccountRepository = repository.NewSupabaseAccountRepository(supabaseClient, appLogger)

	var generator domain.TextGenerator
	if projectID := cfg.GetGCPProjectID(); projectID != "" {
		gen, err := vertex.NewGenerator(ctx, projectID, cfg.GetGCPLocation(), cfg.GetGeminiModel(), appLogger)
		if err != nil {
			appLogger.Error("Vertex AI generator disabled", err, "project_id", projectID)
		} else {
			generator = gen
			c.closers = append(c.closers, gen.Close)
		}
	} else {
		appLogger.Warn("GCP_PROJECT_ID not set, AI endpoints disabled")
	}

	c.EntitlementService = service.NewEntitlementService(c.LimitRepository, c.UsageRepository, appLogger, c.Metrics)
	c.AuthService = service.NewAuthService(supabaseClient, c.AccountRepository, appLogger, cfg.GetAccountCacheTTL())
	c.DocumentAIService = service.NewDocumentAIService(c.EntitlementService, generator, appLogger)
	c.OCRService = service.NewOCRService(c.EntitlementService, service.NewPDFProcessor(appLogger), cfg.GetMaxFileSize(), appLogger)

	return c, nil
}

func (c *Container) initStorage(ctx context.Context) error {
	cfg := c.Config

	var limits domain.LimitRepository
	if dsn := cfg.GetDatabaseURL(); dsn != "" {
		pool, err := postgres.Connect(ctx, postgres.Options{
			ConnectionString: dsn,
			MaxConns:         cfg.GetDatabaseMaxConns(),
			RetryAttempts:    cfg.GetDatabaseRetryAttempts(),
			RetryInterval:    cfg.GetDatabaseRetryInterval(),
		})
		if err != nil {
			return err
		}
		c.closers = append(c.closers, func() error { pool.Close(); return nil })

		if err := postgres.Migrate(ctx, pool, c.Logger); err != nil {
			return err
		}
		limits = repository.NewPostgresLimitRepository(pool, c.Logger)
		c.UsageRepository = repository.NewPostgresUsageRepository(pool, c.Logger)
		c.HealthChecks["postgres"] = postgres.Healthcheck(pool)
		c.Logger.Info("Using Postgres usage ledger")
	} else {
		limits = repository.NewMemoryLimitRepository()
		c.UsageRepository = repository.NewMemoryUsageRepository()
		c.Logger.Warn("DATABASE_URL not set, usage is kept in memory and lost on restart")
	}

	if url := cfg.GetRedisURL(); url != "" {
		client, err := infraredis.Connect(ctx, url, redisConnectAttempts, time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c.closers = append(c.closers, client.Close)
		limits = repository.NewCachedLimitRepository(limits, client, cfg.GetLimitCacheTTL(), c.Logger)
		c.HealthChecks["redis"] = infraredis.Healthcheck(client)
		c.Logger.Info("Limit catalog cached in Redis", "ttl", cfg.GetLimitCacheTTL())
	}

	c.LimitRepository = limits
	return nil
}

// SeedLimits inserts the default catalog rows that are missing. It goes
// through the cache so stale negative entries are invalidated.
func (c *Container) SeedLimits(ctx context.Context) error {
	_, err := service.SeedDefaultLimits(ctx, c.LimitRepository, c.Logger)
	return err
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
