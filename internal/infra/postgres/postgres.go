package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"doc-reader-api/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var (
	ErrEmptyConnectionString = errors.New("empty postgres connection string, use DATABASE_URL env var")
	ErrFailedToConnect       = errors.New("failed to open db connection")
	ErrFailedToMigrate       = errors.New("failed to apply migrations")
)

// Options controls pool sizing and startup retries.
type Options struct {
	ConnectionString string
	MaxConns         int32
	RetryAttempts    int
	RetryInterval    time.Duration
}

// Connect opens a pgx pool, retrying with a linear backoff until the database answers a ping.
func Connect(ctx context.Context, opts Options) (*pgxpool.Pool, error) {
	if opts.ConnectionString == "" {
		return nil, ErrEmptyConnectionString
	}
	cfg, err := pgxpool.ParseConfig(opts.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse db config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	attempts := opts.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(time.Duration(i+1) * opts.RetryInterval):
		}
	}
	return nil, errors.Join(ErrFailedToConnect, lastErr)
}

// Migrate applies the embedded schema migrations with goose.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger domain.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close migration connection", err)
		}
	}(db)

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseLogger{logger: logger})
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Join(ErrFailedToMigrate, err)
	}
	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return errors.Join(ErrFailedToMigrate, err)
	}
	return nil
}

// Healthcheck returns a check for the /health endpoint.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}

// gooseLogger routes goose's printf output through the application logger.
type gooseLogger struct {
	logger domain.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...), nil)
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
