package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"doc-reader-api/internal/domain"

	"github.com/jackc/pgx/v5"
)

// PostgresUsageRepository stores one usage_counters row per (account, day).
type PostgresUsageRepository struct {
	db     DBTX
	logger domain.Logger
}

// NewPostgresUsageRepository creates a usage ledger backed by Postgres
func NewPostgresUsageRepository(db DBTX, logger domain.Logger) *PostgresUsageRepository {
	return &PostgresUsageRepository{db: db, logger: logger}
}

func (r *PostgresUsageRepository) GetUsage(ctx context.Context, accountID, day string, feature domain.FeatureKey) (int64, error) {
	col, err := usageColumn(feature)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM usage_counters WHERE account_id = $1 AND usage_date = $2::date`, col)

	var used int64
	err = r.db.QueryRow(ctx, query, accountID, day).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr("get usage", err)
	}
	return used, nil
}

// Increment adds amount in a single upsert so concurrent writers never lose updates.
func (r *PostgresUsageRepository) Increment(ctx context.Context, accountID, day string, feature domain.FeatureKey, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
	}
	col, err := usageColumn(feature)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, incrementSQL(col), accountID, day, amount); err != nil {
		return storageErr("increment usage", err)
	}
	return nil
}

func incrementSQL(col string) string {
	return fmt.Sprintf(`INSERT INTO usage_counters (account_id, usage_date, %[1]s, updated_at)
		VALUES ($1, $2::date, $3, now())
		ON CONFLICT (account_id, usage_date) DO UPDATE SET
			%[1]s = usage_counters.%[1]s + EXCLUDED.%[1]s,
			updated_at = now()`, col)
}

func (r *PostgresUsageRepository) GetUsageSnapshot(ctx context.Context, accountID, day string) (domain.UsageSnapshot, error) {
	features, cols := snapshotColumns()
	query := fmt.Sprintf(`SELECT %s FROM usage_counters WHERE account_id = $1 AND usage_date = $2::date`,
		strings.Join(cols, ", "))

	values := make([]int64, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}

	snapshot := emptySnapshot()
	err := r.db.QueryRow(ctx, query, accountID, day).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return snapshot, nil
	}
	if err != nil {
		return nil, storageErr("get usage snapshot", err)
	}
	for i, f := range features {
		snapshot[f] = values[i]
	}
	return snapshot, nil
}

func (r *PostgresUsageRepository) SumSince(ctx context.Context, accountID, fromDay, toDay string, feature domain.FeatureKey) (int64, error) {
	col, err := usageColumn(feature)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0)::bigint FROM usage_counters
		WHERE account_id = $1 AND usage_date BETWEEN $2::date AND $3::date`, col)

	var total int64
	if err := r.db.QueryRow(ctx, query, accountID, fromDay, toDay).Scan(&total); err != nil {
		return 0, storageErr("sum usage", err)
	}
	return total, nil
}

// snapshotColumns returns every counter with its column in a stable order.
func snapshotColumns() ([]domain.FeatureKey, []string) {
	features := append(domain.FeatureKeys(), domain.CounterWordsRead)
	cols := make([]string, len(features))
	for i, f := range features {
		cols[i] = usageColumns[f]
	}
	return features, cols
}
