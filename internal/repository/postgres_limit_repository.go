package repository

import (
	"context"
	"errors"
	"time"

	"doc-reader-api/internal/domain"

	"github.com/jackc/pgx/v5"
)

const (
	selectLimitSQL = `SELECT tier, feature, daily_limit, monthly_limit, is_unlimited, updated_at
		FROM feature_limits WHERE tier = $1 AND feature = $2`
	listLimitsSQL = `SELECT tier, feature, daily_limit, monthly_limit, is_unlimited, updated_at
		FROM feature_limits WHERE tier = $1`
	upsertLimitSQL = `INSERT INTO feature_limits (tier, feature, daily_limit, monthly_limit, is_unlimited, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tier, feature) DO UPDATE SET
			daily_limit = EXCLUDED.daily_limit,
			monthly_limit = EXCLUDED.monthly_limit,
			is_unlimited = EXCLUDED.is_unlimited,
			updated_at = EXCLUDED.updated_at`
)

// PostgresLimitRepository reads and writes the feature_limits table
type PostgresLimitRepository struct {
	db     DBTX
	logger domain.Logger
}

// NewPostgresLimitRepository creates a limit catalog backed by Postgres
func NewPostgresLimitRepository(db DBTX, logger domain.Logger) *PostgresLimitRepository {
	return &PostgresLimitRepository{db: db, logger: logger}
}

func (r *PostgresLimitRepository) GetLimit(ctx context.Context, tier domain.Tier, feature domain.FeatureKey) (*domain.FeatureLimit, error) {
	var l domain.FeatureLimit
	err := r.db.QueryRow(ctx, selectLimitSQL, string(tier), string(feature)).
		Scan(&l.Tier, &l.Feature, &l.DailyLimit, &l.MonthlyLimit, &l.IsUnlimited, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotConfigured
	}
	if err != nil {
		return nil, storageErr("get limit", err)
	}
	return &l, nil
}

func (r *PostgresLimitRepository) ListLimits(ctx context.Context, tier domain.Tier) (map[domain.FeatureKey]*domain.FeatureLimit, error) {
	rows, err := r.db.Query(ctx, listLimitsSQL, string(tier))
	if err != nil {
		return nil, storageErr("list limits", err)
	}
	defer rows.Close()

	out := make(map[domain.FeatureKey]*domain.FeatureLimit)
	for rows.Next() {
		var l domain.FeatureLimit
		if err := rows.Scan(&l.Tier, &l.Feature, &l.DailyLimit, &l.MonthlyLimit, &l.IsUnlimited, &l.UpdatedAt); err != nil {
			return nil, storageErr("scan limit", err)
		}
		out[l.Feature] = &l
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list limits", err)
	}
	return out, nil
}

func (r *PostgresLimitRepository) UpsertLimit(ctx context.Context, limit *domain.FeatureLimit) error {
	if err := limit.Validate(); err != nil {
		return err
	}
	updatedAt := limit.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, upsertLimitSQL,
		string(limit.Tier), string(limit.Feature), limit.DailyLimit, limit.MonthlyLimit, limit.IsUnlimited, updatedAt)
	if err != nil {
		return storageErr("upsert limit", err)
	}
	r.logger.Debug("Feature limit upserted", "tier", limit.Tier, "feature", limit.Feature)
	return nil
}
