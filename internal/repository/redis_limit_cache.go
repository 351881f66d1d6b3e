package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"doc-reader-api/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	limitCachePrefix   = "entitlements:limit"
	notConfiguredValue = "-"
)

// CachedLimitRepository is a read-through Redis cache in front of a limit catalog.
// Missing rows are cached too so that fail-closed lookups stay cheap.
// Cache failures fall back to the underlying catalog.
//
// Readers only fill absent keys (SETNX) while UpsertLimit overwrites the row key,
// so a reader holding a pre-upsert row cannot put it back after the write.
type CachedLimitRepository struct {
	next   domain.LimitRepository
	client redis.UniversalClient
	ttl    time.Duration
	logger domain.Logger
}

// NewCachedLimitRepository wraps next with a Redis cache
func NewCachedLimitRepository(next domain.LimitRepository, client redis.UniversalClient, ttl time.Duration, logger domain.Logger) *CachedLimitRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedLimitRepository{next: next, client: client, ttl: ttl, logger: logger}
}

func limitCacheKey(tier domain.Tier, feature domain.FeatureKey) string {
	return fmt.Sprintf("%s:%s:%s", limitCachePrefix, tier, feature)
}

func tierCacheKey(tier domain.Tier) string {
	return fmt.Sprintf("%s:%s", limitCachePrefix, tier)
}

func (r *CachedLimitRepository) GetLimit(ctx context.Context, tier domain.Tier, feature domain.FeatureKey) (*domain.FeatureLimit, error) {
	key := limitCacheKey(tier, feature)

	raw, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if raw == notConfiguredValue {
			return nil, domain.ErrNotConfigured
		}
		var l domain.FeatureLimit
		if jsonErr := json.Unmarshal([]byte(raw), &l); jsonErr == nil {
			return &l, nil
		}
		r.logger.Warn("Discarding corrupt limit cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("Limit cache read failed", "key", key, "error", err)
	}

	l, err := r.next.GetLimit(ctx, tier, feature)
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		r.fill(ctx, key, notConfiguredValue)
		return nil, err
	case err != nil:
		return nil, err
	}
	if payload, jsonErr := json.Marshal(l); jsonErr == nil {
		r.fill(ctx, key, string(payload))
	}
	return l, nil
}

func (r *CachedLimitRepository) ListLimits(ctx context.Context, tier domain.Tier) (map[domain.FeatureKey]*domain.FeatureLimit, error) {
	key := tierCacheKey(tier)

	raw, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		var out map[domain.FeatureKey]*domain.FeatureLimit
		if jsonErr := json.Unmarshal(raw, &out); jsonErr == nil {
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		r.logger.Warn("Limit cache read failed", "key", key, "error", err)
	}

	out, err := r.next.ListLimits(ctx, tier)
	if err != nil {
		return nil, err
	}
	if payload, jsonErr := json.Marshal(out); jsonErr == nil {
		r.fill(ctx, key, string(payload))
	}
	return out, nil
}

// UpsertLimit writes through, stores the new row under its key and drops the
// tier listing. A listing filled from a read that began before the write can
// still be served until it expires.
func (r *CachedLimitRepository) UpsertLimit(ctx context.Context, limit *domain.FeatureLimit) error {
	if err := r.next.UpsertLimit(ctx, limit); err != nil {
		return err
	}
	key := limitCacheKey(limit.Tier, limit.Feature)
	payload, err := json.Marshal(limit)
	if err == nil {
		err = r.client.Set(ctx, key, payload, r.ttl).Err()
	}
	if err != nil {
		r.logger.Warn("Limit cache refresh failed", "key", key, "error", err)
		r.client.Del(ctx, key)
	}
	if err := r.client.Del(ctx, tierCacheKey(limit.Tier)).Err(); err != nil {
		r.logger.Warn("Limit cache invalidation failed", "tier", limit.Tier, "error", err)
	}
	return nil
}

// fill caches a value read from the catalog unless a newer one is already there.
func (r *CachedLimitRepository) fill(ctx context.Context, key, value string) {
	if err := r.client.SetNX(ctx, key, value, r.ttl).Err(); err != nil {
		r.logger.Warn("Limit cache write failed", "key", key, "error", err)
	}
}
