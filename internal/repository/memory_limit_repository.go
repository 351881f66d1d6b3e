package repository

import (
	"context"
	"sync"
	"time"

	"doc-reader-api/internal/domain"
)

type limitKey struct {
	tier    domain.Tier
	feature domain.FeatureKey
}

// MemoryLimitRepository keeps the limit catalog in process memory. It backs
// local runs without DATABASE_URL and the service tests.
type MemoryLimitRepository struct {
	mu     sync.RWMutex
	limits map[limitKey]domain.FeatureLimit
}

// NewMemoryLimitRepository creates an empty in-memory limit catalog
func NewMemoryLimitRepository() *MemoryLimitRepository {
	return &MemoryLimitRepository{limits: make(map[limitKey]domain.FeatureLimit)}
}

func (r *MemoryLimitRepository) GetLimit(ctx context.Context, tier domain.Tier, feature domain.FeatureKey) (*domain.FeatureLimit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.limits[limitKey{tier, feature}]
	if !ok {
		return nil, domain.ErrNotConfigured
	}
	return &l, nil
}

func (r *MemoryLimitRepository) ListLimits(ctx context.Context, tier domain.Tier) (map[domain.FeatureKey]*domain.FeatureLimit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[domain.FeatureKey]*domain.FeatureLimit)
	for k, l := range r.limits {
		if k.tier != tier {
			continue
		}
		l := l
		out[k.feature] = &l
	}
	return out, nil
}

func (r *MemoryLimitRepository) UpsertLimit(ctx context.Context, limit *domain.FeatureLimit) error {
	if err := limit.Validate(); err != nil {
		return err
	}
	row := *limit
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	r.limits[limitKey{row.Tier, row.Feature}] = row
	r.mu.Unlock()
	return nil
}
