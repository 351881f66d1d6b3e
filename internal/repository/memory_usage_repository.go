package repository

import (
	"context"
	"fmt"
	"math"
	"sync"

	"doc-reader-api/internal/domain"
)

type usageKey struct {
	accountID string
	day       string
}

// MemoryUsageRepository is a mutex-guarded usage ledger. Increment is atomic
// with respect to concurrent callers in the same process.
type MemoryUsageRepository struct {
	mu   sync.Mutex
	rows map[usageKey]domain.UsageSnapshot
}

// NewMemoryUsageRepository creates an empty in-memory usage ledger
func NewMemoryUsageRepository() *MemoryUsageRepository {
	return &MemoryUsageRepository{rows: make(map[usageKey]domain.UsageSnapshot)}
}

func (r *MemoryUsageRepository) GetUsage(ctx context.Context, accountID, day string, feature domain.FeatureKey) (int64, error) {
	if !feature.IsCounter() {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[usageKey{accountID, day}][feature], nil
}

func (r *MemoryUsageRepository) Increment(ctx context.Context, accountID, day string, feature domain.FeatureKey, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: %d", domain.ErrInvalidAmount, amount)
	}
	if !feature.IsCounter() {
		return fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := usageKey{accountID, day}
	if current := r.rows[key][feature]; current > math.MaxInt64-amount {
		return fmt.Errorf("%w: %d overflows counter at %d", domain.ErrInvalidAmount, amount, current)
	}
	row, ok := r.rows[key]
	if !ok {
		row = make(domain.UsageSnapshot)
		r.rows[key] = row
	}
	row[feature] += amount
	return nil
}

func (r *MemoryUsageRepository) GetUsageSnapshot(ctx context.Context, accountID, day string) (domain.UsageSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := emptySnapshot()
	for f, v := range r.rows[usageKey{accountID, day}] {
		out[f] = v
	}
	return out, nil
}

func (r *MemoryUsageRepository) SumSince(ctx context.Context, accountID, fromDay, toDay string, feature domain.FeatureKey) (int64, error) {
	if !feature.IsCounter() {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownFeature, feature)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for k, row := range r.rows {
		// Day keys are YYYY-MM-DD so lexical order is calendar order.
		if k.accountID != accountID || k.day < fromDay || k.day > toDay {
			continue
		}
		total += row[feature]
	}
	return total, nil
}

// emptySnapshot returns a snapshot with every counter present and zero.
func emptySnapshot() domain.UsageSnapshot {
	out := make(domain.UsageSnapshot, len(usageColumns))
	for f := range usageColumns {
		out[f] = 0
	}
	return out
}
