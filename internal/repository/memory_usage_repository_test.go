package repository

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"doc-reader-api/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryUsageRepository_Increment(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUsageRepository()

	used, err := repo.GetUsage(ctx, "acct-1", "2025-01-01", domain.FeatureOCRPages)
	require.NoError(t, err)
	assert.Zero(t, used, "missing row reads as zero")

	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureOCRPages, 2))
	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureOCRPages, 0))
	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureOCRPages, 3))

	used, err = repo.GetUsage(ctx, "acct-1", "2025-01-01", domain.FeatureOCRPages)
	require.NoError(t, err)
	assert.Equal(t, int64(5), used)

	other, err := repo.GetUsage(ctx, "acct-1", "2025-01-02", domain.FeatureOCRPages)
	require.NoError(t, err)
	assert.Zero(t, other, "days are independent")
}

func TestMemoryUsageRepository_RejectsBadInput(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUsageRepository()

	err := repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureOCRPages, -1)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))

	err = repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureKey("bogus"), 1)
	assert.True(t, errors.Is(err, domain.ErrUnknownFeature))

	used, err := repo.GetUsage(ctx, "acct-1", "2025-01-01", domain.FeatureOCRPages)
	require.NoError(t, err)
	assert.Zero(t, used, "rejected increments must not change state")
}

func TestMemoryUsageRepository_RejectsOverflow(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUsageRepository()

	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureDownloads, 1))

	err := repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureDownloads, math.MaxInt64)
	assert.True(t, errors.Is(err, domain.ErrInvalidAmount))

	used, err := repo.GetUsage(ctx, "acct-1", "2025-01-01", domain.FeatureDownloads)
	require.NoError(t, err)
	assert.Equal(t, int64(1), used, "overflowing increment must not change state")

	require.NoError(t, repo.Increment(ctx, "acct-2", "2025-01-01", domain.FeatureDownloads, math.MaxInt64))
}

func TestMemoryUsageRepository_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUsageRepository()

	const workers = 100
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Increment(ctx, "acct-1", "2025-01-01", domain.FeatureCharacters, 7))
		}()
	}
	wg.Wait()

	used, err := repo.GetUsage(ctx, "acct-1", "2025-01-01", domain.FeatureCharacters)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*7), used)
}

func TestMemoryUsageRepository_SnapshotAndSum(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryUsageRepository()

	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-02-28", domain.FeatureTranslations, 4))
	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-03-01", domain.FeatureTranslations, 5))
	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-03-02", domain.FeatureTranslations, 6))
	require.NoError(t, repo.Increment(ctx, "acct-2", "2025-03-02", domain.FeatureTranslations, 100))
	require.NoError(t, repo.Increment(ctx, "acct-1", "2025-03-02", domain.CounterWordsRead, 250))

	snap, err := repo.GetUsageSnapshot(ctx, "acct-1", "2025-03-02")
	require.NoError(t, err)
	assert.Equal(t, int64(6), snap[domain.FeatureTranslations])
	assert.Equal(t, int64(250), snap[domain.CounterWordsRead])
	assert.Len(t, snap, 13, "snapshot carries every counter")

	total, err := repo.SumSince(ctx, "acct-1", "2025-03-01", "2025-03-02", domain.FeatureTranslations)
	require.NoError(t, err)
	assert.Equal(t, int64(11), total)
}
