package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricegrid/gtin-price-compare/internal/store"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

func successResult(price float64) *domain.AggregateResult {
	best := &domain.Offer{
		Title:    "Widget",
		Price:    price,
		Currency: "USD",
		Source:   domain.SourceEbay,
		Locale:   "US",
	}
	return &domain.AggregateResult{
		Status:      domain.StatusSuccess,
		OverallBest: best,
		BestBySource: map[domain.Source]*domain.Offer{
			domain.SourceEbay: best,
		},
		AllMatching:    []domain.Offer{*best},
		CountsBySource: map[domain.Source]int{domain.SourceEbay: 1},
		Locale:         "US",
	}
}

func TestMemoryStore_CacheRoundTrip(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetCachedResult(ctx, "036000291452", "US")
	require.ErrorIs(t, err, store.ErrNotFound)

	want := successResult(12.99)
	require.NoError(t, s.PutCachedResult(ctx, "036000291452", "US", want, time.Hour))

	got, err := s.GetCachedResult(ctx, "036000291452", "US")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMemoryStore_CacheLocaleScoping(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	usResult := &domain.AggregateResult{
		Status: domain.StatusNoResults,
		Reason: domain.ReasonNoResults,
		Locale: "US",
	}
	require.NoError(t, s.PutCachedResult(ctx, "036000291452", "US", usResult, time.Hour))

	// A cached US miss must not mask a GB lookup.
	_, err := s.GetCachedResult(ctx, "036000291452", "GB")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := s.GetCachedResult(ctx, "036000291452", "US")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNoResults, got.Status)
}

func TestMemoryStore_CacheExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := now

	s := store.NewMemoryStore(store.WithMemoryNowFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return currentTime
	}))
	ctx := context.Background()

	require.NoError(t, s.PutCachedResult(ctx, "036000291452", "US", successResult(9.99), time.Hour))

	_, err := s.GetCachedResult(ctx, "036000291452", "US")
	require.NoError(t, err)

	// Advance past the TTL; the entry must be observed as absent.
	mu.Lock()
	currentTime = now.Add(time.Hour + time.Minute)
	mu.Unlock()

	_, err = s.GetCachedResult(ctx, "036000291452", "US")
	require.ErrorIs(t, err, store.ErrNotFound)

	stats, err := s.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 0, stats.Valid)
	assert.Equal(t, 1, stats.Expired)

	removed, err := s.CleanupExpiredCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	stats, err = s.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestMemoryStore_DeleteCacheByPrefix(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.PutCachedResult(ctx, "11111", "US", successResult(1), time.Hour))
	require.NoError(t, s.PutCachedResult(ctx, "11111", "GB", successResult(2), time.Hour))
	require.NoError(t, s.PutCachedResult(ctx, "22222", "US", successResult(3), time.Hour))

	deleted, err := s.DeleteCacheByPrefix(ctx, "11111")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = s.GetCachedResult(ctx, "11111", "US")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetCachedResult(ctx, "22222", "US")
	require.NoError(t, err)
}

func TestMemoryStore_ClearCache(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.PutCachedResult(ctx, "11111", "US", successResult(1), time.Hour))
	require.NoError(t, s.PutCachedResult(ctx, "22222", "US", successResult(2), time.Hour))

	deleted, err := s.ClearCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	stats, err := s.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}

func TestMemoryStore_UpsertFailure_Dedup(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	rec := &domain.FailureRecord{
		Identifier: "036000291452",
		Locale:     "US",
		Errors:     map[domain.Source]string{domain.SourceEbay: "status 500"},
		Reason:     domain.ReasonAPIFailure,
	}
	require.NoError(t, s.UpsertFailure(ctx, rec, 24*time.Hour, 200))
	assert.Equal(t, 1, rec.AttemptCount)
	assert.NotEmpty(t, rec.ID)
	firstID := rec.ID

	// Same identifier within the window increments instead of duplicating.
	rec2 := &domain.FailureRecord{
		Identifier: "036000291452",
		Locale:     "US",
		Errors:     map[domain.Source]string{domain.SourceEbay: "timeout"},
		Reason:     domain.ReasonAPIFailure,
	}
	require.NoError(t, s.UpsertFailure(ctx, rec2, 24*time.Hour, 200))
	assert.Equal(t, 2, rec2.AttemptCount)
	assert.Equal(t, firstID, rec2.ID)

	records, err := s.ListFailures(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].AttemptCount)
	assert.Equal(t, "timeout", records[0].Errors[domain.SourceEbay])
}

func TestMemoryStore_UpsertFailure_OutsideWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	currentTime := now

	s := store.NewMemoryStore(store.WithMemoryNowFunc(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return currentTime
	}))
	ctx := context.Background()

	rec := &domain.FailureRecord{
		Identifier: "036000291452",
		Locale:     "US",
		Reason:     domain.ReasonNoResults,
	}
	require.NoError(t, s.UpsertFailure(ctx, rec, 24*time.Hour, 200))

	mu.Lock()
	currentTime = now.Add(25 * time.Hour)
	mu.Unlock()

	rec2 := &domain.FailureRecord{
		Identifier: "036000291452",
		Locale:     "US",
		Reason:     domain.ReasonNoResults,
	}
	require.NoError(t, s.UpsertFailure(ctx, rec2, 24*time.Hour, 200))
	assert.Equal(t, 1, rec2.AttemptCount)
	assert.NotEqual(t, rec.ID, rec2.ID)

	records, err := s.ListFailures(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMemoryStore_UpsertFailure_Cap(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	for i := range 5 {
		rec := &domain.FailureRecord{
			Identifier: string(rune('a' + i)),
			Locale:     "US",
			Reason:     domain.ReasonNoResults,
		}
		require.NoError(t, s.UpsertFailure(ctx, rec, 24*time.Hour, 3))
	}

	records, err := s.ListFailures(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first; oldest records were dropped.
	assert.Equal(t, "e", records[0].Identifier)
	assert.Equal(t, "c", records[2].Identifier)
}

func TestMemoryStore_ListFailures_Limit(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	for i := range 5 {
		rec := &domain.FailureRecord{
			Identifier: string(rune('a' + i)),
			Locale:     "US",
			Reason:     domain.ReasonNoResults,
		}
		require.NoError(t, s.UpsertFailure(ctx, rec, 24*time.Hour, 200))
	}

	records, err := s.ListFailures(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "e", records[0].Identifier)
}

func TestMemoryStore_ClearFailures(t *testing.T) {
	t.Parallel()

	s := store.NewMemoryStore()
	ctx := context.Background()

	rec := &domain.FailureRecord{Identifier: "x", Locale: "US", Reason: domain.ReasonNoResults}
	require.NoError(t, s.UpsertFailure(ctx, rec, 24*time.Hour, 200))

	deleted, err := s.ClearFailures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	records, err := s.ListFailures(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCacheKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "036000291452:US", store.CacheKey("036000291452", "US"))
	assert.Equal(t, "036000291452:GB", store.CacheKey("036000291452", "gb"))
	assert.Equal(t, "036000291452:US", store.CacheKey("036000291452", ""))
}
