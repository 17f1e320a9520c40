//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/pricegrid/gtin-price-compare/internal/store"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

func setupPostgres(t *testing.T) *store.PostgresStore {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gpc_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := store.NewPostgresStore(ctx, connStr, 0)
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	require.NoError(t, s.Migrate(ctx))

	return s
}

func TestPostgresStore_Ping(t *testing.T) {
	s := setupPostgres(t)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPostgresStore_CacheRoundTrip(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	_, err := s.GetCachedResult(ctx, "036000291452", "US")
	require.ErrorIs(t, err, store.ErrNotFound)

	want := successResult(12.99)
	require.NoError(t, s.PutCachedResult(ctx, "036000291452", "US", want, time.Hour))

	got, err := s.GetCachedResult(ctx, "036000291452", "US")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// Locale-scoped key: the US entry must not serve a GB lookup.
	_, err = s.GetCachedResult(ctx, "036000291452", "GB")
	require.ErrorIs(t, err, store.ErrNotFound)

	// Overwriting the same key replaces the entry.
	replacement := successResult(9.99)
	require.NoError(t, s.PutCachedResult(ctx, "036000291452", "US", replacement, time.Hour))

	got, err = s.GetCachedResult(ctx, "036000291452", "US")
	require.NoError(t, err)
	assert.InDelta(t, 9.99, got.OverallBest.Price, 0.001)
}

func TestPostgresStore_CacheExpiry(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	// Negative TTL produces an already-expired entry.
	require.NoError(t, s.PutCachedResult(ctx, "expired", "US", successResult(1), -time.Minute))
	require.NoError(t, s.PutCachedResult(ctx, "valid", "US", successResult(2), time.Hour))

	_, err := s.GetCachedResult(ctx, "expired", "US")
	require.ErrorIs(t, err, store.ErrNotFound)

	stats, err := s.CacheStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 1, stats.Expired)

	removed, err := s.CleanupExpiredCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = s.GetCachedResult(ctx, "valid", "US")
	require.NoError(t, err)
}

func TestPostgresStore_DeleteCacheByPrefix(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	require.NoError(t, s.PutCachedResult(ctx, "11111", "US", successResult(1), time.Hour))
	require.NoError(t, s.PutCachedResult(ctx, "11111", "GB", successResult(2), time.Hour))
	require.NoError(t, s.PutCachedResult(ctx, "22222", "US", successResult(3), time.Hour))

	deleted, err := s.DeleteCacheByPrefix(ctx, "11111")
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)

	_, err = s.GetCachedResult(ctx, "22222", "US")
	require.NoError(t, err)

	deleted, err = s.ClearCache(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestPostgresStore_UpsertFailure(t *testing.T) {
	s := setupPostgres(t)
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
	assert.False(t, rec.Timestamp.IsZero())

	rec2 := &domain.FailureRecord{
		Identifier: "036000291452",
		Locale:     "US",
		Errors:     map[domain.Source]string{domain.SourceEbay: "timeout"},
		Reason:     domain.ReasonAPIFailure,
	}
	require.NoError(t, s.UpsertFailure(ctx, rec2, 24*time.Hour, 200))
	assert.Equal(t, 2, rec2.AttemptCount)
	assert.Equal(t, rec.ID, rec2.ID)

	records, err := s.ListFailures(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 2, records[0].AttemptCount)
	assert.Equal(t, "timeout", records[0].Errors[domain.SourceEbay])
}

func TestPostgresStore_UpsertFailure_Concurrent(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	// Concurrent failures for the same identifier must collapse into a
	// single record whose attempt_count reflects every writer.
	const writers = 8

	var wg sync.WaitGroup
	wg.Add(writers)
	errs := make(chan error, writers)

	for range writers {
		go func() {
			defer wg.Done()
			rec := &domain.FailureRecord{
				Identifier: "036000291452",
				Locale:     "US",
				Errors:     map[domain.Source]string{domain.SourceEbay: "status 500"},
				Reason:     domain.ReasonAPIFailure,
			}
			errs <- s.UpsertFailure(ctx, rec, 24*time.Hour, 200)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	records, err := s.ListFailures(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1, "concurrent upserts must not duplicate the record")
	assert.Equal(t, writers, records[0].AttemptCount)
}

func TestPostgresStore_UpsertFailure_Cap(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	identifiers := []string{"aaa", "bbb", "ccc", "ddd", "eee"}
	for _, id := range identifiers {
		rec := &domain.FailureRecord{
			Identifier: id,
			Locale:     "US",
			Reason:     domain.ReasonNoResults,
		}
		require.NoError(t, s.UpsertFailure(ctx, rec, 24*time.Hour, 3))
		// Distinct timestamps keep the newest-first ordering deterministic.
		time.Sleep(10 * time.Millisecond)
	}

	records, err := s.ListFailures(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "eee", records[0].Identifier)
	assert.Equal(t, "ccc", records[2].Identifier)

	deleted, err := s.ClearFailures(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, deleted)
}
