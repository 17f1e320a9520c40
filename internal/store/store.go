// Package store defines the datastore abstraction for gtin-price-compare.
// All business logic depends on the Store interface, never on concrete
// implementations. Two implementations exist: an in-process memory store
// for single-node deployments, and a PostgreSQL store for shared state.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// ErrNotFound is returned when a cache entry is absent or expired.
var ErrNotFound = errors.New("not found")

// Store defines all data access operations for gtin-price-compare.
type Store interface {
	// Result cache
	GetCachedResult(ctx context.Context, identifier, locale string) (*domain.AggregateResult, error)
	PutCachedResult(
		ctx context.Context,
		identifier, locale string,
		result *domain.AggregateResult,
		ttl time.Duration,
	) error
	DeleteCacheByPrefix(ctx context.Context, prefix string) (int, error)
	ClearCache(ctx context.Context) (int, error)
	CacheStats(ctx context.Context) (*domain.CacheStats, error)
	CleanupExpiredCache(ctx context.Context) (int, error)

	// Failure records
	UpsertFailure(
		ctx context.Context,
		rec *domain.FailureRecord,
		dedupWindow time.Duration,
		maxRecords int,
	) error
	ListFailures(ctx context.Context, limit int) ([]domain.FailureRecord, error)
	ClearFailures(ctx context.Context) (int, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error

	Close()
}

// CacheKey derives the cache key for an identifier and locale. The locale
// is part of the key so a "no results for US" entry never masks a valid
// GB lookup.
func CacheKey(identifier, locale string) string {
	if locale == "" {
		locale = domain.DefaultLocale
	}
	return identifier + ":" + strings.ToUpper(locale)
}
