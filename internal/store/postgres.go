package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

const defaultPoolSize = 10

// PostgresStore implements Store using pgxpool (connection-pooled
// PostgreSQL). Aggregate results are stored as JSONB; expiry is enforced
// in the queries so a stale row is never returned even before cleanup
// runs.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with connection pooling.
func NewPostgresStore(ctx context.Context, connString string, poolSize int) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	cfg.MaxConns = int32(poolSize)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Close gracefully shuts down the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies pending SQL schema migrations.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.pool)
}

// GetCachedResult returns the cached result for (identifier, locale), or
// ErrNotFound if absent or expired.
func (s *PostgresStore) GetCachedResult(
	ctx context.Context,
	identifier, locale string,
) (*domain.AggregateResult, error) {
	args := pgx.NamedArgs{"cache_key": CacheKey(identifier, locale)}

	var data []byte
	err := s.pool.QueryRow(ctx, queryGetCachedResult, args).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying cached result: %w", err)
	}

	var result domain.AggregateResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding cached result: %w", err)
	}
	return &result, nil
}

// PutCachedResult stores a result under (identifier, locale) for ttl,
// replacing any existing entry for the same key.
func (s *PostgresStore) PutCachedResult(
	ctx context.Context,
	identifier, locale string,
	result *domain.AggregateResult,
	ttl time.Duration,
) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	args := pgx.NamedArgs{
		"cache_key":  CacheKey(identifier, locale),
		"identifier": identifier,
		"locale":     locale,
		"result":     data,
		"ttl":        ttl,
	}

	if _, err := s.pool.Exec(ctx, queryPutCachedResult, args); err != nil {
		return fmt.Errorf("storing cached result: %w", err)
	}
	return nil
}

// DeleteCacheByPrefix removes entries whose key starts with prefix.
func (s *PostgresStore) DeleteCacheByPrefix(
	ctx context.Context,
	prefix string,
) (int, error) {
	args := pgx.NamedArgs{"pattern": escapeLike(prefix) + "%"}

	tag, err := s.pool.Exec(ctx, queryDeleteCacheByPrefix, args)
	if err != nil {
		return 0, fmt.Errorf("deleting cache entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ClearCache removes every cache entry.
func (s *PostgresStore) ClearCache(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, queryClearCache)
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// CacheStats reports total, valid, and expired entry counts.
func (s *PostgresStore) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	stats := &domain.CacheStats{}
	err := s.pool.QueryRow(ctx, queryCacheStats).Scan(
		&stats.Total, &stats.Valid, &stats.Expired,
	)
	if err != nil {
		return nil, fmt.Errorf("querying cache stats: %w", err)
	}
	return stats, nil
}

// CleanupExpiredCache removes entries past their TTL.
func (s *PostgresStore) CleanupExpiredCache(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, queryCleanupExpiredCache)
	if err != nil {
		return 0, fmt.Errorf("cleaning up expired cache: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// UpsertFailure records a failed lookup with identifier-scoped dedup
// inside dedupWindow, then truncates the table to maxRecords newest rows.
// The whole upsert runs in one transaction holding a per-identifier
// advisory lock, so two concurrent failures for the same identifier
// produce one record with attempt_count 2, never two records.
func (s *PostgresStore) UpsertFailure(
	ctx context.Context,
	rec *domain.FailureRecord,
	dedupWindow time.Duration,
	maxRecords int,
) error {
	errorsJSON, err := json.Marshal(rec.Errors)
	if err != nil {
		return fmt.Errorf("encoding failure errors: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning failure upsert: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	lockArgs := pgx.NamedArgs{"identifier": rec.Identifier}
	if _, err := tx.Exec(ctx, queryLockFailureIdentifier, lockArgs); err != nil {
		return fmt.Errorf("locking failure identifier: %w", err)
	}

	var existingID string
	var attempts int
	findArgs := pgx.NamedArgs{
		"identifier": rec.Identifier,
		"window":     dedupWindow,
	}
	err = tx.QueryRow(ctx, queryFindRecentFailure, findArgs).
		Scan(&existingID, &attempts)

	switch {
	case err == nil:
		updateArgs := pgx.NamedArgs{
			"id":     existingID,
			"locale": rec.Locale,
			"errors": errorsJSON,
			"reason": string(rec.Reason),
		}
		if err := tx.QueryRow(ctx, queryUpdateFailure, updateArgs).
			Scan(&rec.Timestamp, &rec.AttemptCount); err != nil {
			return fmt.Errorf("updating failure record: %w", err)
		}
		rec.ID = existingID

	case errors.Is(err, pgx.ErrNoRows):
		rec.ID = uuid.NewString()
		rec.AttemptCount = 1
		insertArgs := pgx.NamedArgs{
			"id":         rec.ID,
			"identifier": rec.Identifier,
			"locale":     rec.Locale,
			"errors":     errorsJSON,
			"reason":     string(rec.Reason),
		}
		if err := tx.QueryRow(ctx, queryInsertFailure, insertArgs).
			Scan(&rec.Timestamp); err != nil {
			return fmt.Errorf("inserting failure record: %w", err)
		}

	default:
		return fmt.Errorf("finding recent failure: %w", err)
	}

	if maxRecords > 0 {
		truncArgs := pgx.NamedArgs{"max_records": maxRecords}
		if _, err := tx.Exec(ctx, queryTruncateFailures, truncArgs); err != nil {
			return fmt.Errorf("truncating failure records: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing failure upsert: %w", err)
	}
	return nil
}

// ListFailures returns up to limit records, newest first. A limit of 0
// returns everything.
func (s *PostgresStore) ListFailures(
	ctx context.Context,
	limit int,
) ([]domain.FailureRecord, error) {
	args := pgx.NamedArgs{"limit": nil}
	if limit > 0 {
		args["limit"] = limit
	}

	rows, err := s.pool.Query(ctx, queryListFailures, args)
	if err != nil {
		return nil, fmt.Errorf("querying failure records: %w", err)
	}
	defer rows.Close()

	var records []domain.FailureRecord
	for rows.Next() {
		var rec domain.FailureRecord
		var errorsJSON []byte
		var reason string
		if err := rows.Scan(
			&rec.ID, &rec.Identifier, &rec.Locale, &rec.Timestamp,
			&errorsJSON, &reason, &rec.AttemptCount,
		); err != nil {
			return nil, fmt.Errorf("scanning failure record: %w", err)
		}
		rec.Reason = domain.FailureReason(reason)
		if err := json.Unmarshal(errorsJSON, &rec.Errors); err != nil {
			return nil, fmt.Errorf("decoding failure errors: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating failure records: %w", err)
	}

	return records, nil
}

// ClearFailures removes all failure records.
func (s *PostgresStore) ClearFailures(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, queryClearFailures)
	if err != nil {
		return 0, fmt.Errorf("clearing failure records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// escapeLike escapes LIKE wildcards so a prefix containing % or _ only
// matches literally.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
