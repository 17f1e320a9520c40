package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// MemoryStore implements Store with in-process maps. Suitable for
// single-node deployments and tests; state is lost on restart.
type MemoryStore struct {
	mu       sync.RWMutex
	cache    map[string]memoryCacheEntry
	failures []domain.FailureRecord
	nowFunc  func() time.Time
}

type memoryCacheEntry struct {
	// Stored as JSON so reads return independent copies, matching the
	// JSONB round-trip of the Postgres store.
	result    []byte
	expiresAt time.Time
}

// MemoryOption configures the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryNowFunc overrides the time function for testing.
func WithMemoryNowFunc(f func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.nowFunc = f
	}
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		cache:   make(map[string]memoryCacheEntry),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCachedResult returns the cached result, or ErrNotFound if the entry
// is absent or past its TTL. Expiry is observed lazily.
func (s *MemoryStore) GetCachedResult(
	_ context.Context,
	identifier, locale string,
) (*domain.AggregateResult, error) {
	key := CacheKey(identifier, locale)

	s.mu.RLock()
	entry, ok := s.cache[key]
	s.mu.RUnlock()

	if !ok || s.nowFunc().After(entry.expiresAt) {
		return nil, ErrNotFound
	}

	var result domain.AggregateResult
	if err := json.Unmarshal(entry.result, &result); err != nil {
		return nil, fmt.Errorf("decoding cached result: %w", err)
	}
	return &result, nil
}

// PutCachedResult stores a result under (identifier, locale) for ttl.
func (s *MemoryStore) PutCachedResult(
	_ context.Context,
	identifier, locale string,
	result *domain.AggregateResult,
	ttl time.Duration,
) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[CacheKey(identifier, locale)] = memoryCacheEntry{
		result:    data,
		expiresAt: s.nowFunc().Add(ttl),
	}
	return nil
}

// DeleteCacheByPrefix removes every entry whose key starts with prefix
// and returns the number removed.
func (s *MemoryStore) DeleteCacheByPrefix(
	_ context.Context,
	prefix string,
) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key := range s.cache {
		if strings.HasPrefix(key, prefix) {
			delete(s.cache, key)
			deleted++
		}
	}
	return deleted, nil
}

// ClearCache removes every cache entry and returns the number removed.
func (s *MemoryStore) ClearCache(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := len(s.cache)
	s.cache = make(map[string]memoryCacheEntry)
	return deleted, nil
}

// CacheStats reports total, valid, and expired entry counts.
func (s *MemoryStore) CacheStats(_ context.Context) (*domain.CacheStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.nowFunc()
	stats := &domain.CacheStats{Total: len(s.cache)}
	for _, entry := range s.cache {
		if now.After(entry.expiresAt) {
			stats.Expired++
		} else {
			stats.Valid++
		}
	}
	return stats, nil
}

// CleanupExpiredCache removes entries past their TTL and returns the
// number removed.
func (s *MemoryStore) CleanupExpiredCache(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	removed := 0
	for key, entry := range s.cache {
		if now.After(entry.expiresAt) {
			delete(s.cache, key)
			removed++
		}
	}
	return removed, nil
}

// UpsertFailure records a failed lookup. A repeat failure for the same
// identifier within dedupWindow increments the existing record's attempt
// count and refreshes its details instead of creating a duplicate. The
// list is kept newest-first and truncated to maxRecords.
func (s *MemoryStore) UpsertFailure(
	_ context.Context,
	rec *domain.FailureRecord,
	dedupWindow time.Duration,
	maxRecords int,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	cutoff := now.Add(-dedupWindow)

	for i := range s.failures {
		existing := &s.failures[i]
		if existing.Identifier != rec.Identifier || existing.Timestamp.Before(cutoff) {
			continue
		}

		existing.AttemptCount++
		existing.Timestamp = now
		existing.Locale = rec.Locale
		existing.Errors = rec.Errors
		existing.Reason = rec.Reason

		// Move the refreshed record to the front.
		updated := *existing
		s.failures = append(s.failures[:i], s.failures[i+1:]...)
		s.failures = append([]domain.FailureRecord{updated}, s.failures...)

		rec.ID = updated.ID
		rec.AttemptCount = updated.AttemptCount
		rec.Timestamp = now
		return nil
	}

	rec.ID = uuid.NewString()
	rec.Timestamp = now
	rec.AttemptCount = 1

	s.failures = append([]domain.FailureRecord{*rec}, s.failures...)
	if maxRecords > 0 && len(s.failures) > maxRecords {
		s.failures = s.failures[:maxRecords]
	}
	return nil
}

// ListFailures returns up to limit records, newest first. A limit of 0
// returns everything.
func (s *MemoryStore) ListFailures(
	_ context.Context,
	limit int,
) ([]domain.FailureRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.failures)
	if limit > 0 && limit < n {
		n = limit
	}

	out := make([]domain.FailureRecord, n)
	copy(out, s.failures[:n])
	return out, nil
}

// ClearFailures removes all failure records and returns the number removed.
func (s *MemoryStore) ClearFailures(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := len(s.failures)
	s.failures = nil
	return deleted, nil
}

// Migrate is a no-op for the memory store.
func (s *MemoryStore) Migrate(_ context.Context) error {
	return nil
}

// Ping always succeeds for the memory store.
func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() {}
