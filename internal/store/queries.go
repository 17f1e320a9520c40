package store

// SQL queries for the PostgreSQL store. pgx named arguments keep the
// argument lists readable.

const queryGetCachedResult = `
SELECT result
FROM result_cache
WHERE cache_key = @cache_key
  AND expires_at > now()`

const queryPutCachedResult = `
INSERT INTO result_cache (cache_key, identifier, locale, result, created_at, expires_at)
VALUES (@cache_key, @identifier, @locale, @result, now(), now() + @ttl)
ON CONFLICT (cache_key) DO UPDATE SET
	result     = EXCLUDED.result,
	created_at = EXCLUDED.created_at,
	expires_at = EXCLUDED.expires_at`

const queryDeleteCacheByPrefix = `
DELETE FROM result_cache
WHERE cache_key LIKE @pattern`

const queryClearCache = `
DELETE FROM result_cache`

const queryCacheStats = `
SELECT
	count(*)                                          AS total,
	count(*) FILTER (WHERE expires_at > now())        AS valid,
	count(*) FILTER (WHERE expires_at <= now())       AS expired
FROM result_cache`

const queryCleanupExpiredCache = `
DELETE FROM result_cache
WHERE expires_at <= now()`

const queryLockFailureIdentifier = `
SELECT pg_advisory_xact_lock(hashtext(@identifier))`

const queryFindRecentFailure = `
SELECT id, attempt_count
FROM failure_records
WHERE identifier = @identifier
  AND ts > now() - @window
ORDER BY ts DESC
LIMIT 1`

const queryUpdateFailure = `
UPDATE failure_records
SET ts            = now(),
	locale        = @locale,
	errors        = @errors,
	reason        = @reason,
	attempt_count = attempt_count + 1
WHERE id = @id
RETURNING ts, attempt_count`

const queryInsertFailure = `
INSERT INTO failure_records (id, identifier, locale, ts, errors, reason, attempt_count)
VALUES (@id, @identifier, @locale, now(), @errors, @reason, 1)
RETURNING ts`

const queryTruncateFailures = `
DELETE FROM failure_records
WHERE id NOT IN (
	SELECT id FROM failure_records
	ORDER BY ts DESC
	LIMIT @max_records
)`

const queryListFailures = `
SELECT id, identifier, locale, ts, errors, reason, attempt_count
FROM failure_records
ORDER BY ts DESC
LIMIT @limit`

const queryClearFailures = `
DELETE FROM failure_records`
