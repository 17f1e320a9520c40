package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		envVars   map[string]string
		wantErr   string
		checkFunc func(t *testing.T, cfg *Config)
	}{
		{
			name: "valid minimal config",
			yaml: `
ebay:
  app_id: my-app-id
  cert_id: my-cert-id
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "my-app-id", cfg.Ebay.AppID)
				assert.True(t, cfg.Ebay.Configured())
				assert.False(t, cfg.Amazon.Configured())
			},
		},
		{
			name: "defaults applied for optional fields",
			yaml: `{}`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, "memory", cfg.Store.Driver)
				assert.Equal(t, 24, cfg.Cache.TTLHours)
				assert.Equal(t, 24*time.Hour, cfg.Cache.TTL())
				assert.Equal(t, time.Hour, cfg.Cache.CleanupInterval)
				assert.Equal(t, 10, cfg.Search.Limit)
				assert.Equal(t, 30*time.Second, cfg.Search.Timeout)
				assert.Equal(t, 2, cfg.Relevance.MinKeywordMatches)
				assert.Equal(
					t,
					"https://api.ebay.com/identity/v1/oauth2/token",
					cfg.Ebay.TokenURL,
				)
				assert.Equal(
					t,
					"https://api.asindataapi.com/request",
					cfg.Amazon.BaseURL,
				)
				assert.Equal(t, 200, cfg.Failures.MaxRecords)
				assert.Equal(t, 24*time.Hour, cfg.Failures.DedupWindow)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "text", cfg.Logging.Format)
			},
		},
		{
			name: "env var substitution",
			yaml: `
amazon:
  api_key: "${TEST_AMAZON_API_KEY}"
`,
			envVars: map[string]string{
				"TEST_AMAZON_API_KEY": "secret123",
			},
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "secret123", cfg.Amazon.APIKey)
				assert.True(t, cfg.Amazon.Configured())
			},
		},
		{
			name: "postgres driver requires connection settings",
			yaml: `
store:
  driver: postgres
`,
			wantErr: "store.database.host is required when driver is postgres",
		},
		{
			name: "unknown store driver",
			yaml: `
store:
  driver: redis
`,
			wantErr: `store.driver must be one of: memory, postgres (got "redis")`,
		},
		{
			name: "negative search limit",
			yaml: `
search:
  limit: -5
`,
			wantErr: "search.limit must be positive",
		},
		{
			name:    "invalid YAML",
			yaml:    `{{{not valid yaml`,
			wantErr: "parsing config YAML",
		},
		{
			name: "full config with overrides",
			yaml: `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 60s
  write_timeout: 60s
store:
  driver: postgres
  database:
    host: db.example.com
    port: 5433
    name: pricecompare
    user: admin
    password: pass
    sslmode: require
    pool_size: 20
cache:
  ttl_hours: 6
  cleanup_interval: 30m
search:
  limit: 25
  timeout: 15s
relevance:
  min_keyword_matches: 3
ebay:
  app_id: my-app-id
  cert_id: my-cert-id
  rate_limit:
    per_second: 2
    burst: 4
    daily_limit: 1000
amazon:
  api_key: asin-key
failures:
  max_records: 50
  dedup_window: 12h
logging:
  level: debug
  format: json
`,
			checkFunc: func(t *testing.T, cfg *Config) {
				t.Helper()
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "postgres", cfg.Store.Driver)
				assert.Equal(t, "db.example.com", cfg.Store.Database.Host)
				assert.Equal(t, 5433, cfg.Store.Database.Port)
				assert.Equal(t, "require", cfg.Store.Database.SSLMode)
				assert.Equal(t, 20, cfg.Store.Database.PoolSize)
				assert.Equal(t, 6, cfg.Cache.TTLHours)
				assert.Equal(t, 30*time.Minute, cfg.Cache.CleanupInterval)
				assert.Equal(t, 25, cfg.Search.Limit)
				assert.Equal(t, 15*time.Second, cfg.Search.Timeout)
				assert.Equal(t, 3, cfg.Relevance.MinKeywordMatches)
				assert.Equal(t, 2.0, cfg.Ebay.RateLimit.PerSecond)
				assert.Equal(t, int64(1000), cfg.Ebay.RateLimit.DailyLimit)
				assert.Equal(t, "asin-key", cfg.Amazon.APIKey)
				assert.Equal(t, 50, cfg.Failures.MaxRecords)
				assert.Equal(t, 12*time.Hour, cfg.Failures.DedupWindow)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Only parallelize tests that don't modify env vars.
			if len(tt.envVars) == 0 {
				t.Parallel()
			}

			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			dir := t.TempDir()
			path := filepath.Join(dir, "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			cfg, err := Load(path)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	_, err := Load("/nonexistent/path/config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Parallel()

	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Name:     "pricecompare",
		User:     "app",
		Password: "pw",
		SSLMode:  "disable",
	}

	assert.Equal(
		t,
		"host=localhost port=5432 dbname=pricecompare user=app password=pw sslmode=disable",
		d.DSN(),
	)
}
