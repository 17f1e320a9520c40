// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Cache     CacheConfig     `yaml:"cache"`
	Search    SearchConfig    `yaml:"search"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Ebay      EbayConfig      `yaml:"ebay"`
	Amazon    AmazonConfig    `yaml:"amazon"`
	Failures  FailuresConfig  `yaml:"failures"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver   string         `yaml:"driver"` // memory, postgres
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig defines PostgreSQL connection settings (postgres driver only).
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// CacheConfig defines result cache behavior.
type CacheConfig struct {
	TTLHours        int           `yaml:"ttl_hours"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// TTL returns the cache entry lifetime as a duration.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

// SearchConfig defines per-marketplace search behavior.
type SearchConfig struct {
	Limit   int           `yaml:"limit"`
	Timeout time.Duration `yaml:"timeout"`
}

// RelevanceConfig defines the keyword-overlap filter settings.
type RelevanceConfig struct {
	MinKeywordMatches int `yaml:"min_keyword_matches"`
}

// EbayConfig defines eBay Browse API settings.
type EbayConfig struct {
	AppID     string          `yaml:"app_id"`
	CertID    string          `yaml:"cert_id"`
	TokenURL  string          `yaml:"token_url"`
	BrowseURL string          `yaml:"browse_url"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// Configured reports whether eBay credentials are present. Used to decide
// whether the eBay client is constructed at all.
func (e *EbayConfig) Configured() bool {
	return e.AppID != "" && e.CertID != ""
}

// RateLimitConfig defines eBay API rate limiting settings.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// AmazonConfig defines ASIN Data API settings.
type AmazonConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

// Configured reports whether the Amazon API key is present.
func (a *AmazonConfig) Configured() bool {
	return a.APIKey != ""
}

// FailuresConfig defines failure record retention.
type FailuresConfig struct {
	MaxRecords  int           `yaml:"max_records"`
	DedupWindow time.Duration `yaml:"dedup_window"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyStoreDefaults(&cfg.Store)
	applyCacheDefaults(&cfg.Cache)
	applySearchDefaults(&cfg.Search)
	applyRelevanceDefaults(&cfg.Relevance)
	applyEbayDefaults(&cfg.Ebay)
	applyAmazonDefaults(&cfg.Amazon)
	applyFailuresDefaults(&cfg.Failures)
	applyLoggingDefaults(&cfg.Logging)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyStoreDefaults(s *StoreConfig) {
	if s.Driver == "" {
		s.Driver = "memory"
	}
	if s.Database.Port == 0 {
		s.Database.Port = 5432
	}
	if s.Database.SSLMode == "" {
		s.Database.SSLMode = "disable"
	}
	if s.Database.PoolSize == 0 {
		s.Database.PoolSize = 10
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.TTLHours == 0 {
		c.TTLHours = 24
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = time.Hour
	}
}

func applySearchDefaults(s *SearchConfig) {
	if s.Limit == 0 {
		s.Limit = 10
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
}

func applyRelevanceDefaults(r *RelevanceConfig) {
	if r.MinKeywordMatches == 0 {
		r.MinKeywordMatches = 2
	}
}

func applyEbayDefaults(e *EbayConfig) {
	if e.TokenURL == "" {
		e.TokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	}
	if e.BrowseURL == "" {
		e.BrowseURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"
	}
	if e.RateLimit.PerSecond == 0 {
		e.RateLimit.PerSecond = 5.0
	}
	if e.RateLimit.Burst == 0 {
		e.RateLimit.Burst = 10
	}
	if e.RateLimit.DailyLimit == 0 {
		e.RateLimit.DailyLimit = 5000
	}
}

func applyAmazonDefaults(a *AmazonConfig) {
	if a.BaseURL == "" {
		a.BaseURL = "https://api.asindataapi.com/request"
	}
}

func applyFailuresDefaults(f *FailuresConfig) {
	if f.MaxRecords == 0 {
		f.MaxRecords = 200
	}
	if f.DedupWindow == 0 {
		f.DedupWindow = 24 * time.Hour
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func validate(cfg *Config) error {
	var errs []error

	switch cfg.Store.Driver {
	case "memory":
		// Nothing to check.
	case "postgres":
		if cfg.Store.Database.Host == "" {
			errs = append(errs, fmt.Errorf("store.database.host is required when driver is postgres"))
		}
		if cfg.Store.Database.Name == "" {
			errs = append(errs, fmt.Errorf("store.database.name is required when driver is postgres"))
		}
		if cfg.Store.Database.User == "" {
			errs = append(errs, fmt.Errorf("store.database.user is required when driver is postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf(
			"store.driver must be one of: memory, postgres (got %q)",
			cfg.Store.Driver,
		))
	}

	if cfg.Search.Limit < 1 {
		errs = append(errs, fmt.Errorf("search.limit must be positive (got %d)", cfg.Search.Limit))
	}
	if cfg.Relevance.MinKeywordMatches < 1 {
		errs = append(errs, fmt.Errorf(
			"relevance.min_keyword_matches must be positive (got %d)",
			cfg.Relevance.MinKeywordMatches,
		))
	}
	if cfg.Cache.TTLHours < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl_hours must not be negative (got %d)", cfg.Cache.TTLHours))
	}

	return errors.Join(errs...)
}
