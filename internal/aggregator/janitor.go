package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pricegrid/gtin-price-compare/internal/store"
)

// Janitor periodically sweeps expired cache entries. Expiry is already
// enforced lazily on reads; the sweep just keeps the store from growing
// unbounded.
type Janitor struct {
	cron  *cron.Cron
	store store.Store
	log   *slog.Logger
}

// NewJanitor creates a Janitor that cleans the cache every interval.
func NewJanitor(
	s store.Store,
	interval time.Duration,
	log *slog.Logger,
) (*Janitor, error) {
	c := cron.New()

	j := &Janitor{
		cron:  c,
		store: s,
		log:   log,
	}

	if _, err := c.AddFunc("@every "+interval.String(), j.runCleanup); err != nil {
		return nil, err
	}

	return j, nil
}

// Start begins running scheduled cleanups.
func (j *Janitor) Start() {
	j.log.Info("cache janitor started")
	j.cron.Start()
}

// Stop gracefully stops the janitor, waiting for a running sweep to finish.
func (j *Janitor) Stop() context.Context {
	j.log.Info("cache janitor stopping")
	return j.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (j *Janitor) Entries() []cron.Entry {
	return j.cron.Entries()
}

func (j *Janitor) runCleanup() {
	ctx := context.Background()

	removed, err := j.store.CleanupExpiredCache(ctx)
	if err != nil {
		j.log.Error("cache cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		j.log.Info("cache cleanup finished", "removed", removed)
	}
}
