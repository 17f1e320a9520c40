package ebay

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/pricegrid/gtin-price-compare/internal/metrics"
)

// ErrDailyLimitReached signals that the rolling 24-hour call budget is
// spent. Callers should back off until ResetAt.
var ErrDailyLimitReached = errors.New("daily API limit reached")

const dailyWindow = 24 * time.Hour

// RateLimiter gates Browse API calls twice over: a token bucket for the
// per-second rate and a rolling 24-hour budget for the daily quota. The
// window opens on the first call and rolls forward once it expires,
// matching how eBay meters application access. Usage is exported through
// the pcmp_ebay_* Prometheus metrics as a side effect of Wait.
type RateLimiter struct {
	bucket *rate.Limiter

	mu        sync.Mutex
	used      int64
	budget    int64
	windowEnd time.Time

	nowFunc func() time.Time
}

// RateLimiterOption configures the RateLimiter.
type RateLimiterOption func(*RateLimiter)

// WithRateLimiterNowFunc overrides the time function for testing.
func WithRateLimiterNowFunc(f func() time.Time) RateLimiterOption {
	return func(r *RateLimiter) {
		r.nowFunc = f
	}
}

// NewRateLimiter creates a rate limiter allowing perSecond sustained
// calls with the given burst, and at most maxDaily calls per rolling
// 24-hour window.
func NewRateLimiter(
	perSecond float64,
	burst int,
	maxDaily int64,
	opts ...RateLimiterOption,
) *RateLimiter {
	r := &RateLimiter{
		bucket:  rate.NewLimiter(rate.Limit(perSecond), burst),
		budget:  maxDaily,
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wait blocks until the token bucket allows the call or ctx is canceled.
// It returns ErrDailyLimitReached once the 24-hour budget is spent. A
// call whose bucket wait is canceled is not charged against the budget.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.reserve(); err != nil {
		return err
	}

	if err := r.bucket.Wait(ctx); err != nil {
		r.release()
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	metrics.EbayAPICallsTotal.Inc()
	return nil
}

// reserve charges one call against the daily budget, rolling the window
// forward when the previous one has expired.
func (r *RateLimiter) reserve() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	if !now.Before(r.windowEnd) {
		r.used = 0
		r.windowEnd = now.Add(dailyWindow)
	}

	if r.used >= r.budget {
		metrics.EbayDailyLimitHits.Inc()
		return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, r.used, r.budget)
	}

	r.used++
	metrics.EbayDailyUsage.Set(float64(r.used))
	return nil
}

// release refunds a reservation whose bucket wait never completed.
func (r *RateLimiter) release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.used > 0 {
		r.used--
	}
	metrics.EbayDailyUsage.Set(float64(r.used))
}

// Used returns the number of calls charged in the current window.
func (r *RateLimiter) Used() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Remaining returns how many calls are left in the current window.
func (r *RateLimiter) Remaining() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if left := r.budget - r.used; left > 0 {
		return left
	}
	return 0
}

// ResetAt returns when the current window expires. The zero time means
// no call has opened a window yet.
func (r *RateLimiter) ResetAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windowEnd
}
