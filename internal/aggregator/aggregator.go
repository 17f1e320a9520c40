// Package aggregator orchestrates the price comparison pipeline: cache
// lookup, marketplace fan-out, relevance filtering, best-offer selection,
// and failure bookkeeping.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pricegrid/gtin-price-compare/internal/marketplace"
	"github.com/pricegrid/gtin-price-compare/internal/metrics"
	"github.com/pricegrid/gtin-price-compare/internal/relevance"
	"github.com/pricegrid/gtin-price-compare/internal/store"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// ErrEmptyIdentifier is returned for a query without a product identifier.
// This is the only input that fails fast; everything downstream degrades
// into a structured result instead.
var ErrEmptyIdentifier = errors.New("product identifier must not be empty")

const (
	defaultSearchLimit   = 10
	defaultSearchTimeout = 30 * time.Second
	defaultCacheTTL      = 24 * time.Hour
	defaultDedupWindow   = 24 * time.Hour
	defaultMaxFailures   = 200
)

// Aggregator runs the compare pipeline against the configured
// marketplace clients.
type Aggregator struct {
	store   store.Store
	clients []marketplace.Client
	filter  *relevance.Filter
	log     *slog.Logger

	searchLimit   int
	searchTimeout time.Duration
	cacheTTL      time.Duration
	dedupWindow   time.Duration
	maxFailures   int
}

// Option configures the Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		a.log = l
	}
}

// WithFilter sets the relevance filter.
func WithFilter(f *relevance.Filter) Option {
	return func(a *Aggregator) {
		a.filter = f
	}
}

// WithSearchLimit sets the per-marketplace result limit.
func WithSearchLimit(n int) Option {
	return func(a *Aggregator) {
		a.searchLimit = n
	}
}

// WithSearchTimeout bounds each marketplace call.
func WithSearchTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		a.searchTimeout = d
	}
}

// WithCacheTTL sets the result cache entry lifetime.
func WithCacheTTL(d time.Duration) Option {
	return func(a *Aggregator) {
		a.cacheTTL = d
	}
}

// WithFailureRetention sets the failure dedup window and record cap.
func WithFailureRetention(window time.Duration, maxRecords int) Option {
	return func(a *Aggregator) {
		a.dedupWindow = window
		a.maxFailures = maxRecords
	}
}

// New creates an Aggregator over the given store and marketplace clients.
// Clients for unconfigured marketplaces should simply be omitted.
func New(s store.Store, clients []marketplace.Client, opts ...Option) *Aggregator {
	a := &Aggregator{
		store:         s,
		clients:       clients,
		filter:        relevance.NewFilter(relevance.DefaultMinMatches),
		log:           slog.Default(),
		searchLimit:   defaultSearchLimit,
		searchTimeout: defaultSearchTimeout,
		cacheTTL:      defaultCacheTTL,
		dedupWindow:   defaultDedupWindow,
		maxFailures:   defaultMaxFailures,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type searchOutcome struct {
	source domain.Source
	offers []domain.Offer
	err    error
}

// Compare runs the full pipeline for one product query. The caller
// always receives a structured result; individual marketplace failures
// degrade the result instead of propagating. Only an empty identifier
// is a hard error.
func (a *Aggregator) Compare(
	ctx context.Context,
	query domain.ProductQuery,
) (*domain.AggregateResult, error) {
	if query.Identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	query = query.Normalize()

	start := time.Now()
	defer func() {
		metrics.CompareDuration.Observe(time.Since(start).Seconds())
	}()

	if cached, err := a.store.GetCachedResult(ctx, query.Identifier, query.Locale); err == nil {
		metrics.CacheHitsTotal.Inc()
		a.log.Debug("cache hit",
			"identifier", query.Identifier,
			"locale", query.Locale,
		)
		cached.Cached = true
		return cached, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		a.log.Warn("cache lookup failed, querying upstream",
			"identifier", query.Identifier,
			"error", err,
		)
	}
	metrics.CacheMissesTotal.Inc()

	outcomes := a.fanOut(ctx, query)

	result := a.assemble(query, outcomes)

	if result.Status == domain.StatusNoResults {
		a.recordFailure(ctx, query, result)
	} else {
		metrics.OffersReturned.Observe(float64(len(result.AllMatching)))
	}
	metrics.ComparesTotal.WithLabelValues(string(result.Status)).Inc()

	if err := a.store.PutCachedResult(
		ctx, query.Identifier, query.Locale, result, a.cacheTTL,
	); err != nil {
		a.log.Warn("caching result failed",
			"identifier", query.Identifier,
			"error", err,
		)
	}

	a.log.Info("compare finished",
		"identifier", query.Identifier,
		"locale", query.Locale,
		"status", result.Status,
		"offers", len(result.AllMatching),
		"duration", time.Since(start),
	)

	return result, nil
}

// fanOut queries every client concurrently. Each call carries its own
// timeout; one client's failure never aborts the others.
func (a *Aggregator) fanOut(
	ctx context.Context,
	query domain.ProductQuery,
) []searchOutcome {
	outcomes := make([]searchOutcome, len(a.clients))

	var wg sync.WaitGroup
	wg.Add(len(a.clients))
	for i, client := range a.clients {
		go func() {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, a.searchTimeout)
			defer cancel()

			offers, err := client.Search(
				callCtx, query.Identifier, a.searchLimit, query.Locale,
			)
			outcomes[i] = searchOutcome{
				source: client.Source(),
				offers: offers,
				err:    err,
			}

			if err != nil {
				kind, _ := marketplace.KindOf(err)
				metrics.MarketplaceErrorsTotal.WithLabelValues(
					string(client.Source()), string(kind),
				).Inc()
				a.log.Warn("marketplace search failed",
					"source", client.Source(),
					"identifier", query.Identifier,
					"error", err,
				)
			}
		}()
	}
	wg.Wait()

	return outcomes
}

// assemble filters, classifies, and orders the fan-out outcomes into the
// final result.
func (a *Aggregator) assemble(
	query domain.ProductQuery,
	outcomes []searchOutcome,
) *domain.AggregateResult {
	result := &domain.AggregateResult{
		BestBySource:   make(map[domain.Source]*domain.Offer),
		CountsBySource: make(map[domain.Source]int),
		Locale:         query.Locale,
	}

	// Errors stays nil when every source behaves, so cached and fresh
	// results serialize identically.
	setError := func(src domain.Source, msg string) {
		if result.Errors == nil {
			result.Errors = make(map[domain.Source]string)
		}
		result.Errors[src] = msg
	}

	rawTotal := 0
	var matching []domain.Offer
	for _, out := range outcomes {
		if out.err != nil {
			setError(out.source, out.err.Error())
			continue
		}

		rawTotal += len(out.offers)

		kept := 0
		for _, offer := range out.offers {
			if !a.filter.IsRelevant(offer.Title, query.ReferenceTitle) {
				continue
			}
			matching = append(matching, offer)
			kept++
		}

		result.CountsBySource[out.source] = kept
		if len(out.offers) > 0 && kept == 0 {
			setError(out.source, fmt.Sprintf(
				"found %d offers but none matched reference title",
				len(out.offers),
			))
		}
	}

	if len(matching) == 0 {
		result.Status = domain.StatusNoResults
		result.Reason = a.classifyFailure(outcomes, rawTotal)
		result.AllMatching = []domain.Offer{}
		return result
	}

	// Stable sort preserves encounter order for equal prices.
	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].Price < matching[j].Price
	})

	result.Status = domain.StatusSuccess
	result.AllMatching = matching
	result.OverallBest = &matching[0]
	for i := range matching {
		src := matching[i].Source
		if _, ok := result.BestBySource[src]; !ok {
			result.BestBySource[src] = &matching[i]
		}
	}

	return result
}

// classifyFailure picks the failure reason for an empty filtered set:
// no_apis when nothing was configured or every client rejected its
// credentials, api_failure when every configured client errored,
// keyword_mismatch when raw offers existed but none matched, no_results
// otherwise.
func (a *Aggregator) classifyFailure(
	outcomes []searchOutcome,
	rawTotal int,
) domain.FailureReason {
	if len(outcomes) == 0 {
		return domain.ReasonNoAPIs
	}

	failed := 0
	configErrors := 0
	for _, out := range outcomes {
		if out.err == nil {
			continue
		}
		failed++
		if kind, ok := marketplace.KindOf(out.err); ok && kind == marketplace.KindConfig {
			configErrors++
		}
	}

	switch {
	case configErrors == len(outcomes):
		return domain.ReasonNoAPIs
	case failed == len(outcomes):
		return domain.ReasonAPIFailure
	case rawTotal > 0:
		return domain.ReasonKeywordMismatch
	default:
		return domain.ReasonNoResults
	}
}

// recordFailure upserts a failure record. Bookkeeping only; errors are
// logged and never change the compare outcome.
func (a *Aggregator) recordFailure(
	ctx context.Context,
	query domain.ProductQuery,
	result *domain.AggregateResult,
) {
	rec := &domain.FailureRecord{
		Identifier: query.Identifier,
		Locale:     query.Locale,
		Errors:     result.Errors,
		Reason:     result.Reason,
	}

	if err := a.store.UpsertFailure(ctx, rec, a.dedupWindow, a.maxFailures); err != nil {
		a.log.Error("recording failure failed",
			"identifier", query.Identifier,
			"error", err,
		)
		return
	}

	metrics.FailuresRecordedTotal.WithLabelValues(string(result.Reason)).Inc()
	a.log.Info("failure recorded",
		"identifier", query.Identifier,
		"reason", result.Reason,
		"attempts", rec.AttemptCount,
	)
}
