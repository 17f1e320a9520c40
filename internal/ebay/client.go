// Package ebay searches the eBay Browse API for fixed-price offers
// matching a product identifier.
package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pricegrid/gtin-price-compare/internal/marketplace"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

const (
	defaultBrowseURL = "https://api.ebay.com/buy/browse/v1/item_summary/search"

	// Browse API hard limit per page.
	maxBrowseLimit = 50

	fixedPriceFilter = "buyingOptions:{FIXED_PRICE}"
)

// BrowseClient implements marketplace.Client using the eBay Browse API.
type BrowseClient struct {
	tokens      TokenProvider
	browseURL   string
	client      *http.Client
	rateLimiter *RateLimiter
}

// BrowseOption configures the BrowseClient.
type BrowseOption func(*BrowseClient)

// WithBrowseURL overrides the default Browse API endpoint.
func WithBrowseURL(u string) BrowseOption {
	return func(c *BrowseClient) {
		c.browseURL = u
	}
}

// WithBrowseHTTPClient overrides the default HTTP client.
func WithBrowseHTTPClient(hc *http.Client) BrowseOption {
	return func(c *BrowseClient) {
		c.client = hc
	}
}

// WithRateLimiter injects a rate limiter that controls per-second and daily
// API call limits. When set, every Search() call goes through Wait() first.
func WithRateLimiter(r *RateLimiter) BrowseOption {
	return func(c *BrowseClient) {
		c.rateLimiter = r
	}
}

// NewBrowseClient creates a new eBay Browse API client.
func NewBrowseClient(tokens TokenProvider, opts ...BrowseOption) *BrowseClient {
	c := &BrowseClient{
		tokens:    tokens,
		browseURL: defaultBrowseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source implements marketplace.Client.
func (c *BrowseClient) Source() domain.Source {
	return domain.SourceEbay
}

type browseAPIResponse struct {
	ItemSummaries []ItemSummary `json:"itemSummaries"`
	Total         int           `json:"total"`
}

// Search queries the Browse API for fixed-price listings matching the
// identifier, sorted by price ascending on the marketplace side. A 401
// response invalidates the cached token and retries exactly once.
func (c *BrowseClient) Search(
	ctx context.Context,
	query string,
	limit int,
	locale string,
) ([]domain.Offer, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, marketplace.NewTransientError(
				domain.SourceEbay, "rate limit", err,
			)
		}
	}

	mkt := MarketplaceFor(locale)

	items, err := c.search(ctx, query, limit, mkt, true)
	if err != nil {
		return nil, err
	}

	return toOffers(items, mkt, limit, locale), nil
}

func (c *BrowseClient) search(
	ctx context.Context,
	query string,
	limit int,
	mkt Marketplace,
	retryAuth bool,
) ([]ItemSummary, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		// The provider already classifies its own failures (missing
		// credentials, transport errors); keep that classification.
		if _, tagged := marketplace.KindOf(err); tagged {
			return nil, err
		}
		return nil, marketplace.NewUpstreamError(
			domain.SourceEbay, "getting auth token", err,
		)
	}

	u := c.buildSearchURL(query, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, marketplace.NewTransientError(
			domain.SourceEbay, "creating HTTP request", err,
		)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-EBAY-C-MARKETPLACE-ID", mkt.ID)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, marketplace.NewTransientError(
			domain.SourceEbay, "executing search request", err,
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, marketplace.NewTransientError(
			domain.SourceEbay, "reading response body", err,
		)
	}

	if resp.StatusCode == http.StatusUnauthorized && retryAuth {
		c.tokens.Invalidate()
		return c.search(ctx, query, limit, mkt, false)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, marketplace.NewUpstreamError(
			domain.SourceEbay,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)),
			nil,
		)
	}

	var apiResp browseAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, marketplace.NewUpstreamError(
			domain.SourceEbay, "parsing search response", err,
		)
	}

	return apiResp.ItemSummaries, nil
}

func (c *BrowseClient) buildSearchURL(query string, limit int) string {
	if limit <= 0 || limit > maxBrowseLimit {
		limit = maxBrowseLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("sort", "price")
	params.Set("filter", fixedPriceFilter)

	return c.browseURL + "?" + params.Encode()
}
