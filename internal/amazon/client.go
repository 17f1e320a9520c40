// Package amazon searches Amazon listings through the ASIN Data API
// (https://api.asindataapi.com), which proxies Amazon search without
// PA-API signing.
package amazon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pricegrid/gtin-price-compare/internal/marketplace"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

const defaultBaseURL = "https://api.asindataapi.com/request"

// Client implements marketplace.Client using the ASIN Data API search type.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the default ASIN Data API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a new ASIN Data API client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source implements marketplace.Client.
func (c *Client) Source() domain.Source {
	return domain.SourceAmazon
}

// Search queries the ASIN Data API for products matching the identifier
// on the locale's Amazon domain. The API reports its own failures inside
// a 200 response via request_info.success.
func (c *Client) Search(
	ctx context.Context,
	query string,
	limit int,
	locale string,
) ([]domain.Offer, error) {
	if c.apiKey == "" {
		return nil, marketplace.NewConfigError(
			domain.SourceAmazon, "ASIN Data API key not configured",
		)
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("type", "search")
	params.Set("search_term", query)
	params.Set("amazon_domain", DomainFor(locale))
	params.Set("output", "json")

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody,
	)
	if err != nil {
		return nil, marketplace.NewTransientError(
			domain.SourceAmazon, "creating HTTP request", err,
		)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, marketplace.NewTransientError(
			domain.SourceAmazon, "executing search request", err,
		)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, marketplace.NewTransientError(
			domain.SourceAmazon, "reading response body", err,
		)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, marketplace.NewUpstreamError(
			domain.SourceAmazon,
			fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)),
			nil,
		)
	}

	var apiResp searchAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, marketplace.NewUpstreamError(
			domain.SourceAmazon, "parsing search response", err,
		)
	}

	if !apiResp.RequestInfo.Success {
		msg := apiResp.RequestInfo.Message
		if msg == "" {
			msg = "unknown API error"
		}
		return nil, marketplace.NewUpstreamError(
			domain.SourceAmazon, "request rejected: "+msg, nil,
		)
	}

	return toOffers(apiResp.SearchResults, limit, locale), nil
}

// toOffers converts search results into domain offers, dropping any
// result without a strictly positive price and capping at limit.
func toOffers(results []SearchResult, limit int, locale string) []domain.Offer {
	offers := make([]domain.Offer, 0, len(results))
	for i := range results {
		o, ok := toOffer(&results[i], locale)
		if !ok {
			continue
		}
		offers = append(offers, o)
		if limit > 0 && len(offers) >= limit {
			break
		}
	}
	return offers
}

func toOffer(r *SearchResult, locale string) (domain.Offer, bool) {
	if r.Title == "" {
		return domain.Offer{}, false
	}

	price, currency, ok := extractPrice(r)
	if !ok {
		return domain.Offer{}, false
	}

	o := domain.Offer{
		Title:    r.Title,
		Price:    price,
		Currency: currency,
		URL:      r.Link,
		ImageURL: r.Image,
		Source:   domain.SourceAmazon,
		Locale:   locale,
		Prime:    r.Prime,
	}

	if r.Rating > 0 {
		rating := r.Rating
		o.Rating = &rating
	}
	if r.RatingsTotal > 0 {
		count := r.RatingsTotal
		o.ReviewCount = &count
	}

	return o, true
}

// Price field precedence when the primary field is missing or empty.
func extractPrice(r *SearchResult) (float64, string, bool) {
	for _, raw := range []json.RawMessage{
		r.Price, r.PriceUpper, r.PriceLower, r.CurrentPrice,
	} {
		if len(raw) == 0 {
			continue
		}
		if value, currency, ok := parsePriceField(raw); ok {
			return value, currency, true
		}
	}
	return 0, "", false
}

var nonPriceChars = regexp.MustCompile(`[^0-9.]`)

// parsePriceField handles the three shapes a price field takes in
// practice: an object with value and currency, a display string with a
// currency symbol, or a bare number.
func parsePriceField(raw json.RawMessage) (float64, string, bool) {
	var obj priceObject
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Value > 0 {
		return obj.Value, obj.Currency, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		stripped := nonPriceChars.ReplaceAllString(s, "")
		if v, err := strconv.ParseFloat(strings.Trim(stripped, "."), 64); err == nil && v > 0 {
			return v, "", true
		}
		return 0, "", false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil && n > 0 {
		return n, "", true
	}

	return 0, "", false
}
