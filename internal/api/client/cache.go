package client

import (
	"context"
	"net/url"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// CacheStats returns entry counts for the result cache.
func (c *Client) CacheStats(ctx context.Context) (*domain.CacheStats, error) {
	var stats domain.CacheStats
	if err := c.get(ctx, "/api/v1/cache/stats", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ClearCache removes cache entries and returns how many were removed.
// A non-empty prefix restricts removal to matching identifiers.
func (c *Client) ClearCache(ctx context.Context, prefix string) (int, error) {
	path := "/api/v1/cache"
	if prefix != "" {
		path += "?prefix=" + url.QueryEscape(prefix)
	}

	var resp clearResponse
	if err := c.del(ctx, path, &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}
