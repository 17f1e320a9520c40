package client

import (
	"context"
	"fmt"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

type listFailuresResponse struct {
	Failures []domain.FailureRecord `json:"failures"`
	Total    int                    `json:"total"`
}

type clearResponse struct {
	Status  string `json:"status"`
	Removed int    `json:"removed"`
}

// ListFailures returns recorded lookup failures, newest first. A limit of
// zero returns all records.
func (c *Client) ListFailures(ctx context.Context, limit int) ([]domain.FailureRecord, error) {
	path := "/api/v1/failures"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	var resp listFailuresResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return resp.Failures, nil
}

// ClearFailures deletes all failure records and returns how many were removed.
func (c *Client) ClearFailures(ctx context.Context) (int, error) {
	var resp clearResponse
	if err := c.del(ctx, "/api/v1/failures", &resp); err != nil {
		return 0, err
	}
	return resp.Removed, nil
}
