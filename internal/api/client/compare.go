package client

import (
	"context"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// compareRequest is the body for the compare endpoint.
type compareRequest struct {
	Identifier     string `json:"identifier"`
	Locale         string `json:"locale,omitempty"`
	ReferenceTitle string `json:"reference_title,omitempty"`
}

// Compare runs a price comparison for a product identifier.
func (c *Client) Compare(
	ctx context.Context,
	query domain.ProductQuery,
) (*domain.AggregateResult, error) {
	req := compareRequest{
		Identifier:     query.Identifier,
		Locale:         query.Locale,
		ReferenceTitle: query.ReferenceTitle,
	}

	var result domain.AggregateResult
	if err := c.post(ctx, "/api/v1/compare", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
