// Package marketplace defines the contract every upstream price source
// implements, plus the tagged error taxonomy shared by all clients.
package marketplace

import (
	"context"

	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// Client is a single upstream marketplace search client. Implementations
// own their authentication, locale-to-endpoint mapping, and raw-response
// parsing.
//
// Search returns at most limit offers. Offers without a strictly positive
// parsed price are dropped silently. Zero results is an empty slice, not
// an error.
type Client interface {
	Source() domain.Source
	Search(ctx context.Context, query string, limit int, locale string) ([]domain.Offer, error)
}
