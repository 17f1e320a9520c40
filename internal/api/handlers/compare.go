package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pricegrid/gtin-price-compare/internal/aggregator"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// Comparer runs a price comparison for a product query.
type Comparer interface {
	Compare(ctx context.Context, query domain.ProductQuery) (*domain.AggregateResult, error)
}

// CompareHandler handles price comparison requests.
type CompareHandler struct {
	agg Comparer
}

// NewCompareHandler creates a new CompareHandler.
func NewCompareHandler(agg Comparer) *CompareHandler {
	return &CompareHandler{agg: agg}
}

// CompareInput is the request body for the compare endpoint.
type CompareInput struct {
	Body struct {
		Identifier     string `json:"identifier" minLength:"1" doc:"Product GTIN, UPC, or EAN" example:"3386460065947"`
		Locale         string `json:"locale,omitempty" doc:"ISO country code (default US)" example:"GB"`
		ReferenceTitle string `json:"reference_title,omitempty" doc:"Known product title used for relevance filtering" example:"Dior Sauvage Eau de Toilette 100ml"`
	}
}

// CompareOutput is the response body for the compare endpoint.
type CompareOutput struct {
	Body domain.AggregateResult
}

// Compare runs the comparison pipeline for one product identifier.
func (h *CompareHandler) Compare(
	ctx context.Context,
	input *CompareInput,
) (*CompareOutput, error) {
	result, err := h.agg.Compare(ctx, domain.ProductQuery{
		Identifier:     input.Body.Identifier,
		Locale:         input.Body.Locale,
		ReferenceTitle: input.Body.ReferenceTitle,
	})
	if err != nil {
		if errors.Is(err, aggregator.ErrEmptyIdentifier) {
			return nil, huma.Error400BadRequest(err.Error())
		}
		return nil, huma.Error500InternalServerError("compare failed: " + err.Error())
	}

	return &CompareOutput{Body: *result}, nil
}

// RegisterCompareRoutes registers compare endpoints with the Huma API.
func RegisterCompareRoutes(api huma.API, h *CompareHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "compare-prices",
		Method:      http.MethodPost,
		Path:        "/api/v1/compare",
		Summary:     "Compare marketplace prices",
		Description: "Looks up a product identifier across configured marketplaces and returns the cheapest matching offers.",
		Tags:        []string{"compare"},
		Errors:      []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, h.Compare)
}
