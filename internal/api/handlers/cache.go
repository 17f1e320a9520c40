package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pricegrid/gtin-price-compare/internal/store"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// CacheHandler handles result cache endpoints.
type CacheHandler struct {
	store store.Store
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(s store.Store) *CacheHandler {
	return &CacheHandler{store: s}
}

// CacheStatsOutput is the response for cache statistics.
type CacheStatsOutput struct {
	Body domain.CacheStats
}

// ClearCacheInput is the input for clearing cache entries.
type ClearCacheInput struct {
	Prefix string `query:"prefix" doc:"Only remove entries whose key starts with this identifier prefix"`
}

// ClearCacheOutput is the response for clearing cache entries.
type ClearCacheOutput struct {
	Body struct {
		Status  string `json:"status"`
		Removed int    `json:"removed"`
	}
}

// CacheStats returns entry counts for the result cache.
func (h *CacheHandler) CacheStats(
	ctx context.Context,
	_ *struct{},
) (*CacheStatsOutput, error) {
	stats, err := h.store.CacheStats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("cache stats: " + err.Error())
	}

	return &CacheStatsOutput{Body: *stats}, nil
}

// ClearCache removes cache entries, either all of them or those matching
// an identifier prefix.
func (h *CacheHandler) ClearCache(
	ctx context.Context,
	input *ClearCacheInput,
) (*ClearCacheOutput, error) {
	var (
		removed int
		err     error
	)
	if input.Prefix != "" {
		removed, err = h.store.DeleteCacheByPrefix(ctx, input.Prefix)
	} else {
		removed, err = h.store.ClearCache(ctx)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("clearing cache: " + err.Error())
	}

	resp := &ClearCacheOutput{}
	resp.Body.Status = "cleared"
	resp.Body.Removed = removed

	return resp, nil
}

// RegisterCacheRoutes registers cache endpoints with the Huma API.
func RegisterCacheRoutes(api huma.API, h *CacheHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "cache-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/cache/stats",
		Summary:     "Result cache statistics",
		Description: "Returns total, valid, and expired entry counts for the result cache.",
		Tags:        []string{"cache"},
	}, h.CacheStats)

	huma.Register(api, huma.Operation{
		OperationID: "clear-cache",
		Method:      http.MethodDelete,
		Path:        "/api/v1/cache",
		Summary:     "Clear the result cache",
		Description: "Removes cache entries, either all of them or those matching an identifier prefix.",
		Tags:        []string{"cache"},
	}, h.ClearCache)
}
