package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/pricegrid/gtin-price-compare/internal/store"
	domain "github.com/pricegrid/gtin-price-compare/pkg/types"
)

// FailuresHandler handles failure record endpoints.
type FailuresHandler struct {
	store store.Store
}

// NewFailuresHandler creates a new FailuresHandler.
func NewFailuresHandler(s store.Store) *FailuresHandler {
	return &FailuresHandler{store: s}
}

// ListFailuresInput is the input for listing failure records.
type ListFailuresInput struct {
	Limit int `query:"limit" doc:"Number of records to return (default all)" minimum:"0" maximum:"200"`
}

// ListFailuresOutput is the response for listing failure records.
type ListFailuresOutput struct {
	Body struct {
		Failures []domain.FailureRecord `json:"failures"`
		Total    int                    `json:"total"`
	}
}

// ClearFailuresOutput is the response for clearing failure records.
type ClearFailuresOutput struct {
	Body struct {
		Status  string `json:"status"`
		Removed int    `json:"removed"`
	}
}

// ListFailures returns recorded lookup failures, newest first.
func (h *FailuresHandler) ListFailures(
	ctx context.Context,
	input *ListFailuresInput,
) (*ListFailuresOutput, error) {
	failures, err := h.store.ListFailures(ctx, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing failures: " + err.Error())
	}

	if failures == nil {
		failures = []domain.FailureRecord{}
	}

	resp := &ListFailuresOutput{}
	resp.Body.Failures = failures
	resp.Body.Total = len(failures)

	return resp, nil
}

// ClearFailures deletes all failure records.
func (h *FailuresHandler) ClearFailures(
	ctx context.Context,
	_ *struct{},
) (*ClearFailuresOutput, error) {
	removed, err := h.store.ClearFailures(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("clearing failures: " + err.Error())
	}

	resp := &ClearFailuresOutput{}
	resp.Body.Status = "cleared"
	resp.Body.Removed = removed

	return resp, nil
}

// RegisterFailureRoutes registers failure record endpoints with the Huma API.
func RegisterFailureRoutes(api huma.API, h *FailuresHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-failures",
		Method:      http.MethodGet,
		Path:        "/api/v1/failures",
		Summary:     "List lookup failures",
		Description: "Returns recorded lookup failures, newest first.",
		Tags:        []string{"failures"},
	}, h.ListFailures)

	huma.Register(api, huma.Operation{
		OperationID: "clear-failures",
		Method:      http.MethodDelete,
		Path:        "/api/v1/failures",
		Summary:     "Clear lookup failures",
		Description: "Deletes all recorded lookup failures.",
		Tags:        []string{"failures"},
	}, h.ClearFailures)
}
