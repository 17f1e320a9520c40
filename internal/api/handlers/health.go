// Package handlers implements HTTP handlers for the gtin-price-compare API.
package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pricegrid/gtin-price-compare/internal/store"
)

// HealthHandler serves the liveness and readiness probes. Liveness only
// proves the process answers; readiness additionally pings the result
// store, since a compare cannot run without it.
type HealthHandler struct {
	store store.Store
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(s store.Store) *HealthHandler {
	return &HealthHandler{store: s}
}

// Healthz is the liveness probe.
//
// @Summary Liveness check
// @Description Returns 200 if the process is running.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz is the readiness probe.
//
// @Summary Readiness check
// @Description Returns 200 if the result store is reachable, 503 otherwise.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	if err := h.store.Ping(c.Request().Context()); err != nil {
		return c.JSON(
			http.StatusServiceUnavailable,
			StatusResponse{Status: "unavailable"},
		)
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
