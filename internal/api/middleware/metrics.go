// Package middleware provides Echo middleware for gtin-price-compare.
package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pricegrid/gtin-price-compare/internal/metrics"
)

// probeGauges maps health probe paths to the gauge mirroring their last
// outcome. Probe and scrape endpoints stay out of the request histogram
// and counter; at typical probe intervals they would dominate both
// series without saying anything about API traffic.
var probeGauges = map[string]prometheus.Gauge{
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

const scrapePath = "/metrics"

// Metrics returns Echo middleware recording duration, count, and
// in-flight totals for API requests. Health probes only flip their
// up/down gauge.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}

			if gauge, ok := probeGauges[path]; ok {
				err := next(c)
				if s := c.Response().Status; s >= 200 && s < 300 {
					gauge.Set(1)
				} else {
					gauge.Set(0)
				}
				return err
			}
			if path == scrapePath {
				return next(c)
			}

			metrics.HTTPRequestsInFlight.Inc()
			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)
			metrics.HTTPRequestsInFlight.Dec()

			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			metrics.HTTPRequestDuration.
				WithLabelValues(method, path, status).
				Observe(elapsed.Seconds())
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, path, status).
				Inc()

			return err
		}
	}
}
