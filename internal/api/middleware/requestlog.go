package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

var healthPaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs requests with structured fields.
// It generates a request ID if none is provided and propagates it through
// the response header and echo context.
//
// Successful health probe requests are logged only on the first success
// after a failure (or startup); repeat successes are suppressed to keep
// probe noise out of the logs. Probe failures are always logged at WARN.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var mu sync.Mutex
	healthOK := make(map[string]bool)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := c.Response().Status
			fields := []any{
				"method", c.Request().Method,
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}

			if _, isHealth := healthPaths[path]; isHealth {
				ok := status >= 200 && status < 400

				mu.Lock()
				wasOK := healthOK[path]
				healthOK[path] = ok
				mu.Unlock()

				switch {
				case !ok:
					log.Warn("request", fields...)
				case !wasOK:
					log.Info("request", fields...)
				}
				return err
			}

			log.Info("request", fields...)
			return err
		}
	}
}
