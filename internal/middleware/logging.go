package middleware

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogger logs every request with method, route, status, duration
// and the authenticated username when present.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			attrs := []any{
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", status,
				"username", Username(c),
				"duration_ms", time.Since(start).Milliseconds(),
			}
			switch {
			case status >= 500:
				slog.Error("request failed", attrs...)
			case status >= 400:
				slog.Warn("request rejected", attrs...)
			default:
				slog.Info("request ok", attrs...)
			}
			return nil
		}
	}
}
