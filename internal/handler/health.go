package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func HealthHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

type HealthChecker interface {
	Health(ctx context.Context) error
}

// UpstreamHealthHandler reports whether the flight search service answers.
func UpstreamHealthHandler(checker HealthChecker) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := checker.Health(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	}
}
