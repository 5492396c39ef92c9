package middleware

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/staffdesk/user-directory/internal/api/metrics"
)

// Limiter is the slice of the Redis rate limiter the middleware needs.
type Limiter interface {
	Allow(ctx context.Context, callerID string) (bool, error)
}

// RateLimit rejects callers that exceed the mutation budget with a 429.
// Anonymous requests pass through: they are rejected with a 401 further down
// and must not consume a shared anonymous budget.
func RateLimit(limiter Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			callerID, _ := c.Get(CallerIDKey).(string)
			if callerID == "" {
				return next(c)
			}

			ok, err := limiter.Allow(c.Request().Context(), callerID)
			if err != nil {
				// A broken limiter must not take the endpoint down with it.
				return next(c)
			}
			if !ok {
				metrics.RateLimitedTotal.Inc()
				return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests"})
			}

			return next(c)
		}
	}
}
