package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/staffdesk/user-directory/internal/infrastructure/db/postgres"
)

// HealthHandler handles GET /health — liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HealthDependenciesHandler handles GET /health/ready — readiness probe.
// Checks Postgres and Redis connectivity before declaring the service ready.
type HealthDependenciesHandler struct {
	pool  *postgres.Pool
	redis *redis.Client
}

func NewHealthDependenciesHandler(pool *postgres.Pool, rdb *redis.Client) *HealthDependenciesHandler {
	return &HealthDependenciesHandler{pool: pool, redis: rdb}
}

func (h *HealthDependenciesHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	deps := map[string]string{"postgres": "ok", "redis": "ok"}
	healthy := true

	if err := h.pool.Ping(ctx); err != nil {
		deps["postgres"] = "unreachable"
		healthy = false
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		deps["redis"] = "unreachable"
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, deps)
}
