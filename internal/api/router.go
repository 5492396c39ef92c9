package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/staffdesk/user-directory/internal/api/handler"
	"github.com/staffdesk/user-directory/internal/api/middleware"
	"github.com/staffdesk/user-directory/internal/core/ports"
	"github.com/staffdesk/user-directory/internal/core/service"
	"github.com/staffdesk/user-directory/internal/infrastructure/db/postgres"
	"github.com/staffdesk/user-directory/internal/infrastructure/db/redis"
)

const (
	// Role mutations are rare, human-initiated actions; anything past this
	// budget is a runaway client.
	mutationRateLimit  = 30
	mutationRateWindow = time.Minute
)

// NewRouter builds and returns the Echo instance with all routes registered.
// All collaborators are constructed here and injected explicitly; nothing
// reaches for package-level state.
func NewRouter(pool *postgres.Pool, rdb *goredis.Client, verifier ports.IdentityVerifier, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("user_directory"))
	e.Use(middleware.Auth(verifier))

	// --- Dependencies ---
	userRepo := postgres.NewUserRepository(pool)
	directoryService := service.NewDirectoryService(userRepo, log)
	userHandler := handler.NewUserHandler(directoryService)
	limiter := redis.NewRateLimiter(rdb, mutationRateLimit, mutationRateWindow)

	// --- Directory routes ---
	e.GET("/v1/me", userHandler.Me)
	e.GET("/v1/users", userHandler.List)
	e.PUT("/v1/users/:clerk_id/role", userHandler.UpdateRole, middleware.RateLimit(limiter))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(pool, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
