package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/staffdesk/user-directory/internal/api"
	"github.com/staffdesk/user-directory/internal/infrastructure/config"
	"github.com/staffdesk/user-directory/internal/infrastructure/db/postgres"
	"github.com/staffdesk/user-directory/internal/infrastructure/db/redis"
	"github.com/staffdesk/user-directory/internal/infrastructure/identity"
	"github.com/staffdesk/user-directory/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer stop()

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	pool, err := postgres.Connect(ctx, postgres.Config{DSN: cfg.Postgres.DSN})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer func() { _ = rdb.Close() }()

	verifier := identity.NewVerifier(cfg.SessionSecret)
	e := api.NewRouter(pool, rdb, verifier, log)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("received interruption signal, shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("shutdown complete")
}
