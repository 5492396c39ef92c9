package postgres

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a Postgres
// connection pool.
type Config struct {
	DSN     string
	Timeout time.Duration
}

// Pool wraps the pgx connection pool used by the repositories. It is built
// once at startup, injected into its consumers, and closed at shutdown.
type Pool struct {
	*pgxpool.Pool
}

// Connect establishes the pool, verifies connectivity with a ping, and runs
// pending schema migrations. A default timeout is applied when none is
// provided.
func Connect(ctx context.Context, cfg Config) (*Pool, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conf, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(connectCtx, conf)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres migrate: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// migrate applies the embedded goose migrations through a database/sql
// handle layered over the pool.
func migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
