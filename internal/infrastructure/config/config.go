package config

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port          string `env:"PORT,           default=8080"`
	Env           string `env:"ENV,            default=development"`
	SessionSecret string `env:"SESSION_SECRET"                      validate:"required,min=16"`
	LogLevel      string `env:"LOG_LEVEL,      default=info"`

	Postgres PostgresConfig
	Redis    RedisConfig
}

type PostgresConfig struct {
	DSN string `env:"DATABASE_URL, default=postgres://localhost:5432/user_directory" validate:"required"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig and
// rejects configurations that cannot possibly serve traffic (e.g. a missing
// session secret would make every request unauthenticated).
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	if err := validator.New().Struct(&cfg); err != nil {
		panic(fmt.Sprintf("config: invalid configuration: %v", err))
	}
	return &cfg
}
