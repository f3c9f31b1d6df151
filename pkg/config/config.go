// Package config loads upkeep configuration from the environment and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/ulule/limiter/v3"
)

const Production = "production"

// Config holds application configuration.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Version  string `env:"UPKEEP_VERSION" envDefault:"dev"`
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	Log      LogOptions
	Database DatabaseOptions
	Redis    RedisOptions
	Notify   NotifyOptions
	HTTP     HTTPOptions
	Actor    ActorOptions
}

type LogOptions struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT"`
}

type DatabaseOptions struct {
	// URL selects PostgreSQL. Empty means local SQLite at SQLitePath.
	URL        string `env:"DATABASE_URL"`
	SQLitePath string `env:"SQLITE_PATH"`
	MaxConns   int    `env:"DATABASE_MAX_CONNS" envDefault:"10"`
}

type RedisOptions struct {
	// URL enables the availability cache and the shared rate-limit store.
	URL      string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"AVAILABILITY_CACHE_TTL" envDefault:"30s"`
}

type NotifyOptions struct {
	// RabbitMQURL enables broker delivery. Empty means notifications are logged.
	RabbitMQURL       string        `env:"RABBITMQ_URL"`
	Exchange          string        `env:"NOTIFY_EXCHANGE" envDefault:"upkeep.notifications"`
	OperatorRecipient string        `env:"OPERATOR_RECIPIENT" envDefault:"00000000-0000-0000-0000-00000000f00d"`
	BreakerFailures   uint32        `env:"NOTIFY_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout    time.Duration `env:"NOTIFY_BREAKER_TIMEOUT" envDefault:"30s"`
	Timeout           time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"5s"`
}

type HTTPOptions struct {
	Addr      string `env:"HTTP_ADDR" envDefault:"127.0.0.1:8080"`
	RateLimit string `env:"RATE_LIMIT" envDefault:"600-M"`
}

// ActorOptions identify the caller of CLI commands.
type ActorOptions struct {
	ID   string `env:"UPKEEP_ACTOR_ID"`
	Role string `env:"UPKEEP_ACTOR_ROLE" envDefault:"owner"`
}

// Load reads .env files that exist (defaults to ".env"), then the process
// environment, then validates the result.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, fmt.Errorf("load env files: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// FromMap builds a configuration from vars only, ignoring the process environment.
func FromMap(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if _, err := limiter.NewRateFromFormatted(c.HTTP.RateLimit); err != nil {
		errs = append(errs, fmt.Errorf("RATE_LIMIT: %w", err))
	}
	if _, err := uuid.Parse(c.Notify.OperatorRecipient); err != nil {
		errs = append(errs, fmt.Errorf("OPERATOR_RECIPIENT: %w", err))
	}
	if c.Actor.ID != "" {
		if _, err := uuid.Parse(c.Actor.ID); err != nil {
			errs = append(errs, fmt.Errorf("UPKEEP_ACTOR_ID: %w", err))
		}
	}
	if c.Database.MaxConns < 0 {
		errs = append(errs, fmt.Errorf("DATABASE_MAX_CONNS must not be negative, got %d", c.Database.MaxConns))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool { return c.AppEnv == Production }

// Location returns the canonical scheduling clock. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LogFormat defaults to json in production and text elsewhere.
func (c *Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsProduction() {
		return "json"
	}
	return "text"
}

// OperatorRecipientID is the notification recipient standing for all operators.
func (c *Config) OperatorRecipientID() uuid.UUID {
	id, _ := uuid.Parse(c.Notify.OperatorRecipient)
	return id
}
