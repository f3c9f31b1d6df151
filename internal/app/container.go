// Package app wires upkeep's infrastructure into the maintenance coordinator.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/upkeep/internal/identity"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/infrastructure/cache"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/infrastructure/notify"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/upkeep/internal/shared/application"
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database/postgres" // registers the postgres driver
	_ "github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/database/sqlite"   // registers the sqlite driver
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/upkeep/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/upkeep/pkg/config"
	"github.com/felixgeelhaar/upkeep/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	DB          database.Connection
	DBDriver    database.Driver
	RedisClient *redis.Client
	Publisher   eventbus.Publisher

	Registry *prometheus.Registry
	Metrics  observability.Metrics
	Health   *observability.HealthRegistry

	Requests   *persistence.RequestRepository
	Tombstones *persistence.TombstoneArchive
	UnitOfWork sharedApplication.UnitOfWork
	Cache      queries.AvailabilityCache
	Notifier   application.Notifier
	Authorizer *identity.Authorizer

	Coordinator *application.Coordinator
}

// Option adjusts a container before the coordinator is built.
type Option func(*Container)

// WithNotifier replaces the configured notifier.
func WithNotifier(n application.Notifier) Option {
	return func(c *Container) { c.Notifier = n }
}

// WithRedisClient uses client instead of dialing REDIS_URL.
func WithRedisClient(client *redis.Client) Option {
	return func(c *Container) { c.RedisClient = client }
}

// NewContainer opens storage, applies migrations and builds the coordinator.
// Redis and RabbitMQ are optional outside production: when they cannot be
// reached the container falls back to no cache and logged notifications.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Health:   observability.NewHealthRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = observability.NewPrometheusMetrics(c.Registry)

	if err := c.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := c.initCache(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initNotifier(); err != nil {
		c.Close()
		return nil, err
	}

	authz, err := identity.NewAuthorizer()
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("build authorizer: %w", err)
	}
	c.Authorizer = authz

	c.Coordinator = application.NewCoordinator(application.CoordinatorDeps{
		Requests:   c.Requests,
		Tombstones: c.Tombstones,
		UoW:        c.UnitOfWork,
		Authorizer: c.Authorizer,
		Notifier:   c.Notifier,
		Policy: application.NotificationPolicy{
			OperatorRecipient: cfg.OperatorRecipientID(),
		},
		NotifyTimeout: cfg.Notify.Timeout,
		Cache:         c.Cache,
		Location:      cfg.Location(),
		Clock:         sharedApplication.SystemClock{},
		Logger:        logger,
		Metrics:       c.Metrics,
	})
	return c, nil
}

func (c *Container) databaseConfig() database.Config {
	return database.Config{
		URL:        c.Config.Database.URL,
		SQLitePath: c.Config.Database.SQLitePath,
		MaxConns:   c.Config.Database.MaxConns,
	}
}

func (c *Container) initDatabase(ctx context.Context) error {
	dbCfg := c.databaseConfig()
	conn, err := database.NewConnection(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := migrations.Up(ctx, conn, dbCfg, c.Logger); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	c.DB = conn
	c.DBDriver = conn.Driver()
	c.Requests = persistence.NewRequestRepository(conn)
	c.Tombstones = persistence.NewTombstoneArchive(conn)
	c.UnitOfWork = database.NewUnitOfWork(conn)
	c.Health.Register("database", observability.PingChecker(conn.Ping, false))
	c.Logger.Info("connected to database", "driver", c.DBDriver)
	return nil
}

func (c *Container) initCache(ctx context.Context) error {
	if c.RedisClient == nil && c.Config.Redis.URL != "" {
		opt, err := redis.ParseURL(c.Config.Redis.URL)
		if err != nil {
			if c.Config.IsProduction() {
				return fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			c.Logger.Warn("invalid Redis URL, availability cache disabled", "error", err)
			return nil
		}
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			if c.Config.IsProduction() {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			c.Logger.Warn("Redis not available, availability cache disabled", "error", err)
			return nil
		}
		c.RedisClient = client
		c.Logger.Info("connected to Redis")
	}
	if c.RedisClient == nil {
		return nil
	}

	rc := cache.NewRedisAvailabilityCache(c.RedisClient, cache.DefaultPrefix, c.Config.Redis.CacheTTL)
	c.Cache = rc
	c.Health.Register("redis", observability.PingChecker(rc.Ping, true))
	return nil
}

func (c *Container) initNotifier() error {
	if c.Notifier != nil {
		return nil
	}
	if c.Config.Notify.RabbitMQURL == "" {
		c.Notifier = notify.NewLogNotifier(c.Logger)
		return nil
	}

	rabbit, err := eventbus.NewRabbitMQPublisher(c.Config.Notify.RabbitMQURL, c.Config.Notify.Exchange, c.Logger)
	if err != nil {
		if c.Config.IsProduction() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, notifications will be logged", "error", err)
		c.Notifier = notify.NewLogNotifier(c.Logger)
		return nil
	}

	breaker := eventbus.NewBreakerPublisher(rabbit, eventbus.BreakerSettings{
		Name:             "notifications",
		FailureThreshold: c.Config.Notify.BreakerFailures,
		OpenTimeout:      c.Config.Notify.BreakerTimeout,
	}, c.Logger, func(to string) {
		c.Metrics.Counter(observability.MetricBreakerState, 1, observability.T("to", to))
	})
	c.Publisher = breaker
	c.Notifier = notify.NewBrokerNotifier(breaker)
	c.Health.Register("broker", func(context.Context) observability.HealthCheckResult {
		if state := breaker.State(); state != "closed" {
			return observability.HealthCheckResult{Status: observability.HealthStatusDegraded, Message: "breaker " + state}
		}
		return observability.HealthCheckResult{Status: observability.HealthStatusHealthy}
	})
	c.Logger.Info("connected to RabbitMQ", "exchange", c.Config.Notify.Exchange)
	return nil
}

// Close cleans up all resources.
func (c *Container) Close() {
	var errs []error
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.Logger.Info("database connection closed", "driver", c.DBDriver)
		}
	}
	if err := errors.Join(errs...); err != nil {
		c.Logger.Warn("error closing container", "error", err)
	}
}
