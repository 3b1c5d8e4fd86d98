// Package providers holds the service providers the application kernel
// registers: configuration, logging, database, routing, and the generated
// CRUD services.
package providers

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/config"
	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/logging"
	"github.com/km-arc/go-autocrud/framework/routing"
	"github.com/km-arc/go-autocrud/framework/storage/sqlstore"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider loads the application configuration from .env and
// the environment.
//
// Bound abstracts:
//   - container.KeyFor[*config.Config]() → *config.Config
//   - "config" (alias)
type ConfigServiceProvider struct {
	container.BaseProvider
	EnvFiles []string
}

func (p *ConfigServiceProvider) Register(app *container.Container) error {
	envFiles := p.EnvFiles
	key := container.KeyFor[*config.Config]()
	if err := app.Singleton(key, func(*container.Container) (any, error) {
		return config.Load(envFiles...), nil
	}); err != nil {
		return err
	}
	return app.Alias(key, "config")
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider builds the zap logger from the "log" section of the
// configuration.
//
// Bound abstracts:
//   - container.KeyFor[*zap.Logger]() → *zap.Logger
//   - "log" (alias)
type LoggingServiceProvider struct {
	container.BaseProvider
}

func (p *LoggingServiceProvider) Register(app *container.Container) error {
	key := container.KeyFor[*zap.Logger]()
	if err := app.Singleton(key, func(c *container.Container) (any, error) {
		cfg, err := container.ResolveType[*config.Config](c)
		if err != nil {
			return nil, err
		}
		return logging.New(cfg.Log)
	}); err != nil {
		return err
	}
	return app.Alias(key, "log")
}

// ── DatabaseServiceProvider ───────────────────────────────────────────────────

// DatabaseServiceProvider opens the SQL database on first use. It is
// deferred: an application running on the memory driver never opens one.
//
// Bound abstracts:
//   - container.KeyFor[*sqlstore.DB]() → *sqlstore.DB
type DatabaseServiceProvider struct {
	container.BaseProvider

	// ConnectTimeout bounds the initial ping. Zero means five seconds.
	ConnectTimeout time.Duration
}

func (p *DatabaseServiceProvider) IsDeferred() bool { return true }

func (p *DatabaseServiceProvider) Provides() []string {
	return []string{container.KeyFor[*sqlstore.DB]()}
}

func (p *DatabaseServiceProvider) Register(app *container.Container) error {
	timeout := p.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return app.Singleton(container.KeyFor[*sqlstore.DB](), func(c *container.Container) (any, error) {
		cfg, err := container.ResolveType[*config.Config](c)
		if err != nil {
			return nil, err
		}
		if cfg.DB.InMemory() {
			return nil, errors.New("database: the memory driver opens no database")
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sqlstore.Open(ctx, cfg.DB.Driver, cfg.DB.DSN)
	})
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. Every request gets its
// own container scope.
//
// Bound abstracts:
//   - container.KeyFor[*routing.Router]() → *routing.Router
//   - "router" (alias)
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(app *container.Container) error {
	key := container.KeyFor[*routing.Router]()
	if err := app.Singleton(key, func(c *container.Container) (any, error) {
		log, err := container.ResolveType[*zap.Logger](c)
		if err != nil {
			return nil, err
		}
		r := routing.New(log)
		r.Scoped(app)
		return r, nil
	}); err != nil {
		return err
	}
	return app.Alias(key, "router")
}
