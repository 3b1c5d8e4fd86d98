// Package app is the application kernel: the container, its providers, and
// the HTTP server in front of the generated services.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/config"
	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/providers"
	"github.com/km-arc/go-autocrud/framework/routing"
	"github.com/km-arc/go-autocrud/framework/schedule"
	"github.com/km-arc/go-autocrud/framework/storage/sqlstore"
)

// Version of the application kernel.
const Version = "0.1.0"

// Application embeds the container and the provider registry so user code
// can call app.Make(), app.Instance(), app.Register() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry
}

// New registers the core providers: configuration, logging, database and
// routing. envFiles default to ".env".
func New(envFiles ...string) (*Application, error) {
	c := container.New()
	registry := container.NewProviderRegistry(c)

	app := &Application{
		Container: c,
		Providers: registry,
	}
	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{EnvFiles: envFiles},
		&providers.LoggingServiceProvider{},
		&providers.DatabaseServiceProvider{},
		&providers.RoutingServiceProvider{},
	} {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config resolves the configuration.
func (a *Application) Config() *config.Config {
	return container.MustResolve[*config.Config](a.Container, container.KeyFor[*config.Config]())
}

// Log resolves the logger.
func (a *Application) Log() *zap.Logger {
	return container.MustResolve[*zap.Logger](a.Container, container.KeyFor[*zap.Logger]())
}

// Router resolves the router.
func (a *Application) Router() *routing.Router {
	return container.MustResolve[*routing.Router](a.Container, container.KeyFor[*routing.Router]())
}

// Run boots the application (if needed) and serves HTTP until ctx is done,
// then shuts down.
func (a *Application) Run(ctx context.Context) error {
	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}
	cfg, log := a.Config(), a.Log()

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	served := make(chan error, 1)
	go func() {
		log.Info("listening",
			zap.String("app", cfg.App.Name),
			zap.String("env", cfg.App.Env),
			zap.String("addr", cfg.App.URL+srv.Addr),
		)
		served <- srv.ListenAndServe()
	}()

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "server error")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	return multierr.Append(err, a.Shutdown(shutdownCtx))
}

// Shutdown stops the scheduler and closes the database, if either was
// started.
func (a *Application) Shutdown(ctx context.Context) error {
	var err error
	if a.Resolved(container.KeyFor[*schedule.Scheduler]()) {
		if s, rerr := container.ResolveType[*schedule.Scheduler](a.Container); rerr == nil {
			err = multierr.Append(err, s.Stop(ctx))
		}
	}
	if a.Resolved(container.KeyFor[*sqlstore.DB]()) {
		if db, rerr := container.ResolveType[*sqlstore.DB](a.Container); rerr == nil {
			err = multierr.Append(err, db.Close())
		}
	}
	if log, rerr := container.ResolveType[*zap.Logger](a.Container); rerr == nil {
		_ = log.Sync()
	}
	return err
}

// Environment returns the APP_ENV value.
func (a *Application) Environment() string { return a.Config().App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.Environment() == "production" }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
func (a *Application) IsDebug() bool       { return a.Config().App.Debug }
