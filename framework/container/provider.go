package container

import (
	"sync"

	"github.com/pkg/errors"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registrations of one concern (config, logging,
// database, routing, generated CRUD services).
//
// Register is called as soon as the provider is added. Boot is called after
// ALL providers have been registered, making it safe to resolve other bindings
// inside Boot().
//
//	type LoggingServiceProvider struct{ container.BaseProvider }
//
//	func (p *LoggingServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton(container.KeyFor[*zap.Logger](), func(c *container.Container) (any, error) {
//	        cfg, err := container.ResolveType[*config.Config](c)
//	        if err != nil {
//	            return nil, err
//	        }
//	        return logging.New(cfg.Log)
//	    })
//	}
type ServiceProvider interface {
	// Register binds services into the container.
	// Do NOT resolve other bindings here, use Boot() for that.
	Register(app *Container) error

	// Boot is called after all providers are registered.
	Boot(app *Container) error

	// Provides returns the abstract keys this provider registers.
	// Only consulted for deferred providers.
	Provides() []string

	// IsDeferred returns true if this provider should be loaded lazily,
	// when one of its Provides() abstracts is first resolved.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
//
//	type MyProvider struct{ container.BaseProvider }
//	func (p *MyProvider) Register(app *container.Container) error { ... }
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error { return nil }
func (p *BaseProvider) Provides() []string      { return nil }
func (p *BaseProvider) IsDeferred() bool        { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders,
// including deferred (lazy) providers.
type ProviderRegistry struct {
	app *Container

	mu         sync.Mutex
	eager      []ServiceProvider
	deferred   map[string]ServiceProvider // abstract → provider not yet loaded
	booted     bool
	registered map[ServiceProvider]bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		deferred:   make(map[string]ServiceProvider),
		registered: make(map[ServiceProvider]bool),
	}
}

// Register adds a provider and calls its Register() method (unless deferred).
// A provider added after Boot() is booted immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	r.mu.Lock()
	if r.registered[provider] {
		r.mu.Unlock()
		return nil
	}
	r.registered[provider] = true

	if provider.IsDeferred() {
		for _, abstract := range provider.Provides() {
			r.deferred[abstract] = provider
		}
		r.mu.Unlock()
		return r.interceptDeferred(provider)
	}
	booted := r.booted
	r.eager = append(r.eager, provider)
	r.mu.Unlock()

	if err := provider.Register(r.app); err != nil {
		return errors.Wrapf(err, "registering provider %T", provider)
	}
	if booted {
		if err := provider.Boot(r.app); err != nil {
			return errors.Wrapf(err, "booting provider %T", provider)
		}
	}
	return nil
}

// interceptDeferred binds a placeholder for each deferred abstract.
// The first Make() loads the provider, which replaces the placeholders with
// its real bindings.
func (r *ProviderRegistry) interceptDeferred(provider ServiceProvider) error {
	for _, abstract := range provider.Provides() {
		abs := abstract
		err := r.app.bindPlaceholder(abs, func(_ *Container) (any, error) {
			if err := r.load(provider); err != nil {
				return nil, err
			}
			if r.app.isPlaceholder(abs) {
				return nil, errors.Errorf("deferred provider %T did not bind %q", provider, abs)
			}
			return r.app.Make(abs)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// load runs Register (and Boot, when the registry is booted) for a deferred
// provider once.
func (r *ProviderRegistry) load(provider ServiceProvider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pending := false
	for abs, p := range r.deferred {
		if p == provider {
			pending = true
			delete(r.deferred, abs)
		}
	}
	if !pending {
		return nil
	}
	if err := provider.Register(r.app); err != nil {
		return errors.Wrapf(err, "registering deferred provider %T", provider)
	}
	if r.booted {
		if err := provider.Boot(r.app); err != nil {
			return errors.Wrapf(err, "booting deferred provider %T", provider)
		}
	}
	return nil
}

// Boot calls Boot() on all eager providers in registration order and stops
// at the first failure.
func (r *ProviderRegistry) Boot() error {
	r.mu.Lock()
	if r.booted {
		r.mu.Unlock()
		return nil
	}
	r.booted = true
	providers := append([]ServiceProvider(nil), r.eager...)
	r.mu.Unlock()

	for _, provider := range providers {
		if err := provider.Boot(r.app); err != nil {
			return errors.Wrapf(err, "booting provider %T", provider)
		}
	}
	return nil
}

// Booted returns true if Boot() has been called.
func (r *ProviderRegistry) Booted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.booted
}

// Providers returns all registered eager providers.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ServiceProvider(nil), r.eager...)
}

// Deferred returns the abstracts whose provider has not been loaded yet.
func (r *ProviderRegistry) Deferred() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.deferred))
	for abs := range r.deferred {
		out = append(out, abs)
	}
	return out
}
