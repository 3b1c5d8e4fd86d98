// Package container provides the IoC container and Service Provider system
// the generated CRUD services are registered into.
//
// # Overview
//
// The container manages the instantiation and lifecycle of the application's
// dependencies. It supports transient bindings, request-scoped bindings,
// singletons, pre-built instances, aliases and tags. Abstracts are strings;
// KeyOf derives the conventional key for a Go type so that callers and
// generated factories agree on names.
//
// Go has no runtime constructor reflection on closures, so factories are
// explicit functions that resolve their own dependencies and report failures
// as errors instead of panicking.
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register providers: registry.Register(&MyProvider{})
//  3. Boot: registry.Boot(), safe to resolve everything after this
//  4. Serve requests, opening one scope per request: c.Scope(r.Context())
//
// # Bindings
//
//	// Transient, new instance every Make()
//	c.Bind("clock", func(c *container.Container) (any, error) { return time.Now, nil })
//
//	// Scoped, one instance per request scope
//	c.Scoped(container.KeyFor[UserService](), func(c *container.Container) (any, error) {
//	    repo, err := container.ResolveType[UserRepository](c)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return NewUserService(repo), nil
//	})
//
//	// Singleton, created once and reused
//	c.Singleton("db", func(c *container.Container) (any, error) {
//	    return sqlstore.Open("sqlite3", "file::memory:")
//	})
//
//	// Pre-built value
//	c.Instance("config", cfg)
//
//	// Alias
//	c.Alias("db", "database")
//
// # Resolving
//
//	raw, err := c.Make("db")
//	db, err := container.Resolve[*sqlstore.DB](c, "db")
//	svc, err := container.ResolveType[UserService](c.Scope(ctx))
//
// A factory that asks, directly or through other factories, for the abstract
// it is building gets a *CircularResolutionError. Scoped bindings resolved
// outside a scope fail with *ScopeError, and singleton factories never see a
// request scope.
//
// # Tags
//
//	c.Tag([]string{"cpu-report", "mem-report"}, "reports")
//	reports, err := c.Tagged("reports")
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(app *container.Container) error {
//	    return app.Singleton("mailer", newMailer)
//	}
//
//	registry := container.NewProviderRegistry(c)
//	if err := registry.Register(&AppServiceProvider{}); err != nil { ... }
//	if err := registry.Boot(); err != nil { ... }
//
// # Deferred Providers
//
//	type HeavyProvider struct{ container.BaseProvider }
//
//	func (p *HeavyProvider) IsDeferred() bool   { return true }
//	func (p *HeavyProvider) Provides() []string { return []string{"heavy"} }
//	func (p *HeavyProvider) Register(app *container.Container) error {
//	    return app.Singleton("heavy", heavySetup) // only called on first Make("heavy")
//	}
package container
