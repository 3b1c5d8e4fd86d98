package container

import (
	"context"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"
)

// ── Binding types ─────────────────────────────────────────────────────────────

// Factory builds a concrete value from the container it is resolved in.
// Inside a request scope, c is the scope; singletons always receive the root.
type Factory func(c *Container) (any, error)

// Lifetime controls how long a resolved value is reused.
type Lifetime int

const (
	// Transient builds a new value on every Make.
	Transient Lifetime = iota
	// Scoped builds one value per request scope.
	Scoped
	// Singleton builds one value for the whole process.
	Singleton
)

// String returns the lifetime name.
func (l Lifetime) String() string {
	switch l {
	case Transient:
		return "transient"
	case Scoped:
		return "scoped"
	case Singleton:
		return "singleton"
	default:
		return "unknown"
	}
}

// binding holds a registered factory and its lifetime.
type binding struct {
	factory  Factory
	lifetime Lifetime

	// set for the stand-in bindings of deferred providers
	placeholder bool
}

// registry is the state shared by the root container and every scope opened from it.
type registry struct {
	mu sync.RWMutex

	// abstract → binding
	bindings map[string]*binding

	// abstract → resolved singleton or pre-built instance
	instances map[string]any

	// alias → abstract (canonical key)
	aliases map[string]string

	// tag → []abstract
	tags map[string][]string

	// resolved callbacks: []func(abstract, instance)
	afterResolving []func(string, any)
}

// scope holds the values cached for one request.
type scope struct {
	mu        sync.Mutex
	ctx       context.Context
	instances map[string]any
}

// ── Container ─────────────────────────────────────────────────────────────────

// Container is the IoC container.
//
// It supports:
//   - Bind / Scoped / Singleton / Instance / Alias
//   - Make / Resolve (generic)
//   - Request scopes (one cached value per scope for Scoped bindings)
//   - Tags (group multiple abstractions under one tag)
//   - Resolved event callbacks
//
// A *Container value is a view: the root, a request scope, or the view handed
// to a factory while it runs. Views share one registry.
type Container struct {
	shared *registry
	scope  *scope

	// abstracts currently being resolved by this view, outermost first
	chain []string
}

// New creates an empty container.
func New() *Container {
	c := &Container{
		shared: &registry{
			bindings:  make(map[string]*binding),
			instances: make(map[string]any),
			aliases:   make(map[string]string),
			tags:      make(map[string][]string),
		},
	}
	// The container is resolvable from itself.
	_ = c.Instance("container", c)
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Bind registers a transient factory.
//
//	c.Bind("UserRepository", func(c *container.Container) (any, error) {
//	    db, err := container.Resolve[*sql.DB](c, "db")
//	    if err != nil {
//	        return nil, err
//	    }
//	    return &SQLUserRepository{DB: db}, nil
//	})
func (c *Container) Bind(abstract string, factory Factory) error {
	return c.bind(abstract, factory, Transient)
}

// Scoped registers a factory whose result is cached per request scope.
func (c *Container) Scoped(abstract string, factory Factory) error {
	return c.bind(abstract, factory, Scoped)
}

// Singleton registers a factory whose result is cached after first resolution.
func (c *Container) Singleton(abstract string, factory Factory) error {
	return c.bind(abstract, factory, Singleton)
}

// Instance registers a pre-built value as a singleton.
func (c *Container) Instance(abstract string, instance any) error {
	if abstract == "" {
		return &InvalidBindingError{Abstract: abstract, Reason: "empty abstract"}
	}
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	key := c.shared.canonical(abstract)
	delete(c.shared.bindings, key)
	c.shared.instances[key] = instance
	return nil
}

func (c *Container) bind(abstract string, factory Factory, lifetime Lifetime) error {
	if abstract == "" {
		return &InvalidBindingError{Abstract: abstract, Reason: "empty abstract"}
	}
	if factory == nil {
		return &InvalidBindingError{Abstract: abstract, Reason: "nil factory"}
	}
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	key := c.shared.canonical(abstract)

	// Drop a cached singleton so it is rebuilt with the new factory.
	delete(c.shared.instances, key)
	c.shared.bindings[key] = &binding{factory: factory, lifetime: lifetime}
	return nil
}

func (c *Container) bindPlaceholder(abstract string, factory Factory) error {
	if err := c.bind(abstract, factory, Transient); err != nil {
		return err
	}
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.bindings[c.shared.canonical(abstract)].placeholder = true
	return nil
}

func (c *Container) isPlaceholder(abstract string) bool {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	b, ok := c.shared.bindings[c.shared.canonical(abstract)]
	return ok && b.placeholder
}

// Alias registers an alternative name for an abstract.
func (c *Container) Alias(abstract, alias string) error {
	if abstract == alias {
		return &InvalidBindingError{Abstract: abstract, Reason: "aliased to itself"}
	}
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.aliases[alias] = c.shared.canonical(abstract)
	return nil
}

// ── Tags ──────────────────────────────────────────────────────────────────────

// Tag associates multiple abstracts under a named group.
func (c *Container) Tag(abstracts []string, tag string) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	for _, abs := range abstracts {
		if !slices.Contains(c.shared.tags[tag], abs) {
			c.shared.tags[tag] = append(c.shared.tags[tag], abs)
		}
	}
}

// Tagged resolves all abstracts registered under a tag, in tagging order.
func (c *Container) Tagged(tag string) ([]any, error) {
	c.shared.mu.RLock()
	abstracts := slices.Clone(c.shared.tags[tag])
	c.shared.mu.RUnlock()

	result := make([]any, 0, len(abstracts))
	for _, abs := range abstracts {
		inst, err := c.Make(abs)
		if err != nil {
			return nil, err
		}
		result = append(result, inst)
	}
	return result, nil
}

// TaggedKeys returns the abstracts registered under a tag.
func (c *Container) TaggedKeys(tag string) []string {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	return slices.Clone(c.shared.tags[tag])
}

// ── Scopes ────────────────────────────────────────────────────────────────────

// Scope opens a request scope. Scoped bindings resolved through the returned
// container are built once and reused until the scope is dropped.
//
//	reqScope := app.Scope(r.Context())
//	svc, err := container.Resolve[UserService](reqScope, "users")
func (c *Container) Scope(ctx context.Context) *Container {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Container{
		shared: c.shared,
		scope:  &scope{ctx: ctx, instances: make(map[string]any)},
	}
}

// InScope reports whether c is a request scope.
func (c *Container) InScope() bool { return c.scope != nil }

// Context returns the scope's context, or context.Background at the root.
func (c *Container) Context() context.Context {
	if c.scope == nil {
		return context.Background()
	}
	return c.scope.ctx
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make resolves an abstract from the container.
func (c *Container) Make(abstract string) (any, error) {
	c.shared.mu.RLock()
	key := c.shared.canonical(abstract)
	inst, hasInstance := c.shared.instances[key]
	b, hasBinding := c.shared.bindings[key]
	c.shared.mu.RUnlock()

	if slices.Contains(c.chain, key) {
		return nil, &CircularResolutionError{Chain: append(slices.Clone(c.chain), key)}
	}
	if hasInstance {
		return inst, nil
	}
	if !hasBinding {
		return nil, &BindingNotFoundError{Abstract: abstract}
	}

	switch b.lifetime {
	case Singleton:
		return c.resolveSingleton(key, b)
	case Scoped:
		return c.resolveScoped(key, b)
	default:
		return c.build(key, b, c.scope)
	}
}

// MustMake is like Make but panics on failure.
func (c *Container) MustMake(abstract string) any {
	inst, err := c.Make(abstract)
	if err != nil {
		panic(err)
	}
	return inst
}

func (c *Container) resolveSingleton(key string, b *binding) (any, error) {
	// Singletons never see a request scope.
	inst, err := c.build(key, b, nil)
	if err != nil {
		return nil, err
	}
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	if existing, ok := c.shared.instances[key]; ok {
		return existing, nil
	}
	c.shared.instances[key] = inst
	return inst, nil
}

func (c *Container) resolveScoped(key string, b *binding) (any, error) {
	if c.scope == nil {
		return nil, &ScopeError{Abstract: key}
	}
	c.scope.mu.Lock()
	inst, ok := c.scope.instances[key]
	c.scope.mu.Unlock()
	if ok {
		return inst, nil
	}

	inst, err := c.build(key, b, c.scope)
	if err != nil {
		return nil, err
	}
	c.scope.mu.Lock()
	defer c.scope.mu.Unlock()
	if existing, ok := c.scope.instances[key]; ok {
		return existing, nil
	}
	c.scope.instances[key] = inst
	return inst, nil
}

// build runs a factory on a view that records key in its resolution chain.
func (c *Container) build(key string, b *binding, s *scope) (any, error) {
	view := &Container{
		shared: c.shared,
		scope:  s,
		chain:  append(slices.Clone(c.chain), key),
	}
	inst, err := b.factory(view)
	if err != nil {
		return nil, &ResolutionError{Abstract: key, Err: err}
	}
	c.shared.fireAfterResolving(key, inst)
	return inst, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// Bound returns true if an abstract has been registered.
func (c *Container) Bound(abstract string) bool {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	key := c.shared.canonical(abstract)
	_, hasBinding := c.shared.bindings[key]
	_, hasInstance := c.shared.instances[key]
	return hasBinding || hasInstance
}

// LifetimeOf returns the lifetime of a registered abstract. Pre-built
// instances report Singleton.
func (c *Container) LifetimeOf(abstract string) (Lifetime, bool) {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	key := c.shared.canonical(abstract)
	if b, ok := c.shared.bindings[key]; ok {
		return b.lifetime, true
	}
	if _, ok := c.shared.instances[key]; ok {
		return Singleton, true
	}
	return 0, false
}

// Resolved returns true if a singleton abstract has been resolved at least once.
func (c *Container) Resolved(abstract string) bool {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	_, ok := c.shared.instances[c.shared.canonical(abstract)]
	return ok
}

// Forget removes all registrations for an abstract (binding + instance).
func (c *Container) Forget(abstract string) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	key := c.shared.canonical(abstract)
	delete(c.shared.bindings, key)
	delete(c.shared.instances, key)
}

// Flush resets the entire container.
func (c *Container) Flush() {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.bindings = make(map[string]*binding)
	c.shared.instances = make(map[string]any)
	c.shared.aliases = make(map[string]string)
	c.shared.tags = make(map[string][]string)
}

// Bindings returns all registered abstract keys, sorted.
func (c *Container) Bindings() []string {
	c.shared.mu.RLock()
	defer c.shared.mu.RUnlock()
	out := make([]string, 0, len(c.shared.bindings)+len(c.shared.instances))
	for k := range c.shared.bindings {
		out = append(out, k)
	}
	for k := range c.shared.instances {
		if _, already := c.shared.bindings[k]; !already {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// canonical resolves an alias to its canonical key (caller holds mu).
func (r *registry) canonical(abstract string) string {
	if target, ok := r.aliases[abstract]; ok {
		return target
	}
	return abstract
}

// ── Callbacks ─────────────────────────────────────────────────────────────────

// AfterResolving registers a callback fired after any factory-built value is resolved.
func (c *Container) AfterResolving(cb func(abstract string, instance any)) {
	c.shared.mu.Lock()
	defer c.shared.mu.Unlock()
	c.shared.afterResolving = append(c.shared.afterResolving, cb)
}

func (r *registry) fireAfterResolving(abstract string, instance any) {
	r.mu.RLock()
	cbs := r.afterResolving
	r.mu.RUnlock()
	for _, cb := range cbs {
		cb(abstract, instance)
	}
}

// ── Reflect helpers ───────────────────────────────────────────────────────────

// KeyOf returns the abstract key used for a type: the package-qualified name
// for named types (generic arguments included) and the type's string otherwise.
//
//	container.KeyOf(reflect.TypeFor[UserRepository]())  // "example.com/app.UserRepository"
//	container.KeyOf(reflect.TypeFor[*sql.DB]())         // "*database/sql.DB"
func KeyOf(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	if t.Kind() == reflect.Pointer {
		return "*" + KeyOf(t.Elem())
	}
	return t.String()
}

// TypeKey returns the abstract key of v's type. A typed nil pointer to an
// interface yields the interface key.
//
//	key := container.TypeKey((*UserRepository)(nil))  // "example.com/app.UserRepository"
func TypeKey(v any) string {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Interface {
		t = t.Elem()
	}
	return KeyOf(t)
}

// KeyFor returns the abstract key of T.
func KeyFor[T any]() string {
	return KeyOf(reflect.TypeOf((*T)(nil)).Elem())
}

// shortName strips the package path from a key, keeping generic arguments short too.
func shortName(key string) string {
	if i := strings.LastIndex(strings.SplitN(key, "[", 2)[0], "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve calls Make and type-asserts the result.
//
//	db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, abstract string) (T, error) {
	var zero T
	instance, err := c.Make(abstract)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, &TypeMismatchError{Abstract: abstract, Expected: KeyFor[T](), Got: KeyOf(reflect.TypeOf(instance))}
	}
	return typed, nil
}

// ResolveType resolves T under its own type key.
//
//	svc, err := container.ResolveType[entity.ReadService[int64, *Person]](scope)
func ResolveType[T any](c *Container) (T, error) {
	return Resolve[T](c, KeyFor[T]())
}

// MustResolve is like Resolve but panics on failure.
func MustResolve[T any](c *Container, abstract string) T {
	typed, err := Resolve[T](c, abstract)
	if err != nil {
		panic(err)
	}
	return typed
}
