package generator_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/km-arc/go-autocrud/framework/container"
)

type person struct{ ID int64 }

type order struct{ ID string }

// ── ICreate / IValidator ──────────────────────────────────────────────────────

type IValidator interface {
	Validate(name string) error
}

type ICreate interface {
	Create(name string) (string, error)
}

type validatorImpl struct{}

func (validatorImpl) Validate(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name is required")
	}
	return nil
}

func newValidatorImpl() validatorImpl { return validatorImpl{} }

type createImpl struct{ validator IValidator }

func (c *createImpl) Create(name string) (string, error) {
	if err := c.validator.Validate(name); err != nil {
		return "", err
	}
	return "created " + name, nil
}

func newCreateImpl(v IValidator) *createImpl { return &createImpl{validator: v} }

// ── IA / IB cycle ─────────────────────────────────────────────────────────────

type IA interface{ A() }
type IB interface{ B() }

type implA struct{ b IB }

func (implA) A() {}

type implB struct{ a IA }

func (implB) B() {}

func newImplA(b IB) implA { return implA{b: b} }
func newImplB(a IA) implB { return implB{a: a} }

// ── adaptation shapes ─────────────────────────────────────────────────────────

type Counter interface{ Next() int }

type counter struct{ n int }

func (c *counter) Next() int { c.n++; return c.n }

func newCounter() counter { return counter{n: 10} }

type Greeter interface{ Greet(name string) string }

// greetFunc is the delegate table standing in for a Greeter.
type greetFunc func(string) string

func (f greetFunc) Greet(name string) string { return f(name) }

func newGreeting() func(string) string {
	return func(name string) string { return "hi " + name }
}

func adaptGreeting(fn func(string) string) Greeter { return greetFunc(fn) }

// ── per-entity generic contracts ──────────────────────────────────────────────

type Store[E any] interface {
	Put(e E)
	Len() int
}

type memStore[E any] struct{ items []E }

func (m *memStore[E]) Put(e E) { m.items = append(m.items, e) }
func (m *memStore[E]) Len() int { return len(m.items) }

func newMemStore[E any]() *memStore[E] { return &memStore[E]{} }

// ── context-aware constructor ─────────────────────────────────────────────────

type ctxKey struct{}

type RequestInfo interface{ RequestID() string }

type requestInfo struct{ id string }

func (r requestInfo) RequestID() string { return r.id }

func newRequestInfo(ctx context.Context) requestInfo {
	id, _ := ctx.Value(ctxKey{}).(string)
	return requestInfo{id: id}
}

// ── registrars ────────────────────────────────────────────────────────────────

// recorder records registrations without building anything.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) Scoped(abstract string, _ container.Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "scoped "+abstract)
	return nil
}

func (r *recorder) Instance(abstract string, _ any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "instance "+abstract)
	return nil
}

func (r *recorder) Tag(abstracts []string, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, "tag "+tag+" "+strings.Join(abstracts, ","))
}

type refusingRegistrar struct{ recorder }

func (r *refusingRegistrar) Instance(string, any) error { return errors.New("refused") }
