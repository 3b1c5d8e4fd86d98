// Package events delivers entity domain events to in-process subscribers.
package events

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/entity"
)

// Handler reacts to one domain event.
type Handler func(ctx context.Context, event entity.DomainEvent) error

// Dispatcher is an entity.DomainEventPublisher that fans events out to the
// handlers subscribed to their kind, and to the handlers subscribed to all
// kinds. Every handler runs even when an earlier one fails; the failures
// are combined.
type Dispatcher struct {
	log *zap.Logger

	mu       sync.RWMutex
	handlers map[entity.EventKind][]Handler
}

var _ entity.DomainEventPublisher = (*Dispatcher)(nil)

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		log:      log.Named("events"),
		handlers: make(map[entity.EventKind][]Handler),
	}
}

// Subscribe registers h for kind. The empty kind subscribes to every event.
func (d *Dispatcher) Subscribe(kind entity.EventKind, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[kind] = append(d.handlers[kind], h)
}

// Publish runs the handlers of event.Kind, then the catch-all handlers.
func (d *Dispatcher) Publish(ctx context.Context, event entity.DomainEvent) error {
	d.mu.RLock()
	handlers := append(append([]Handler(nil), d.handlers[event.Kind]...), d.handlers[""]...)
	d.mu.RUnlock()

	d.log.Debug("publishing",
		zap.String("kind", string(event.Kind)),
		zap.String("entity", event.Entity),
		zap.Any("key", event.Key),
		zap.Int("handlers", len(handlers)),
	)

	var err error
	for _, h := range handlers {
		if herr := h(ctx, event); herr != nil {
			d.log.Warn("handler failed",
				zap.String("kind", string(event.Kind)),
				zap.String("entity", event.Entity),
				zap.Error(herr),
			)
			err = multierr.Append(err, herr)
		}
	}
	return err
}

// Subscribers returns how many handlers are registered for kind.
func (d *Dispatcher) Subscribers(kind entity.EventKind) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers[kind])
}

// Log returns a handler that logs every event at info level.
func Log(log *zap.Logger) Handler {
	return func(_ context.Context, event entity.DomainEvent) error {
		log.Info("domain event",
			zap.String("kind", string(event.Kind)),
			zap.String("entity", event.Entity),
			zap.Any("key", event.Key),
			zap.Time("at", event.OccurredAt),
		)
		return nil
	}
}
