package entity

import (
	"context"
	"time"
)

// EventKind names what happened to an entity.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// DomainEvent describes one change to one entity.
type DomainEvent struct {
	Kind       EventKind
	Entity     string
	Key        any
	Previous   any
	Current    any
	OccurredAt time.Time
}

// DomainEventPublisher delivers domain events. Services publish after the
// storage client succeeded; a publish failure fails the operation.
type DomainEventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, DomainEvent) error { return nil }

func newEvent[K comparable, E Entity[K]](kind EventKind, key K, previous, current any) DomainEvent {
	return DomainEvent{
		Kind:       kind,
		Entity:     Name[E](),
		Key:        key,
		Previous:   previous,
		Current:    current,
		OccurredAt: time.Now().UTC(),
	}
}
