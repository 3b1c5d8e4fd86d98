package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/events"
)

func TestDispatcher_RoutesByKind(t *testing.T) {
	d := events.NewDispatcher(nil)
	var created, all []entity.EventKind
	d.Subscribe(entity.EventCreated, func(_ context.Context, e entity.DomainEvent) error {
		created = append(created, e.Kind)
		return nil
	})
	d.Subscribe("", func(_ context.Context, e entity.DomainEvent) error {
		all = append(all, e.Kind)
		return nil
	})

	ctx := context.Background()
	require.NoError(t, d.Publish(ctx, entity.DomainEvent{Kind: entity.EventCreated}))
	require.NoError(t, d.Publish(ctx, entity.DomainEvent{Kind: entity.EventDeleted}))

	assert.Equal(t, []entity.EventKind{entity.EventCreated}, created)
	assert.Equal(t, []entity.EventKind{entity.EventCreated, entity.EventDeleted}, all)
	assert.Equal(t, 1, d.Subscribers(entity.EventCreated))
}

func TestDispatcher_CombinesFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	d := events.NewDispatcher(zap.New(core))
	first, second := errors.New("first"), errors.New("second")
	ran := 0
	d.Subscribe(entity.EventUpdated, func(context.Context, entity.DomainEvent) error { ran++; return first })
	d.Subscribe(entity.EventUpdated, func(context.Context, entity.DomainEvent) error { ran++; return second })

	err := d.Publish(context.Background(), entity.DomainEvent{Kind: entity.EventUpdated, Entity: "widget"})

	assert.Equal(t, 2, ran)
	assert.ErrorIs(t, err, first)
	assert.ErrorIs(t, err, second)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, 2, logs.FilterMessage("handler failed").Len())
}

func TestLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := events.NewDispatcher(nil)
	d.Subscribe("", events.Log(zap.New(core)))

	require.NoError(t, d.Publish(context.Background(), entity.DomainEvent{Kind: entity.EventCreated, Entity: "widget", Key: 1}))

	entries := logs.FilterMessage("domain event").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "widget", entries[0].ContextMap()["entity"])
}
