package entity

import (
	"context"
	"encoding/json"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/pkg/errors"
)

func publisherOrNop(p DomainEventPublisher) DomainEventPublisher {
	if p == nil {
		return NopPublisher{}
	}
	return p
}

// ── Create ────────────────────────────────────────────────────────────────────

// DefaultCreateService adds entities through a CreateClient and publishes
// EventCreated.
type DefaultCreateService[K comparable, E Entity[K]] struct {
	client CreateClient[K, E]
	events DomainEventPublisher
}

func NewCreateService[K comparable, E Entity[K]](client CreateClient[K, E], events DomainEventPublisher) *DefaultCreateService[K, E] {
	return &DefaultCreateService[K, E]{client: client, events: publisherOrNop(events)}
}

func (s *DefaultCreateService[K, E]) Create(ctx context.Context, e E) (E, error) {
	var zero E
	created, err := s.client.Add(ctx, e)
	if err != nil {
		return zero, errors.Wrapf(err, "creating %s", Name[E]())
	}
	if err := s.events.Publish(ctx, newEvent[K, E](EventCreated, created.GetID(), nil, created)); err != nil {
		return zero, errors.Wrapf(err, "publishing %s created", Name[E]())
	}
	return created, nil
}

// ── Read ──────────────────────────────────────────────────────────────────────

type DefaultReadService[K comparable, E Entity[K]] struct {
	client ReadClient[K, E]
}

func NewReadService[K comparable, E Entity[K]](client ReadClient[K, E]) *DefaultReadService[K, E] {
	return &DefaultReadService[K, E]{client: client}
}

func (s *DefaultReadService[K, E]) Get(ctx context.Context, key K) (E, error) {
	e, err := s.client.GetByKey(ctx, key)
	if err != nil {
		return e, errors.Wrapf(err, "reading %s %v", Name[E](), key)
	}
	return e, nil
}

// ── Update ────────────────────────────────────────────────────────────────────

// DefaultUpdateService replaces entities and applies JSON merge patches
// (RFC 7386). The key of a patched entity cannot be changed by the patch.
type DefaultUpdateService[K comparable, E Entity[K]] struct {
	read   ReadClient[K, E]
	client UpdateClient[K, E]
	events DomainEventPublisher
}

func NewUpdateService[K comparable, E Entity[K]](read ReadClient[K, E], client UpdateClient[K, E], events DomainEventPublisher) *DefaultUpdateService[K, E] {
	return &DefaultUpdateService[K, E]{read: read, client: client, events: publisherOrNop(events)}
}

func (s *DefaultUpdateService[K, E]) Update(ctx context.Context, e E) (E, error) {
	var zero E
	previous, err := s.read.GetByKey(ctx, e.GetID())
	if err != nil {
		return zero, errors.Wrapf(err, "updating %s %v", Name[E](), e.GetID())
	}
	return s.replace(ctx, previous, e)
}

func (s *DefaultUpdateService[K, E]) Patch(ctx context.Context, key K, patch []byte) (E, error) {
	var zero E
	previous, err := s.read.GetByKey(ctx, key)
	if err != nil {
		return zero, errors.Wrapf(err, "patching %s %v", Name[E](), key)
	}
	doc, err := json.Marshal(previous)
	if err != nil {
		return zero, errors.Wrapf(err, "encoding %s %v", Name[E](), key)
	}
	merged, err := jsonpatch.MergePatch(doc, patch)
	if err != nil {
		return zero, errors.Wrap(err, "applying merge patch")
	}
	next := New[E]()
	if err := json.Unmarshal(merged, next); err != nil {
		return zero, errors.Wrapf(err, "decoding patched %s", Name[E]())
	}
	next.SetID(key)
	return s.replace(ctx, previous, next)
}

func (s *DefaultUpdateService[K, E]) replace(ctx context.Context, previous, next E) (E, error) {
	var zero E
	updated, err := s.client.Replace(ctx, next)
	if err != nil {
		return zero, errors.Wrapf(err, "updating %s %v", Name[E](), next.GetID())
	}
	if err := s.events.Publish(ctx, newEvent[K, E](EventUpdated, updated.GetID(), previous, updated)); err != nil {
		return zero, errors.Wrapf(err, "publishing %s updated", Name[E]())
	}
	return updated, nil
}

// ── Delete ────────────────────────────────────────────────────────────────────

type DefaultDeleteService[K comparable, E Entity[K]] struct {
	client DeleteClient[K, E]
	events DomainEventPublisher
}

func NewDeleteService[K comparable, E Entity[K]](client DeleteClient[K, E], events DomainEventPublisher) *DefaultDeleteService[K, E] {
	return &DefaultDeleteService[K, E]{client: client, events: publisherOrNop(events)}
}

func (s *DefaultDeleteService[K, E]) Delete(ctx context.Context, key K) (E, error) {
	var zero E
	deleted, err := s.client.Remove(ctx, key)
	if err != nil {
		return zero, errors.Wrapf(err, "deleting %s %v", Name[E](), key)
	}
	if err := s.events.Publish(ctx, newEvent[K, E](EventDeleted, key, deleted, nil)); err != nil {
		return zero, errors.Wrapf(err, "publishing %s deleted", Name[E]())
	}
	return deleted, nil
}

// ── Search ────────────────────────────────────────────────────────────────────

// DefaultSearchService resolves SearchRequests into Queries. Requests that
// name no ordering use the entity's default order.
type DefaultSearchService[K comparable, E Entity[K]] struct {
	client SearchClient[K, E]
	order  OrderByProvider[K, E]
}

func NewSearchService[K comparable, E Entity[K]](client SearchClient[K, E], order OrderByProvider[K, E]) *DefaultSearchService[K, E] {
	return &DefaultSearchService[K, E]{client: client, order: order}
}

func (s *DefaultSearchService[K, E]) Search(ctx context.Context, req SearchRequest) ([]E, error) {
	page, err := s.Page(ctx, req)
	if err != nil {
		return nil, err
	}
	return page.Data, nil
}

func (s *DefaultSearchService[K, E]) Page(ctx context.Context, req SearchRequest) (PagedResponse[E], error) {
	page, err := s.client.Find(ctx, s.Query(req))
	if err != nil {
		return page, errors.Wrapf(err, "searching %s", Name[E]())
	}
	return page, nil
}

// Query resolves req against the service defaults.
func (s *DefaultSearchService[K, E]) Query(req SearchRequest) Query {
	q := Query{
		Search:        req.Search,
		OrderBy:       ParseOrderBy(req.OrderBy),
		CreatedStart:  req.CreatedStartDate,
		CreatedEnd:    req.CreatedEndDate,
		ModifiedStart: req.ModifiedStartDate,
		ModifiedEnd:   req.ModifiedEndDate,
	}
	if req.PageNumber != nil {
		q.PageNumber = *req.PageNumber
	}
	if req.PageSize != nil {
		q.PageSize = *req.PageSize
	}
	if req.DoCount != nil {
		q.DoCount = *req.DoCount
	}
	if len(q.OrderBy) == 0 && s.order != nil {
		q.OrderBy = s.order.DefaultOrderBy()
	}
	return q
}
