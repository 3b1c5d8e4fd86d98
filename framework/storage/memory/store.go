// Package memory is an in-process document store for entities. Entities are
// kept as JSON documents, so callers never share memory with the store.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/entity"
)

type document struct {
	data     []byte
	fields   map[string]any
	created  time.Time
	modified time.Time
	seq      int64
}

// Store holds the documents of one entity type. It implements every client
// contract of the entity package.
type Store[K comparable, E entity.Entity[K]] struct {
	log   *zap.Logger
	clock func() time.Time

	mu   sync.RWMutex
	docs map[K]*document
	seq  int64
	last int64
}

// Option configures a Store.
type Option func(*options)

type options struct {
	log   *zap.Logger
	clock func() time.Time
}

// WithLogger logs store activity to log.
func WithLogger(log *zap.Logger) Option { return func(o *options) { o.log = log } }

// WithClock replaces time.Now for created and modified dates.
func WithClock(clock func() time.Time) Option { return func(o *options) { o.clock = clock } }

// NewStore returns an empty store.
func NewStore[K comparable, E entity.Entity[K]](opts ...Option) *Store[K, E] {
	o := options{log: zap.NewNop(), clock: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[K, E]{
		log:   o.log.Named("memory").With(zap.String("entity", entity.Name[E]())),
		clock: o.clock,
		docs:  make(map[K]*document),
	}
}

// Add stores e. A zero key is replaced by a generated one; an existing key
// is rejected.
func (s *Store[K, E]) Add(_ context.Context, e E) (E, error) {
	var zero E
	s.mu.Lock()
	defer s.mu.Unlock()

	key := e.GetID()
	if entity.IsZeroKey(key) {
		next, err := entity.NewKey[K](s.last + 1)
		if err != nil {
			return zero, err
		}
		key = next
		e.SetID(key)
	}
	if _, exists := s.docs[key]; exists {
		return zero, errors.Errorf("memory: %s %v already exists", entity.Name[E](), key)
	}
	now := s.clock().UTC()
	doc, err := s.encode(e, now, now)
	if err != nil {
		return zero, err
	}
	s.track(key)
	s.seq++
	doc.seq = s.seq
	s.docs[key] = doc
	s.log.Debug("added", zap.Any("key", key))
	return s.decode(doc)
}

// GetByKey loads the entity stored under key.
func (s *Store[K, E]) GetByKey(_ context.Context, key K) (E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		var zero E
		return zero, entity.ErrNotFound
	}
	return s.decode(doc)
}

// Replace overwrites the stored entity with e, keeping its created date.
func (s *Store[K, E]) Replace(_ context.Context, e E) (E, error) {
	var zero E
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.docs[e.GetID()]
	if !ok {
		return zero, entity.ErrNotFound
	}
	doc, err := s.encode(e, old.created, s.clock().UTC())
	if err != nil {
		return zero, err
	}
	doc.seq = old.seq
	s.docs[e.GetID()] = doc
	return s.decode(doc)
}

// Remove deletes the entity stored under key and returns it.
func (s *Store[K, E]) Remove(_ context.Context, key K) (E, error) {
	var zero E
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[key]
	if !ok {
		return zero, entity.ErrNotFound
	}
	delete(s.docs, key)
	s.log.Debug("removed", zap.Any("key", key))
	return s.decode(doc)
}

// Find filters, sorts and pages the stored entities. Search matches any
// string field case-insensitively. Date bounds apply to Timestamped
// entities only. Without an ordering, entities come in insertion order.
func (s *Store[K, E]) Find(_ context.Context, q entity.Query) (entity.PagedResponse[E], error) {
	s.mu.RLock()
	matched := make([]*document, 0, len(s.docs))
	for _, doc := range s.docs {
		if q.Search != "" && !containsText(doc.fields, strings.ToLower(q.Search)) {
			continue
		}
		if q.HasDateFilter() && !doc.created.IsZero() && !q.InRange(doc.created, doc.modified) {
			continue
		}
		matched = append(matched, doc)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *document) int {
		for _, ob := range q.OrderBy {
			c := compareValues(a.fields[ob.Field], b.fields[ob.Field])
			if !ob.Ascending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.seq, b.seq)
	})

	var page entity.PagedResponse[E]
	if q.DoCount {
		total := int64(len(matched))
		page.TotalRecords = &total
	}
	if q.Paged() {
		start := min(q.Offset(), len(matched))
		end := start + min(q.PageSize, len(matched)-start)
		matched = matched[start:end]
		number, size := q.PageNumber, q.PageSize
		page.CurrentPage, page.CurrentPageSize = &number, &size
	}

	page.Data = make([]E, 0, len(matched))
	for _, doc := range matched {
		e, err := s.decode(doc)
		if err != nil {
			return entity.PagedResponse[E]{}, err
		}
		page.Data = append(page.Data, e)
	}
	return page, nil
}

// ConfigureSchema has nothing to prepare.
func (s *Store[K, E]) ConfigureSchema(context.Context) error {
	s.log.Debug("schema ready")
	return nil
}

// Len returns the number of stored entities.
func (s *Store[K, E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// track keeps the integer key sequence ahead of explicit keys (caller holds mu).
func (s *Store[K, E]) track(key K) {
	if !entity.IsIntegerKey[K]() {
		return
	}
	raw, _ := json.Marshal(key)
	var n int64
	if json.Unmarshal(raw, &n) == nil && n > s.last {
		s.last = n
	}
}

func (s *Store[K, E]) encode(e E, created, modified time.Time) (*document, error) {
	if ts, ok := any(e).(entity.Timestamped); ok {
		ts.SetCreatedDate(created)
		ts.SetModifiedDate(modified)
	} else {
		created, modified = time.Time{}, time.Time{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrapf(err, "memory: encoding %s", entity.Name[E]())
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, errors.Wrapf(err, "memory: %s is not a JSON object", entity.Name[E]())
	}
	return &document{data: data, fields: fields, created: created, modified: modified}, nil
}

func (s *Store[K, E]) decode(doc *document) (E, error) {
	e := entity.New[E]()
	if err := json.Unmarshal(doc.data, e); err != nil {
		var zero E
		return zero, errors.Wrapf(err, "memory: decoding %s", entity.Name[E]())
	}
	return e, nil
}

func containsText(v any, needle string) bool {
	switch t := v.(type) {
	case string:
		return strings.Contains(strings.ToLower(t), needle)
	case map[string]any:
		for _, f := range t {
			if containsText(f, needle) {
				return true
			}
		}
	case []any:
		for _, f := range t {
			if containsText(f, needle) {
				return true
			}
		}
	}
	return false
}

// compareValues orders decoded JSON values: nulls first, then booleans,
// numbers and strings.
func compareValues(a, b any) int {
	rank := func(v any) int {
		switch v.(type) {
		case nil:
			return 0
		case bool:
			return 1
		case float64:
			return 2
		case string:
			return 3
		default:
			return 4
		}
	}
	if ra, rb := rank(a), rank(b); ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case float64:
		return cmp.Compare(x, b.(float64))
	case string:
		return cmp.Compare(x, b.(string))
	}
	return 0
}
