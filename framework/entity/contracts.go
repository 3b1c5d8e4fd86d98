package entity

import "context"

// ── Storage clients ───────────────────────────────────────────────────────────

// Client and service method sets never overlap: the generator orders
// constructors by assignability, so a service that also satisfied a client
// contract would be taken for its own dependency.

// CreateClient inserts entities. A zero key is replaced by a generated one.
type CreateClient[K comparable, E Entity[K]] interface {
	Add(ctx context.Context, e E) (E, error)
}

// ReadClient loads entities by key. Missing keys yield ErrNotFound.
type ReadClient[K comparable, E Entity[K]] interface {
	GetByKey(ctx context.Context, key K) (E, error)
}

// UpdateClient replaces stored entities. Missing keys yield ErrNotFound.
type UpdateClient[K comparable, E Entity[K]] interface {
	Replace(ctx context.Context, e E) (E, error)
}

// DeleteClient removes entities and returns what was removed.
type DeleteClient[K comparable, E Entity[K]] interface {
	Remove(ctx context.Context, key K) (E, error)
}

// SearchClient runs resolved queries.
type SearchClient[K comparable, E Entity[K]] interface {
	Find(ctx context.Context, q Query) (PagedResponse[E], error)
}

// SchemaConfigurer prepares storage (tables, indexes) before first use.
type SchemaConfigurer interface {
	ConfigureSchema(ctx context.Context) error
}

// SchemaClient is the per-entity schema configurer.
type SchemaClient[K comparable, E Entity[K]] interface {
	SchemaConfigurer
}

// ── Services ──────────────────────────────────────────────────────────────────

// CreateService creates entities.
type CreateService[K comparable, E Entity[K]] interface {
	Create(ctx context.Context, e E) (E, error)
}

// ReadService reads entities.
type ReadService[K comparable, E Entity[K]] interface {
	Get(ctx context.Context, key K) (E, error)
}

// UpdateService replaces entities or applies a JSON merge patch to them.
type UpdateService[K comparable, E Entity[K]] interface {
	Update(ctx context.Context, e E) (E, error)
	Patch(ctx context.Context, key K, patch []byte) (E, error)
}

// DeleteService deletes entities.
type DeleteService[K comparable, E Entity[K]] interface {
	Delete(ctx context.Context, key K) (E, error)
}

// SearchService searches entities.
type SearchService[K comparable, E Entity[K]] interface {
	Search(ctx context.Context, req SearchRequest) ([]E, error)
	Page(ctx context.Context, req SearchRequest) (PagedResponse[E], error)
}
