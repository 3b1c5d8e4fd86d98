package entity

import "context"

// The func types below let plain functions stand in for services. Each
// Adapt function has the shape the generator accepts as an adapter:
//
//	b.Adapt(entity.AdaptCreate[int64, *Person])

// CreateFunc implements CreateService.
type CreateFunc[K comparable, E Entity[K]] func(ctx context.Context, e E) (E, error)

func (f CreateFunc[K, E]) Create(ctx context.Context, e E) (E, error) { return f(ctx, e) }

// ReadFunc implements ReadService.
type ReadFunc[K comparable, E Entity[K]] func(ctx context.Context, key K) (E, error)

func (f ReadFunc[K, E]) Get(ctx context.Context, key K) (E, error) { return f(ctx, key) }

// DeleteFunc implements DeleteService.
type DeleteFunc[K comparable, E Entity[K]] func(ctx context.Context, key K) (E, error)

func (f DeleteFunc[K, E]) Delete(ctx context.Context, key K) (E, error) { return f(ctx, key) }

// UpdateFuncs implements UpdateService.
type UpdateFuncs[K comparable, E Entity[K]] struct {
	UpdateFn func(ctx context.Context, e E) (E, error)
	PatchFn  func(ctx context.Context, key K, patch []byte) (E, error)
}

func (f UpdateFuncs[K, E]) Update(ctx context.Context, e E) (E, error) { return f.UpdateFn(ctx, e) }

func (f UpdateFuncs[K, E]) Patch(ctx context.Context, key K, patch []byte) (E, error) {
	return f.PatchFn(ctx, key, patch)
}

// SearchFunc implements SearchService over one page function.
type SearchFunc[K comparable, E Entity[K]] func(ctx context.Context, req SearchRequest) (PagedResponse[E], error)

func (f SearchFunc[K, E]) Page(ctx context.Context, req SearchRequest) (PagedResponse[E], error) {
	return f(ctx, req)
}

func (f SearchFunc[K, E]) Search(ctx context.Context, req SearchRequest) ([]E, error) {
	page, err := f(ctx, req)
	return page.Data, err
}

func AdaptCreate[K comparable, E Entity[K]](fn func(context.Context, E) (E, error)) CreateService[K, E] {
	return CreateFunc[K, E](fn)
}

func AdaptRead[K comparable, E Entity[K]](fn func(context.Context, K) (E, error)) ReadService[K, E] {
	return ReadFunc[K, E](fn)
}

func AdaptDelete[K comparable, E Entity[K]](fn func(context.Context, K) (E, error)) DeleteService[K, E] {
	return DeleteFunc[K, E](fn)
}

func AdaptUpdate[K comparable, E Entity[K]](fns UpdateFuncs[K, E]) UpdateService[K, E] {
	return fns
}

func AdaptSearch[K comparable, E Entity[K]](fn func(context.Context, SearchRequest) (PagedResponse[E], error)) SearchService[K, E] {
	return SearchFunc[K, E](fn)
}
