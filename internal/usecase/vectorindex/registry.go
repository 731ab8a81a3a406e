package vectorindex

import (
	"context"
	"fmt"
	"sync"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

// Factory opens the store and embedding client for a collection and returns its Adapter.
type Factory func(ctx context.Context, collection string) (*Adapter, error)

// Registry hands out one shared Adapter per collection, built on first use.
// Concurrent first calls for the same collection run the factory once.
// A failed build is not remembered; the next call tries again.
type Registry struct {
	mu       sync.Mutex
	factory  Factory
	adapters map[string]*Adapter
}

// NewRegistry creates a Registry backed by factory.
func NewRegistry(factory Factory) *Registry {
	return &Registry{factory: factory, adapters: make(map[string]*Adapter)}
}

// Get returns the Adapter for collection, building it if needed.
func (r *Registry) Get(ctx context.Context, collection string) (*Adapter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.adapters[collection]; ok {
		return a, nil
	}

	a, err := r.factory(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("init vector index %q: %w", collection, err)
	}
	r.adapters[collection] = a
	return a, nil
}

// Lazy returns a handle that resolves collection through the registry on every call.
func (r *Registry) Lazy(collection string) *Lazy {
	return &Lazy{registry: r, collection: collection}
}

// Lazy defers Adapter construction until first use. Initialization failures
// surface from every method like any other adapter error.
type Lazy struct {
	registry   *Registry
	collection string
}

// Query resolves the adapter and delegates to Adapter.Query.
func (l *Lazy) Query(ctx context.Context, text string, k int, filters filter.Expression) ([]result.Hit, error) {
	a, err := l.registry.Get(ctx, l.collection)
	if err != nil {
		return nil, err
	}
	return a.Query(ctx, text, k, filters)
}

// Count resolves the adapter and delegates to Adapter.Count.
func (l *Lazy) Count(ctx context.Context) (int, error) {
	a, err := l.registry.Get(ctx, l.collection)
	if err != nil {
		return 0, err
	}
	return a.Count(ctx)
}

// Prepare resolves the adapter and delegates to Adapter.Prepare.
func (l *Lazy) Prepare(
	ctx context.Context, texts []string, metas []domain.Metadata, ids []string,
) ([]domain.IndexedDocument, error) {
	a, err := l.registry.Get(ctx, l.collection)
	if err != nil {
		return nil, err
	}
	return a.Prepare(ctx, texts, metas, ids)
}

// Commit resolves the adapter and delegates to Adapter.Commit.
func (l *Lazy) Commit(ctx context.Context, docs []domain.IndexedDocument, reset bool) error {
	a, err := l.registry.Get(ctx, l.collection)
	if err != nil {
		return err
	}
	return a.Commit(ctx, docs, reset)
}
