package vectorindex

import (
	"context"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

// Repository defines the persistent vector store contract.
// Count reports 0 for a collection whose index does not exist.
type Repository interface {
	EnsureIndex(ctx context.Context, collection string, dim int) error
	Reset(ctx context.Context, collection string, dim int) error
	Upsert(ctx context.Context, collection string, docs []domain.IndexedDocument) error
	Count(ctx context.Context, collection string) (int, error)
	Search(
		ctx context.Context, collection string,
		vector []float32, k int, filters filter.Expression,
	) ([]result.Hit, error)
}
