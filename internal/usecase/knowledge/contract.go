package knowledge

import (
	"context"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

// Index is the semantic retrieval strategy. Any error it returns triggers keyword fallback.
type Index interface {
	Query(ctx context.Context, text string, k int, filters filter.Expression) ([]result.Hit, error)
}

// Corpus serves the static knowledge-article corpus.
type Corpus interface {
	Articles(ctx context.Context) ([]domain.Article, error)
	Article(ctx context.Context, id string) (domain.Article, error)
}
