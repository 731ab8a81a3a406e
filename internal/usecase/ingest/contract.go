package ingest

import (
	"context"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

// Corpus serves the articles to index.
type Corpus interface {
	Articles(ctx context.Context) ([]domain.Article, error)
}

// Index is the vector index being populated. Prepare embeds without writing;
// Commit writes prepared documents atomically with respect to readers.
type Index interface {
	Prepare(ctx context.Context, texts []string, metas []domain.Metadata, ids []string) ([]domain.IndexedDocument, error)
	Commit(ctx context.Context, docs []domain.IndexedDocument, reset bool) error
	Count(ctx context.Context) (int, error)
	Query(ctx context.Context, text string, k int, filters filter.Expression) ([]result.Hit, error)
}
