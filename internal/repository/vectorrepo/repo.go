package vectorrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/supportkb/internal/db"
	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

const (
	fieldContent  = "__content"
	fieldVector   = "__vector"
	fieldCategory = filter.KeyCategory
	fieldTags     = filter.KeyTags
	fieldTitle    = "title"

	vectorAlias = "vector"
	delBatch    = 500
)

// store is the consumer interface for the vector index (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexDocCount(ctx context.Context, name string) (int, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo keeps indexed articles as hashes under one FT index per collection.
type Repo struct {
	store store
	hnsw  HNSWConfig
}

// New creates a vector index repository.
func New(s store) *Repo {
	return &Repo{store: s, hnsw: HNSWConfig{M: 16, EFConstruct: 200}}
}

// WithHNSW configures HNSW index parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	if cfg.M > 0 {
		r.hnsw.M = cfg.M
	}
	if cfg.EFConstruct > 0 {
		r.hnsw.EFConstruct = cfg.EFConstruct
	}
	return r
}

// EnsureIndex creates the collection index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context, collection string, dim int) error {
	def, err := r.buildIndex(collection, dim)
	if err != nil {
		return err
	}
	if err := r.store.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// Reset drops the index, deletes every document hash of the collection and
// recreates an empty index under the same name.
func (r *Repo) Reset(ctx context.Context, collection string, dim int) error {
	def, err := r.buildIndex(collection, dim)
	if err != nil {
		return err
	}

	if err := r.store.DropIndex(ctx, def.Name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
		return fmt.Errorf("drop index %s: %w", def.Name, err)
	}

	keys, err := r.store.Scan(ctx, collectionPrefix(collection)+"*")
	if err != nil {
		return fmt.Errorf("scan %s: %w", collection, err)
	}
	for start := 0; start < len(keys); start += delBatch {
		end := min(start+delBatch, len(keys))
		if err := r.store.Del(ctx, keys[start:end]...); err != nil {
			return fmt.Errorf("delete %s documents: %w", collection, err)
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// Upsert writes documents as hashes in a single transaction.
func (r *Repo) Upsert(ctx context.Context, collection string, docs []domain.IndexedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(docs))
	for i := range docs {
		items[i] = db.HashSetItem{
			Key:    docKey(collection, docs[i].ID),
			Fields: buildHashFields(&docs[i]),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d documents into %s: %w", len(docs), collection, err)
	}
	return nil
}

// Count returns the number of indexed documents. A missing index counts as empty.
func (r *Repo) Count(ctx context.Context, collection string) (int, error) {
	n, err := r.store.IndexDocCount(ctx, indexName(collection))
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// Search returns up to k nearest documents, closest first.
func (r *Repo) Search(
	ctx context.Context, collection string, vector []float32, k int, filters filter.Expression,
) ([]result.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collection),
		VectorField:  vectorAlias,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: []string{fieldCategory, fieldTitle, fieldTags},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", collection, err)
	}

	prefix := collectionPrefix(collection)
	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, result.NewHit(
			strings.TrimPrefix(e.Key, prefix),
			e.Score,
			domain.Metadata{
				Category: e.Fields[fieldCategory],
				Title:    e.Fields[fieldTitle],
				Tags:     e.Fields[fieldTags],
			},
		))
	}
	return hits, nil
}

func (r *Repo) buildIndex(collection string, dim int) (*db.IndexDefinition, error) {
	def, err := db.NewIndex(indexName(collection)).
		Prefix(collectionPrefix(collection)).
		Tag(fieldCategory).
		TagWithOpts(fieldTags, domain.TagSeparator, true).
		VectorHNSW(fieldVector, vectorAlias, dim, db.DistanceCosine, r.hnsw.M, r.hnsw.EFConstruct).
		Build()
	if err != nil {
		return nil, fmt.Errorf("index definition for %s: %w", collection, err)
	}
	return def, nil
}

func indexName(collection string) string {
	return domain.KeyPrefix + collection + ":idx"
}

func collectionPrefix(collection string) string {
	return domain.KeyPrefix + collection + ":"
}

func docKey(collection, id string) string {
	return collectionPrefix(collection) + id
}
