package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
	"github.com/kailas-cloud/supportkb/internal/metrics"
)

// Config describes the collection an Adapter serves.
type Config struct {
	Collection string
	Dimensions int
	// EmbedTimeout bounds every call to the embedding service. Zero means no bound
	// beyond the caller's context.
	EmbedTimeout time.Duration
}

// Adapter answers nearest-neighbor queries over one collection of a persistent
// vector index. Writes (Commit, Upsert, Reset) hold the lock exclusively, so a
// query sees the index either before or after a write, never in between.
type Adapter struct {
	mu       sync.RWMutex
	repo     Repository
	embed    domain.Embedder
	docEmbed domain.Embedder
	cfg      Config
	logger   *zap.Logger
}

// NewAdapter creates an Adapter. It does not touch the store.
func NewAdapter(repo Repository, embed domain.Embedder, cfg Config, logger *zap.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: dimensions must be positive, got %d", domain.ErrInvalidInput, cfg.Dimensions)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{repo: repo, embed: embed, docEmbed: embed, cfg: cfg, logger: logger}, nil
}

// WithDocumentEmbedder sets the embedder used by Upsert, for providers that
// expect different instructions for documents and queries.
func (a *Adapter) WithDocumentEmbedder(e domain.Embedder) *Adapter {
	if e != nil {
		a.docEmbed = e
	}
	return a
}

// Collection returns the collection name.
func (a *Adapter) Collection() string { return a.cfg.Collection }

// Dimensions returns the embedding dimension of the collection.
func (a *Adapter) Dimensions() int { return a.cfg.Dimensions }

// Upsert embeds texts and stores them with their metadata under ids.
// All three slices must have the same length. Embedding failures abort the
// whole call before anything is written.
func (a *Adapter) Upsert(ctx context.Context, texts []string, metas []domain.Metadata, ids []string) error {
	docs, err := a.Prepare(ctx, texts, metas, ids)
	if err != nil {
		return err
	}
	return a.Commit(ctx, docs, false)
}

// Prepare embeds texts with the document embedder and pairs each vector with
// its metadata and id. It neither touches the store nor takes the lock, so
// queries keep being served while a large corpus is embedded.
func (a *Adapter) Prepare(
	ctx context.Context, texts []string, metas []domain.Metadata, ids []string,
) ([]domain.IndexedDocument, error) {
	if len(texts) != len(metas) || len(texts) != len(ids) {
		return nil, fmt.Errorf("%w: got %d documents, %d metadatas, %d ids",
			domain.ErrInvalidInput, len(texts), len(metas), len(ids))
	}
	if len(texts) == 0 {
		return nil, nil
	}
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: empty id at position %d", domain.ErrInvalidInput, i)
		}
	}

	vectors, err := a.embedDocuments(ctx, texts)
	if err != nil {
		return nil, err
	}

	docs := make([]domain.IndexedDocument, len(texts))
	for i := range texts {
		docs[i] = domain.IndexedDocument{
			ID:        ids[i],
			Content:   texts[i],
			Embedding: vectors[i],
			Metadata:  metas[i],
		}
	}
	return docs, nil
}

// Commit writes prepared documents in one exclusive section. With reset set,
// the collection is emptied first, so a concurrent query sees either the old
// entries or the new ones, never a mix.
func (a *Adapter) Commit(ctx context.Context, docs []domain.IndexedDocument, reset bool) error {
	for i := range docs {
		if len(docs[i].Embedding) != a.cfg.Dimensions {
			return fmt.Errorf("%w: document %q has %d dimensions, index has %d",
				domain.ErrVectorDimMismatch, docs[i].ID, len(docs[i].Embedding), a.cfg.Dimensions)
		}
	}
	if len(docs) == 0 && !reset {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if reset {
		if err := a.repo.Reset(ctx, a.cfg.Collection, a.cfg.Dimensions); err != nil {
			return fmt.Errorf("reset %s: %w", a.cfg.Collection, err)
		}
	}
	if len(docs) == 0 {
		return nil
	}
	if err := a.repo.EnsureIndex(ctx, a.cfg.Collection, a.cfg.Dimensions); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	if err := a.repo.Upsert(ctx, a.cfg.Collection, docs); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}

	a.logger.Debug("Documents committed",
		zap.String("collection", a.cfg.Collection),
		zap.Int("count", len(docs)),
		zap.Bool("reset", reset),
	)
	return nil
}

// Query embeds text and returns up to k nearest documents, highest score first.
// It fails with domain.ErrIndexUnavailable when the collection holds no
// documents and with domain.ErrEmbeddingService when the text cannot be embedded.
func (a *Adapter) Query(ctx context.Context, text string, k int, filters filter.Expression) ([]result.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidInput, k)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: query text is empty", domain.ErrInvalidInput)
	}

	start := time.Now()
	hits, err := a.query(ctx, text, k, filters)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.VectorQueryDuration.WithLabelValues(a.cfg.Collection, status).Observe(time.Since(start).Seconds())

	return hits, err
}

func (a *Adapter) query(ctx context.Context, text string, k int, filters filter.Expression) ([]result.Hit, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n, err := a.repo.Count(ctx, a.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: count %s: %w", domain.ErrIndexUnavailable, a.cfg.Collection, err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: collection %q is empty", domain.ErrIndexUnavailable, a.cfg.Collection)
	}

	vector, err := a.embedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	hits, err := a.repo.Search(ctx, a.cfg.Collection, vector, k, filters)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", a.cfg.Collection, err)
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Reset discards every entry and recreates an empty collection under the same name.
// Queries issued after Reset fail with domain.ErrIndexUnavailable until the next Upsert.
func (a *Adapter) Reset(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.repo.Reset(ctx, a.cfg.Collection, a.cfg.Dimensions); err != nil {
		return fmt.Errorf("reset %s: %w", a.cfg.Collection, err)
	}
	a.logger.Info("Vector index reset", zap.String("collection", a.cfg.Collection))
	return nil
}

// Count returns the number of indexed documents.
func (a *Adapter) Count(ctx context.Context) (int, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n, err := a.repo.Count(ctx, a.cfg.Collection)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", a.cfg.Collection, err)
	}
	return n, nil
}

func (a *Adapter) embedQuery(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := a.embedContext(ctx)
	defer cancel()

	res, err := a.embed.Embed(ctx, text)
	if err != nil {
		return nil, embeddingError(err)
	}
	domain.UsageFromContext(ctx).AddTokens(res.TotalTokens)
	if len(res.Embedding) != a.cfg.Dimensions {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, index has %d",
			domain.ErrVectorDimMismatch, len(res.Embedding), a.cfg.Dimensions)
	}
	return res.Embedding, nil
}

func (a *Adapter) embedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := a.embedContext(ctx)
	defer cancel()

	res, err := domain.EmbedBatch(ctx, a.docEmbed, texts)
	if err != nil {
		return nil, embeddingError(err)
	}
	for i, v := range res.Embeddings {
		if len(v) != a.cfg.Dimensions {
			return nil, fmt.Errorf("%w: document %d has %d dimensions, index has %d",
				domain.ErrVectorDimMismatch, i, len(v), a.cfg.Dimensions)
		}
	}
	return res.Embeddings, nil
}

func (a *Adapter) embedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.EmbedTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.EmbedTimeout)
	}
	return ctx, func() {}
}

// embeddingError tags any provider failure, timeouts included, as ErrEmbeddingService.
func embeddingError(err error) error {
	if errors.Is(err, domain.ErrEmbeddingService) {
		return fmt.Errorf("embed: %w", err)
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingService, err)
}
