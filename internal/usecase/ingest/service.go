package ingest

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

const (
	// DefaultBatchSize is the number of articles embedded per call.
	DefaultBatchSize = 64
	// DefaultSmokeQuery is run against the fresh index to confirm it answers.
	DefaultSmokeQuery = "my payment failed"

	smokeK = 3
)

// Options control one ingestion run.
type Options struct {
	BatchSize int
	// Keep skips the reset and writes over the existing index.
	Keep       bool
	SmokeQuery string
}

// Report summarizes an ingestion run.
type Report struct {
	Indexed int
	Count   int
	Smoke   []result.Hit
	// SmokeErr is set when the smoke query failed; ingestion itself still succeeded.
	SmokeErr error
}

// Service rebuilds the vector index from the article corpus.
type Service struct {
	// mu serializes runs so two rebuilds never interleave their commits.
	mu     sync.Mutex
	corpus Corpus
	index  Index
	logger *zap.Logger
}

// New creates an ingestion service.
func New(corpus Corpus, index Index, logger *zap.Logger) *Service {
	return &Service{corpus: corpus, index: index, logger: logger}
}

// Run loads every article, embeds it in batches, then writes the whole corpus
// in one commit that also resets the index unless Keep is set. Readers keep
// getting the previous index until the commit, and an embedding failure
// leaves it untouched. Run then verifies the document count and runs a smoke query.
func (s *Service) Run(ctx context.Context, opts Options) (Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.SmokeQuery == "" {
		opts.SmokeQuery = DefaultSmokeQuery
	}

	articles, err := s.corpus.Articles(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load articles: %w", err)
	}
	s.logger.Info("Loaded articles", zap.Int("count", len(articles)))

	docs := make([]domain.IndexedDocument, 0, len(articles))
	for start := 0; start < len(articles); start += opts.BatchSize {
		batch := articles[start:min(start+opts.BatchSize, len(articles))]
		prepared, err := s.prepare(ctx, batch)
		if err != nil {
			return Report{}, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		docs = append(docs, prepared...)
		s.logger.Info("Embedded batch",
			zap.Int("done", len(docs)),
			zap.Int("total", len(articles)),
		)
	}

	if err := s.index.Commit(ctx, docs, !opts.Keep); err != nil {
		return Report{}, fmt.Errorf("write index: %w", err)
	}
	indexed := len(docs)
	s.logger.Info("Index written", zap.Int("indexed", indexed), zap.Bool("keep", opts.Keep))

	count, err := s.index.Count(ctx)
	if err != nil {
		return Report{Indexed: indexed}, fmt.Errorf("verify count: %w", err)
	}
	if count == 0 && indexed > 0 {
		return Report{Indexed: indexed}, fmt.Errorf("index is empty after writing %d articles", indexed)
	}
	if count != indexed {
		s.logger.Warn("Index count differs from ingested articles",
			zap.Int("count", count),
			zap.Int("indexed", indexed),
			zap.Bool("keep", opts.Keep),
		)
	}

	report := Report{Indexed: indexed, Count: count}
	report.Smoke, report.SmokeErr = s.smoke(ctx, opts.SmokeQuery)
	return report, nil
}

func (s *Service) prepare(ctx context.Context, batch []domain.Article) ([]domain.IndexedDocument, error) {
	texts := make([]string, len(batch))
	metas := make([]domain.Metadata, len(batch))
	ids := make([]string, len(batch))
	for i := range batch {
		texts[i] = batch[i].IndexText()
		metas[i] = batch[i].Metadata()
		ids[i] = batch[i].ID
	}
	return s.index.Prepare(ctx, texts, metas, ids)
}

func (s *Service) smoke(ctx context.Context, query string) ([]result.Hit, error) {
	hits, err := s.index.Query(ctx, query, smokeK, filter.Expression{})
	if err != nil {
		s.logger.Warn("Smoke query failed", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("smoke query: %w", err)
	}
	for i, h := range hits {
		s.logger.Info("Smoke query hit",
			zap.Int("rank", i+1),
			zap.String("id", h.ID()),
			zap.Float64("distance", h.Distance()),
		)
	}
	return hits, nil
}
