package knowledge

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/lexical"
	"github.com/kailas-cloud/supportkb/internal/domain/search/mode"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
	"github.com/kailas-cloud/supportkb/internal/logger"
	"github.com/kailas-cloud/supportkb/internal/metrics"
)

// MaxResults caps the number of articles in one response.
const MaxResults = 3

// Fallback reasons recorded in metrics.
const (
	reasonEmbedding        = "embedding"
	reasonIndexUnavailable = "index_unavailable"
	reasonOther            = "other"
)

// Service searches the knowledge base semantically and degrades to keyword
// matching over the full corpus when the semantic path fails for any reason.
type Service struct {
	index  Index
	corpus Corpus
	limit  int
}

// New creates a knowledge search service.
func New(index Index, corpus Corpus) *Service {
	return &Service{index: index, corpus: corpus, limit: MaxResults}
}

// Search returns at most MaxResults articles for query. Index faults never reach
// the caller; only an unusable corpus does, wrapped in domain.ErrCorpusUnavailable.
func (s *Service) Search(ctx context.Context, query string, filters filter.Expression) (result.Knowledge, error) {
	if strings.TrimSpace(query) == "" {
		return s.record(noResults(query, mode.Keyword)), nil
	}

	ctx, usage := domain.NewContextWithUsage(ctx)
	hits, err := s.index.Query(ctx, query, s.limit, filters)
	if usage.Used {
		metrics.QueryEmbeddingTokens.Add(float64(usage.TotalTokens))
	}
	if err != nil {
		reason := fallbackReason(err)
		logger.FromContext(ctx).Warn("Semantic search failed, falling back to keyword search",
			zap.String("reason", reason),
			zap.Int("query_len", len(query)),
			zap.Error(err),
		)
		metrics.KnowledgeSearchFallbackTotal.WithLabelValues(reason).Inc()
		return s.keyword(ctx, query, filters)
	}

	res, err := s.resolve(ctx, query, hits)
	if err != nil {
		return result.Knowledge{}, err
	}
	return s.record(res), nil
}

// resolve maps index hits back to the corpus, since the index keeps only flat metadata.
func (s *Service) resolve(ctx context.Context, query string, hits []result.Hit) (result.Knowledge, error) {
	articles := make([]result.Article, 0, len(hits))
	for _, h := range hits {
		a, err := s.corpus.Article(ctx, h.ID())
		if errors.Is(err, domain.ErrNotFound) {
			logger.FromContext(ctx).Warn("Indexed article missing from corpus",
				zap.String("id", h.ID()),
			)
			continue
		}
		if err != nil {
			return result.Knowledge{}, fmt.Errorf("resolve article %q: %w", h.ID(), err)
		}
		articles = append(articles, result.Article{
			ID:        a.ID,
			Category:  a.Category,
			Title:     a.Title,
			Content:   a.Content,
			Score:     math.Round(h.Score()*1000) / 1000,
			ScoreKind: mode.Semantic.ScoreKind(),
		})
	}

	if len(articles) == 0 {
		return noResults(query, mode.Semantic), nil
	}
	return result.Knowledge{
		Status:       result.StatusSuccess,
		Articles:     articles,
		TotalResults: len(articles),
		SearchMethod: mode.Semantic,
	}, nil
}

func (s *Service) keyword(ctx context.Context, query string, filters filter.Expression) (result.Knowledge, error) {
	all, err := s.corpus.Articles(ctx)
	if err != nil {
		return result.Knowledge{}, fmt.Errorf("keyword search: %w", err)
	}

	if !filters.IsEmpty() {
		kept := make([]domain.Article, 0, len(all))
		for _, a := range all {
			if filters.Matches(articleValues(a)) {
				kept = append(kept, a)
			}
		}
		all = kept
	}

	matches := lexical.Rank(query, all, func(a domain.Article) lexical.Fields { return a.SearchFields() })
	if len(matches) == 0 {
		return s.record(noResults(query, mode.Keyword)), nil
	}

	top := lexical.Top(matches, s.limit)
	articles := make([]result.Article, 0, len(top))
	for _, m := range top {
		articles = append(articles, result.Article{
			ID:        m.Doc.ID,
			Category:  m.Doc.Category,
			Title:     m.Doc.Title,
			Content:   m.Doc.Content,
			Score:     float64(m.Score),
			ScoreKind: mode.Keyword.ScoreKind(),
		})
	}

	return s.record(result.Knowledge{
		Status:       result.StatusSuccess,
		Articles:     articles,
		TotalResults: len(matches),
		SearchMethod: mode.Keyword,
	}), nil
}

func (s *Service) record(res result.Knowledge) result.Knowledge {
	metrics.KnowledgeSearchTotal.WithLabelValues(string(res.SearchMethod), string(res.Status)).Inc()
	return res
}

func noResults(query string, m mode.Mode) result.Knowledge {
	return result.Knowledge{
		Status:       result.StatusNoResults,
		Articles:     []result.Article{},
		TotalResults: 0,
		SearchMethod: m,
		Message:      fmt.Sprintf("No knowledge base articles found matching: '%s'", query),
	}
}

func articleValues(a domain.Article) func(key string) []string {
	return func(key string) []string {
		switch key {
		case filter.KeyCategory:
			return []string{a.Category}
		case filter.KeyTags:
			return a.Tags
		default:
			return nil
		}
	}
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingService):
		return reasonEmbedding
	case errors.Is(err, domain.ErrIndexUnavailable):
		return reasonIndexUnavailable
	default:
		return reasonOther
	}
}
