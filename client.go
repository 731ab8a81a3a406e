package supportkb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/supportkb/internal/db/redis"
	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/repository/corpus"
	"github.com/kailas-cloud/supportkb/internal/repository/pgindex"
	"github.com/kailas-cloud/supportkb/internal/repository/vectorrepo"
	historyuc "github.com/kailas-cloud/supportkb/internal/usecase/history"
	ingestuc "github.com/kailas-cloud/supportkb/internal/usecase/ingest"
	knowledgeuc "github.com/kailas-cloud/supportkb/internal/usecase/knowledge"
	"github.com/kailas-cloud/supportkb/internal/usecase/vectorindex"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultEmbedTimeout     = 10 * time.Second
	defaultDimensions       = 1536
)

// pinger checks store connectivity.
type pinger interface {
	Ping(ctx context.Context) error
}

// Client is the supportkb SDK entry point. It is safe for concurrent use.
type Client struct {
	store     pinger
	closers   []func()
	index     *vectorindex.Lazy
	knowledge *knowledgeuc.Service
	history   *historyuc.Service
	ingest    *ingestuc.Service
}

// New creates a Client and connects to the vector store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		vectorDimensions: defaultDimensions,
		collection:       domain.DefaultCollection,
		embedTimeout:     defaultEmbedTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("supportkb: vector store required (use WithValkey, WithRedis or WithPostgres)")
	}
	if cfg.articlesPath == "" || cfg.ticketsPath == "" {
		return nil, fmt.Errorf("supportkb: %w: corpus paths required (use WithCorpus)", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultReadinessTimeout)
	defer cancel()

	repo, store, closers, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c, err := wireClient(repo, store, cfg)
	if err != nil {
		for _, fn := range closers {
			fn()
		}
		return nil, err
	}
	c.closers = closers
	return c, nil
}

func openStore(ctx context.Context, cfg *clientConfig) (vectorindex.Repository, pinger, []func(), error) {
	switch cfg.driver {
	case "valkey", "redis":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.addrs,
			Password: cfg.password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("supportkb: create %s store: %w", cfg.driver, err)
		}
		if err := s.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
			s.Close()
			return nil, nil, nil, fmt.Errorf("supportkb: database not ready: %w", err)
		}
		repo := vectorrepo.New(s).WithHNSW(vectorrepo.HNSWConfig{
			M:           cfg.hnswM,
			EFConstruct: cfg.hnswEFConstruct,
		})
		return repo, s, []func(){s.Close}, nil
	case "postgres":
		repo, err := pgindex.Open(context.Background(), cfg.dsn)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("supportkb: %w", err)
		}
		if err := repo.Ping(ctx); err != nil {
			repo.Close()
			return nil, nil, nil, fmt.Errorf("supportkb: database not ready: %w", err)
		}
		return repo, repo, []func(){repo.Close}, nil
	default:
		return nil, nil, nil, fmt.Errorf("supportkb: unknown driver %q", cfg.driver)
	}
}

func wireClient(repo vectorindex.Repository, store pinger, cfg *clientConfig) (*Client, error) {
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var emb domain.Embedder = noopEmbedder{}
	if cfg.embedder != nil {
		emb = &embedderAdapter{inner: cfg.embedder}
	}
	queryEmb, docEmb := emb, emb
	if cfg.queryInstruction != "" {
		queryEmb = domain.NewInstructionEmbedder(emb, cfg.queryInstruction)
	}
	if cfg.documentInstruction != "" {
		docEmb = domain.NewInstructionEmbedder(emb, cfg.documentInstruction)
	}

	adapterCfg := vectorindex.Config{
		Collection:   cfg.collection,
		Dimensions:   cfg.vectorDimensions,
		EmbedTimeout: cfg.embedTimeout,
	}
	// Validate eagerly so a bad option fails New rather than the first search.
	if _, err := vectorindex.NewAdapter(repo, queryEmb, adapterCfg, logger); err != nil {
		return nil, fmt.Errorf("supportkb: %w", err)
	}
	registry := vectorindex.NewRegistry(func(_ context.Context, collection string) (*vectorindex.Adapter, error) {
		c := adapterCfg
		c.Collection = collection
		a, err := vectorindex.NewAdapter(repo, queryEmb, c, logger)
		if err != nil {
			return nil, err
		}
		return a.WithDocumentEmbedder(docEmb), nil
	})
	index := registry.Lazy(cfg.collection)

	var kb *corpus.Repo
	if cfg.corpusFS != nil {
		kb = corpus.NewFS(cfg.corpusFS, cfg.articlesPath, cfg.ticketsPath)
	} else {
		kb = corpus.New(cfg.articlesPath, cfg.ticketsPath)
	}

	return &Client{
		store:     store,
		index:     index,
		knowledge: knowledgeuc.New(index, kb),
		history:   historyuc.New(kb),
		ingest:    ingestuc.New(kb, index, logger),
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// SearchOption narrows a knowledge base search.
type SearchOption func(*searchOptions)

type searchOptions struct {
	category string
}

// InCategory restricts results to one article category.
func InCategory(category string) SearchOption {
	return func(o *searchOptions) { o.category = category }
}

// SearchKnowledgeBase returns up to three articles relevant to query. It only
// fails when the article corpus itself is unusable.
func (c *Client) SearchKnowledgeBase(ctx context.Context, query string, opts ...SearchOption) (KnowledgeResult, error) {
	var o searchOptions
	for _, fn := range opts {
		fn(&o)
	}

	var filters filter.Expression
	if o.category != "" {
		f, err := filter.Category(o.category)
		if err != nil {
			return KnowledgeResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		filters = f
	}

	res, err := c.knowledge.Search(ctx, query, filters)
	if err != nil {
		return KnowledgeResult{}, fmt.Errorf("search knowledge base: %w", err)
	}
	return res, nil
}

// SearchTicketHistory returns up to five past tickets with the most common
// resolution and the average resolution time over every match.
func (c *Client) SearchTicketHistory(ctx context.Context, q HistoryQuery) (HistoryResult, error) {
	res, err := c.history.Search(ctx, historyuc.Request{CustomerID: q.CustomerID, Query: q.Query})
	if err != nil {
		return HistoryResult{}, fmt.Errorf("search ticket history: %w", err)
	}
	return res, nil
}

// Rebuild re-embeds the article corpus into the vector index. With keep set
// the index is not reset first.
func (c *Client) Rebuild(ctx context.Context, keep bool) (RebuildReport, error) {
	rep, err := c.ingest.Run(ctx, ingestuc.Options{Keep: keep})
	if err != nil {
		return RebuildReport{}, fmt.Errorf("rebuild index: %w", err)
	}
	return RebuildReport{Indexed: rep.Indexed, Count: rep.Count}, nil
}

// Count returns the number of documents in the vector index.
func (c *Client) Count(ctx context.Context) (int, error) {
	n, err := c.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}
