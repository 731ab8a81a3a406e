package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/config"
	dbRedis "github.com/kailas-cloud/supportkb/internal/db/redis"
	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/metrics"
	"github.com/kailas-cloud/supportkb/internal/repository/corpus"
	"github.com/kailas-cloud/supportkb/internal/repository/embcache"
	"github.com/kailas-cloud/supportkb/internal/repository/pgindex"
	"github.com/kailas-cloud/supportkb/internal/repository/vectorrepo"
	ollamaEmb "github.com/kailas-cloud/supportkb/internal/transport/ollama"
	openaiEmb "github.com/kailas-cloud/supportkb/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/supportkb/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/supportkb/internal/usecase/health"
	historyuc "github.com/kailas-cloud/supportkb/internal/usecase/history"
	ingestuc "github.com/kailas-cloud/supportkb/internal/usecase/ingest"
	knowledgeuc "github.com/kailas-cloud/supportkb/internal/usecase/knowledge"
	"github.com/kailas-cloud/supportkb/internal/usecase/vectorindex"
)

// cacheStore is what the embedding cache needs from the KV store.
type cacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// app is the composition root shared by every command.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	index     *vectorindex.Lazy
	knowledge *knowledgeuc.Service
	history   *historyuc.Service
	ingest    *ingestuc.Service
	health    *healthuc.Service
	closers   []func()
}

// newApp connects the vector store and assembles the services. The index
// adapter itself is built lazily on first use.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterSearchMetrics()

	a := &app{cfg: cfg, logger: logger}

	repo, pinger, cache, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	queryEmb, err := buildEmbedder(cfg.Embedding, cfg.Embedding.QueryInstruction, cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	docEmb, err := buildEmbedder(cfg.Embedding, cfg.Embedding.DocumentInstruction, cache, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	registry := vectorindex.NewRegistry(func(_ context.Context, collection string) (*vectorindex.Adapter, error) {
		adapter, err := vectorindex.NewAdapter(repo, queryEmb, vectorindex.Config{
			Collection:   collection,
			Dimensions:   cfg.Embedding.Dimensions,
			EmbedTimeout: time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("vector index %q: %w", collection, err)
		}
		logger.Info("Vector index adapter ready", zap.String("collection", collection))
		return adapter.WithDocumentEmbedder(docEmb), nil
	})
	a.index = registry.Lazy(cfg.Index.Collection)

	kb := corpus.New(cfg.Corpus.ArticlesPath, cfg.Corpus.TicketsPath)
	a.knowledge = knowledgeuc.New(a.index, kb)
	a.history = historyuc.New(kb)
	a.ingest = ingestuc.New(kb, a.index, logger)
	a.health = healthuc.New(pinger, newEmbeddingHealthChecker(queryEmb), a.index)

	return a, nil
}

// openStore connects the configured backend. The KV drivers also serve as the
// embedding cache; postgres runs without one.
func (a *app) openStore(ctx context.Context) (vectorindex.Repository, healthuc.DBPinger, cacheStore, error) {
	readiness := time.Duration(a.cfg.Database.ReadinessTimeout) * time.Second

	switch a.cfg.Database.Driver {
	case config.DriverValkey, config.DriverRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    a.cfg.Database.Addrs,
			Password: a.cfg.Database.Password,
		})
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create %s store: %w", a.cfg.Database.Driver, err)
		}
		a.closers = append(a.closers, store.Close)
		if err := store.WaitForReady(ctx, readiness); err != nil {
			return nil, nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		a.logger.Info("Connected to database", zap.String("driver", a.cfg.Database.Driver))

		repo := vectorrepo.New(store).WithHNSW(vectorrepo.HNSWConfig{
			M:           a.cfg.Index.HNSWM,
			EFConstruct: a.cfg.Index.HNSWEFConstruct,
		})
		return repo, store, store, nil

	case config.DriverPostgres:
		pingCtx, cancel := context.WithTimeout(ctx, readiness)
		defer cancel()

		repo, err := pgindex.Open(ctx, a.cfg.Database.DSN)
		if err != nil {
			return nil, nil, nil, err
		}
		a.closers = append(a.closers, repo.Close)
		if err := repo.Ping(pingCtx); err != nil {
			return nil, nil, nil, fmt.Errorf("database not ready: %w", err)
		}
		a.logger.Info("Connected to database", zap.String("driver", a.cfg.Database.Driver))
		return repo, repo, nil, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
	}
}

// Close releases store connections in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// buildEmbedder assembles the decorator chain: provider -> cache -> instrumented -> instruction.
// cache may be nil, in which case embeddings are not cached.
func buildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	cache cacheStore,
	logger *zap.Logger,
) (domain.Embedder, error) {
	var base domain.Embedder
	switch cfg.Provider {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Provider:   cfg.Provider,
			Logger:     logger,
		})
	case config.ProviderOllama:
		e, err := ollamaEmb.NewEmbedder(&ollamaEmb.Config{
			ServerURL: cfg.BaseURL,
			Model:     cfg.Model,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("build ollama embedder: %w", err)
		}
		base = e
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}

	embedder := base
	if cache != nil {
		embedder = embcache.New(base, cache, metrics.EmbeddingCacheTotal, logger).
			WithNamespace(cfg.Model).
			WithTTL(time.Duration(cfg.CacheTTLSec) * time.Second)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Outermost, so the cache key includes the instruction.
	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction), nil
	}
	return embedder, nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	hc, ok := h.embedder.(domain.HealthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("embedding health check: %w", err)
	}
	return nil
}
