// Package ollama provides a local embedding provider backed by an Ollama server.
package ollama

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/metrics"
)

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "nomic-embed-text:latest"
	// DefaultServerURL is the local Ollama endpoint.
	DefaultServerURL = "http://localhost:11434"

	providerName = "ollama"
	healthProbe  = "health check"
)

// Config holds the Ollama provider settings.
type Config struct {
	ServerURL string
	Model     string
	BatchSize int
	Logger    *zap.Logger
}

// Embedder implements domain.Embedder and domain.BatchEmbedder over langchaingo.
// Ollama reports no token usage, so results carry zero token counts.
type Embedder struct {
	impl   embeddings.Embedder
	model  string
	logger *zap.Logger
}

// NewEmbedder connects an Ollama-backed embedder.
func NewEmbedder(cfg *Config) (*Embedder, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}

	llm, err := ollama.New(ollama.WithModel(cfg.Model), ollama.WithServerURL(cfg.ServerURL))
	if err != nil {
		return nil, fmt.Errorf("init ollama client: %w", err)
	}

	opts := []embeddings.Option{embeddings.WithStripNewLines(false)}
	if cfg.BatchSize > 0 {
		opts = append(opts, embeddings.WithBatchSize(cfg.BatchSize))
	}
	impl, err := embeddings.NewEmbedder(llm, opts...)
	if err != nil {
		return nil, fmt.Errorf("init ollama embedder: %w", err)
	}

	return Wrap(impl, cfg.Model, cfg.Logger), nil
}

// Wrap adapts an existing langchaingo embedder.
func Wrap(impl embeddings.Embedder, model string, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{impl: impl, model: model, logger: logger}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()

	vec, err := e.impl.EmbedQuery(ctx, text)
	if err != nil {
		e.recordError("api_error")
		return domain.EmbeddingResult{}, fmt.Errorf("ollama embed: %w: %w", domain.ErrEmbeddingService, err)
	}
	if len(vec) == 0 {
		e.recordError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("ollama returned an empty vector: %w", domain.ErrEmbeddingService)
	}

	e.recordSuccess(time.Since(start))
	return domain.EmbeddingResult{Embedding: vec}, nil
}

// BatchEmbed implements domain.BatchEmbedder.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	start := time.Now()

	vecs, err := e.impl.EmbedDocuments(ctx, texts)
	if err != nil {
		e.recordError("api_error")
		return domain.BatchEmbeddingResult{}, fmt.Errorf("ollama batch embed: %w: %w", domain.ErrEmbeddingService, err)
	}
	if len(vecs) != len(texts) {
		e.recordError("count_mismatch")
		return domain.BatchEmbeddingResult{}, fmt.Errorf("ollama returned %d vectors for %d inputs: %w",
			len(vecs), len(texts), domain.ErrEmbeddingService)
	}

	e.recordSuccess(time.Since(start))
	e.logger.Debug("Ollama batch embedded",
		zap.String("model", e.model),
		zap.Int("inputs", len(texts)),
	)
	return domain.BatchEmbeddingResult{Embeddings: vecs}, nil
}

// HealthCheck embeds a short string; Ollama has no cheaper liveness call through this client.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.impl.EmbedQuery(ctx, healthProbe); err != nil {
		return fmt.Errorf("ollama health: %w", err)
	}
	return nil
}

func (e *Embedder) recordSuccess(d time.Duration) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(providerName, e.model).Observe(d.Seconds())
}

func (e *Embedder) recordError(kind string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(providerName, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(providerName, e.model, kind).Inc()
}
