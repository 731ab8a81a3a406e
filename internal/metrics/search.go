package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics.
var (
	KnowledgeSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "supportkb",
			Name:      "knowledge_search_total",
			Help:      "Knowledge base searches by the method that produced the result",
		},
		[]string{"method", "status"},
	)

	KnowledgeSearchFallbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "supportkb",
			Name:      "knowledge_search_fallback_total",
			Help:      "Knowledge base searches degraded to keyword matching",
		},
		[]string{"reason"}, // "embedding" / "index_unavailable" / "other"
	)

	HistorySearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "supportkb",
			Name:      "history_search_total",
			Help:      "Ticket history searches",
		},
		[]string{"status"},
	)

	QueryEmbeddingTokens = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "supportkb",
			Name:      "query_embedding_tokens_total",
			Help:      "Tokens spent embedding knowledge base queries",
		},
	)

	VectorQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "supportkb",
			Name:      "vector_query_duration_seconds",
			Help:      "Vector index query duration in seconds, embedding included",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"collection", "status"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers retrieval metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(KnowledgeSearchTotal)
	prometheus.MustRegister(KnowledgeSearchFallbackTotal)
	prometheus.MustRegister(HistorySearchTotal)
	prometheus.MustRegister(QueryEmbeddingTokens)
	prometheus.MustRegister(VectorQueryDuration)
	searchMetricsRegistered = true
}
