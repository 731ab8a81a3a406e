package domain

import "context"

type embeddingUsageKey struct{}

// EmbeddingUsage collects query embedding tokens for one knowledge search.
// The search service stores a pointer in the context; the vector index adds
// to it after embedding the query.
type EmbeddingUsage struct {
	TotalTokens int
	Used        bool // set once the query was embedded, cache hits included
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens. Safe on a nil receiver.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u != nil {
		u.TotalTokens += n
		u.Used = true
	}
}
