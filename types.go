package supportkb

import (
	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/mode"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
)

// Response types shared with the HTTP API.
type (
	// KnowledgeResult is the knowledge base search response.
	KnowledgeResult = result.Knowledge
	// Article is one knowledge base article in a KnowledgeResult.
	Article = result.Article
	// HistoryResult is the ticket history search response.
	HistoryResult = result.History
	// Ticket is one past ticket in a HistoryResult.
	Ticket = result.Ticket
	// Status is success or no_results.
	Status = result.Status
	// SearchMethod says which strategy produced a KnowledgeResult.
	SearchMethod = mode.Mode
)

// Status and search method values.
const (
	StatusSuccess   = result.StatusSuccess
	StatusNoResults = result.StatusNoResults

	MethodSemantic = mode.Semantic
	MethodKeyword  = mode.Keyword
)

// Errors returned by the client. Check with errors.Is.
var (
	// ErrCorpusUnavailable means the article or ticket corpus could not be read.
	ErrCorpusUnavailable = domain.ErrCorpusUnavailable
	// ErrInvalidInput means an argument or option was rejected.
	ErrInvalidInput = domain.ErrInvalidInput
	// ErrEmbeddingService means the embedding provider failed during Rebuild.
	ErrEmbeddingService = domain.ErrEmbeddingService
)

// HistoryQuery selects past tickets. A nil field is not applied; a non-nil
// empty Query is applied and matches nothing.
type HistoryQuery struct {
	CustomerID *string
	Query      *string
}

// String returns a pointer to s, for HistoryQuery fields.
func String(s string) *string { return &s }

// RebuildReport summarizes a Rebuild.
type RebuildReport struct {
	Indexed int
	Count   int
}
