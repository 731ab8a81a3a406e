package chi

import (
	"context"

	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/supportkb/internal/usecase/health"
	historyuc "github.com/kailas-cloud/supportkb/internal/usecase/history"
	ingestuc "github.com/kailas-cloud/supportkb/internal/usecase/ingest"
)

// KnowledgeSearcher answers knowledge base queries.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, filters filter.Expression) (result.Knowledge, error)
}

// HistorySearcher answers ticket history queries.
type HistorySearcher interface {
	Search(ctx context.Context, req historyuc.Request) (result.History, error)
}

// IndexRebuilder re-ingests the article corpus into the vector index.
type IndexRebuilder interface {
	Run(ctx context.Context, opts ingestuc.Options) (ingestuc.Report, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
