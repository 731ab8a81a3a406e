package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/domain/search/filter"
	"github.com/kailas-cloud/supportkb/internal/logger"
	healthuc "github.com/kailas-cloud/supportkb/internal/usecase/health"
	historyuc "github.com/kailas-cloud/supportkb/internal/usecase/history"
	ingestuc "github.com/kailas-cloud/supportkb/internal/usecase/ingest"
)

const (
	// MaxQueryLength bounds the free-text query accepted by the search endpoints.
	MaxQueryLength = 2000
	maxBodyBytes   = 1 << 20
)

// KnowledgeSearchRequest is the body of POST /v1/knowledge/search.
type KnowledgeSearchRequest struct {
	Query    string  `json:"query"`
	Category *string `json:"category,omitempty"`
}

// HistorySearchParams are the query parameters of GET /v1/tickets/history.
type HistorySearchParams struct {
	CustomerID *string
	Query      *string
}

// RebuildRequest is the optional body of POST /v1/index/rebuild.
type RebuildRequest struct {
	Keep bool `json:"keep"`
}

// RebuildResponse reports how many articles were indexed.
type RebuildResponse struct {
	Indexed int `json:"indexed"`
	Count   int `json:"count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// Server serves the retrieval API.
type Server struct {
	knowledge     KnowledgeSearcher
	history       HistorySearcher
	rebuild       IndexRebuilder
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. rebuild can be nil, in which case the
// rebuild endpoint is not mounted.
func NewServer(
	knowledge KnowledgeSearcher,
	history HistorySearcher,
	rebuild IndexRebuilder,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		knowledge:     knowledge,
		history:       history,
		rebuild:       rebuild,
		health:        health,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// SearchKnowledge handles POST /v1/knowledge/search.
func (s *Server) SearchKnowledge(w http.ResponseWriter, r *http.Request) {
	var req KnowledgeSearchRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("query must be at most %d characters", MaxQueryLength))
		return
	}

	var filters filter.Expression
	if req.Category != nil {
		f, err := filter.Category(*req.Category)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
			return
		}
		filters = f
	}

	res, err := s.knowledge.Search(r.Context(), req.Query, filters)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SearchHistory handles GET /v1/tickets/history.
func (s *Server) SearchHistory(w http.ResponseWriter, r *http.Request) {
	params, err := bindHistoryParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if params.Query != nil && len(*params.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("query must be at most %d characters", MaxQueryLength))
		return
	}

	res, err := s.history.Search(r.Context(), historyuc.Request{
		CustomerID: params.CustomerID,
		Query:      params.Query,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// bindHistoryParams binds the optional query parameters. An empty query is
// bound to a non-nil empty string; an empty customer_id means no customer.
func bindHistoryParams(r *http.Request) (HistorySearchParams, error) {
	var params HistorySearchParams
	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "customer_id", q, &params.CustomerID); err != nil {
		return HistorySearchParams{}, fmt.Errorf("invalid format for parameter customer_id: %w", err)
	}
	if params.CustomerID != nil && *params.CustomerID == "" {
		params.CustomerID = nil
	}
	if err := runtime.BindQueryParameter("form", true, false, "query", q, &params.Query); err != nil {
		return HistorySearchParams{}, fmt.Errorf("invalid format for parameter query: %w", err)
	}
	return params, nil
}

// RebuildIndex handles POST /v1/index/rebuild.
func (s *Server) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	var req RebuildRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	rep, err := s.rebuild.Run(r.Context(), ingestuc.Options{Keep: req.Keep})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if rep.SmokeErr != nil {
		logger.FromContext(r.Context()).Warn("Smoke query failed after rebuild", zap.Error(rep.SmokeErr))
	}
	writeJSON(w, http.StatusOK, RebuildResponse{Indexed: rep.Indexed, Count: rep.Count})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
