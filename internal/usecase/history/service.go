package history

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/lexical"
	"github.com/kailas-cloud/supportkb/internal/domain/search/result"
	"github.com/kailas-cloud/supportkb/internal/logger"
	"github.com/kailas-cloud/supportkb/internal/metrics"
)

// MaxTickets caps similar_tickets in one response.
const MaxTickets = 5

const noResultsMessage = "No similar tickets found in history"

// Request holds the optional history filters. A nil field means "not given";
// a non-nil empty Query is given and matches nothing.
type Request struct {
	CustomerID *string
	Query      *string
}

// Service matches past tickets and aggregates their resolutions.
type Service struct {
	corpus Corpus
	limit  int
}

// New creates a ticket history service.
func New(corpus Corpus) *Service {
	return &Service{corpus: corpus, limit: MaxTickets}
}

// Search filters tickets by customer, ranks them by query, and aggregates
// resolution statistics over every match before truncation.
func (s *Service) Search(ctx context.Context, req Request) (result.History, error) {
	tickets, err := s.corpus.Tickets(ctx)
	if err != nil {
		return result.History{}, fmt.Errorf("ticket history: %w", err)
	}

	if req.CustomerID != nil && *req.CustomerID == "" {
		req.CustomerID = nil
	}
	if req.CustomerID != nil {
		kept := make([]domain.Ticket, 0, len(tickets))
		for _, t := range tickets {
			if t.CustomerID == *req.CustomerID {
				kept = append(kept, t)
			}
		}
		tickets = kept
	}

	var matches []lexical.Match[domain.Ticket]
	if req.Query != nil {
		matches = lexical.Rank(*req.Query, tickets, func(t domain.Ticket) lexical.Fields { return t.SearchFields() })
	} else {
		matches = make([]lexical.Match[domain.Ticket], len(tickets))
		for i, t := range tickets {
			matches[i] = lexical.Match[domain.Ticket]{Doc: t, Index: i}
		}
	}

	res := s.build(matches)
	metrics.HistorySearchTotal.WithLabelValues(string(res.Status)).Inc()
	logger.FromContext(ctx).Debug("Ticket history searched",
		zap.Bool("by_customer", req.CustomerID != nil),
		zap.Bool("by_query", req.Query != nil),
		zap.Int("total_results", res.TotalResults),
	)
	return res, nil
}

func (s *Service) build(matches []lexical.Match[domain.Ticket]) result.History {
	if len(matches) == 0 {
		return result.History{
			Status:         result.StatusNoResults,
			SimilarTickets: []result.Ticket{},
			Message:        noResultsMessage,
		}
	}

	top := lexical.Top(matches, s.limit)
	similar := make([]result.Ticket, 0, len(top))
	for _, m := range top {
		similar = append(similar, result.TicketFrom(m.Doc, m.Score))
	}

	common := commonResolution(matches)
	avg := averageResolutionHours(matches)
	return result.History{
		Status:                 result.StatusSuccess,
		SimilarTickets:         similar,
		CommonResolution:       &common,
		AvgResolutionTimeHours: &avg,
		TotalResults:           len(matches),
	}
}

// commonResolution returns the most frequent resolution; ties go to the one seen first.
func commonResolution(matches []lexical.Match[domain.Ticket]) string {
	counts := make(map[string]int, len(matches))
	order := make([]string, 0, len(matches))
	for _, m := range matches {
		r := m.Doc.Resolution
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}

	var best string
	bestCount := 0
	for _, r := range order {
		if counts[r] > bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}

// averageResolutionHours returns the mean resolution time rounded to one decimal.
func averageResolutionHours(matches []lexical.Match[domain.Ticket]) float64 {
	var sum float64
	for _, m := range matches {
		sum += m.Doc.ResolutionTimeHours
	}
	return math.Round(sum/float64(len(matches))*10) / 10
}
