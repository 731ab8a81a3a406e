package result

import (
	"github.com/kailas-cloud/supportkb/internal/domain"
	"github.com/kailas-cloud/supportkb/internal/domain/search/mode"
)

// Status is the outcome of a search call. Empty results are not errors.
type Status string

const (
	// StatusSuccess means at least one item was returned.
	StatusSuccess Status = "success"
	// StatusNoResults means the search ran but matched nothing.
	StatusNoResults Status = "no_results"
)

// StatusFor returns success for a non-empty list and no_results otherwise.
func StatusFor(n int) Status {
	if n > 0 {
		return StatusSuccess
	}
	return StatusNoResults
}

// Hit is a single nearest-neighbour hit returned by the vector index.
type Hit struct {
	id       string
	score    float64
	metadata domain.Metadata
}

// NewHit creates an index hit. Score is similarity (1 - distance).
func NewHit(id string, score float64, metadata domain.Metadata) Hit {
	return Hit{id: id, score: score, metadata: metadata}
}

// ID returns the document identifier.
func (h *Hit) ID() string { return h.id }

// Score returns the similarity score.
func (h *Hit) Score() float64 { return h.score }

// Distance returns the distance the score was derived from.
func (h *Hit) Distance() float64 { return 1 - h.score }

// Metadata returns the flattened metadata stored alongside the vector.
func (h *Hit) Metadata() domain.Metadata { return h.metadata }

// Article is a knowledge article as shown to the caller.
// Score is similarity for semantic results and a term count for keyword
// results; ScoreKind says which.
type Article struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Score     float64 `json:"score"`
	ScoreKind string  `json:"score_kind"`
}

// Knowledge is the knowledge base search response.
type Knowledge struct {
	Status       Status    `json:"status"`
	Articles     []Article `json:"articles"`
	TotalResults int       `json:"total_results"`
	SearchMethod mode.Mode `json:"search_method"`
	Message      string    `json:"message,omitempty"`
}

// Ticket is a past ticket projected for display.
type Ticket struct {
	TicketID            string  `json:"ticket_id"`
	CustomerID          string  `json:"customer_id"`
	Date                string  `json:"date"`
	Subject             string  `json:"subject"`
	IssueType           string  `json:"issue_type"`
	ProductArea         string  `json:"product_area"`
	Resolution          string  `json:"resolution"`
	ResolutionTimeHours float64 `json:"resolution_time_hours"`
	Satisfaction        string  `json:"satisfaction"`
	Score               int     `json:"score,omitempty"`
}

// TicketFrom projects a history record.
func TicketFrom(t domain.Ticket, score int) Ticket {
	return Ticket{
		TicketID:            t.TicketID,
		CustomerID:          t.CustomerID,
		Date:                t.Date,
		Subject:             t.Subject,
		IssueType:           t.IssueType,
		ProductArea:         t.ProductArea,
		Resolution:          t.Resolution,
		ResolutionTimeHours: t.ResolutionTimeHours,
		Satisfaction:        t.Satisfaction,
		Score:               score,
	}
}

// History is the ticket history search response.
// Aggregates are nil when nothing matched.
type History struct {
	Status                 Status   `json:"status"`
	SimilarTickets         []Ticket `json:"similar_tickets"`
	CommonResolution       *string  `json:"common_resolution,omitempty"`
	AvgResolutionTimeHours *float64 `json:"avg_resolution_time_hours,omitempty"`
	TotalResults           int      `json:"total_results"`
	Message                string   `json:"message,omitempty"`
}
