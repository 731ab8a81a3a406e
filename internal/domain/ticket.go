package domain

import "github.com/kailas-cloud/supportkb/internal/domain/search/lexical"

// Ticket is an immutable record of a past support ticket.
type Ticket struct {
	TicketID            string  `json:"ticket_id"`
	CustomerID          string  `json:"customer_id"`
	Subject             string  `json:"subject"`
	IssueType           string  `json:"issue_type"`
	ProductArea         string  `json:"product_area"`
	Resolution          string  `json:"resolution"`
	ResolutionTimeHours float64 `json:"resolution_time_hours"`
	Satisfaction        string  `json:"satisfaction"`
	Date                string  `json:"date"`
}

// SearchFields returns the fields matched by history queries. Tickets carry no tags.
func (t *Ticket) SearchFields() lexical.Fields {
	return lexical.Fields{Text: []string{t.Subject, t.IssueType, t.ProductArea}}
}
