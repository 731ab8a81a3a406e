package result

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kailas-cloud/supportkb/internal/domain"
)

func TestNewHit(t *testing.T) {
	md := domain.Metadata{Category: "billing", Title: "Payment", Tags: "billing|payment"}
	h := NewHit("billing_payment", 0.75, md)

	if h.ID() != "billing_payment" {
		t.Errorf("ID() = %q", h.ID())
	}
	if h.Score() != 0.75 {
		t.Errorf("Score() = %f", h.Score())
	}
	if h.Distance() != 0.25 {
		t.Errorf("Distance() = %f", h.Distance())
	}
	if h.Metadata().Category != "billing" {
		t.Errorf("Metadata() = %+v", h.Metadata())
	}
}

func TestStatusFor(t *testing.T) {
	if StatusFor(0) != StatusNoResults {
		t.Errorf("StatusFor(0) = %q", StatusFor(0))
	}
	if StatusFor(2) != StatusSuccess {
		t.Errorf("StatusFor(2) = %q", StatusFor(2))
	}
}

func TestHistory_OmitsUndefinedAggregates(t *testing.T) {
	b, err := json.Marshal(History{Status: StatusNoResults, SimilarTickets: []Ticket{}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if strings.Contains(s, "common_resolution") || strings.Contains(s, "avg_resolution_time_hours") {
		t.Errorf("aggregates should be omitted: %s", s)
	}
	if !strings.Contains(s, `"similar_tickets":[]`) {
		t.Errorf("similar_tickets should be an empty array: %s", s)
	}
}

func TestHistory_ZeroAverageIsKept(t *testing.T) {
	avg := 0.0
	res := "restart"
	b, _ := json.Marshal(History{CommonResolution: &res, AvgResolutionTimeHours: &avg})
	if !strings.Contains(string(b), `"avg_resolution_time_hours":0`) {
		t.Errorf("zero average must be present: %s", b)
	}
}

func TestTicketFrom(t *testing.T) {
	tk := TicketFrom(domain.Ticket{
		TicketID: "T-1", CustomerID: "CUST-001", Subject: "Error 500",
		IssueType: "bug", ProductArea: "api", Resolution: "patched",
		ResolutionTimeHours: 4.5, Satisfaction: "high", Date: "2024-01-02",
	}, 2)
	if tk.TicketID != "T-1" || tk.Resolution != "patched" || tk.ResolutionTimeHours != 4.5 || tk.Score != 2 {
		t.Errorf("unexpected projection: %+v", tk)
	}
}
