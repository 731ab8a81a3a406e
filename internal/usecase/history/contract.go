package history

import (
	"context"

	"github.com/kailas-cloud/supportkb/internal/domain"
)

// Corpus serves the static ticket-history corpus.
type Corpus interface {
	Tickets(ctx context.Context) ([]domain.Ticket, error)
}
