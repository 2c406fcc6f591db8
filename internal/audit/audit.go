// Package audit keeps an operational trail of batches this daemon accepted
// for ledger submission. Events are recorded off the request path by a
// background worker; nothing in the API reads them back.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event records one accepted batch submission.
type Event struct {
	ID          uuid.UUID
	BatchID     string
	ServiceID   string
	Status      string
	SubmittedAt time.Time
}

// Store persists submission events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
