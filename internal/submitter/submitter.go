// Package submitter is the write path to the ledger network. Implementations
// are selected once at process construction from the configured endpoint mode
// and shared by every HTTP worker; submission is fire-and-forget, with final
// commitment observed later through status polling.
package submitter

import (
	"context"
	"fmt"
	"time"
)

// Batch status values reported by the ledger backend.
const (
	StatusPending   = "PENDING"
	StatusCommitted = "COMMITTED"
	StatusInvalid   = "INVALID"
	StatusUnknown   = "UNKNOWN"
)

// SubmitRequest carries one serialized batch envelope and its circuit scope.
// ServiceID is empty when the daemon runs against a shared ledger.
type SubmitRequest struct {
	Batch     []byte
	ServiceID string
}

// SubmissionReceipt acknowledges that a batch was accepted for processing. It
// is not proof of commitment.
type SubmissionReceipt struct {
	BatchIDs   []string `json:"batch_ids,omitempty"`
	StatusLink string   `json:"link"`
}

// StatusRequest asks for the current status of previously submitted batches.
type StatusRequest struct {
	BatchIDs  []string
	ServiceID string
	// Wait, when positive, asks the backend to hold the request open until the
	// batches settle or the duration elapses.
	Wait time.Duration
}

// BatchStatus is the backend's view of one batch.
type BatchStatus struct {
	ID                  string               `json:"id"`
	Status              string               `json:"status"`
	InvalidTransactions []InvalidTransaction `json:"invalid_transactions,omitempty"`
}

// InvalidTransaction explains why a batch was rejected by validation.
type InvalidTransaction struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BatchSubmitter is the pluggable write-path abstraction. Implementations must
// be safe for concurrent use.
type BatchSubmitter interface {
	SubmitBatches(ctx context.Context, req SubmitRequest) (*SubmissionReceipt, error)
	BatchStatuses(ctx context.Context, req StatusRequest) ([]BatchStatus, error)
}

// SubmitError reports a request the ledger backend answered with an error
// status. Transport-level failures are reported as sentinel.ErrUnavailable
// instead.
type SubmitError struct {
	StatusCode int
	Message    string
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("ledger backend returned %d: %s", e.StatusCode, e.Message)
}
