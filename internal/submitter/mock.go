package submitter

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MockSubmitter is an in-memory BatchSubmitter for tests and local runs. It
// acknowledges every batch as PENDING and serves statuses from its own map.
type MockSubmitter struct {
	mu       sync.Mutex
	statuses map[string]BatchStatus
	requests []SubmitRequest

	// SubmitErr, when set, is returned by SubmitBatches to simulate a failing
	// backend.
	SubmitErr error
}

// NewMockSubmitter returns an empty mock.
func NewMockSubmitter() *MockSubmitter {
	return &MockSubmitter{statuses: make(map[string]BatchStatus)}
}

func (m *MockSubmitter) SubmitBatches(_ context.Context, req SubmitRequest) (*SubmissionReceipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SubmitErr != nil {
		return nil, m.SubmitErr
	}

	batchID := uuid.NewString()
	m.statuses[batchID] = BatchStatus{ID: batchID, Status: StatusPending}
	m.requests = append(m.requests, req)

	return &SubmissionReceipt{
		BatchIDs:   []string{batchID},
		StatusLink: "/batch_statuses?id=" + batchID,
	}, nil
}

func (m *MockSubmitter) BatchStatuses(_ context.Context, req StatusRequest) ([]BatchStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]BatchStatus, 0, len(req.BatchIDs))
	for _, id := range req.BatchIDs {
		if status, ok := m.statuses[id]; ok {
			statuses = append(statuses, status)
		} else {
			statuses = append(statuses, BatchStatus{ID: id, Status: StatusUnknown})
		}
	}
	return statuses, nil
}

// SetStatus overrides the stored status of a batch.
func (m *MockSubmitter) SetStatus(batchID, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[batchID] = BatchStatus{ID: batchID, Status: status}
}

// Requests returns a copy of every submit request seen so far.
func (m *MockSubmitter) Requests() []SubmitRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SubmitRequest{}, m.requests...)
}
