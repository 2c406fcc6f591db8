package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPersistsEvents(t *testing.T) {
	store := NewMemoryStore()
	inbox := make(chan Event, 4)
	worker := NewWorker(store, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Event{BatchID: "abc123", Status: "PENDING", SubmittedAt: time.Now()}
	inbox <- Event{BatchID: "def456", ServiceID: "circuit1::gsAA", Status: "PENDING", SubmittedAt: time.Now()}

	require.Eventually(t, func() bool {
		return len(store.Events()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	events := store.Events()
	assert.Equal(t, "abc123", events[0].BatchID)
	assert.Equal(t, "circuit1::gsAA", events[1].ServiceID)
}
