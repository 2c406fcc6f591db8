package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridd/internal/audit"
	"gridd/internal/griddb"
	"gridd/internal/submitter"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startTestServer(t *testing.T, opts ...Option) (*ShutdownHandle, <-chan error, *submitter.MockSubmitter) {
	t.Helper()

	mock := submitter.NewMockSubmitter()
	opts = append([]Option{
		WithStore(griddb.NewMemStore()),
		WithLogger(testLogger()),
		WithShutdownGrace(2 * time.Second),
	}, opts...)

	handle, done, err := Run("127.0.0.1:0", nil, mock, sharedEndpoint(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = handle.Shutdown() })
	return handle, done, mock
}

func TestRunServesAndShutsDown(t *testing.T) {
	handle, done, _ := startTestServer(t)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", handle.Addr()))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, handle.Shutdown())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server goroutine did not terminate")
	}

	// The port must be released once Shutdown returns.
	ln, err := net.Listen("tcp", handle.Addr())
	require.NoError(t, err)
	ln.Close()
}

func TestShutdownIsIdempotent(t *testing.T) {
	handle, done, _ := startTestServer(t)

	require.NoError(t, handle.Shutdown())
	require.NoError(t, handle.Shutdown())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server goroutine did not terminate")
	}
}

func TestRunBindFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	handle, done, err := Run(ln.Addr().String(), nil, submitter.NewMockSubmitter(), sharedEndpoint(),
		WithStore(griddb.NewMemStore()),
		WithLogger(testLogger()),
	)
	require.Error(t, err)
	assert.Nil(t, handle)
	assert.Nil(t, done)

	var startupErr *StartUpError
	require.ErrorAs(t, err, &startupErr)
	assert.Equal(t, "unable to bind listener", startupErr.Reason)
}

func TestSubmitThenPoll(t *testing.T) {
	handle, _, mock := startTestServer(t)
	base := "http://" + handle.Addr()

	resp, err := http.Post(base+"/batches", "application/octet-stream", strings.NewReader("batch-bytes"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var receipt submitter.SubmissionReceipt
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&receipt))
	require.Len(t, receipt.BatchIDs, 1)
	batchID := receipt.BatchIDs[0]

	poll, err := http.Get(base + "/batch_statuses?id=" + batchID)
	require.NoError(t, err)
	defer poll.Body.Close()
	require.Equal(t, http.StatusOK, poll.StatusCode)

	var statuses batchStatusResponse
	require.NoError(t, json.NewDecoder(poll.Body).Decode(&statuses))
	require.Len(t, statuses.Data, 1)
	assert.Equal(t, batchID, statuses.Data[0].ID)
	assert.Equal(t, submitter.StatusPending, statuses.Data[0].Status)

	// After the backend commits, the same poll reflects it.
	mock.SetStatus(batchID, submitter.StatusCommitted)
	poll2, err := http.Get(base + "/batch_statuses?id=" + batchID)
	require.NoError(t, err)
	defer poll2.Body.Close()

	statuses = batchStatusResponse{}
	require.NoError(t, json.NewDecoder(poll2.Body).Decode(&statuses))
	assert.Equal(t, submitter.StatusCommitted, statuses.Data[0].Status)
}

func TestSubmitFeedsAuditTrail(t *testing.T) {
	inbox := make(chan audit.Event, 8)
	handle, _, _ := startTestServer(t, WithAuditInbox(inbox))

	resp, err := http.Post("http://"+handle.Addr()+"/batches", "application/octet-stream", strings.NewReader("batch-bytes"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case event := <-inbox:
		assert.NotEmpty(t, event.BatchID)
		assert.Equal(t, submitter.StatusPending, event.Status)
		assert.Empty(t, event.ServiceID)
	case <-time.After(time.Second):
		t.Fatal("no audit event recorded")
	}
}

func TestStartUpErrorMessage(t *testing.T) {
	err := &StartUpError{Reason: "timed out waiting for server handle"}
	assert.Equal(t, "rest api startup: timed out waiting for server handle", err.Error())
}
