package submitter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "gridd/pkg/domain-errors"
	"gridd/pkg/platform/sentinel"
)

func TestLedgerSubmitterSubmit(t *testing.T) {
	t.Run("posts batch and parses status link", func(t *testing.T) {
		var gotBody []byte
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/batches", r.URL.Path)
			require.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"link": backendLink(r, "abc123,def456"),
			})
		}))
		defer backend.Close()

		s := NewLedgerSubmitter(backend.URL)
		receipt, err := s.SubmitBatches(context.Background(), SubmitRequest{Batch: []byte("payload")})
		require.NoError(t, err)

		assert.Equal(t, []byte("payload"), gotBody)
		assert.Equal(t, []string{"abc123", "def456"}, receipt.BatchIDs)
		assert.Contains(t, receipt.StatusLink, "batch_statuses")
	})

	t.Run("backend error surfaces as SubmitError", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "invalid batch signature", http.StatusBadRequest)
		}))
		defer backend.Close()

		s := NewLedgerSubmitter(backend.URL)
		_, err := s.SubmitBatches(context.Background(), SubmitRequest{Batch: []byte("bad")})

		var submitErr *SubmitError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, http.StatusBadRequest, submitErr.StatusCode)
		assert.Equal(t, "invalid batch signature", submitErr.Message)
	})

	t.Run("unreachable backend surfaces as unavailable", func(t *testing.T) {
		s := NewLedgerSubmitter("http://127.0.0.1:1", WithHTTPClient(&http.Client{Timeout: 200 * time.Millisecond}))
		_, err := s.SubmitBatches(context.Background(), SubmitRequest{Batch: []byte("x")})
		require.ErrorIs(t, err, sentinel.ErrUnavailable)
	})
}

func TestLedgerSubmitterStatuses(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/batch_statuses", r.URL.Path)
		require.Equal(t, "abc123", r.URL.Query().Get("id"))
		require.Equal(t, "5", r.URL.Query().Get("wait"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []BatchStatus{{ID: "abc123", Status: StatusCommitted}},
		})
	}))
	defer backend.Close()

	s := NewLedgerSubmitter(backend.URL)
	statuses, err := s.BatchStatuses(context.Background(), StatusRequest{
		BatchIDs: []string{"abc123"},
		Wait:     5 * time.Second,
	})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StatusCommitted, statuses[0].Status)
}

func TestCircuitSubmitterScopesURLs(t *testing.T) {
	t.Run("addresses the named circuit service", func(t *testing.T) {
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/scabbard/circuit1/gsAA/batches", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"link": backendLink(r, "abc123")})
		}))
		defer backend.Close()

		s := NewCircuitSubmitter(backend.URL)
		receipt, err := s.SubmitBatches(context.Background(), SubmitRequest{
			Batch:     []byte("payload"),
			ServiceID: "circuit1::gsAA",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"abc123"}, receipt.BatchIDs)
	})

	t.Run("rejects malformed service id", func(t *testing.T) {
		s := NewCircuitSubmitter("http://localhost:8085")
		_, err := s.SubmitBatches(context.Background(), SubmitRequest{
			Batch:     []byte("payload"),
			ServiceID: "not-a-pair",
		})

		var de *dErrors.DomainError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, dErrors.CodeBadRequest, de.Code)
	})
}

func TestMockSubmitterRoundTrip(t *testing.T) {
	m := NewMockSubmitter()

	receipt, err := m.SubmitBatches(context.Background(), SubmitRequest{Batch: []byte("payload")})
	require.NoError(t, err)
	require.Len(t, receipt.BatchIDs, 1)

	statuses, err := m.BatchStatuses(context.Background(), StatusRequest{BatchIDs: receipt.BatchIDs})
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, StatusPending, statuses[0].Status)

	statuses, err = m.BatchStatuses(context.Background(), StatusRequest{BatchIDs: []string{"never-seen"}})
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, statuses[0].Status)
}

// backendLink builds an absolute status link the way a real backend would.
func backendLink(r *http.Request, ids string) string {
	return "http://" + r.Host + "/batch_statuses?id=" + ids
}
