package rest

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"gridd/internal/audit"
	"gridd/internal/submitter"
	dErrors "gridd/pkg/domain-errors"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

// maxBatchBodySize bounds POST /batches payloads. Batch envelopes are a few
// kilobytes each; anything near the limit is a malformed or hostile request.
const maxBatchBodySize = 4 << 20

func (s *AppState) submitBatches(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBatchBodySize))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "unable to read request body", err))
		return
	}
	if len(body) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "request body is empty"))
		return
	}

	receipt, err := s.submitter.SubmitBatches(r.Context(), submitter.SubmitRequest{
		Batch:     body,
		ServiceID: serviceID,
	})
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}

	if s.metrics != nil {
		s.metrics.BatchesSubmitted.Inc()
	}
	s.recordSubmission(receipt, serviceID)

	httputil.WriteJSON(w, http.StatusAccepted, receipt)
}

// recordSubmission hands the accepted batch IDs to the audit worker. The send
// never blocks; a full inbox drops the event rather than stalling the response.
func (s *AppState) recordSubmission(receipt *submitter.SubmissionReceipt, serviceID string) {
	if s.audit == nil {
		return
	}
	now := time.Now().UTC()
	for _, batchID := range receipt.BatchIDs {
		event := audit.Event{
			ID:          uuid.New(),
			BatchID:     batchID,
			ServiceID:   serviceID,
			Status:      submitter.StatusPending,
			SubmittedAt: now,
		}
		select {
		case s.audit <- event:
		default:
			s.log.Warn("audit inbox full, dropping submission event", "batch_id", batchID)
		}
	}
}

func (s *AppState) getBatchStatuses(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())
	query := r.URL.Query()

	idParam := query.Get("id")
	if idParam == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "query param 'id' is required"))
		return
	}
	batchIDs := strings.Split(idParam, ",")

	var wait time.Duration
	if waitParam := query.Get("wait"); waitParam != "" {
		seconds, err := strconv.Atoi(waitParam)
		if err != nil || seconds < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "query param 'wait' must be a non-negative integer"))
			return
		}
		wait = time.Duration(seconds) * time.Second
	}

	// The cache only short-circuits plain polls; a wait request must reach the
	// backend so it can hold the connection open.
	if wait == 0 {
		if statuses, ok := s.cache.get(r.Context(), batchIDs); ok {
			httputil.WriteJSON(w, http.StatusOK, batchStatusResponse{Data: statuses})
			return
		}
	}

	statuses, err := s.submitter.BatchStatuses(r.Context(), submitter.StatusRequest{
		BatchIDs:  batchIDs,
		ServiceID: serviceID,
		Wait:      wait,
	})
	if err != nil {
		s.writeSubmitError(w, r, err)
		return
	}

	s.cache.put(r.Context(), statuses)
	httputil.WriteJSON(w, http.StatusOK, batchStatusResponse{Data: statuses})
}

type batchStatusResponse struct {
	Data []submitter.BatchStatus `json:"data"`
}
