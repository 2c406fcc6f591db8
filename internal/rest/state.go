package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"gridd/internal/audit"
	"gridd/internal/griddb"
	"gridd/internal/platform/metrics"
	"gridd/internal/submitter"
	dErrors "gridd/pkg/domain-errors"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/platform/sentinel"
)

// AppState bundles everything handlers share: the store (backed by the
// database worker pool), the batch submitter, and optional audit/cache hooks.
// It is built exactly once per server start, inside the server goroutine, and
// shared read-only by every HTTP worker.
type AppState struct {
	store     griddb.Store
	submitter submitter.BatchSubmitter
	cache     *statusCache
	audit     chan<- audit.Event
	log       *slog.Logger
	metrics   *metrics.Metrics
}

func newAppState(store griddb.Store, bs submitter.BatchSubmitter, log *slog.Logger, m *metrics.Metrics) *AppState {
	if log == nil {
		log = slog.Default()
	}
	return &AppState{store: store, submitter: bs, log: log, metrics: m}
}

// writeStoreError maps database-path failures onto response codes. Not-found
// is the only client-visible detail; overload and shutdown surface as 503.
func (s *AppState) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeNotFound, "not found", err))
	case errors.Is(err, sentinel.ErrQueueFull), errors.Is(err, sentinel.ErrClosed):
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "database workers saturated", err))
	default:
		s.log.Error("database operation failed", "path", r.URL.Path, "error", err)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "database operation failed", err))
	}
}

// writeSubmitError maps submitter failures: backend rejections pass through as
// 502 with the backend's message, transport failures as 503.
func (s *AppState) writeSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	if s.metrics != nil {
		s.metrics.SubmitFailures.Inc()
	}

	var submitErr *submitter.SubmitError
	var domainErr *dErrors.DomainError
	switch {
	case errors.As(err, &submitErr):
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeBadGateway, submitErr.Message, err))
	case errors.As(err, &domainErr):
		httputil.WriteError(w, err)
	case errors.Is(err, sentinel.ErrUnavailable):
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeUnavailable, "ledger backend unavailable", err))
	default:
		s.log.Error("batch submission failed", "path", r.URL.Path, "error", err)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "batch submission failed", err))
	}
}
