package submitter

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	dErrors "gridd/pkg/domain-errors"
)

// CircuitSubmitter talks to a circuit-scoped ledger. Every call is addressed
// to one circuit service, named by a "circuit::service" pair in the request's
// service ID.
type CircuitSubmitter struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// CircuitOption configures a CircuitSubmitter.
type CircuitOption func(*CircuitSubmitter)

// WithCircuitHTTPClient overrides the HTTP client, mainly for tests.
func WithCircuitHTTPClient(client *http.Client) CircuitOption {
	return func(s *CircuitSubmitter) {
		s.client = client
	}
}

// WithCircuitLogger sets a logger for submission failures.
func WithCircuitLogger(log *slog.Logger) CircuitOption {
	return func(s *CircuitSubmitter) {
		s.log = log
	}
}

// NewCircuitSubmitter builds a submitter for a circuit-scoped ledger endpoint.
func NewCircuitSubmitter(baseURL string, opts ...CircuitOption) *CircuitSubmitter {
	s := &CircuitSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultRequestTimeout},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CircuitSubmitter) SubmitBatches(ctx context.Context, req SubmitRequest) (*SubmissionReceipt, error) {
	scope, err := parseServiceID(req.ServiceID)
	if err != nil {
		return nil, err
	}
	submitURL := fmt.Sprintf("%s/scabbard/%s/%s/batches", s.baseURL, scope.circuit, scope.service)
	return postBatches(ctx, s.client, submitURL, req.Batch)
}

func (s *CircuitSubmitter) BatchStatuses(ctx context.Context, req StatusRequest) ([]BatchStatus, error) {
	scope, err := parseServiceID(req.ServiceID)
	if err != nil {
		return nil, err
	}
	statusURL := fmt.Sprintf("%s/scabbard/%s/%s/batch_statuses?%s",
		s.baseURL, scope.circuit, scope.service, statusQuery(req))
	return getStatuses(ctx, s.client, statusURL)
}

type circuitScope struct {
	circuit string
	service string
}

// parseServiceID splits a "circuit::service" identifier. A bare circuit ID
// without a service part is rejected so a malformed scope never reaches the
// backend.
func parseServiceID(serviceID string) (circuitScope, error) {
	circuit, service, found := strings.Cut(serviceID, "::")
	if !found || circuit == "" || service == "" {
		return circuitScope{}, dErrors.New(dErrors.CodeBadRequest,
			fmt.Sprintf("service_id %q is not a circuit::service pair", serviceID))
	}
	return circuitScope{circuit: circuit, service: service}, nil
}
