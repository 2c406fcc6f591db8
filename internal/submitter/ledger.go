package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gridd/pkg/platform/sentinel"
)

const defaultRequestTimeout = 10 * time.Second

// LedgerSubmitter talks to a shared ledger's REST endpoint. Requests must not
// carry a service scope; the guard upstream enforces that.
type LedgerSubmitter struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

// LedgerOption configures a LedgerSubmitter.
type LedgerOption func(*LedgerSubmitter)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(client *http.Client) LedgerOption {
	return func(s *LedgerSubmitter) {
		s.client = client
	}
}

// WithLogger sets a logger for submission failures.
func WithLogger(log *slog.Logger) LedgerOption {
	return func(s *LedgerSubmitter) {
		s.log = log
	}
}

// NewLedgerSubmitter builds a submitter for the shared ledger REST endpoint.
func NewLedgerSubmitter(baseURL string, opts ...LedgerOption) *LedgerSubmitter {
	s := &LedgerSubmitter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultRequestTimeout},
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *LedgerSubmitter) SubmitBatches(ctx context.Context, req SubmitRequest) (*SubmissionReceipt, error) {
	return postBatches(ctx, s.client, s.baseURL+"/batches", req.Batch)
}

func (s *LedgerSubmitter) BatchStatuses(ctx context.Context, req StatusRequest) ([]BatchStatus, error) {
	statusURL := s.baseURL + "/batch_statuses?" + statusQuery(req)
	return getStatuses(ctx, s.client, statusURL)
}

func statusQuery(req StatusRequest) string {
	q := url.Values{}
	q.Set("id", strings.Join(req.BatchIDs, ","))
	if req.Wait > 0 {
		q.Set("wait", strconv.Itoa(int(req.Wait.Seconds())))
	}
	return q.Encode()
}

// postBatches submits a serialized batch envelope and decodes the returned
// status link. Shared by both submitter implementations.
func postBatches(ctx context.Context, client *http.Client, submitURL string, batch []byte) (*SubmissionReceipt, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, bytes.NewReader(batch))
	if err != nil {
		return nil, fmt.Errorf("build submit request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("submit batches: %w (%v)", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readSubmitError(resp)
	}

	var body struct {
		Link string `json:"link"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode submit response: %w", err)
	}

	return &SubmissionReceipt{
		BatchIDs:   batchIDsFromLink(body.Link),
		StatusLink: body.Link,
	}, nil
}

func getStatuses(ctx context.Context, client *http.Client, statusURL string) ([]BatchStatus, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("poll batch statuses: %w (%v)", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, readSubmitError(resp)
	}

	var body struct {
		Data []BatchStatus `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return body.Data, nil
}

func readSubmitError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &SubmitError{
		StatusCode: resp.StatusCode,
		Message:    strings.TrimSpace(string(msg)),
	}
}

// batchIDsFromLink pulls the batch IDs out of a backend status link so callers
// can poll without parsing the link themselves.
func batchIDsFromLink(link string) []string {
	u, err := url.Parse(link)
	if err != nil {
		return nil
	}
	ids := u.Query().Get("id")
	if ids == "" {
		return nil
	}
	return strings.Split(ids, ",")
}
