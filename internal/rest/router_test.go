package rest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gridd/internal/griddb"
	"gridd/internal/platform/config"
	"gridd/internal/submitter"
)

func newTestRouter(t *testing.T, endpoint config.Endpoint) (*griddb.MemStore, *submitter.MockSubmitter, http.Handler) {
	t.Helper()
	store := griddb.NewMemStore()
	mock := submitter.NewMockSubmitter()
	state := newAppState(store, mock, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	return store, mock, NewRouter(state, endpoint)
}

func sharedEndpoint() config.Endpoint {
	return config.ParseEndpoint("http://ledger.example:8008")
}

func circuitEndpoint() config.Endpoint {
	return config.ParseEndpoint("splinter:http://splinterd.example:8085")
}

func errorDescription(t *testing.T, body []byte) string {
	t.Helper()
	var envelope struct {
		Description string `json:"error_description"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Description
}

func TestServiceIDGuard(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   config.Endpoint
		target     string
		wantStatus int
		wantDesc   string
	}{
		{
			name:       "shared mode without service_id accepted",
			endpoint:   sharedEndpoint(),
			target:     "/agent",
			wantStatus: http.StatusOK,
		},
		{
			name:       "shared mode with service_id rejected",
			endpoint:   sharedEndpoint(),
			target:     "/agent?service_id=circuit1::gsAA",
			wantStatus: http.StatusBadRequest,
			wantDesc:   "service_id present, but daemon is running in shared-ledger mode",
		},
		{
			name:       "circuit mode with service_id accepted",
			endpoint:   circuitEndpoint(),
			target:     "/agent?service_id=circuit1::gsAA",
			wantStatus: http.StatusOK,
		},
		{
			name:       "circuit mode without service_id rejected",
			endpoint:   circuitEndpoint(),
			target:     "/agent",
			wantStatus: http.StatusBadRequest,
			wantDesc:   "service_id is not present, but daemon is running in circuit-scoped mode",
		},
		{
			name:       "malformed query rejected",
			endpoint:   sharedEndpoint(),
			target:     "/agent?service_id=%zz",
			wantStatus: http.StatusBadRequest,
			wantDesc:   "Malformed query param",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, router := newTestRouter(t, tt.endpoint)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantDesc != "" {
				assert.Equal(t, tt.wantDesc, errorDescription(t, rec.Body.Bytes()))
			}
		})
	}
}

func TestGuardDoesNotCoverProbes(t *testing.T) {
	_, _, router := newTestRouter(t, circuitEndpoint())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFetchAgent(t *testing.T) {
	store, _, router := newTestRouter(t, sharedEndpoint())
	store.AddAgent(griddb.Agent{
		PublicKey: "02a1b2",
		OrgID:     "myorg",
		Active:    true,
		Roles:     []string{"admin"},
		Metadata:  map[string]string{"region": "eu"},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent/02a1b2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var agent agentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &agent))
	assert.Equal(t, "02a1b2", agent.PublicKey)
	assert.Equal(t, "myorg", agent.OrgID)
	assert.True(t, agent.Active)
	assert.Empty(t, agent.ServiceID)
}

func TestFetchAgentNotFound(t *testing.T) {
	_, _, router := newTestRouter(t, sharedEndpoint())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/agent/deadbeef", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListScopedToCircuit(t *testing.T) {
	store, _, router := newTestRouter(t, circuitEndpoint())
	store.AddOrganization(griddb.Organization{OrgID: "scoped", ServiceID: "circuit1::gsAA"})
	store.AddOrganization(griddb.Organization{OrgID: "other", ServiceID: "circuit2::gsBB"})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/organization?service_id=circuit1::gsAA", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var orgs []organizationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &orgs))
	require.Len(t, orgs, 1)
	assert.Equal(t, "scoped", orgs[0].OrgID)
	assert.Equal(t, "circuit1::gsAA", orgs[0].ServiceID)
}

func TestListEmptyReturnsArray(t *testing.T) {
	_, _, router := newTestRouter(t, sharedEndpoint())

	for _, target := range []string{"/agent", "/organization", "/product", "/schema", "/record"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "[]\n", rec.Body.String(), target)
	}
}

func TestFetchRecordProperty(t *testing.T) {
	store, _, router := newTestRouter(t, sharedEndpoint())
	store.AddRecord(griddb.Record{RecordID: "fish-001", Schema: "fish", Owner: "myorg"})
	store.AddProperty(griddb.Property{
		Name:      "temperature",
		RecordID:  "fish-001",
		DataType:  "NUMBER",
		Reporters: []string{"02a1b2"},
		Updates: []griddb.ReportedValue{{
			Timestamp: 1700000000,
			Reporter:  "02a1b2",
			Value:     griddb.PropertyValue{Name: "temperature", DataType: "NUMBER", NumberValue: -4},
		}},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/record/fish-001/property/temperature", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var property propertyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &property))
	assert.Equal(t, "NUMBER", property.DataType)
	require.Len(t, property.Updates, 1)
	assert.Equal(t, int64(-4), property.Updates[0].Value.NumberValue)
}

func TestSubmitBatches(t *testing.T) {
	_, mock, router := newTestRouter(t, sharedEndpoint())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader("batch-envelope-bytes"))
	req.Header.Set("Content-Type", "application/octet-stream")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var receipt submitter.SubmissionReceipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	require.Len(t, receipt.BatchIDs, 1)
	assert.Contains(t, receipt.StatusLink, receipt.BatchIDs[0])

	requests := mock.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, []byte("batch-envelope-bytes"), requests[0].Batch)
	assert.Empty(t, requests[0].ServiceID)
}

func TestSubmitBatchesEmptyBody(t *testing.T) {
	_, _, router := newTestRouter(t, sharedEndpoint())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batches", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitBatchesCarriesServiceID(t *testing.T) {
	_, mock, router := newTestRouter(t, circuitEndpoint())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batches?service_id=circuit1::gsAA", strings.NewReader("payload"))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	requests := mock.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "circuit1::gsAA", requests[0].ServiceID)
}

func TestSubmitBatchesBackendRejection(t *testing.T) {
	_, mock, router := newTestRouter(t, sharedEndpoint())
	mock.SubmitErr = &submitter.SubmitError{StatusCode: http.StatusBadRequest, Message: "invalid batch header"}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/batches", strings.NewReader("payload")))

	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "invalid batch header", errorDescription(t, rec.Body.Bytes()))
}

func TestGetBatchStatuses(t *testing.T) {
	_, mock, router := newTestRouter(t, sharedEndpoint())
	mock.SetStatus("abc123", submitter.StatusCommitted)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batch_statuses?id=abc123,unseen", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchStatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, submitter.StatusCommitted, resp.Data[0].Status)
	assert.Equal(t, submitter.StatusUnknown, resp.Data[1].Status)
}

func TestGetBatchStatusesParamValidation(t *testing.T) {
	_, _, router := newTestRouter(t, sharedEndpoint())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batch_statuses", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/batch_statuses?id=abc123&wait=soon", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
