package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridd/internal/griddb"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

type recordResponse struct {
	RecordID  string `json:"record_id"`
	Schema    string `json:"schema"`
	Owner     string `json:"owner"`
	Custodian string `json:"custodian"`
	Final     bool   `json:"final"`
	ServiceID string `json:"service_id,omitempty"`
}

func toRecordResponse(rec griddb.Record) recordResponse {
	return recordResponse{
		RecordID:  rec.RecordID,
		Schema:    rec.Schema,
		Owner:     rec.Owner,
		Custodian: rec.Custodian,
		Final:     rec.Final,
		ServiceID: rec.ServiceID,
	}
}

type propertyResponse struct {
	Name      string                 `json:"name"`
	RecordID  string                 `json:"record_id"`
	DataType  string                 `json:"data_type"`
	Reporters []string               `json:"reporters"`
	Updates   []griddb.ReportedValue `json:"updates"`
	ServiceID string                 `json:"service_id,omitempty"`
}

func toPropertyResponse(p griddb.Property) propertyResponse {
	updates := p.Updates
	if updates == nil {
		updates = []griddb.ReportedValue{}
	}
	return propertyResponse{
		Name:      p.Name,
		RecordID:  p.RecordID,
		DataType:  p.DataType,
		Reporters: p.Reporters,
		Updates:   updates,
		ServiceID: p.ServiceID,
	}
}

func (s *AppState) listRecords(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())

	records, err := s.store.ListRecords(r.Context(), serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := make([]recordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, toRecordResponse(record))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *AppState) fetchRecord(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())
	recordID := chi.URLParam(r, "record_id")

	record, err := s.store.FetchRecord(r.Context(), recordID, serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(*record))
}

func (s *AppState) fetchRecordProperty(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())
	recordID := chi.URLParam(r, "record_id")
	propertyName := chi.URLParam(r, "property_name")

	property, err := s.store.FetchRecordProperty(r.Context(), recordID, propertyName, serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPropertyResponse(*property))
}
