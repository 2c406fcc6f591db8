package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridd/internal/griddb"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

type schemaResponse struct {
	Name        string                      `json:"name"`
	Description string                      `json:"description"`
	Owner       string                      `json:"owner"`
	Properties  []griddb.PropertyDefinition `json:"properties"`
	ServiceID   string                      `json:"service_id,omitempty"`
}

func toSchemaResponse(sc griddb.Schema) schemaResponse {
	properties := sc.Properties
	if properties == nil {
		properties = []griddb.PropertyDefinition{}
	}
	return schemaResponse{
		Name:        sc.Name,
		Description: sc.Description,
		Owner:       sc.Owner,
		Properties:  properties,
		ServiceID:   sc.ServiceID,
	}
}

func (s *AppState) listSchemas(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())

	schemas, err := s.store.ListSchemas(r.Context(), serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := make([]schemaResponse, 0, len(schemas))
	for _, schema := range schemas {
		resp = append(resp, toSchemaResponse(schema))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *AppState) fetchSchema(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())
	name := chi.URLParam(r, "name")

	schema, err := s.store.FetchSchema(r.Context(), name, serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSchemaResponse(*schema))
}
