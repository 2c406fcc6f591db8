package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridd/internal/griddb"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

type organizationResponse struct {
	OrgID     string            `json:"org_id"`
	Name      string            `json:"name"`
	Address   string            `json:"address"`
	Metadata  map[string]string `json:"metadata"`
	ServiceID string            `json:"service_id,omitempty"`
}

func toOrganizationResponse(o griddb.Organization) organizationResponse {
	return organizationResponse{
		OrgID:     o.OrgID,
		Name:      o.Name,
		Address:   o.Address,
		Metadata:  o.Metadata,
		ServiceID: o.ServiceID,
	}
}

func (s *AppState) listOrganizations(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())

	orgs, err := s.store.ListOrganizations(r.Context(), serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := make([]organizationResponse, 0, len(orgs))
	for _, org := range orgs {
		resp = append(resp, toOrganizationResponse(org))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *AppState) fetchOrganization(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())
	orgID := chi.URLParam(r, "id")

	org, err := s.store.FetchOrganization(r.Context(), orgID, serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toOrganizationResponse(*org))
}
