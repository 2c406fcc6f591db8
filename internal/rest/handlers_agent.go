package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridd/internal/griddb"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

type agentResponse struct {
	PublicKey string            `json:"public_key"`
	OrgID     string            `json:"org_id"`
	Active    bool              `json:"active"`
	Roles     []string          `json:"roles"`
	Metadata  map[string]string `json:"metadata"`
	ServiceID string            `json:"service_id,omitempty"`
}

func toAgentResponse(a griddb.Agent) agentResponse {
	return agentResponse{
		PublicKey: a.PublicKey,
		OrgID:     a.OrgID,
		Active:    a.Active,
		Roles:     a.Roles,
		Metadata:  a.Metadata,
		ServiceID: a.ServiceID,
	}
}

func (s *AppState) listAgents(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())

	agents, err := s.store.ListAgents(r.Context(), serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := make([]agentResponse, 0, len(agents))
	for _, agent := range agents {
		resp = append(resp, toAgentResponse(agent))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *AppState) fetchAgent(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())
	publicKey := chi.URLParam(r, "public_key")

	agent, err := s.store.FetchAgent(r.Context(), publicKey, serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAgentResponse(*agent))
}
