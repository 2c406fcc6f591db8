package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"gridd/internal/griddb"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

type productResponse struct {
	ProductID        string                 `json:"product_id"`
	ProductNamespace string                 `json:"product_namespace"`
	Owner            string                 `json:"owner"`
	Properties       []griddb.PropertyValue `json:"properties"`
	ServiceID        string                 `json:"service_id,omitempty"`
}

func toProductResponse(p griddb.Product) productResponse {
	properties := p.Properties
	if properties == nil {
		properties = []griddb.PropertyValue{}
	}
	return productResponse{
		ProductID:        p.ProductID,
		ProductNamespace: p.ProductNamespace,
		Owner:            p.Owner,
		Properties:       properties,
		ServiceID:        p.ServiceID,
	}
}

func (s *AppState) listProducts(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())

	products, err := s.store.ListProducts(r.Context(), serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, product := range products {
		resp = append(resp, toProductResponse(product))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (s *AppState) fetchProduct(w http.ResponseWriter, r *http.Request) {
	serviceID := requestcontext.ServiceID(r.Context())
	productID := chi.URLParam(r, "id")

	product, err := s.store.FetchProduct(r.Context(), productID, serviceID)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProductResponse(*product))
}
