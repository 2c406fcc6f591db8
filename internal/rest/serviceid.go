package rest

import (
	"net/http"
	"net/url"

	"gridd/internal/platform/config"
	dErrors "gridd/pkg/domain-errors"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

// serviceIDGuard enforces the deployment mode on every ledger route. Circuit
// deployments require a service_id on each request; shared-ledger deployments
// reject one. Accepted values land in the request context for the handlers.
func serviceIDGuard(endpoint config.Endpoint) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query, err := url.ParseQuery(r.URL.RawQuery)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Malformed query param"))
				return
			}

			serviceID := query.Get("service_id")
			switch {
			case serviceID != "" && !endpoint.IsCircuitScoped():
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
					"service_id present, but daemon is running in shared-ledger mode"))
				return
			case serviceID == "" && endpoint.IsCircuitScoped():
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest,
					"service_id is not present, but daemon is running in circuit-scoped mode"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithServiceID(r.Context(), serviceID)))
		})
	}
}
