package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gridd/internal/platform/config"
	"gridd/pkg/platform/httputil"
	"gridd/pkg/requestcontext"
)

// NewRouter builds the daemon's route tree. Ledger routes sit behind the
// deployment-mode guard; /health and /metrics do not, so probes keep working
// regardless of mode.
func NewRouter(state *AppState, endpoint config.Endpoint) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(instrument(state))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(serviceIDGuard(endpoint))

		r.Post("/batches", state.submitBatches)
		r.Get("/batch_statuses", state.getBatchStatuses)

		r.Get("/agent", state.listAgents)
		r.Get("/agent/{public_key}", state.fetchAgent)

		r.Get("/organization", state.listOrganizations)
		r.Get("/organization/{id}", state.fetchOrganization)

		r.Get("/product", state.listProducts)
		r.Get("/product/{id}", state.fetchProduct)

		r.Get("/schema", state.listSchemas)
		r.Get("/schema/{name}", state.fetchSchema)

		r.Get("/record", state.listRecords)
		r.Get("/record/{record_id}", state.fetchRecord)
		r.Get("/record/{record_id}/property/{property_name}", state.fetchRecordProperty)
	})

	return r
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(requestcontext.WithRequestID(r.Context(), requestID)))
	})
}

// instrument records request latency per chi route pattern so path parameters
// do not explode label cardinality.
func instrument(state *AppState) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if state.metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			state.metrics.RequestDuration.
				WithLabelValues(route, strconv.Itoa(ww.Status())).
				Observe(time.Since(start).Seconds())
		})
	}
}
