package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics exported by the daemon.
type Metrics struct {
	BatchesSubmitted   prometheus.Counter
	SubmitFailures     prometheus.Counter
	DispatchQueueDepth prometheus.Gauge
	DispatchRejected   prometheus.Counter
	RequestDuration    *prometheus.HistogramVec
}

// New creates and registers all metrics against the given registerer. Passing
// prometheus.DefaultRegisterer wires them to the default /metrics handler;
// tests pass a fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		BatchesSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridd_batches_submitted_total",
			Help: "Total number of batches accepted for ledger submission",
		}),
		SubmitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridd_batch_submit_failures_total",
			Help: "Total number of batch submissions rejected by the ledger backend",
		}),
		DispatchQueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridd_db_dispatch_queue_depth",
			Help: "Number of database operations waiting for a worker",
		}),
		DispatchRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridd_db_dispatch_rejected_total",
			Help: "Total number of database operations rejected because the queue was full",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridd_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
