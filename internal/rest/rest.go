// Package rest hosts the daemon's HTTP API. Run starts the server on its own
// goroutine and hands a live, stoppable handle back to the caller; everything
// the handlers share is built inside that goroutine exactly once.
package rest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"gridd/internal/audit"
	"gridd/internal/executor"
	"gridd/internal/griddb"
	"gridd/internal/platform/config"
	"gridd/internal/platform/metrics"
	platformredis "gridd/internal/platform/redis"
	"gridd/internal/submitter"
)

const (
	defaultShutdownGrace = 10 * time.Second
	// defaultStartTimeout bounds the wait for the server handle so a wedged
	// startup fails instead of hanging the caller.
	defaultStartTimeout = 10 * time.Second

	readHeaderTimeout = 5 * time.Second
)

// StartUpError is fatal: the server could not reach a serving state and the
// process must not proceed.
type StartUpError struct {
	Reason string
	cause  error
}

func (e *StartUpError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("rest api startup: %s: %v", e.Reason, e.cause)
	}
	return "rest api startup: " + e.Reason
}

func (e *StartUpError) Unwrap() error {
	return e.cause
}

type options struct {
	grace        time.Duration
	startTimeout time.Duration
	log          *slog.Logger
	metrics      *metrics.Metrics
	store        griddb.Store
	dbWorkers    int
	dbQueueDepth int
	auditInbox   chan<- audit.Event
	cacheClient  *platformredis.Client
	cacheTTL     time.Duration
}

// Option configures Run.
type Option func(*options)

// WithShutdownGrace bounds how long Shutdown waits for in-flight requests.
func WithShutdownGrace(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.grace = d
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics wires Prometheus metrics through the server and executor.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithStore overrides the database-backed store; used by tests that run
// against in-memory state.
func WithStore(store griddb.Store) Option {
	return func(o *options) { o.store = store }
}

// WithDBWorkers sets the database worker-pool size.
func WithDBWorkers(n int) Option {
	return func(o *options) { o.dbWorkers = n }
}

// WithDBQueueDepth bounds the database dispatch queue.
func WithDBQueueDepth(n int) Option {
	return func(o *options) { o.dbQueueDepth = n }
}

// WithAuditInbox wires the submission audit trail.
func WithAuditInbox(inbox chan<- audit.Event) Option {
	return func(o *options) { o.auditInbox = inbox }
}

// WithStatusCache enables redis-backed caching of batch status polls.
func WithStatusCache(client *platformredis.Client, ttl time.Duration) Option {
	return func(o *options) {
		o.cacheClient = client
		o.cacheTTL = ttl
	}
}

func withStartTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.startTimeout = d
		}
	}
}

// ShutdownHandle wraps the running server. Shutdown blocks the calling
// goroutine until the listener has stopped and in-flight requests drained or
// the grace period expired. Safe to call more than once; repeat calls return
// the first outcome.
type ShutdownHandle struct {
	srv   *http.Server
	exec  *executor.Executor
	addr  string
	grace time.Duration
	log   *slog.Logger

	once sync.Once
	err  error
}

// Addr returns the bound listener address, useful when binding port 0.
func (h *ShutdownHandle) Addr() string {
	return h.addr
}

// Shutdown gracefully stops the server, then the database workers.
func (h *ShutdownHandle) Shutdown() error {
	h.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.grace)
		defer cancel()

		if err := h.srv.Shutdown(ctx); err != nil {
			h.log.Warn("grace period expired, closing server", "error", err)
			_ = h.srv.Close()
			h.err = err
		}

		if h.exec != nil {
			h.exec.Close()
		}
	})
	return h.err
}

type startup struct {
	srv  *http.Server
	exec *executor.Executor
	addr string
	err  error
}

// Run binds the REST API and returns once it is serving. The returned channel
// is the join handle for the server goroutine: it yields the serve loop's
// terminal error (nil after a clean Shutdown).
//
// The server goroutine never installs signal handlers; the owning process
// decides when to call Shutdown.
func Run(
	bind string,
	db *sql.DB,
	batchSubmitter submitter.BatchSubmitter,
	endpoint config.Endpoint,
	opts ...Option,
) (*ShutdownHandle, <-chan error, error) {
	o := options{
		grace:        defaultShutdownGrace,
		startTimeout: defaultStartTimeout,
		log:          slog.Default(),
		dbWorkers:    executor.DefaultWorkers,
		dbQueueDepth: executor.DefaultQueueDepth,
	}
	for _, opt := range opts {
		opt(&o)
	}

	started := make(chan startup, 1)
	done := make(chan error, 1)

	go func() {
		store := o.store
		var exec *executor.Executor
		if store == nil {
			exec = executor.New(db,
				executor.WithWorkers(o.dbWorkers),
				executor.WithQueueDepth(o.dbQueueDepth),
				executor.WithLogger(o.log),
				executor.WithMetrics(o.metrics),
			)
			store = griddb.NewPgStore(exec)
		}

		state := newAppState(store, batchSubmitter, o.log, o.metrics)
		state.audit = o.auditInbox
		state.cache = newStatusCache(o.cacheClient, o.cacheTTL, o.log)

		srv := &http.Server{
			Handler:           NewRouter(state, endpoint),
			ReadHeaderTimeout: readHeaderTimeout,
		}

		ln, err := net.Listen("tcp", bind)
		if err != nil {
			if exec != nil {
				exec.Close()
			}
			err = fmt.Errorf("bind %s: %w", bind, err)
			started <- startup{err: err}
			done <- err
			return
		}

		started <- startup{srv: srv, exec: exec, addr: ln.Addr().String()}

		err = srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		o.log.Info("rest api terminating", "addr", bind)
		done <- err
	}()

	select {
	case s := <-started:
		if s.err != nil {
			return nil, nil, &StartUpError{Reason: "unable to bind listener", cause: s.err}
		}
		return &ShutdownHandle{srv: s.srv, exec: s.exec, addr: s.addr, grace: o.grace, log: o.log}, done, nil
	case <-time.After(o.startTimeout):
		return nil, nil, &StartUpError{Reason: "timed out waiting for server handle"}
	}
}
