// Package executor serializes blocking database work onto a small fixed pool
// of workers so HTTP goroutines never hold a database connection themselves.
// Each worker leases one connection from the shared pool for its lifetime and
// runs dispatched operations one at a time; operations dispatched to the same
// worker execute in submission order.
package executor

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	"gridd/internal/platform/metrics"
	"gridd/pkg/platform/sentinel"
)

const (
	// DefaultWorkers matches the observed sizing for read-mostly workloads.
	DefaultWorkers = 2
	// DefaultQueueDepth bounds pending work; dispatches beyond it are rejected
	// rather than queued without limit.
	DefaultQueueDepth = 256
)

// Operation is a blocking unit of database work executed on a worker's leased
// connection.
type Operation func(ctx context.Context, conn *sql.Conn) (any, error)

// Result is the outcome of a dispatched operation.
type Result struct {
	Value any
	Err   error
}

type task struct {
	ctx context.Context
	op  Operation
	out chan Result
}

// Executor owns the worker pool. Construct with New, stop with Close.
type Executor struct {
	db      *sql.DB
	workers int
	queue   chan task
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool

	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures the Executor.
type Option func(*Executor)

// WithWorkers sets the fixed worker count.
func WithWorkers(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithQueueDepth sets the pending-work bound.
func WithQueueDepth(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.queue = make(chan task, n)
		}
	}
}

// WithLogger sets a logger for worker-level failures.
func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) {
		e.log = log
	}
}

// WithMetrics wires queue-depth and rejection metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

// New starts the worker pool against the given connection pool.
func New(db *sql.DB, opts ...Option) *Executor {
	e := &Executor{
		db:      db,
		workers: DefaultWorkers,
		queue:   make(chan task, DefaultQueueDepth),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Dispatch enqueues an operation and returns a channel that yields exactly one
// Result. It never blocks: a full queue fails fast with sentinel.ErrQueueFull
// and a closed executor with sentinel.ErrClosed.
func (e *Executor) Dispatch(ctx context.Context, op Operation) (<-chan Result, error) {
	t := task{ctx: ctx, op: op, out: make(chan Result, 1)}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, sentinel.ErrClosed
	}

	select {
	case e.queue <- t:
		if e.metrics != nil {
			e.metrics.DispatchQueueDepth.Inc()
		}
		return t.out, nil
	default:
		if e.metrics != nil {
			e.metrics.DispatchRejected.Inc()
		}
		return nil, sentinel.ErrQueueFull
	}
}

// Close stops intake, drains already-queued work, and releases worker
// connections. Safe to call more than once.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.wg.Wait()
}

func (e *Executor) worker() {
	defer e.wg.Done()

	var conn *sql.Conn
	defer func() {
		if conn != nil {
			_ = conn.Close()
		}
	}()

	for t := range e.queue {
		if e.metrics != nil {
			e.metrics.DispatchQueueDepth.Dec()
		}

		if err := t.ctx.Err(); err != nil {
			t.out <- Result{Err: err}
			continue
		}

		if conn == nil {
			c, err := e.db.Conn(context.Background())
			if err != nil {
				e.log.Error("lease database connection", "error", err)
				t.out <- Result{Err: fmt.Errorf("lease database connection: %w", err)}
				continue
			}
			conn = c
		}

		value, err := t.op(t.ctx, conn)
		t.out <- Result{Value: value, Err: err}
	}
}
