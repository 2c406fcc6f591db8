package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so handlers can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrQueueFull: dispatch queue is at capacity, work was rejected
// - ErrClosed: resource has been shut down and accepts no more work
// - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrQueueFull   = errors.New("queue full")
	ErrClosed      = errors.New("closed")
	ErrUnavailable = errors.New("unavailable")
)
