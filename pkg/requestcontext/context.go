// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware and consumed by handlers and stores. Keeping the
// package free of net/http dependencies lets data-layer code read the circuit
// scope without pulling in HTTP-related code.
//
// Usage in stores and services (read values):
//
//	serviceID := requestcontext.ServiceID(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithServiceID(ctx, serviceID)
package requestcontext

import "context"

// Context key types (unexported for encapsulation).
type (
	serviceIDKey struct{}
	requestIDKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyServiceID = serviceIDKey{}
	ContextKeyRequestID = requestIDKey{}
)

// ServiceID retrieves the circuit service ID from the context. Returns the
// empty string when the daemon runs against a shared ledger.
func ServiceID(ctx context.Context) string {
	if serviceID, ok := ctx.Value(ContextKeyServiceID).(string); ok {
		return serviceID
	}
	return ""
}

// WithServiceID injects a circuit service ID into the context.
func WithServiceID(ctx context.Context, serviceID string) context.Context {
	return context.WithValue(ctx, ContextKeyServiceID, serviceID)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}
