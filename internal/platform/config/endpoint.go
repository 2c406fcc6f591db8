package config

import "strings"

// Mode distinguishes the two mutually exclusive deployment topologies. It is
// fixed for the lifetime of the process.
type Mode int

const (
	// ModeSharedLedger targets a single ledger shared by every client; requests
	// must not carry a service_id.
	ModeSharedLedger Mode = iota
	// ModeCircuitScoped targets a multi-tenant ledger where every request must
	// name the circuit it operates on via service_id.
	ModeCircuitScoped
)

func (m Mode) String() string {
	if m == ModeCircuitScoped {
		return "circuit-scoped"
	}
	return "shared-ledger"
}

// Endpoint is the ledger endpoint the daemon submits batches to, together with
// the deployment mode derived from its scheme. Constructed once from
// configuration and shared read-only by every request.
type Endpoint struct {
	URL  string
	Mode Mode
}

// ParseEndpoint derives the deployment mode from the endpoint string. A
// "splinter:" prefix selects circuit-scoped mode; anything else is treated as a
// shared ledger address.
func ParseEndpoint(s string) Endpoint {
	if rest, ok := strings.CutPrefix(s, "splinter:"); ok {
		return Endpoint{URL: rest, Mode: ModeCircuitScoped}
	}
	return Endpoint{URL: s, Mode: ModeSharedLedger}
}

// IsCircuitScoped reports whether requests must carry a circuit service_id.
func (e Endpoint) IsCircuitScoped() bool {
	return e.Mode == ModeCircuitScoped
}
