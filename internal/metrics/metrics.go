// Package metrics defines the bridge's optional observability surface.
// Collection is nil-interface-pattern: every recorder method is safe
// to call with a nil receiver, so callers never need a runtime "is
// metrics enabled" branch around every call site.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection and returns the registry
// concrete collectors should register against. Calling it again
// replaces the registry, which is only safe before any collectors
// have been created.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	enabled = true
	registry = prometheus.NewRegistry()
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// GetRegistry returns the active registry, or nil if metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}

// BridgeMetrics provides observability for the RPC/VXI-11/SCPI bridge.
// Implementations must tolerate a nil receiver so they can be passed
// around as zero-overhead no-ops when metrics are disabled; pass nil
// to disable collection entirely.
type BridgeMetrics interface {
	// RecordRPCCall records one completed RPC dispatch.
	//
	// Parameters:
	//   - program: the RPC program number (100000 Portmap, 395183 VXI-11)
	//   - procedure: the procedure name, e.g. "GETPORT", "DEVICE_WRITE"
	//   - duration: time taken to produce the reply
	//   - acceptStatus: the RPC accept status returned ("SUCCESS", "PROC_UNAVAIL", ...)
	RecordRPCCall(program uint32, procedure string, duration time.Duration, acceptStatus string)

	// RecordPortFlip records a VXI-11 listener rebind to the given port.
	RecordPortFlip(port int)

	// RecordSCPICommand records one dispatched SCPI mnemonic.
	//
	// Parameters:
	//   - mnemonic: the command name, e.g. "BSWV", "OUTP"
	//   - recognized: false if the mnemonic was unknown and ignored
	RecordSCPICommand(mnemonic string, recognized bool)

	// RecordDriverError records an AWG transport failure.
	RecordDriverError(op string)
}
