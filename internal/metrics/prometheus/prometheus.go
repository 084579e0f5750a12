// Package prometheus implements metrics.BridgeMetrics on top of the
// Prometheus client, registering every collector against an explicit
// registry rather than the global default.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bstrobel/sds1004x-bode/internal/metrics"
)

// bridgeMetrics is the Prometheus-backed metrics.BridgeMetrics.
type bridgeMetrics struct {
	rpcCalls     *prometheus.CounterVec
	rpcDuration  *prometheus.HistogramVec
	portFlips    prometheus.Counter
	scpiCommands *prometheus.CounterVec
	driverErrors *prometheus.CounterVec
}

// NewBridgeMetrics creates a Prometheus-backed BridgeMetrics. Returns
// nil if InitRegistry has not been called, matching the nil-receiver
// no-op contract.
func NewBridgeMetrics() *bridgeMetrics {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &bridgeMetrics{
		rpcCalls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bode_rpc_calls_total",
				Help: "Total RPC calls dispatched by program/procedure/accept status",
			},
			[]string{"program", "procedure", "accept_status"},
		),
		rpcDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bode_rpc_call_duration_seconds",
				Help:    "RPC call handling latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"program", "procedure"},
		),
		portFlips: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "bode_vxi11_port_flips_total",
				Help: "Total VXI-11 listener port rotations",
			},
		),
		scpiCommands: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bode_scpi_commands_total",
				Help: "Total SCPI commands dispatched by mnemonic and recognition",
			},
			[]string{"mnemonic", "recognized"},
		),
		driverErrors: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "bode_driver_errors_total",
				Help: "Total AWG driver transport errors by operation",
			},
			[]string{"op"},
		),
	}
}

func (m *bridgeMetrics) RecordRPCCall(program uint32, procedure string, duration time.Duration, acceptStatus string) {
	if m == nil {
		return
	}
	programLabel := programName(program)
	m.rpcCalls.WithLabelValues(programLabel, procedure, acceptStatus).Inc()
	m.rpcDuration.WithLabelValues(programLabel, procedure).Observe(duration.Seconds())
}

func (m *bridgeMetrics) RecordPortFlip(port int) {
	if m == nil {
		return
	}
	m.portFlips.Inc()
}

func (m *bridgeMetrics) RecordSCPICommand(mnemonic string, recognized bool) {
	if m == nil {
		return
	}
	label := "true"
	if !recognized {
		label = "false"
	}
	m.scpiCommands.WithLabelValues(mnemonic, label).Inc()
}

func (m *bridgeMetrics) RecordDriverError(op string) {
	if m == nil {
		return
	}
	m.driverErrors.WithLabelValues(op).Inc()
}

func programName(program uint32) string {
	switch program {
	case 100000:
		return "portmap"
	case 395183:
		return "vxi11"
	default:
		return "unknown"
	}
}

var _ metrics.BridgeMetrics = (*bridgeMetrics)(nil)
