// Package metrics exposes Prometheus metrics for the propagation runtime and
// the UI bridge.
//
// Metrics live on a registry owned by the Metrics value rather than the
// global default registry, so several graphs (and tests) can run in one
// process. Metrics implements flow.Hooks; install it with
// flow.WithHooks(m).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/circuitgo/internal/flow"
)

const namespace = "circuitgo"

// Result label values.
const (
	resultOK    = "ok"
	resultError = "error"
	resultStale = "stale"
)

// Metrics holds every collector of the application.
type Metrics struct {
	registry *prometheus.Registry

	// RecomputesTotal counts synchronous derivation runs.
	// Labels: kind, result (ok, error)
	RecomputesTotal *prometheus.CounterVec

	// AsyncIssuedTotal counts external calls started by async derivations.
	// Labels: kind
	AsyncIssuedTotal *prometheus.CounterVec

	// AsyncSettledTotal counts external calls that returned.
	// Labels: kind, result (ok, error, stale)
	AsyncSettledTotal *prometheus.CounterVec

	// AsyncInFlight is the number of external calls not yet returned.
	AsyncInFlight prometheus.Gauge

	// BridgeClients is the number of connected UI clients.
	BridgeClients prometheus.Gauge

	// BridgeCommandsTotal counts UI commands.
	// Labels: command, result (ok, error)
	BridgeCommandsTotal *prometheus.CounterVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RecomputesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "recomputes_total",
			Help:      "Synchronous derivation runs by node kind and result",
		}, []string{"kind", "result"}),
		AsyncIssuedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "async_issued_total",
			Help:      "External calls started by async derivations by node kind",
		}, []string{"kind"}),
		AsyncSettledTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "async_settled_total",
			Help:      "External calls returned by node kind and result",
		}, []string{"kind", "result"}),
		AsyncInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "flow",
			Name:      "async_in_flight",
			Help:      "External calls in flight",
		}),
		BridgeClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "clients",
			Help:      "Connected UI clients",
		}),
		BridgeCommandsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bridge",
			Name:      "commands_total",
			Help:      "UI commands by name and result",
		}, []string{"command", "result"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Command records one UI command.
func (m *Metrics) Command(name string, err error) {
	m.BridgeCommandsTotal.WithLabelValues(name, result(err)).Inc()
}

// ClientConnected records a new UI client.
func (m *Metrics) ClientConnected() {
	m.BridgeClients.Inc()
}

// ClientDisconnected records a UI client leaving.
func (m *Metrics) ClientDisconnected() {
	m.BridgeClients.Dec()
}

// Recomputed implements flow.Hooks.
func (m *Metrics) Recomputed(out *flow.Output, err error) {
	m.RecomputesTotal.WithLabelValues(out.Node().Kind(), result(err)).Inc()
}

// AsyncIssued implements flow.Hooks.
func (m *Metrics) AsyncIssued(out *flow.Output) {
	m.AsyncIssuedTotal.WithLabelValues(out.Node().Kind()).Inc()
	m.AsyncInFlight.Inc()
}

// AsyncSettled implements flow.Hooks.
func (m *Metrics) AsyncSettled(out *flow.Output, stale bool, err error) {
	r := result(err)
	if stale {
		r = resultStale
	}
	m.AsyncSettledTotal.WithLabelValues(out.Node().Kind(), r).Inc()
	m.AsyncInFlight.Dec()
}

func result(err error) string {
	if err != nil {
		return resultError
	}
	return resultOK
}

var _ flow.Hooks = (*Metrics)(nil)
