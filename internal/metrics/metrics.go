// Package metrics exposes the operator's Prometheus instrumentation.
// The registry here is self-owned rather than the global
// prometheus.DefaultRegisterer, since no controller-runtime manager
// is present to own it.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every counter/gauge the reconciler, dispatcher, and
// ingester report into.
type Metrics struct {
	registry *prometheus.Registry

	ReconcileTotal           prometheus.Counter
	ReconcileDuration        prometheus.Histogram
	CommandsPublishedTotal   *prometheus.CounterVec
	PublishErrorsTotal       prometheus.Counter
	GatewayRosterSize        prometheus.Gauge
	EventsDroppedTotal       *prometheus.CounterVec
}

// New builds and registers every metric against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		ReconcileTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "btmesh_operator_reconcile_total",
			Help: "Total number of reconcile sweeps performed.",
		}),
		ReconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "btmesh_operator_reconcile_duration_seconds",
			Help:    "Duration of a reconcile sweep.",
			Buckets: prometheus.DefBuckets,
		}),
		CommandsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btmesh_operator_commands_published_total",
			Help: "Commands published to gateways, by operation.",
		}, []string{"op"}),
		PublishErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "btmesh_operator_publish_errors_total",
			Help: "Bus publish failures while dispatching commands.",
		}),
		GatewayRosterSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "btmesh_operator_gateway_roster_size",
			Help: "Current number of known gateway devices.",
		}),
		EventsDroppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "btmesh_operator_events_dropped_total",
			Help: "Inbound events dropped, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		m.ReconcileTotal,
		m.ReconcileDuration,
		m.CommandsPublishedTotal,
		m.PublishErrorsTotal,
		m.GatewayRosterSize,
		m.EventsDroppedTotal,
	)
	return m
}

// Handler returns the HTTP handler to mount at /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
