package bsal

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bsal"

// Reasons a vendor event was discarded instead of delivered.
const (
	discardUnknownSource = "unknown_source"
	discardUnknownValue  = "unknown_value"
	discardInvalid       = "invalid"
)

// metrics are the Prometheus collectors of one Client.
type metrics struct {
	enqueued  prometheus.Counter
	dropped   prometheus.Counter
	delivered *prometheus.CounterVec
	discarded *prometheus.CounterVec

	callDuration *prometheus.HistogramVec
	callErrors   *prometheus.CounterVec
	slowCalls    *prometheus.CounterVec

	initialized prometheus.Gauge
	clients     prometheus.Gauge
	neighbors   prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_enqueued_total",
			Help:      "Vendor events accepted by the event queue.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Vendor events dropped because the event queue was full.",
		}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Steering events delivered to the event callback, by kind.",
		}, []string{"kind"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_discarded_total",
			Help:      "Vendor events which could not be translated, by reason.",
		}, []string{"reason"}),
		callDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vendor_call_duration_seconds",
			Help:      "Latency of vendor calls, by operation.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),
		callErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_call_errors_total",
			Help:      "Failed vendor calls, by operation.",
		}, []string{"op"}),
		slowCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vendor_slow_calls_total",
			Help:      "Vendor calls exceeding the slow call threshold, by operation.",
		}, []string{"op"}),
		initialized: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "group_initialized",
			Help:      "1 if every steering group slot is assigned.",
		}),
		clients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "client_cache_entries",
			Help:      "Clients in the capability cache.",
		}),
		neighbors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "neighbor_entries",
			Help:      "Neighbor report entries across all interfaces.",
		}),
	}
}

// collectors returns every collector in m.
func (m *metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.enqueued,
		m.dropped,
		m.delivered,
		m.discarded,
		m.callDuration,
		m.callErrors,
		m.slowCalls,
		m.initialized,
		m.clients,
		m.neighbors,
	}
}

// register registers m's collectors with r. On failure, collectors which
// were already registered are unregistered again.
func (m *metrics) register(r prometheus.Registerer) error {
	cs := m.collectors()
	for i, c := range cs {
		if err := r.Register(c); err != nil {
			for _, done := range cs[:i] {
				r.Unregister(done)
			}
			return err
		}
	}

	return nil
}

// unregister removes m's collectors from r.
func (m *metrics) unregister(r prometheus.Registerer) {
	for _, c := range m.collectors() {
		r.Unregister(c)
	}
}
