// Package metrics exposes Prometheus counters for the relay. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "wirechat"

// Metrics holds the relay's collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	connections      prometheus.Gauge
	connectionsTotal prometheus.Counter
	messagesTotal    prometheus.Counter
	delivered        *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	malformedEvents  prometheus.Counter
	droppedEvents    *prometheus.CounterVec
}

// New builds a Metrics instance backed by its own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Number of live client connections",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections",
		}),
		messagesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Total number of chat messages broadcast",
		}),
		delivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_delivered_total",
			Help:      "Events handed to connection outboxes",
		}, []string{"event"}),
		deliveryFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Events that could not be handed to a connection",
		}, []string{"event"}),
		malformedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_events_total",
			Help:      "Inbound frames dropped because they could not be decoded",
		}),
		droppedEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Inbound events dropped before dispatch",
		}, []string{"reason"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
	m.connectionsTotal.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) MessageBroadcast() {
	if m == nil {
		return
	}
	m.messagesTotal.Inc()
}

func (m *Metrics) Delivered(event string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.delivered.WithLabelValues(event).Add(float64(n))
}

func (m *Metrics) DeliveryFailed(event string) {
	if m == nil {
		return
	}
	m.deliveryFailures.WithLabelValues(event).Inc()
}

func (m *Metrics) MalformedEvent() {
	if m == nil {
		return
	}
	m.malformedEvents.Inc()
}

// EventDropped counts inbound events discarded for reason (closed, rate_limited, not_joined).
func (m *Metrics) EventDropped(reason string) {
	if m == nil {
		return
	}
	m.droppedEvents.WithLabelValues(reason).Inc()
}
