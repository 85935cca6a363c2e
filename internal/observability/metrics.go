// Package observability holds the Prometheus metrics of the service.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "friendcircle"

// Delivery outcomes.
const (
	DeliveryDelivered = "delivered"
	DeliveryOffline   = "offline" // no live connection registered for the receiver
	DeliveryStale     = "stale"   // registered connection is no longer attached to this process
	DeliveryDropped   = "dropped" // dispatch queue full
	DeliveryError     = "error"   // registry lookup failed
)

// Transition results.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// Metrics groups every collector the service exports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// FriendshipTransitions counts friend graph operations.
	// Labels: op (send, accept, reject, unfriend, heal), result (success, rejected, error)
	FriendshipTransitions *prometheus.CounterVec

	// NotificationsEmitted counts ledger writes.
	// Labels: type (like_post, like_comment, comment, friend_request, friend_accept)
	NotificationsEmitted *prometheus.CounterVec

	// Deliveries counts live push attempts.
	// Labels: outcome (delivered, offline, stale, dropped, error)
	Deliveries *prometheus.CounterVec

	// SideEffectFailures counts swallowed failures after a committed mutation.
	// Labels: kind (notification, cascade, counter)
	SideEffectFailures *prometheus.CounterVec

	// LiveConnections is the number of websocket connections held by this process.
	LiveConnections prometheus.Gauge
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FriendshipTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "friendship",
			Name:      "transitions_total",
			Help:      "Friend graph operations by op and result",
		}, []string{"op", "result"}),
		NotificationsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notifications",
			Name:      "emitted_total",
			Help:      "Notifications written to the ledger by type",
		}, []string{"type"}),
		Deliveries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "notifications",
			Name:      "deliveries_total",
			Help:      "Live push attempts by outcome",
		}, []string{"outcome"}),
		SideEffectFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engagement",
			Name:      "side_effect_failures_total",
			Help:      "Failures swallowed after the primary mutation committed",
		}, []string{"kind"}),
		LiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "realtime",
			Name:      "live_connections",
			Help:      "Websocket connections currently held by this process",
		}),
	}
}

func (m *Metrics) RecordTransition(op, result string) {
	if m == nil {
		return
	}
	m.FriendshipTransitions.WithLabelValues(op, result).Inc()
}

func (m *Metrics) RecordEmitted(notificationType string) {
	if m == nil {
		return
	}
	m.NotificationsEmitted.WithLabelValues(notificationType).Inc()
}

func (m *Metrics) RecordDelivery(outcome string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSideEffectFailure(kind string) {
	if m == nil {
		return
	}
	m.SideEffectFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.LiveConnections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.LiveConnections.Dec()
}
