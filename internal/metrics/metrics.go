// Package metrics owns the Prometheus registry and the counters the API exposes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "demo"

const (
	// ReasonMalformedPayload labels requests whose body could not be decoded.
	ReasonMalformedPayload = "malformed_payload"

	// ReasonValidationFailed labels requests whose body broke a constraint.
	ReasonValidationFailed = "validation_failed"
)

// Metrics groups the collectors registered on a private registry.
//
// A private registry keeps tests independent of each other and of the
// process-wide default registry.
type Metrics struct {
	Registry *prometheus.Registry

	// ObjectsCreated counts acknowledged demo objects.
	ObjectsCreated prometheus.Counter

	// RequestsRejected counts requests refused before their handler ran, by route and reason.
	RequestsRejected *prometheus.CounterVec
}

// New builds the collectors and registers them, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		ObjectsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "objects_created_total",
			Help:      "Number of demo objects accepted and acknowledged.",
		}),
		RequestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_rejected_total",
			Help:      "Number of requests rejected before reaching their handler, by route and reason.",
		}, []string{"route", "reason"}),
	}

	m.Registry.MustRegister(
		m.ObjectsCreated,
		m.RequestsRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordCreated counts one acknowledged object.
func (m *Metrics) RecordCreated() {
	if m == nil {
		return
	}
	m.ObjectsCreated.Inc()
}

// RecordRejected counts one rejected request on route.
func (m *Metrics) RecordRejected(route, reason string) {
	if m == nil {
		return
	}
	m.RequestsRejected.WithLabelValues(route, reason).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
