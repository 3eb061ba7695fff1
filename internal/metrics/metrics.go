// Package metrics defines the Prometheus instrumentation for the
// prediction service: request counts and latencies by route and status,
// in-flight requests, and prediction outcomes by category and risk.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the service collectors. Collectors are registered on
// the registry passed to New, so tests can use a private registry and
// never trip duplicate-registration panics.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	predictions     *prometheus.CounterVec
}

// New creates and registers the service collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mlship",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mlship",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mlship",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "HTTP requests currently being served.",
		}),

		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mlship",
			Name:      "predictions_total",
			Help:      "Predictions served, by category and risk label.",
		}, []string{"category", "risk"}),
	}

	reg.MustRegister(m.requestsTotal, m.requestDuration, m.inFlight, m.predictions)
	return m
}

// RecordRequest records one completed HTTP request.
func (m *Metrics) RecordRequest(method, route, status string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// IncInFlight marks a request as started.
func (m *Metrics) IncInFlight() { m.inFlight.Inc() }

// DecInFlight marks a request as finished.
func (m *Metrics) DecInFlight() { m.inFlight.Dec() }

// RecordPrediction records one served prediction outcome.
func (m *Metrics) RecordPrediction(category, risk string) {
	m.predictions.WithLabelValues(category, risk).Inc()
}
