// Package metrics exposes Prometheus instrumentation for the portfolio
// server, centred on the contact pipeline outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for contact submissions.
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeUnavailable = "unavailable"
	OutcomeSendFailed  = "send_failed"
)

// Metrics holds the registered collectors.
type Metrics struct {
	SubmissionsTotal     *prometheus.CounterVec
	AutoReplyFailedTotal prometheus.Counter
	PageServedTotal      *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a Metrics instance with all collectors registered on a private
// registry so tests can run side by side.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		SubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_contact_submissions_total",
				Help: "Contact form submissions by outcome",
			},
			[]string{"outcome"},
		),
		AutoReplyFailedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portfolio_contact_autoreply_failed_total",
				Help: "Auto-reply sends that failed after a successful notification",
			},
		),
		PageServedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_pages_served_total",
				Help: "Rendered page responses by route",
			},
			[]string{"route"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portfolio_http_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.SubmissionsTotal,
		m.AutoReplyFailedTotal,
		m.PageServedTotal,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveSubmission records one contact submission outcome.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAutoReplyFailure records a swallowed auto-reply failure.
func (m *Metrics) ObserveAutoReplyFailure() {
	if m == nil {
		return
	}
	m.AutoReplyFailedTotal.Inc()
}

// ObservePage records one served page render.
func (m *Metrics) ObservePage(route string) {
	if m == nil {
		return
	}
	m.PageServedTotal.WithLabelValues(route).Inc()
}

// ObserveRequest records one API request duration.
func (m *Metrics) ObserveRequest(path, method string, seconds float64) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(path, method).Observe(seconds)
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the backing registry. Useful for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
