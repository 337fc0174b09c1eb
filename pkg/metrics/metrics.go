// Package metrics owns the Prometheus collectors shared by the services.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors on a private registry so tests can build
// as many instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	estimates     *prometheus.CounterVec
	optimizeCalls *prometheus.CounterVec
	optimizeTime  *prometheus.HistogramVec
	searchRuns    *prometheus.CounterVec
	events        *prometheus.CounterVec
}

func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		estimates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_total",
			Help:      "Estimator evaluations by outcome (ok|no_result).",
		}, []string{"outcome"}),
		optimizeCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimize_requests_total",
			Help:      "Optimize requests by result provenance (optimized|fallback|rejected).",
		}, []string{"provenance"}),
		optimizeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "optimize_duration_seconds",
			Help:      "Wall time of optimize requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"provenance"}),
		searchRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_runs_total",
			Help:      "NSGA-II searches by outcome (ok|error).",
		}, []string{"outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_events_total",
			Help:      "Decision events by outcome (published|duplicate|error).",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.estimates, m.optimizeCalls, m.optimizeTime, m.searchRuns, m.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// The recorders are nil-safe so components can run without metrics.

func (m *Metrics) ObserveEstimate(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "no_result"
	}
	m.estimates.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveOptimize(provenance string, d time.Duration) {
	if m == nil {
		return
	}
	m.optimizeCalls.WithLabelValues(provenance).Inc()
	m.optimizeTime.WithLabelValues(provenance).Observe(d.Seconds())
}

func (m *Metrics) ObserveSearch(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.searchRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveEvent(outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests using prometheus/testutil.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
