// Package metrics exports Prometheus counters and a latency histogram
// for the decision and policy-ingest paths, grounded in the teacher's
// internal/metrics/prometheus.go (trimmed to this domain's
// authorization-check and policy-document counters; the teacher's
// embedding/vector gauges have no analog here).
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics wraps the Prometheus instruments for one registry.
type Metrics struct {
	decisionsTotal    *prometheus.CounterVec
	decisionDuration  prometheus.Histogram
	policySavesTotal  *prometheus.CounterVec
	storeErrorsTotal  *prometheus.CounterVec
	registry          *prometheus.Registry
}

// New creates a fresh registry with every instrument registered.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	decisionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decisions_total",
			Help:      "Total number of permission check decisions by effect",
		},
		[]string{"effect"},
	)

	decisionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decision_duration_microseconds",
			Help:      "Permission check latency in microseconds",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000, 10000},
		},
	)

	policySavesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_saves_total",
			Help:      "Total number of resource/user policy document upserts by kind",
		},
		[]string{"kind"},
	)

	storeErrorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Total number of store operation failures by operation",
		},
		[]string{"operation"},
	)

	registry.MustRegister(decisionsTotal, decisionDuration, policySavesTotal, storeErrorsTotal)

	return &Metrics{
		decisionsTotal:   decisionsTotal,
		decisionDuration: decisionDuration,
		policySavesTotal: policySavesTotal,
		storeErrorsTotal: storeErrorsTotal,
		registry:         registry,
	}
}

// RecordDecision records the effect and latency of one permission check
// (authzsvc.Service.Check, store lookups included).
func (m *Metrics) RecordDecision(effect string, d time.Duration) {
	m.decisionsTotal.WithLabelValues(effect).Inc()
	m.decisionDuration.Observe(float64(d.Microseconds()))
}

// RecordPolicySave records one successful policy document upsert.
func (m *Metrics) RecordPolicySave(kind string) {
	m.policySavesTotal.WithLabelValues(kind).Inc()
}

// RecordStoreError records one failed store operation.
func (m *Metrics) RecordStoreError(operation string) {
	m.storeErrorsTotal.WithLabelValues(operation).Inc()
}

// Handler returns the Prometheus scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
