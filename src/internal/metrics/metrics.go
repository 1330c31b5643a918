// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package metrics provides Prometheus instrumentation for the domain pipeline.
//
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trust_anchor"

// Metrics holds the pipeline collectors.
type Metrics struct {
	// Batch outcomes: "completed" or "indeterminate"
	Runs *prometheus.CounterVec

	// Per-domain classifications
	Domains *prometheus.CounterVec

	// Resolution failures by kind: network, handshake, chain
	ResolveFailures *prometheus.CounterVec

	RunLatency      prometheus.Histogram
	ClassifyLatency prometheus.Histogram
	ResolveLatency  prometheus.Histogram
}

// New registers the pipeline collectors with reg. A nil reg uses the
// default Prometheus registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Total pipeline runs by outcome",
		}, []string{"outcome"}),

		Domains: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "domains_total",
			Help:      "Total domains processed by final classification",
		}, []string{"classification"}),

		ResolveFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_failures_total",
			Help:      "Total certificate resolution failures by kind",
		}, []string{"kind"}),

		RunLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full pipeline run",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		ClassifyLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classify_duration_seconds",
			Help:      "Duration of the threat classification call",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		ResolveLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of a single certificate resolution",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// IncrementRun records a finished run.
func (m *Metrics) IncrementRun(outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(outcome).Inc()
	}
}

// AddDomains records n domains ending in classification.
func (m *Metrics) AddDomains(classification string, n int) {
	if m != nil && n > 0 {
		m.Domains.WithLabelValues(classification).Add(float64(n))
	}
}

// IncrementResolveFailure records a failed resolution of the given kind.
func (m *Metrics) IncrementResolveFailure(kind string) {
	if m != nil {
		m.ResolveFailures.WithLabelValues(kind).Inc()
	}
}

// ObserveRun records the duration of a run.
func (m *Metrics) ObserveRun(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}

// ObserveClassify records the duration of a classification call.
func (m *Metrics) ObserveClassify(d time.Duration) {
	if m != nil {
		m.ClassifyLatency.Observe(d.Seconds())
	}
}

// ObserveResolve records the duration of a resolution.
func (m *Metrics) ObserveResolve(d time.Duration) {
	if m != nil {
		m.ResolveLatency.Observe(d.Seconds())
	}
}
