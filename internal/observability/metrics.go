package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// hydroline resolution pipeline.
type Metrics struct {
	ReachesResolved *prometheus.CounterVec // labels: outcome={resolved,failed}, method={primary-network,fallback-hydrology,none}
	ResolveDuration prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// External service metrics.
	TraceAttempts           *prometheus.CounterVec   // labels: backend={waters_snap,waters_trace,hydro_snap,hydro_trace,aw_fetch}, outcome={ok,not_found,error}
	ExternalRequestDuration *prometheus.HistogramVec // labels: backend

	// Feature layer metrics.
	FeatureEdits *prometheus.CounterVec // labels: layer={line,centroid,point}, op={add,update}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReachesResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reach_hydroline",
			Name:      "reaches_resolved_total",
			Help:      "Reaches processed by outcome and tracing method.",
		}, []string{"outcome", "method"}),
		ResolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "reach_hydroline",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of a complete fetch-trace-publish cycle for one reach.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reach_hydroline",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		TraceAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reach_hydroline",
			Name:      "trace_attempts_total",
			Help:      "External hydrography calls by backend and outcome.",
		}, []string{"backend", "outcome"}),
		ExternalRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "reach_hydroline",
			Name:      "external_request_duration_seconds",
			Help:      "External service request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"backend"}),
		FeatureEdits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reach_hydroline",
			Name:      "feature_edits_total",
			Help:      "Feature layer edits by layer and operation.",
		}, []string{"layer", "op"}),
	}

	prometheus.MustRegister(
		m.ReachesResolved,
		m.ResolveDuration,
		m.PipelineRunning,
		m.TraceAttempts,
		m.ExternalRequestDuration,
		m.FeatureEdits,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReachesResolved:         prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "reach_hydroline", Name: "reaches_resolved_total"}, []string{"outcome", "method"}),
		ResolveDuration:         prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "reach_hydroline", Name: "resolve_duration_seconds"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "reach_hydroline", Name: "pipeline_running"}),
		TraceAttempts:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "reach_hydroline", Name: "trace_attempts_total"}, []string{"backend", "outcome"}),
		ExternalRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "reach_hydroline", Name: "external_request_duration_seconds"}, []string{"backend"}),
		FeatureEdits:            prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "reach_hydroline", Name: "feature_edits_total"}, []string{"layer", "op"}),
	}
}
