// Package metrics exposes Prometheus instruments for the analysis pipeline,
// the rasterizer and the platform facade.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Manager owns the registry and every instrument. A nil *Manager records
// nothing, so components can run without metrics.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	pipelineSteps    *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	rasterize        *prometheus.CounterVec
	platformErrors   *prometheus.CounterVec
}

// NewManager creates a manager on its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "resume_analyzer",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)

	m.pipelineSteps = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "steps_total",
		Help:      "Pipeline step transitions by outcome",
	}, []string{"step", "outcome"})

	m.pipelineDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "pipeline",
		Name:      "step_duration_seconds",
		Help:      "Time spent in each pipeline step",
		Buckets:   m.buckets,
	}, []string{"step"})

	m.rasterize = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rasterize_total",
		Help:      "Document rasterizations by engine and outcome",
	}, []string{"engine", "outcome"})

	m.platformErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "platform_errors_total",
		Help:      "Errors recorded by the platform facade per capability group",
	}, []string{"group"})

	return m
}

// RecordStep counts a step transition and observes how long the step took.
func (m *Manager) RecordStep(step string, failed bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.pipelineSteps.WithLabelValues(step, outcome(failed)).Inc()
	if elapsed > 0 {
		m.pipelineDuration.WithLabelValues(step).Observe(elapsed.Seconds())
	}
}

func (m *Manager) RecordRasterize(engine string, failed bool) {
	if m == nil {
		return
	}
	m.rasterize.WithLabelValues(engine, outcome(failed)).Inc()
}

func (m *Manager) RecordPlatformError(group string) {
	if m == nil {
		return
	}
	m.platformErrors.WithLabelValues(group).Inc()
}

// Registry returns the underlying registry, mostly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format. A nil manager
// serves 404.
func (m *Manager) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func outcome(failed bool) string {
	if failed {
		return OutcomeFailure
	}
	return OutcomeSuccess
}
