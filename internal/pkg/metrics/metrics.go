package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "honeyfarmers"

// Metrics groups the collectors of the client. A nil *Metrics is valid and records nothing.
type Metrics struct {
	fallbackAttempts *prometheus.CounterVec
	fallbackLatency  *prometheus.HistogramVec
	reconciliations  *prometheus.CounterVec
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration prometheus.Histogram
	actions          *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fallbackAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fallback",
			Name:      "attempts_total",
			Help:      "Endpoint attempts made by the fallback executor.",
		}, []string{"operation", "outcome"}),
		fallbackLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fallback",
			Name:      "attempt_duration_seconds",
			Help:      "Duration of single endpoint attempts.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		reconciliations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "session",
			Name:      "reconciliations_total",
			Help:      "Completed reconciliation passes by final state.",
		}, []string{"state"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Game-state pipeline runs.",
		}, []string{"outcome"}),
		pipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Duration of game-state pipeline runs.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "total",
			Help:      "Mutating contract actions by name and outcome.",
		}, []string{"action", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.fallbackAttempts,
			m.fallbackLatency,
			m.reconciliations,
			m.pipelineRuns,
			m.pipelineDuration,
			m.actions,
		)
	}
	return m
}

// ObserveAttempt records one fallback attempt.
func (m *Metrics) ObserveAttempt(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fallbackAttempts.WithLabelValues(operation, outcome).Inc()
	m.fallbackLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveReconciliation records the state a reconciliation pass ended in.
func (m *Metrics) ObserveReconciliation(state string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(state).Inc()
}

// ObservePipeline records one pipeline run.
func (m *Metrics) ObservePipeline(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
	m.pipelineDuration.Observe(d.Seconds())
}

// ObserveAction records one mutating action.
func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, outcome).Inc()
}
