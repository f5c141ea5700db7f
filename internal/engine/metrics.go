package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/featuregraph/internal/object"
)

const (
	metricsNamespace = "featuregraph"
	metricsSubsystem = "recompute"
)

// Metrics holds the Prometheus instruments updated by passes. A nil
// *Metrics records nothing.
type Metrics struct {
	// PassesTotal counts completed passes.
	PassesTotal prometheus.Counter

	// StepsTotal counts visited objects. Labels: action.
	StepsTotal *prometheus.CounterVec

	// ExecutionsTotal counts computations. Labels: outcome.
	ExecutionsTotal *prometheus.CounterVec

	// AffectedObjects observes the size of each pass's affected set.
	AffectedObjects prometheus.Histogram
}

// NewMetrics creates the instruments and registers them on reg.
// Use prometheus.NewRegistry() in tests to avoid clashes on the default
// registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		PassesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "passes_total",
			Help:      "Number of recompute passes run",
		}),
		StepsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "steps_total",
			Help:      "Objects visited by recompute passes, by action",
		}, []string{"action"}),
		ExecutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "executions_total",
			Help:      "Computations run by recompute passes, by outcome",
		}, []string{"outcome"}),
		AffectedObjects: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "affected_objects",
			Help:      "Size of the affected set per recompute pass",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func (m *Metrics) observeStep(action Action, outcome object.Outcome) {
	if m == nil {
		return
	}
	m.StepsTotal.WithLabelValues(string(action)).Inc()
	if action == ActionExecuted {
		m.ExecutionsTotal.WithLabelValues(outcome.String()).Inc()
	}
}

func (m *Metrics) observePass(affected int) {
	if m == nil {
		return
	}
	m.PassesTotal.Inc()
	m.AffectedObjects.Observe(float64(affected))
}
