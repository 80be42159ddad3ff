package campaign

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"wumpus/internal/session"
)

// =============================================================================
// Prometheus Metrics for Campaigns
// =============================================================================

// Metrics are the campaign collectors. Build them with NewMetrics.
type Metrics struct {
	// episodes counts finished episodes.
	// Labels: outcome (victory, died, exited_empty, step_limit)
	episodes *prometheus.CounterVec

	// steps measures the length of finished episodes.
	steps prometheus.Histogram

	// inferred counts facts added to agents' knowledge bases.
	// Labels: kind (breeze, safe, pit_at, ...)
	inferred *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg leaves them
// unregistered, which is what tests and one-off runs want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		episodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wumpus",
			Name:      "episodes_total",
			Help:      "Total finished episodes by outcome",
		}, []string{"outcome"}),
		steps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wumpus",
			Name:      "episode_steps",
			Help:      "Steps taken per episode",
			Buckets:   []float64{5, 10, 20, 30, 50, 75, 100, 150, 200},
		}),
		inferred: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wumpus",
			Name:      "inferred_facts_total",
			Help:      "Total facts added to agent knowledge bases by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) observe(s session.Summary) {
	m.episodes.WithLabelValues(s.Outcome).Inc()
	m.steps.Observe(float64(s.Steps))
	for kind, n := range s.Inferred {
		m.inferred.WithLabelValues(kind.Predicate()).Add(float64(n))
	}
}
