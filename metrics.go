package mab

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors updated by engines. One Metrics
// value can be shared by concurrent engines; runs are told apart by the
// "run" label.
type Metrics struct {
	// Pull metrics
	PullsTotal   *prometheus.CounterVec
	InvalidTotal *prometheus.CounterVec
	Reward       *prometheus.HistogramVec

	// Best reward so far per arm
	BestReward *prometheus.GaugeVec

	// Run metrics
	RunsTotal *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. Pass
// prometheus.NewRegistry() in tests to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PullsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mab_pulls_total",
				Help: "Total number of arm pulls",
			},
			[]string{"run", "arm"},
		),

		InvalidTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mab_invalid_pulls_total",
				Help: "Total number of pulls clamped to the penalty reward",
			},
			[]string{"run", "arm"},
		),

		Reward: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mab_pull_reward",
				Help:    "Reward observed per pull",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"run", "arm"},
		),

		BestReward: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "mab_best_reward",
				Help: "Best reward observed so far per arm",
			},
			[]string{"run", "arm"},
		),

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mab_runs_total",
				Help: "Total number of finished engine runs",
			},
			[]string{"policy"},
		),
	}
}

// RecordPull records one pull.
func (m *Metrics) RecordPull(run, arm string, obs Observation, best float64) {
	m.PullsTotal.WithLabelValues(run, arm).Inc()
	m.Reward.WithLabelValues(run, arm).Observe(obs.Reward)
	m.BestReward.WithLabelValues(run, arm).Set(best)

	if obs.Invalid {
		m.InvalidTotal.WithLabelValues(run, arm).Inc()
	}
}

// RecordRun records a finished run.
func (m *Metrics) RecordRun(policy PolicyType) {
	m.RunsTotal.WithLabelValues(string(policy)).Inc()
}
