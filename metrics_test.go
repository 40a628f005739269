package mab

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordedByEngine(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	evaluator, _ := scripted(0.4, 0.8)

	config := testConfig(NewUCB(1))
	config.Name = "iris"
	config.Metrics = metrics

	engine, err := NewEngine(config, newArms(t, evaluator, "a", "b")...)
	require.NoError(t, err)

	_, err = engine.Fit(nil, nil, 5)
	require.NoError(t, err)

	stats := engine.Statistics()

	assert.Equal(t, float64(stats[0].N), testutil.ToFloat64(metrics.PullsTotal.WithLabelValues("iris", "a")))
	assert.Equal(t, float64(stats[1].N), testutil.ToFloat64(metrics.PullsTotal.WithLabelValues("iris", "b")))
	assert.Equal(t, 0.8, testutil.ToFloat64(metrics.BestReward.WithLabelValues("iris", "b")))
	assert.Zero(t, testutil.ToFloat64(metrics.InvalidTotal.WithLabelValues("iris", "a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("ucb")))
}

func TestMetricsInvalidPull(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())

	metrics.RecordPull("run", "a", Observation{Reward: Penalty, Invalid: true}, Penalty)
	metrics.RecordPull("run", "a", Observation{Reward: 0.5}, 0.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.PullsTotal.WithLabelValues("run", "a")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.InvalidTotal.WithLabelValues("run", "a")))
	assert.Equal(t, 0.5, testutil.ToFloat64(metrics.BestReward.WithLabelValues("run", "a")))
}
