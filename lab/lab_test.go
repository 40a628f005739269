package lab

import (
	"bytes"
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalesfsp/mab"
	"github.com/thalesfsp/mab/dataset"
	"github.com/thalesfsp/mab/evaluate"
	"github.com/thalesfsp/mab/models"
)

// blobs builds a two-class dataset with a test split.
func blobs(name string, seed int64) *dataset.Dataset {
	rng := rand.New(rand.NewSource(seed))

	sample := func(n int) ([][]float64, []int) {
		x := make([][]float64, n)
		y := make([]int, n)

		for i := range x {
			y[i] = i % 2
			center := 4 * float64(y[i])
			x[i] = []float64{center + rng.NormFloat64()*0.3, center + rng.NormFloat64()*0.3}
		}

		return x, y
	}

	d := &dataset.Dataset{Name: name, Classes: map[string]int{"a": 0, "b": 1}}
	d.TrainX, d.TrainY = sample(40)
	d.TestX, d.TestY = sample(10)

	return d
}

func testRunConfig(t *testing.T) *RunConfig {
	t.Helper()

	config := DefaultRunConfig()
	config.Name = "ucb"
	config.Budget = 8
	config.Workers = 2
	config.Folds = 3
	config.Models = []string{models.GaussianNBName, models.NearestCentroidName, models.KNeighborsName}
	config.Output = t.TempDir()

	return config
}

func TestRunnerRun(t *testing.T) {
	config := testRunConfig(t)
	metrics := mab.NewMetrics(prometheus.NewRegistry())

	datasets := []*dataset.Dataset{blobs("first", 1), blobs("second", 2), blobs("third", 3)}

	reports, err := NewRunner(config, nil, metrics).Run(context.Background(), datasets)
	require.NoError(t, err)
	require.Len(t, reports, 3)

	for i, r := range reports {
		assert.Equal(t, datasets[i].Name, r.Dataset)
		assert.Equal(t, config.Seed+int64(i), r.Seed)
		assert.Equal(t, mab.UCBPolicy, r.Policy)
		assert.NotEmpty(t, r.Winner)
		assert.True(t, r.HasTest)
		assert.Greater(t, r.TestScore, 0.9)
		assert.Len(t, r.Trace, config.Budget)
		assert.Len(t, r.Statistics, 3)

		for _, suffix := range []string{"_statistics.csv", "_trace.csv", "_report.json"} {
			assert.FileExists(t, filepath.Join(config.Output, "ucb_"+r.Dataset+suffix))
		}
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("ucb")))
}

func TestRunnerIsDeterministic(t *testing.T) {
	config := testRunConfig(t)
	config.Output = ""
	config.Policy = mab.PolicyConfig{Type: mab.EpsilonGreedyPolicy, Epsilon: 0.5}

	run := func(workers int) []Report {
		config.Workers = workers

		reports, err := NewRunner(config, nil, nil).Run(context.Background(), []*dataset.Dataset{blobs("a", 1), blobs("b", 2)})
		require.NoError(t, err)

		return reports
	}

	first, second := run(1), run(2)

	for i := range first {
		assert.Equal(t, first[i].Trace, second[i].Trace)
		assert.Equal(t, first[i].BestReward, second[i].BestReward)
	}
}

func TestRunnerEmptyBudget(t *testing.T) {
	config := testRunConfig(t)
	config.Budget = 0

	reports, err := NewRunner(config, nil, nil).Run(context.Background(), []*dataset.Dataset{blobs("a", 1)})
	require.NoError(t, err)

	assert.Empty(t, reports[0].Winner)
	assert.Empty(t, reports[0].Trace)
	assert.False(t, reports[0].HasTest)
}

func TestRunnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(testRunConfig(t), nil, nil).Run(ctx, []*dataset.Dataset{blobs("a", 1)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGroundTruthAndExploitation(t *testing.T) {
	config := testRunConfig(t)
	config.GroundTruthBudget = 3

	runner := NewRunner(config, nil, nil)
	datasets := []*dataset.Dataset{blobs("a", 1)}

	truths, err := runner.GroundTruth(context.Background(), datasets)
	require.NoError(t, err)
	require.Len(t, truths, 1)

	truth := truths[0]
	assert.Equal(t, "a", truth.Dataset)
	assert.Contains(t, config.Models, truth.Best)

	for _, s := range truth.Statistics {
		assert.Equal(t, 3, s.N)
	}

	reports, err := runner.Run(context.Background(), datasets)
	require.NoError(t, err)

	assert.Equal(t, truth.Best, reports[0].GroundTruth)
	assert.GreaterOrEqual(t, reports[0].ExploitationRate, 1.0/float64(config.Budget))
	assert.LessOrEqual(t, reports[0].ExploitationRate, 1.0)
}

func TestGroundTruthNoArms(t *testing.T) {
	_, err := GroundTruth(context.Background(), nil, nil, nil, 1, 1, 1)
	assert.ErrorIs(t, err, mab.ErrNoArms)
}

func TestExploitationRate(t *testing.T) {
	trace := [][]int{{1, 0}, {1, 1}, {1, 2}, {1, 3}}
	names := []string{"a", "b"}

	assert.Equal(t, 0.75, ExploitationRate(trace, names, "b"))
	assert.Equal(t, 0.25, ExploitationRate(trace, names, "a"))
	assert.Zero(t, ExploitationRate(trace, names, "c"))
	assert.Zero(t, ExploitationRate(nil, names, "a"))
}

func TestBuildArms(t *testing.T) {
	arms, err := BuildArms(nil, evaluate.New(3, evaluate.Accuracy))
	require.NoError(t, err)
	assert.Len(t, arms, len(models.Names()))

	_, err = BuildArms([]string{"RandomForest"}, evaluate.New(3, evaluate.Accuracy))
	assert.Error(t, err)
}

func TestTestScore(t *testing.T) {
	d := blobs("a", 1)

	model, err := models.GaussianNB().Build(nil)
	require.NoError(t, err)

	score, err := TestScore(model, d)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestTestScoreWidthMismatch(t *testing.T) {
	d := blobs("a", 1)
	d.TestX[0] = append(d.TestX[0], 1)

	model, err := models.NearestCentroid().Build([]float64{0, 0})
	require.NoError(t, err)

	_, err = TestScore(model, d)
	assert.ErrorIs(t, err, dataset.ErrWidth)
}

func TestRenderSummary(t *testing.T) {
	var out bytes.Buffer

	err := RenderSummary(&out, []Report{
		{Dataset: "iris", Policy: mab.UCBPolicy, Winner: "KNeighbors", BestReward: 0.95, HasTest: true, TestScore: 0.93},
		{Dataset: "wine", Policy: mab.UCBPolicy, GroundTruth: "GaussianNB", ExploitationRate: 0.5},
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "iris")
	assert.Contains(t, out.String(), "KNeighbors")
	assert.Contains(t, out.String(), "0.9300")
	assert.Contains(t, out.String(), "50.00%")

	upper := strings.ToUpper(out.String())
	assert.Equal(t, 1, strings.Count(upper, "EXPLOITATION"))
	assert.Less(t, strings.Index(upper, "DATASET"), strings.Index(out.String(), "iris"))
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	report := Report{
		Dataset:    "iris",
		Run:        "ucb",
		Winner:     "b",
		BestConfig: map[string]any{"k": int64(3)},
		Arms:       []string{"a", "b"},
		Statistics: []mab.ArmStatistics{{Name: "a", N: 1, Mean: 0.5, Max: 0.5}, {Index: 1, Name: "b", N: 2, Mean: 0.75, Std: 0.25, Max: 0.9}},
		Trace:      [][]int{{1, 0}, {1, 1}, {1, 2}},
	}

	require.NoError(t, WriteArtifacts(dir, report))

	stats, err := os.ReadFile(filepath.Join(dir, "ucb_iris_statistics.csv"))
	require.NoError(t, err)
	assert.Equal(t, "name,n,mean,std,max\na,1,0.5,0,0.5\nb,2,0.75,0.25,0.9\n", string(stats))

	trace, err := os.ReadFile(filepath.Join(dir, "ucb_iris_trace.csv"))
	require.NoError(t, err)
	assert.Equal(t, "iteration,a,b\n1,1,0\n2,1,1\n3,1,2\n", string(trace))

	data, err := os.ReadFile(filepath.Join(dir, "ucb_iris_report.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "b", decoded["winner"])
	assert.NotContains(t, decoded, "Trace")

	statistics, ok := decoded["statistics"].([]any)
	require.True(t, ok)
	require.Len(t, statistics, 2)

	second, ok := statistics[1].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"index": 1.0, "name": "b", "n": 2.0, "mean": 0.75, "std": 0.25, "max": 0.9}, second)
}

func TestRunnerWithGroundTruth(t *testing.T) {
	config := testRunConfig(t)
	config.Output = ""

	runner := NewRunner(config, nil, nil).WithGroundTruth(map[string]string{"a": models.GaussianNBName})

	reports, err := runner.Run(context.Background(), []*dataset.Dataset{blobs("a", 1), blobs("b", 2)})
	require.NoError(t, err)

	assert.Equal(t, models.GaussianNBName, reports[0].GroundTruth)
	assert.Greater(t, reports[0].ExploitationRate, 0.0)
	assert.Empty(t, reports[1].GroundTruth)
	assert.Zero(t, reports[1].ExploitationRate)
}
