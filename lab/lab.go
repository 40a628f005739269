// Package lab runs model-selection experiments over many datasets: it builds
// the arms, runs one engine per dataset on a bounded worker pool, scores the
// winner on the test split and writes the artifacts.
package lab

import (
	"context"
	"fmt"
	"time"

	"github.com/thalesfsp/mab"
	"github.com/thalesfsp/mab/dataset"
	"github.com/thalesfsp/mab/evaluate"
	"github.com/thalesfsp/mab/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report is the outcome of one engine run on one dataset.
type Report struct {
	Dataset string         `json:"dataset"`
	Run     string         `json:"run"`
	Policy  mab.PolicyType `json:"policy"`
	Budget  int            `json:"budget"`
	Seed    int64          `json:"seed"`

	// Winner is empty when nothing was evaluated.
	Winner     string         `json:"winner"`
	BestReward float64        `json:"best_reward"`
	BestConfig map[string]any `json:"best_config,omitempty"`

	// TestScore of the refit winner, valid when HasTest is set.
	HasTest   bool    `json:"has_test"`
	TestScore float64 `json:"test_score"`

	// GroundTruth and ExploitationRate are set when a ground truth is known.
	GroundTruth      string  `json:"ground_truth,omitempty"`
	ExploitationRate float64 `json:"exploitation_rate"`

	Arms       []string            `json:"arms"`
	Statistics []mab.ArmStatistics `json:"statistics"`
	Trace      [][]int             `json:"-"`

	Elapsed time.Duration `json:"elapsed"`
}

// Runner runs one experiment configuration.
type Runner struct {
	config  *RunConfig
	logger  *zap.Logger
	metrics *mab.Metrics
	truth   map[string]string
}

// NewRunner creates a runner. logger and metrics may be nil.
func NewRunner(config *RunConfig, logger *zap.Logger, metrics *mab.Metrics) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Runner{
		config:  config,
		logger:  logger,
		metrics: metrics,
		truth:   make(map[string]string),
	}
}

// WithGroundTruth sets the ground-truth arm per dataset name used to compute
// the exploitation rate.
func (r *Runner) WithGroundTruth(truth map[string]string) *Runner {
	for name, arm := range truth {
		r.truth[name] = arm
	}

	return r
}

// Run runs one engine per dataset on at most config.Workers goroutines.
// Dataset i is seeded with config.Seed+i, so results do not depend on
// scheduling. Reports are returned in dataset order.
func (r *Runner) Run(ctx context.Context, datasets []*dataset.Dataset) ([]Report, error) {
	reports := make([]Report, len(datasets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.Workers)

	for i, d := range datasets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			report, err := r.RunOne(d, r.config.Seed+int64(i))
			if err != nil {
				return fmt.Errorf("dataset %s: %w", d.Name, err)
			}

			if r.config.Output != "" {
				if err := WriteArtifacts(r.config.Output, report); err != nil {
					return fmt.Errorf("dataset %s: %w", d.Name, err)
				}
			}

			reports[i] = report

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return reports, nil
}

// RunOne runs a single engine on d with fresh arms.
func (r *Runner) RunOne(d *dataset.Dataset, seed int64) (Report, error) {
	start := time.Now()
	logger := r.logger.With(zap.String("dataset", d.Name))

	arms, err := BuildArms(r.config.Models, r.evaluator())
	if err != nil {
		return Report{}, err
	}

	policy, err := mab.NewPolicy(r.config.Policy)
	if err != nil {
		return Report{}, err
	}

	engine, err := mab.NewEngine(mab.Config{
		Name:    d.Name,
		Policy:  policy,
		Seed:    seed,
		Logger:  logger,
		Metrics: r.metrics,
	}, arms...)
	if err != nil {
		return Report{}, err
	}

	x, y := d.Train()

	selection, err := engine.Fit(x, y, r.config.Budget)
	if err != nil {
		return Report{}, err
	}

	report := Report{
		Dataset:    d.Name,
		Run:        r.config.Name,
		Policy:     policy.Type(),
		Budget:     r.config.Budget,
		Seed:       seed,
		Arms:       engine.Arms(),
		Statistics: engine.Statistics(),
		Trace:      engine.Trace(),
	}

	if selection != nil {
		report.Winner = selection.Name
		report.BestReward = selection.BestReward
		report.BestConfig = selection.BestConfig

		if d.HasTest() && selection.BestModel != nil {
			score, err := TestScore(selection.BestModel, d)
			if err != nil {
				logger.Warn("refit of the winner failed", zap.Error(err))
			} else {
				report.HasTest = true
				report.TestScore = score
			}
		}
	}

	if truth, ok := r.truth[d.Name]; ok {
		report.GroundTruth = truth
		report.ExploitationRate = ExploitationRate(report.Trace, report.Arms, truth)
	}

	report.Elapsed = time.Since(start)

	logger.Info("dataset done",
		zap.String("winner", report.Winner),
		zap.Float64("best_reward", report.BestReward),
		zap.Float64("test_score", report.TestScore),
		zap.Duration("elapsed", report.Elapsed),
	)

	if ce := logger.Check(zap.DebugLevel, "models"); ce != nil {
		ce.Write(zap.String("table", engine.ShowModels()))
	}

	return report, nil
}

func (r *Runner) evaluator() *evaluate.CrossValidator {
	return evaluate.New(r.config.Folds, r.config.Criterion)
}

// BuildArms creates one arm per built-in model name, all of them when names is
// empty. Arms are never shared between engines.
func BuildArms(names []string, evaluator mab.Evaluator) ([]*mab.Arm, error) {
	generators, err := models.Catalog(names...)
	if err != nil {
		return nil, err
	}

	arms := make([]*mab.Arm, 0, len(generators))

	for _, g := range generators {
		arm, err := mab.NewArm(g.Name(), g, evaluator)
		if err != nil {
			return nil, err
		}

		arms = append(arms, arm)
	}

	return arms, nil
}

// TestScore refits model on the full training split and returns its accuracy
// on the test split.
func TestScore(model mab.Model, d *dataset.Dataset) (float64, error) {
	x, y := d.Train()
	if err := model.Fit(x, y); err != nil {
		return 0, err
	}

	testX, testY := d.Test()
	if len(x) > 0 && len(testX) > 0 && len(testX[0]) != len(x[0]) {
		return 0, fmt.Errorf("%w: test split of %s has %d features, train has %d", dataset.ErrWidth, d.Name, len(testX[0]), len(x[0]))
	}

	return evaluate.AccuracyScore(testY, model.Predict(testX)), nil
}
