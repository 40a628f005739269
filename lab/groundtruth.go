package lab

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/thalesfsp/mab"
	"github.com/thalesfsp/mab/dataset"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Truth is the random-search reference of one dataset.
type Truth struct {
	Dataset    string              `json:"dataset"`
	Best       string              `json:"best"`
	Statistics []mab.ArmStatistics `json:"statistics"`
}

// GroundTruth pulls every arm budget times with uniform random search, one
// goroutine per arm at most workers at a time. Arm i draws from seed+i. The
// best arm is the one with the highest max reward, lowest index on ties.
func GroundTruth(ctx context.Context, arms []*mab.Arm, x [][]float64, y []int, budget, workers int, seed int64) (Truth, error) {
	if len(arms) == 0 {
		return Truth{}, mab.ErrNoArms
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i, arm := range arms {
		g.Go(func() error {
			rng := rand.New(rand.NewSource(seed + int64(i)))

			for range budget {
				if err := ctx.Err(); err != nil {
					return err
				}

				if _, err := arm.Pull(rng, x, y); err != nil {
					return fmt.Errorf("%s: %w", arm.Name(), err)
				}
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Truth{}, err
	}

	truth := Truth{Statistics: make([]mab.ArmStatistics, len(arms))}
	best := -1

	for i, arm := range arms {
		truth.Statistics[i] = arm.Statistics(i)

		if arm.N() > 0 && (best == -1 || arm.BestReward() > arms[best].BestReward()) {
			best = i
		}
	}

	if best >= 0 {
		truth.Best = arms[best].Name()
	}

	return truth, nil
}

// GroundTruth computes the random-search reference of every dataset with
// config.GroundTruthBudget pulls per model, registers the results for the
// exploitation rate and returns them.
func (r *Runner) GroundTruth(ctx context.Context, datasets []*dataset.Dataset) ([]Truth, error) {
	truths := make([]Truth, 0, len(datasets))

	for i, d := range datasets {
		arms, err := BuildArms(r.config.Models, r.evaluator())
		if err != nil {
			return nil, err
		}

		x, y := d.Train()

		truth, err := GroundTruth(ctx, arms, x, y, r.config.GroundTruthBudget, r.config.Workers, r.config.Seed+int64(i))
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
		}

		truth.Dataset = d.Name
		r.truth[d.Name] = truth.Best

		r.logger.Info("ground truth",
			zap.String("dataset", d.Name),
			zap.String("best", truth.Best),
		)

		truths = append(truths, truth)
	}

	return truths, nil
}

// ExploitationRate is the share of the budget spent on the truth arm: its
// count in the last trace row divided by the number of pulls. Zero when the
// trace is empty or truth is not an arm.
func ExploitationRate(trace [][]int, names []string, truth string) float64 {
	if len(trace) == 0 {
		return 0
	}

	last := trace[len(trace)-1]

	for i, name := range names {
		if name == truth && i < len(last) {
			return float64(last[i]) / float64(len(trace))
		}
	}

	return 0
}
