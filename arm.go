package mab

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Arm is one candidate model generator under evaluation together with its
// reward history. An Arm is mutated only by Pull and must not be pulled from
// several goroutines.
type Arm struct {
	name      string
	generator ModelGenerator
	evaluator Evaluator
	space     []HyperParameter

	n    int
	mean float64
	m2   float64

	bestReward float64
	bestParams []float64
	bestModel  Model

	history []Observation
}

// NewArm creates an arm. The generator's space is validated up front, so a
// malformed definition fails here rather than in the middle of a run.
//
// Parameters:
// - name: Unique name of the arm, reported in statistics and traces
// - generator: Builds a model out of a raw parameter vector
// - evaluator: Scores a built model on the training data
//
// Returns:
// - *Arm: The arm, with no pulls and a best reward of -Inf
// - error: ErrInvalidSpec when a piece is missing or the space is invalid
//
// Usage example:
//
//	arm, err := mab.NewArm("knn", models.KNeighbors(), evaluate.New(5, evaluate.Accuracy))
func NewArm(name string, generator ModelGenerator, evaluator Evaluator) (*Arm, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: arm without name", ErrInvalidSpec)
	}

	if generator == nil || evaluator == nil {
		return nil, fmt.Errorf("%w: arm %s needs a generator and an evaluator", ErrInvalidSpec, name)
	}

	space := generator.Space()
	if err := validateSpace(space); err != nil {
		return nil, fmt.Errorf("arm %s: %w", name, err)
	}

	return &Arm{
		name:       name,
		generator:  generator,
		evaluator:  evaluator,
		space:      space,
		bestReward: math.Inf(-1),
	}, nil
}

// Pull performs one randomized trial: it draws a parameter vector, builds a
// model, scores it and records the result.
//
// Build and evaluation failures never escape: the reward is clamped to
// Penalty, the observation is marked invalid and the pull still counts. A
// score that is NaN or infinite is treated the same way.
//
// Parameters:
// - rng: Source for the parameter draw, owned by the caller
// - x, y: Training features and labels handed to the evaluator
//
// Returns:
// - Observation: The recorded pull
// - error: Only when the generator rejects the length of a vector drawn
//   from its own space (ErrParamLength). Nothing is recorded then
func (a *Arm) Pull(rng *rand.Rand, x [][]float64, y []int) (Observation, error) {
	params := make([]float64, len(a.space))
	for i, hp := range a.space {
		params[i] = hp.Sample(rng)
	}

	obs := Observation{Params: params}

	model, err := a.generator.Build(params)
	switch {
	case errors.Is(err, ErrParamLength):
		return Observation{}, fmt.Errorf("arm %s: %w", a.name, err)
	case err == nil:
		obs.Reward, err = a.evaluator.Score(model, x, y)
		if err == nil && (math.IsNaN(obs.Reward) || math.IsInf(obs.Reward, 0)) {
			err = fmt.Errorf("evaluator returned a non-finite score %v", obs.Reward)
		}
	}

	if err != nil {
		obs.Reward, obs.Invalid, obs.Err = Penalty, true, err
	}

	a.record(obs, model)

	return obs, nil
}

// record appends obs and updates the running statistics (Welford).
func (a *Arm) record(obs Observation, model Model) {
	a.history = append(a.history, obs)

	a.n++
	delta := obs.Reward - a.mean
	a.mean += delta / float64(a.n)
	a.m2 += delta * (obs.Reward - a.mean)

	if obs.Reward > a.bestReward {
		a.bestReward = obs.Reward
		a.bestParams = append([]float64(nil), obs.Params...)
		a.bestModel = model
	}
}

// Name of the arm.
func (a *Arm) Name() string { return a.name }

// N is the number of pulls.
func (a *Arm) N() int { return a.n }

// Mean of the observed rewards.
func (a *Arm) Mean() float64 { return a.mean }

// Variance is the sample variance of the observed rewards, 0 below two pulls.
func (a *Arm) Variance() float64 {
	if a.n < 2 {
		return 0
	}

	return a.m2 / float64(a.n-1)
}

// Std is the sample standard deviation of the observed rewards.
func (a *Arm) Std() float64 { return math.Sqrt(a.Variance()) }

// BestReward is the best reward seen so far, -Inf before the first pull.
func (a *Arm) BestReward() float64 { return a.bestReward }

// BestParams returns a copy of the raw vector that produced BestReward.
func (a *Arm) BestParams() []float64 {
	return append([]float64(nil), a.bestParams...)
}

// BestModel is the model that produced BestReward. Nil when the best pull was
// rejected by the generator.
func (a *Arm) BestModel() Model { return a.bestModel }

// BestConfig resolves BestParams into named values.
func (a *Arm) BestConfig() map[string]any {
	if a.n == 0 {
		return nil
	}

	config := make(map[string]any, len(a.space))
	for i, hp := range a.space {
		config[hp.Name] = hp.Convert(a.bestParams[i])
	}

	return config
}

// History returns a copy of every observation in pull order.
func (a *Arm) History() []Observation {
	h := make([]Observation, len(a.history))
	copy(h, a.history)

	return h
}

// Statistics returns a snapshot of the arm.
func (a *Arm) Statistics(index int) ArmStatistics {
	best := a.bestReward
	if a.n == 0 {
		best = 0
	}

	return ArmStatistics{
		Index: index,
		Name:  a.name,
		N:     a.n,
		Mean:  a.mean,
		Std:   a.Std(),
		Max:   best,
	}
}
