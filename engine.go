package mab

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"
)

//////
// Exported functionalities.
//////

// DefaultConfig returns a default configuration: UCB with c = 1 and a
// time-based seed.
func DefaultConfig() Config {
	return Config{
		Policy:       NewUCB(1),
		Seed:         time.Now().UnixNano(),
		Logger:       zap.NewNop(),
		ProgressChan: nil, // Default to no progress updates.
	}
}

// Engine allocates a fixed budget of pulls to arms according to a policy.
// An engine is single-use: Idle -> Running -> Done.
type Engine struct {
	config Config
	arms   []*Arm
	policy Policy
	rng    *rand.Rand
	logger *zap.Logger

	state State
	t     int
	trace [][]int
}

// NewEngine creates an engine over arms. The engine owns the arms for the
// duration of Fit.
func NewEngine(config Config, arms ...*Arm) (*Engine, error) {
	if len(arms) == 0 {
		return nil, ErrNoArms
	}

	if config.Policy == nil {
		return nil, fmt.Errorf("%w: nil policy", ErrInvalidPolicy)
	}

	if v, ok := config.Policy.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	seen := make(map[string]struct{}, len(arms))
	for _, a := range arms {
		if a == nil {
			return nil, fmt.Errorf("%w: nil arm", ErrInvalidSpec)
		}

		if _, ok := seen[a.Name()]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateArm, a.Name())
		}

		seen[a.Name()] = struct{}{}
	}

	rng := config.RandomState
	if rng == nil {
		rng = rand.New(rand.NewSource(config.Seed))
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		config: config,
		arms:   append([]*Arm(nil), arms...),
		policy: config.Policy,
		rng:    rng,
		logger: logger.With(zap.String("run", config.Name), zap.String("policy", string(config.Policy.Type()))),
	}, nil
}

// Fit runs exactly budget sequential pulls and returns a copy of the arm with
// the best observed reward.
//
// Parameters:
// - x, y: Training data handed to every evaluation
// - budget: Number of pulls
//
// Returns:
// - *Selection: The winner, nil when budget <= 0 (nothing was evaluated)
// - error: ErrEngineUsed on a second call, or ErrParamLength from a generator
//   whose Build disagrees with its own Space
//
// How it works:
// 1. Every arm is pulled once, in index order
// 2. For each remaining pull:
//   - The policy picks an arm from the current statistics
//   - The arm draws a random configuration and evaluates it
//   - The cumulative pull counts are appended to the trace
//
// Important notes:
// - Pulls are strictly sequential: each decision depends on the previous one
// - Build and evaluation failures, NaN and infinite scores are recorded as
//   Penalty rewards and never abort
// - Run independent engines in parallel, never one engine from two goroutines
func (e *Engine) Fit(x [][]float64, y []int, budget int) (*Selection, error) {
	if e.state != Idle {
		return nil, ErrEngineUsed
	}

	if budget <= 0 {
		e.state = Done
		e.logger.Info("empty budget, nothing evaluated", zap.Int("budget", budget))

		return nil, nil
	}

	e.state = Running
	start := time.Now()

	e.logger.Info("bandit selection started",
		zap.Int("arms", len(e.arms)),
		zap.Int("budget", budget),
		zap.Int("samples", len(x)),
	)

	counts := make([]int, len(e.arms))

	for i := 0; i < budget; i++ {
		idx := e.policy.Select(e.snapshot(), e.t, e.rng)
		if idx < 0 || idx >= len(e.arms) {
			e.state = Done

			return nil, fmt.Errorf("%w: %s selected arm %d of %d", ErrInvalidPolicy, e.policy.Type(), idx, len(e.arms))
		}

		arm := e.arms[idx]

		obs, err := arm.Pull(e.rng, x, y)
		if err != nil {
			e.state = Done

			return nil, err
		}

		e.t++
		counts[idx]++
		e.trace = append(e.trace, append([]int(nil), counts...))

		e.observe(i, budget, arm, obs)
	}

	e.state = Done

	if e.config.Metrics != nil {
		e.config.Metrics.RecordRun(e.policy.Type())
	}

	selection := e.best()

	e.logger.Info("bandit selection done",
		zap.Duration("elapsed", time.Since(start)),
		zap.String("best_arm", selection.Name),
		zap.Float64("best_reward", selection.BestReward),
	)

	return selection, nil
}

// observe logs, records metrics and sends progress for one pull.
func (e *Engine) observe(i, budget int, arm *Arm, obs Observation) {
	switch {
	case obs.Err != nil && isInvalidConfiguration(obs.Err):
		e.logger.Debug("parameter wrong, penalty applied",
			zap.String("arm", arm.Name()),
			zap.Error(obs.Err),
		)
	case obs.Err != nil:
		e.logger.Warn("evaluation failed, penalty applied",
			zap.String("arm", arm.Name()),
			zap.Error(obs.Err),
		)
	default:
		e.logger.Debug("pull",
			zap.Int("t", e.t),
			zap.String("arm", arm.Name()),
			zap.Float64("reward", obs.Reward),
			zap.Float64("mean", arm.Mean()),
		)
	}

	if e.config.Metrics != nil {
		e.config.Metrics.RecordPull(e.config.Name, arm.Name(), obs, arm.BestReward())
	}

	if e.config.ProgressChan != nil {
		best := e.best()

		update := ProgressUpdate{
			Iteration:  i + 1,
			Budget:     budget,
			Arm:        arm.Name(),
			Reward:     obs.Reward,
			Invalid:    obs.Invalid,
			BestArm:    best.Name,
			BestReward: best.BestReward,
		}

		select {
		case e.config.ProgressChan <- update:
		default:
			// Skip update if channel is full.
		}
	}
}

// snapshot returns the statistics the policy decides on.
func (e *Engine) snapshot() []ArmStatistics {
	stats := make([]ArmStatistics, len(e.arms))
	for i, a := range e.arms {
		stats[i] = a.Statistics(i)
	}

	return stats
}

// best returns the arm with the highest best reward among pulled arms, lowest
// index on ties. Nil when nothing was pulled.
func (e *Engine) best() *Selection {
	idx := -1

	for i, a := range e.arms {
		if a.N() == 0 {
			continue
		}

		if idx == -1 || a.BestReward() > e.arms[idx].BestReward() {
			idx = i
		}
	}

	if idx == -1 {
		return nil
	}

	a := e.arms[idx]

	return &Selection{
		Index:      idx,
		Name:       a.Name(),
		Pulls:      a.N(),
		BestReward: a.BestReward(),
		BestParams: a.BestParams(),
		BestConfig: a.BestConfig(),
		BestModel:  a.BestModel(),
	}
}

// State returns the lifecycle state.
func (e *Engine) State() State { return e.state }

// Pulls returns the number of pulls performed so far.
func (e *Engine) Pulls() int { return e.t }

// Arms returns the arm names in index order.
func (e *Engine) Arms() []string {
	names := make([]string, len(e.arms))
	for i, a := range e.arms {
		names[i] = a.Name()
	}

	return names
}

// Best returns the current winner, nil before any pull.
func (e *Engine) Best() *Selection { return e.best() }

// Statistics returns (n, mean, std, max) per arm. Empty when nothing was
// pulled.
func (e *Engine) Statistics() []ArmStatistics {
	if e.t == 0 {
		return nil
	}

	return e.snapshot()
}

// Trace returns a copy of the selection trace: row i holds the cumulative
// pull count of every arm after iteration i.
func (e *Engine) Trace() [][]int {
	trace := make([][]int, len(e.trace))
	for i, row := range e.trace {
		trace[i] = append([]int(nil), row...)
	}

	return trace
}

// ShowModels renders each arm's current best configuration as a table.
func (e *Engine) ShowModels() string {
	var out strings.Builder

	table := tablewriter.NewWriter(&out)
	table.Header("Arm", "Pulls", "Mean", "Best", "Config")

	for _, a := range e.arms {
		best := "-"
		if a.N() > 0 {
			best = fmt.Sprintf("%.4f", a.BestReward())
		}

		row := []string{
			a.Name(),
			fmt.Sprintf("%d", a.N()),
			fmt.Sprintf("%.4f", a.Mean()),
			best,
			formatConfig(a.BestConfig()),
		}

		if err := table.Append(row); err != nil {
			return fmt.Sprintf("failed to render models: %v", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Sprintf("failed to render models: %v", err)
	}

	return out.String()
}

// formatConfig prints a config with sorted keys.
func formatConfig(config map[string]any) string {
	if len(config) == 0 {
		return "-"
	}

	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, config[k])
	}

	return strings.Join(parts, " ")
}
