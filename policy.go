package mab

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/floats"
)

//////
// Selection policies.
// Each policy decides which arm to pull next by balancing exploration (arms
// with few pulls) and exploitation (arms with a high mean reward).
//////

// PolicyType names a selection policy.
type PolicyType string

const (
	// UCBPolicy is the upper confidence bound policy.
	UCBPolicy PolicyType = "ucb"

	// EpsilonGreedyPolicy is the epsilon-greedy policy.
	EpsilonGreedyPolicy PolicyType = "epsilon-greedy"

	// SoftMaxPolicy is the Boltzmann exploration policy.
	SoftMaxPolicy PolicyType = "softmax"

	// ProposedPolicy is the adaptive theta/gamma/beta policy.
	ProposedPolicy PolicyType = "proposed"
)

// Policy maps arm snapshots to the index of the next arm to pull.
//
// Implementations must:
// - Pull every arm with N == 0 first, lowest index first
// - Break ties toward the lowest index
// - Draw randomness only from rng
type Policy interface {
	// Select returns the index of the next arm. t is the number of pulls
	// completed in the run before this decision.
	Select(arms []ArmStatistics, t int, rng *rand.Rand) int

	// Type returns the policy type.
	Type() PolicyType
}

// PolicyConfig is the serializable description of a policy.
type PolicyConfig struct {
	Type        PolicyType `yaml:"type" json:"type"`
	C           float64    `yaml:"c" json:"c"`
	Epsilon     float64    `yaml:"epsilon" json:"epsilon"`
	Temperature float64    `yaml:"temperature" json:"temperature"`
	Theta       float64    `yaml:"theta" json:"theta"`
	Gamma       float64    `yaml:"gamma" json:"gamma"`
	Beta        float64    `yaml:"beta" json:"beta"`
}

// DefaultPolicyConfig returns a UCB configuration with c = 1.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		Type:        UCBPolicy,
		C:           1,
		Epsilon:     0.1,
		Temperature: 0.1,
		Theta:       1,
		Gamma:       1,
		Beta:        0.5,
	}
}

// NewPolicy builds and validates the policy described by pc.
func NewPolicy(pc PolicyConfig) (Policy, error) {
	var p Policy

	switch PolicyType(strings.ToLower(string(pc.Type))) {
	case UCBPolicy, "":
		p = NewUCB(pc.C)
	case EpsilonGreedyPolicy, "epsilon", "egreedy":
		p = NewEpsilonGreedy(pc.Epsilon)
	case SoftMaxPolicy:
		p = NewSoftMax(pc.Temperature)
	case ProposedPolicy, "new":
		p = NewProposed(pc.Theta, pc.Gamma, pc.Beta)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidPolicy, pc.Type)
	}

	if v, ok := p.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}

	return p, nil
}

//////
// UCB.
//////

// UCB implements the Upper Confidence Bound policy.
//
// How it works:
// - score(i) = mean_i + C * sqrt(2 * ln(t) / n_i)
// - Arms pulled rarely get a larger bonus
// - C controls the trade-off (higher = more exploration)
//
// Example:
//
//	config := DefaultConfig()
//	config.Policy = NewUCB(1.0)
type UCB struct {
	C float64
}

// NewUCB creates a UCB policy with exploration constant c.
func NewUCB(c float64) *UCB { return &UCB{C: c} }

// Validate checks the coefficients.
func (p *UCB) Validate() error {
	if p.C < 0 || math.IsNaN(p.C) {
		return fmt.Errorf("%w: ucb c must be >= 0, got %v", ErrInvalidPolicy, p.C)
	}

	return nil
}

// Select implements Policy.
func (p *UCB) Select(arms []ArmStatistics, t int, _ *rand.Rand) int {
	if i, ok := forcedInit(arms); ok {
		return i
	}

	logT := math.Log(float64(t))

	return argmaxBy(arms, func(a ArmStatistics) float64 {
		return a.Mean + p.C*math.Sqrt(2*logT/float64(a.N))
	})
}

// Type implements Policy.
func (p *UCB) Type() PolicyType { return UCBPolicy }

//////
// Epsilon-greedy.
//////

// EpsilonGreedy pulls a uniformly random arm with probability Epsilon and the
// arm with the highest mean otherwise.
//
// When to use:
// - When a fixed exploration rate is wanted
// - Epsilon = 0 is pure greedy selection
type EpsilonGreedy struct {
	Epsilon float64
}

// NewEpsilonGreedy creates an epsilon-greedy policy.
func NewEpsilonGreedy(epsilon float64) *EpsilonGreedy {
	return &EpsilonGreedy{Epsilon: epsilon}
}

// Validate checks the coefficients.
func (p *EpsilonGreedy) Validate() error {
	if !(p.Epsilon >= 0 && p.Epsilon <= 1) {
		return fmt.Errorf("%w: epsilon must be in [0, 1], got %v", ErrInvalidPolicy, p.Epsilon)
	}

	return nil
}

// Select implements Policy.
func (p *EpsilonGreedy) Select(arms []ArmStatistics, _ int, rng *rand.Rand) int {
	if i, ok := forcedInit(arms); ok {
		return i
	}

	if p.Epsilon > 0 && rng.Float64() < p.Epsilon {
		return rng.Intn(len(arms))
	}

	return greedy(arms)
}

// Type implements Policy.
func (p *EpsilonGreedy) Type() PolicyType { return EpsilonGreedyPolicy }

//////
// SoftMax.
//////

// SoftMax samples arms from a Boltzmann distribution over their means.
//
// How it works:
// - w_i = exp((mean_i - max mean) / Temperature), normalized
// - Low temperatures approach greedy selection
// - High temperatures approach uniform selection
type SoftMax struct {
	Temperature float64
}

// NewSoftMax creates a softmax policy with temperature tau.
func NewSoftMax(tau float64) *SoftMax { return &SoftMax{Temperature: tau} }

// Validate checks the coefficients.
func (p *SoftMax) Validate() error {
	if !(p.Temperature > 0) || math.IsInf(p.Temperature, 1) {
		return fmt.Errorf("%w: temperature must be > 0, got %v", ErrInvalidPolicy, p.Temperature)
	}

	return nil
}

// Select implements Policy.
func (p *SoftMax) Select(arms []ArmStatistics, _ int, rng *rand.Rand) int {
	if i, ok := forcedInit(arms); ok {
		return i
	}

	means := make([]float64, len(arms))
	for i, a := range arms {
		means[i] = a.Mean
	}

	weights := SoftMaxWeights(means, p.Temperature)

	u := rng.Float64()
	cumulative := 0.0

	for i, w := range weights {
		cumulative += w
		if u < cumulative {
			return i
		}
	}

	// Rounding left the cumulative sum just below 1.
	return len(weights) - 1
}

// Type implements Policy.
func (p *SoftMax) Type() PolicyType { return SoftMaxPolicy }

// SoftMaxWeights returns the normalized Boltzmann weights of means at
// temperature tau. The maximum is subtracted before exponentiating so the
// weights stay finite for any magnitude of the means.
func SoftMaxWeights(means []float64, tau float64) []float64 {
	if len(means) == 0 {
		return nil
	}

	peak := floats.Max(means)

	weights := make([]float64, len(means))
	for i, m := range means {
		weights[i] = math.Exp((m - peak) / tau)
	}

	floats.Scale(1/floats.Sum(weights), weights)

	return weights
}

//////
// Proposed.
//////

// Proposed is a generalized UCB whose exploration bonus decays with the
// global pull count and with each arm's own pull count.
//
// How it works:
// - score(i) = mean_i + Theta * Gamma^t / (n_i + 1)^Beta
// - Theta scales the bonus, Theta = 0 is pure greedy selection
// - Gamma < 1 shrinks the bonus as the run advances
// - Beta controls how fast an arm's own pulls suppress its bonus
//
// Example:
//
//	config := DefaultConfig()
//	config.Policy = NewProposed(0.5, 0.99, 0.7)
type Proposed struct {
	Theta float64
	Gamma float64
	Beta  float64
}

// NewProposed creates the adaptive policy.
func NewProposed(theta, gamma, beta float64) *Proposed {
	return &Proposed{Theta: theta, Gamma: gamma, Beta: beta}
}

// Validate checks the coefficients.
func (p *Proposed) Validate() error {
	if p.Theta < 0 || math.IsNaN(p.Theta) {
		return fmt.Errorf("%w: theta must be >= 0, got %v", ErrInvalidPolicy, p.Theta)
	}

	if !(p.Gamma > 0 && p.Gamma <= 1) {
		return fmt.Errorf("%w: gamma must be in (0, 1], got %v", ErrInvalidPolicy, p.Gamma)
	}

	if p.Beta < 0 || math.IsNaN(p.Beta) {
		return fmt.Errorf("%w: beta must be >= 0, got %v", ErrInvalidPolicy, p.Beta)
	}

	return nil
}

// Select implements Policy.
func (p *Proposed) Select(arms []ArmStatistics, t int, _ *rand.Rand) int {
	if i, ok := forcedInit(arms); ok {
		return i
	}

	decay := p.Theta * math.Pow(p.Gamma, float64(t))

	return argmaxBy(arms, func(a ArmStatistics) float64 {
		return a.Mean + decay/math.Pow(float64(a.N+1), p.Beta)
	})
}

// Type implements Policy.
func (p *Proposed) Type() PolicyType { return ProposedPolicy }
