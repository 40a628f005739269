package mab

import (
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/exp/constraints"
)

//////
// Const, vars, types.
//////

// Penalty is the reward recorded for a pull whose configuration could not be
// evaluated.
const Penalty = 0.0

// ParamType is the semantic type of a hyperparameter.
type ParamType int

const (
	// Float is a real-valued parameter.
	Float ParamType = iota

	// Integer is an integer-valued parameter.
	Integer

	// Categorical is a parameter addressed by choice index.
	Categorical
)

// String implements fmt.Stringer.
func (p ParamType) String() string {
	switch p {
	case Float:
		return "float"
	case Integer:
		return "integer"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// State is the lifecycle state of an Engine.
type State int

const (
	// Idle engines have not been fitted yet.
	Idle State = iota

	// Running engines are inside Fit.
	Running

	// Done engines have finished their single run.
	Done
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// ParameterRange defines the inclusive range of a numeric hyperparameter.
//
// Type Parameter:
//   - T: The numeric type for this parameter range (int64 or float64)
//
// Usage:
//
//	// Number of neighbours from 1 to 100
//	neighbours := ParameterRange[int64]{Min: 1, Max: 100}
//
//	// Learning rate from 0.0001 to 0.1
//	learningRate := ParameterRange[float64]{Min: 0.0001, Max: 0.1}
//
// Validation:
// - Min must be less than or equal to Max
// - The range is inclusive of both Min and Max values
type ParameterRange[T constraints.Integer | constraints.Float] struct {
	// Min defines the minimum allowed value (inclusive).
	Min T

	// Max defines the maximum allowed value (inclusive).
	Max T
}

// HyperParameter describes one tunable value of a model generator. It is a
// value type and is never mutated after construction.
//
// Raw values are float64: integer parameters hold integral values and
// categorical parameters hold the index of the choice.
type HyperParameter struct {
	// Name of the parameter as understood by the model builder.
	Name string

	// Type is the semantic type.
	Type ParamType

	// Low and High are the inclusive bounds of numeric parameters.
	Low, High float64

	// Choices are the allowed values of categorical parameters.
	Choices []any
}

// Model is a trainable classifier.
type Model interface {
	// Fit trains the model. Errors wrapping ErrInvalidConfiguration mean the
	// hyperparameters are not usable with this data.
	Fit(x [][]float64, y []int) error

	// Predict returns one label per row of x.
	Predict(x [][]float64) []int
}

// ModelGenerator exposes an ordered hyperparameter space and builds models
// from raw parameter vectors.
type ModelGenerator interface {
	// Space returns the ordered hyperparameter space.
	Space() []HyperParameter

	// Build creates a model. It must return ErrParamLength when
	// len(params) != len(Space()).
	Build(params []float64) (Model, error)
}

// Evaluator scores one model against training data, e.g. by k-fold
// cross-validation. Errors wrapping ErrInvalidConfiguration report an invalid
// combination and are distinct from a low valid score.
type Evaluator interface {
	Score(model Model, x [][]float64, y []int) (float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(model Model, x [][]float64, y []int) (float64, error)

// Score implements Evaluator.
func (f EvaluatorFunc) Score(model Model, x [][]float64, y []int) (float64, error) {
	return f(model, x, y)
}

// Observation is one recorded pull.
type Observation struct {
	// Params is the raw parameter vector that was drawn.
	Params []float64

	// Reward is the score, or Penalty if the evaluation failed.
	Reward float64

	// Invalid is set when the reward was clamped to Penalty.
	Invalid bool

	// Err is the absorbed evaluation error, if any. Not part of exports.
	Err error `json:"-"`
}

// ArmStatistics is an immutable snapshot of one arm. Policies decide on
// these snapshots only.
type ArmStatistics struct {
	Index int     `json:"index"`
	Name  string  `json:"name"`
	N     int     `json:"n"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Max   float64 `json:"max"`
}

// Selection is the value copy of the winning arm handed back by Fit.
type Selection struct {
	Index      int
	Name       string
	Pulls      int
	BestReward float64
	BestParams []float64
	BestConfig map[string]any
	BestModel  Model
}

// ProgressUpdate represents the state of a run after one pull.
type ProgressUpdate struct {
	// Iteration is the 1-based pull number.
	Iteration int

	// Budget is the total number of pulls of the run.
	Budget int

	// Arm is the name of the pulled arm.
	Arm string

	// Reward of the pull.
	Reward float64

	// Invalid is set when the reward was clamped to Penalty.
	Invalid bool

	// BestArm is the arm holding the best reward so far.
	BestArm string

	// BestReward is the best reward so far.
	BestReward float64
}

// Config holds the per-engine configuration. There are no package level
// singletons: everything an engine needs is passed here.
//
// Usage example:
//
//	config := DefaultConfig()
//	config.Policy = NewProposed(1.0, 0.99, 0.5)
//	config.Seed = 42
//	config.Logger = logger
//
// Note:
// - Create separate configs for parallel engines.
type Config struct {
	// Name identifies the run in logs and metrics, e.g. a dataset name.
	Name string

	// Policy decides which arm is pulled next.
	Policy Policy

	// Seed for the engine's private random source.
	Seed int64

	// RandomState overrides Seed when set. Do NOT share it between engines.
	RandomState *rand.Rand

	// Logger receives run events. Defaults to a no-op logger.
	Logger *zap.Logger

	// Metrics is optional.
	Metrics *Metrics

	// ProgressChan receives one update per pull. If nil, no updates are sent;
	// updates are dropped when the channel is full.
	ProgressChan chan<- ProgressUpdate
}
