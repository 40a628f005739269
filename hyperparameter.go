package mab

import (
	"fmt"
	"math"
	"math/rand"
)

//////
// Hyperparameter spaces.
//////

// IntParam creates an integer hyperparameter. Both ends of the range are
// inclusive.
//
// Parameters:
// - name: Key of the resolved value passed to the builder
// - r: Inclusive integer range
//
// Returns:
// - HyperParameter: Resolves to an int64
//
// Usage example:
//
//	depth := IntParam("max_depth", ParameterRange[int64]{Min: 1, Max: 40})
func IntParam(name string, r ParameterRange[int64]) HyperParameter {
	return HyperParameter{
		Name: name,
		Type: Integer,
		Low:  float64(r.Min),
		High: float64(r.Max),
	}
}

// FloatParam creates a real-valued hyperparameter sampled uniformly in
// [Min, Max].
//
// Parameters:
// - name: Key of the resolved value passed to the builder
// - r: Closed real range
//
// Returns:
// - HyperParameter: Resolves to a float64
//
// Usage example:
//
//	eta := FloatParam("eta0", ParameterRange[float64]{Min: 1e-4, Max: 1})
func FloatParam(name string, r ParameterRange[float64]) HyperParameter {
	return HyperParameter{
		Name: name,
		Type: Float,
		Low:  r.Min,
		High: r.Max,
	}
}

// CategoricalParam creates a categorical hyperparameter. Raw values are
// indexes into choices.
//
// Parameters:
// - name: Key of the resolved value passed to the builder
// - choices: The possible values, resolved as is. The slice is copied
//
// Returns:
// - HyperParameter: Resolves to one of choices
//
// Usage example:
//
//	weights := CategoricalParam("weights", "uniform", "distance")
func CategoricalParam(name string, choices ...any) HyperParameter {
	c := make([]any, len(choices))
	copy(c, choices)

	return HyperParameter{
		Name:    name,
		Type:    Categorical,
		Choices: c,
	}
}

// Validate checks that the bound is well-formed.
//
// Returns:
// - error: ErrInvalidSpec for an empty name, an unknown type, a non-finite
//   or inverted range, non-integral integer bounds or no choices
func (hp HyperParameter) Validate() error {
	if hp.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}

	switch hp.Type {
	case Integer, Float:
		if math.IsNaN(hp.Low) || math.IsNaN(hp.High) || math.IsInf(hp.Low, 0) || math.IsInf(hp.High, 0) {
			return fmt.Errorf("%w: %s has a non-finite bound", ErrInvalidSpec, hp.Name)
		}

		if hp.Low > hp.High {
			return fmt.Errorf("%w: %s has low %v > high %v", ErrInvalidSpec, hp.Name, hp.Low, hp.High)
		}

		if hp.Type == Integer && (hp.Low != math.Trunc(hp.Low) || hp.High != math.Trunc(hp.High)) {
			return fmt.Errorf("%w: %s has non-integral bounds", ErrInvalidSpec, hp.Name)
		}
	case Categorical:
		if len(hp.Choices) == 0 {
			return fmt.Errorf("%w: %s has no choices", ErrInvalidSpec, hp.Name)
		}
	default:
		return fmt.Errorf("%w: %s has unknown type %d", ErrInvalidSpec, hp.Name, hp.Type)
	}

	return nil
}

// Bound returns the inclusive raw bound. For categorical parameters it is
// the index range.
func (hp HyperParameter) Bound() (low, high float64) {
	if hp.Type == Categorical {
		return 0, float64(len(hp.Choices) - 1)
	}

	return hp.Low, hp.High
}

// InRange reports whether raw is a legal value for this parameter.
func (hp HyperParameter) InRange(raw float64) bool {
	low, high := hp.Bound()
	if raw < low || raw > high {
		return false
	}

	if hp.Type != Float && raw != math.Trunc(raw) {
		return false
	}

	return true
}

// Sample draws one legal raw value from rng, uniformly over the range.
//
// Integers are drawn among every integer of [Low, High], categoricals among
// the choice indexes and reals in [Low, High). Exactly one value is drawn from
// rng per call.
func (hp HyperParameter) Sample(rng *rand.Rand) float64 {
	switch hp.Type {
	case Integer:
		low, high := int64(hp.Low), int64(hp.High)

		return float64(low + rng.Int63n(high-low+1))
	case Categorical:
		return float64(rng.Intn(len(hp.Choices)))
	default:
		return hp.Low + rng.Float64()*(hp.High-hp.Low)
	}
}

// Convert resolves a raw value to its typed value: int64 for integers,
// float64 for reals and the choice itself for categoricals.
//
// Important notes:
// - The raw value must be InRange: a categorical index out of range panics
//
// Usage example:
//
//	CategoricalParam("weights", "uniform", "distance").Convert(1) // "distance"
func (hp HyperParameter) Convert(raw float64) any {
	switch hp.Type {
	case Integer:
		return int64(raw)
	case Categorical:
		return hp.Choices[int(raw)]
	default:
		return raw
	}
}

// String implements fmt.Stringer.
func (hp HyperParameter) String() string {
	if hp.Type == Categorical {
		return fmt.Sprintf("%s(%s %v)", hp.Name, hp.Type, hp.Choices)
	}

	return fmt.Sprintf("%s(%s [%v, %v])", hp.Name, hp.Type, hp.Low, hp.High)
}

// validateSpace validates every parameter of a space.
func validateSpace(space []HyperParameter) error {
	seen := make(map[string]struct{}, len(space))

	for _, hp := range space {
		if err := hp.Validate(); err != nil {
			return err
		}

		if _, ok := seen[hp.Name]; ok {
			return fmt.Errorf("%w: %s declared twice", ErrInvalidSpec, hp.Name)
		}

		seen[hp.Name] = struct{}{}
	}

	return nil
}
