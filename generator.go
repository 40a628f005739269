package mab

import "fmt"

// BuildFunc creates a model from resolved parameter values keyed by name.
type BuildFunc func(params map[string]any) (Model, error)

// Generator is the stock ModelGenerator: an ordered space plus a builder.
type Generator struct {
	name  string
	space []HyperParameter
	build BuildFunc
}

// NewGenerator creates a generator. The space is validated here so that a
// malformed bound aborts before any pull.
//
// Parameters:
// - name: Model family name
// - build: Creates an unfitted model from resolved values
// - space: Ordered hyperparameters; raw vectors follow this order
//
// Returns:
// - *Generator: The generator
// - error: ErrInvalidSpec when build is nil or the space is invalid
//
// Usage example:
//
//	g, err := mab.NewGenerator("knn", buildKNN,
//		mab.IntParam("n_neighbors", mab.ParameterRange[int64]{Min: 1, Max: 100}),
//		mab.CategoricalParam("weights", "uniform", "distance"),
//	)
func NewGenerator(name string, build BuildFunc, space ...HyperParameter) (*Generator, error) {
	if build == nil {
		return nil, fmt.Errorf("%w: generator %s has no builder", ErrInvalidSpec, name)
	}

	if err := validateSpace(space); err != nil {
		return nil, fmt.Errorf("generator %s: %w", name, err)
	}

	s := make([]HyperParameter, len(space))
	copy(s, space)

	return &Generator{name: name, space: s, build: build}, nil
}

// Name of the generator.
func (g *Generator) Name() string { return g.name }

// Space implements ModelGenerator.
func (g *Generator) Space() []HyperParameter {
	s := make([]HyperParameter, len(g.space))
	copy(s, g.space)

	return s
}

// Build implements ModelGenerator.
//
// Returns:
// - Model: The unfitted model made by the builder
// - error: ErrParamLength when len(params) differs from the space,
//   ErrInvalidConfiguration for an out of range value, or whatever the
//   builder returns
func (g *Generator) Build(params []float64) (Model, error) {
	if len(params) != len(g.space) {
		return nil, fmt.Errorf("%w: %s expects %d values, got %d", ErrParamLength, g.name, len(g.space), len(params))
	}

	resolved, err := Resolve(g.space, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.name, err)
	}

	return g.build(resolved)
}

// Resolve converts a raw vector into typed values keyed by parameter name.
//
// Parameters:
// - space: The ordered hyperparameters
// - params: One raw value per hyperparameter
//
// Returns:
// - map[string]any: See HyperParameter.Convert for the value types
// - error: ErrParamLength or ErrInvalidConfiguration
func Resolve(space []HyperParameter, params []float64) (map[string]any, error) {
	if len(params) != len(space) {
		return nil, fmt.Errorf("%w: expected %d values, got %d", ErrParamLength, len(space), len(params))
	}

	resolved := make(map[string]any, len(space))

	for i, hp := range space {
		if !hp.InRange(params[i]) {
			return nil, fmt.Errorf("%w: value %v of %s is not in range", ErrInvalidConfiguration, params[i], hp.Name)
		}

		resolved[hp.Name] = hp.Convert(params[i])
	}

	return resolved, nil
}
