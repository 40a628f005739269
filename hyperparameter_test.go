package mab

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHyperParameterSample(t *testing.T) {
	space := []HyperParameter{
		IntParam("n_neighbors", ParameterRange[int64]{Min: 1, Max: 3}),
		FloatParam("alpha", ParameterRange[float64]{Min: 0.5, Max: 2}),
		CategoricalParam("kernel", "rbf", "linear", "poly"),
		IntParam("fixed", ParameterRange[int64]{Min: 7, Max: 7}),
	}

	rng := rand.New(rand.NewSource(1))
	seenInts := make(map[float64]bool)

	for range 500 {
		for _, hp := range space {
			raw := hp.Sample(rng)
			require.True(t, hp.InRange(raw), "%s sampled %v", hp, raw)

			if hp.Name == "n_neighbors" {
				seenInts[raw] = true
			}
		}
	}

	// Both ends of an integer range are reachable.
	assert.Len(t, seenInts, 3)
}

func TestHyperParameterConvert(t *testing.T) {
	assert.Equal(t, int64(4), IntParam("k", ParameterRange[int64]{Min: 1, Max: 5}).Convert(4))
	assert.Equal(t, 0.25, FloatParam("a", ParameterRange[float64]{Min: 0, Max: 1}).Convert(0.25))
	assert.Equal(t, "linear", CategoricalParam("kernel", "rbf", "linear").Convert(1))
	assert.Equal(t, true, CategoricalParam("fit_intercept", true, false).Convert(0))
}

func TestHyperParameterInRange(t *testing.T) {
	k := IntParam("k", ParameterRange[int64]{Min: 1, Max: 5})
	assert.True(t, k.InRange(1))
	assert.True(t, k.InRange(5))
	assert.False(t, k.InRange(0))
	assert.False(t, k.InRange(2.5))

	c := CategoricalParam("c", "a", "b")
	assert.True(t, c.InRange(1))
	assert.False(t, c.InRange(2))
	assert.False(t, c.InRange(0.5))

	f := FloatParam("f", ParameterRange[float64]{Min: 0, Max: 1})
	assert.True(t, f.InRange(0.5))
	assert.False(t, f.InRange(1.01))
}

func TestHyperParameterValidate(t *testing.T) {
	tests := []struct {
		name    string
		hp      HyperParameter
		wantErr bool
	}{
		{"int", IntParam("k", ParameterRange[int64]{Min: 1, Max: 5}), false},
		{"float", FloatParam("a", ParameterRange[float64]{Min: 0, Max: 1}), false},
		{"categorical", CategoricalParam("c", "x"), false},
		{"empty name", FloatParam("", ParameterRange[float64]{Min: 0, Max: 1}), true},
		{"low above high", FloatParam("a", ParameterRange[float64]{Min: 2, Max: 1}), true},
		{"infinite bound", FloatParam("a", ParameterRange[float64]{Min: 0, Max: math.Inf(1)}), true},
		{"nan bound", FloatParam("a", ParameterRange[float64]{Min: math.NaN(), Max: 1}), true},
		{"non-integral integer", HyperParameter{Name: "k", Type: Integer, Low: 0.5, High: 3}, true},
		{"no choices", CategoricalParam("c"), true},
		{"unknown type", HyperParameter{Name: "x", Type: ParamType(9)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.hp.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSpec)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGeneratorBuild(t *testing.T) {
	var got map[string]any

	g, err := NewGenerator("knn", func(params map[string]any) (Model, error) {
		got = params
		return stubModel{}, nil
	},
		IntParam("k", ParameterRange[int64]{Min: 1, Max: 5}),
		CategoricalParam("weights", "uniform", "distance"),
	)
	require.NoError(t, err)
	assert.Equal(t, "knn", g.Name())
	assert.Len(t, g.Space(), 2)

	_, err = g.Build([]float64{3, 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": int64(3), "weights": "distance"}, got)

	_, err = g.Build([]float64{3})
	assert.ErrorIs(t, err, ErrParamLength)

	_, err = g.Build([]float64{9, 0})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestNewGeneratorRejectsDuplicateNames(t *testing.T) {
	_, err := NewGenerator("g", func(map[string]any) (Model, error) { return stubModel{}, nil },
		IntParam("k", ParameterRange[int64]{Min: 1, Max: 5}),
		IntParam("k", ParameterRange[int64]{Min: 1, Max: 5}),
	)
	assert.ErrorIs(t, err, ErrInvalidSpec)

	_, err = NewGenerator("g", nil)
	assert.ErrorIs(t, err, ErrInvalidSpec)
}
