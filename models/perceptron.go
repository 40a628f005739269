package models

import (
	"fmt"

	"github.com/thalesfsp/mab"
	"gonum.org/v1/gonum/floats"
)

// Perceptron is a one-vs-rest linear perceptron trained in row order.
//
// Space:
// - eta0: learning rate, real in [0.1, 10]
// - max_iter: integer in [5, 200], passes over the training data
// - fit_intercept: true or false
func Perceptron() *mab.Generator {
	return must(mab.NewGenerator(PerceptronName, func(params map[string]any) (mab.Model, error) {
		return &perceptron{
			eta:       params["eta0"].(float64),
			epochs:    int(params["max_iter"].(int64)),
			intercept: params["fit_intercept"].(bool),
		}, nil
	},
		mab.FloatParam("eta0", mab.ParameterRange[float64]{Min: 0.1, Max: 10}),
		mab.IntParam("max_iter", mab.ParameterRange[int64]{Min: 5, Max: 200}),
		mab.CategoricalParam("fit_intercept", true, false),
	))
}

type perceptron struct {
	eta       float64
	epochs    int
	intercept bool

	classes []int
	weights [][]float64
	biases  []float64
}

// Fit implements mab.Model.
func (m *perceptron) Fit(x [][]float64, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	m.classes = classesOf(y)
	if len(m.classes) < 2 {
		return fmt.Errorf("%w: perceptron needs at least 2 classes", mab.ErrInvalidConfiguration)
	}

	dim := len(x[0])
	m.weights = make([][]float64, len(m.classes))
	m.biases = make([]float64, len(m.classes))

	for c := range m.classes {
		m.weights[c] = make([]float64, dim)
	}

	for epoch := 0; epoch < m.epochs; epoch++ {
		mistakes := 0

		for i, row := range x {
			for c, label := range m.classes {
				target := -1.0
				if y[i] == label {
					target = 1
				}

				if target*m.score(c, row) <= 0 {
					floats.AddScaled(m.weights[c], m.eta*target, row)

					if m.intercept {
						m.biases[c] += m.eta * target
					}

					mistakes++
				}
			}
		}

		if mistakes == 0 {
			break
		}
	}

	return nil
}

func (m *perceptron) score(c int, row []float64) float64 {
	return floats.Dot(m.weights[c], row) + m.biases[c]
}

// Predict implements mab.Model.
func (m *perceptron) Predict(x [][]float64) []int {
	predictions := make([]int, len(x))
	scores := make([]float64, len(m.classes))

	for i, row := range x {
		for c := range m.classes {
			scores[c] = m.score(c, row)
		}

		predictions[i] = bestClass(m.classes, scores)
	}

	return predictions
}
