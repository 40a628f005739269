package models

import (
	"math"

	"github.com/thalesfsp/mab"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// varSmoothing is the share of the largest feature variance added to every
// variance for stability.
const varSmoothing = 1e-9

// GaussianNB is a Gaussian naive Bayes classifier. It has no
// hyperparameters: every pull evaluates the same model.
func GaussianNB() *mab.Generator {
	return must(mab.NewGenerator(GaussianNBName, func(map[string]any) (mab.Model, error) {
		return &gaussianNB{}, nil
	}))
}

type gaussianNB struct {
	classes   []int
	logPriors []float64
	means     [][]float64
	variances [][]float64
}

// Fit implements mab.Model.
func (m *gaussianNB) Fit(x [][]float64, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	dim := len(x[0])
	m.classes = classesOf(y)
	m.logPriors = make([]float64, len(m.classes))
	m.means = make([][]float64, len(m.classes))
	m.variances = make([][]float64, len(m.classes))

	column := make([]float64, 0, len(x))
	epsilon := 0.0

	for j := 0; j < dim; j++ {
		column = column[:0]
		for _, row := range x {
			column = append(column, row[j])
		}

		epsilon = math.Max(epsilon, stat.PopVariance(column, nil))
	}

	epsilon *= varSmoothing

	for c, label := range m.classes {
		var members [][]float64

		for i, row := range x {
			if y[i] == label {
				members = append(members, row)
			}
		}

		m.logPriors[c] = math.Log(float64(len(members)) / float64(len(x)))
		m.means[c] = make([]float64, dim)
		m.variances[c] = make([]float64, dim)

		for j := 0; j < dim; j++ {
			column = column[:0]
			for _, row := range members {
				column = append(column, row[j])
			}

			mean, variance := stat.PopMeanVariance(column, nil)
			m.means[c][j] = mean
			m.variances[c][j] = variance + epsilon
		}
	}

	return nil
}

// Predict implements mab.Model.
func (m *gaussianNB) Predict(x [][]float64) []int {
	predictions := make([]int, len(x))
	scores := make([]float64, len(m.classes))
	terms := make([]float64, 0)

	for i, row := range x {
		for c := range m.classes {
			terms = terms[:0]

			for j, v := range row {
				variance := m.variances[c][j]
				if variance == 0 {
					// Constant feature on constant data.
					variance = math.SmallestNonzeroFloat64
				}

				diff := v - m.means[c][j]
				terms = append(terms, -0.5*math.Log(2*math.Pi*variance)-diff*diff/(2*variance))
			}

			scores[c] = m.logPriors[c] + floats.Sum(terms)
		}

		predictions[i] = bestClass(m.classes, scores)
	}

	return predictions
}
