package models

import (
	"fmt"
	"sort"

	"github.com/thalesfsp/mab"
	"gonum.org/v1/gonum/floats"
)

// KNeighbors is a k-nearest-neighbours classifier.
//
// Space:
// - n_neighbors: integer in [1, 100]
// - weights: uniform or distance
// - p: Minkowski power, 1 or 2
func KNeighbors() *mab.Generator {
	return must(mab.NewGenerator(KNeighborsName, func(params map[string]any) (mab.Model, error) {
		return &kNeighbors{
			k:       int(params["n_neighbors"].(int64)),
			weights: params["weights"].(string),
			p:       float64(params["p"].(int)),
		}, nil
	},
		mab.IntParam("n_neighbors", mab.ParameterRange[int64]{Min: 1, Max: 100}),
		mab.CategoricalParam("weights", "uniform", "distance"),
		mab.CategoricalParam("p", 1, 2),
	))
}

type kNeighbors struct {
	k       int
	weights string
	p       float64

	x [][]float64
	y []int
}

// Fit implements mab.Model.
func (m *kNeighbors) Fit(x [][]float64, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	if m.k > len(x) {
		return fmt.Errorf("%w: n_neighbors %d > n_samples %d", mab.ErrInvalidConfiguration, m.k, len(x))
	}

	m.x, m.y = x, y

	return nil
}

// Predict implements mab.Model.
func (m *kNeighbors) Predict(x [][]float64) []int {
	predictions := make([]int, len(x))

	type neighbour struct {
		distance float64
		label    int
	}

	neighbours := make([]neighbour, len(m.x))

	for i, row := range x {
		for j, train := range m.x {
			neighbours[j] = neighbour{distance: floats.Distance(row, train, m.p), label: m.y[j]}
		}

		sort.SliceStable(neighbours, func(a, b int) bool {
			return neighbours[a].distance < neighbours[b].distance
		})

		nearest := neighbours[:m.k]

		// Exact matches take all the weight under distance weighting.
		exact := m.weights == "distance" && nearest[0].distance == 0

		votes := make(map[int]float64)
		for _, n := range nearest {
			switch {
			case exact:
				if n.distance == 0 {
					votes[n.label]++
				}
			case m.weights == "distance":
				votes[n.label] += 1 / n.distance
			default:
				votes[n.label]++
			}
		}

		classes := make([]int, 0, len(votes))
		for label := range votes {
			classes = append(classes, label)
		}

		sort.Ints(classes)

		scores := make([]float64, len(classes))
		for c, label := range classes {
			scores[c] = votes[label]
		}

		predictions[i] = bestClass(classes, scores)
	}

	return predictions
}
