package models

import (
	"math"

	"github.com/thalesfsp/mab"
	"gonum.org/v1/gonum/floats"
)

// NearestCentroid assigns the class whose centroid is closest.
//
// Space:
// - metric: euclidean or manhattan
// - shrink_threshold: real in [0, 1], pulls centroids toward the overall mean
func NearestCentroid() *mab.Generator {
	return must(mab.NewGenerator(NearestCentroidName, func(params map[string]any) (mab.Model, error) {
		norm := 2.0
		if params["metric"].(string) == "manhattan" {
			norm = 1
		}

		return &nearestCentroid{
			norm:   norm,
			shrink: params["shrink_threshold"].(float64),
		}, nil
	},
		mab.CategoricalParam("metric", "euclidean", "manhattan"),
		mab.FloatParam("shrink_threshold", mab.ParameterRange[float64]{Min: 0, Max: 1}),
	))
}

type nearestCentroid struct {
	norm   float64
	shrink float64

	classes   []int
	centroids [][]float64
}

// Fit implements mab.Model.
func (m *nearestCentroid) Fit(x [][]float64, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	dim := len(x[0])
	m.classes = classesOf(y)

	index := make(map[int]int, len(m.classes))
	for i, c := range m.classes {
		index[c] = i
	}

	overall := make([]float64, dim)
	counts := make([]float64, len(m.classes))
	m.centroids = make([][]float64, len(m.classes))

	for i := range m.centroids {
		m.centroids[i] = make([]float64, dim)
	}

	for i, row := range x {
		c := index[y[i]]
		floats.Add(m.centroids[c], row)
		floats.Add(overall, row)
		counts[c]++
	}

	floats.Scale(1/float64(len(x)), overall)

	for c, centroid := range m.centroids {
		floats.Scale(1/counts[c], centroid)

		// centroid = (1-s)*centroid + s*overall
		floats.Scale(1-m.shrink, centroid)
		floats.AddScaled(centroid, m.shrink, overall)
	}

	return nil
}

// Predict implements mab.Model.
func (m *nearestCentroid) Predict(x [][]float64) []int {
	predictions := make([]int, len(x))
	scores := make([]float64, len(m.classes))

	for i, row := range x {
		for c, centroid := range m.centroids {
			d := floats.Distance(row, centroid, m.norm)
			if math.IsNaN(d) {
				d = math.Inf(1)
			}

			scores[c] = -d
		}

		predictions[i] = bestClass(m.classes, scores)
	}

	return predictions
}
