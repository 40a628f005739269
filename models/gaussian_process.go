package models

import (
	"math"

	"github.com/thalesfsp/mab"
)

//////
// Const, vars, types.
//////

// GaussianProcess is a one-vs-rest classifier built on RBF-kernel Gaussian
// process regressors: one regressor per class is fitted on 1/0 membership
// targets and the class with the highest predicted mean wins.
//
// Space:
// - sigma: kernel width, real in [0.05, 10]
// - max_train: integer in [50, 1000], rows kept as inducing points
func GaussianProcess() *mab.Generator {
	return must(mab.NewGenerator(GaussianProcessName, func(params map[string]any) (mab.Model, error) {
		return &gaussianProcessClassifier{
			sigma:    params["sigma"].(float64),
			maxTrain: int(params["max_train"].(int64)),
		}, nil
	},
		mab.FloatParam("sigma", mab.ParameterRange[float64]{Min: 0.05, Max: 10}),
		mab.IntParam("max_train", mab.ParameterRange[int64]{Min: 50, Max: 1000}),
	))
}

// gaussianProcess is a Gaussian process regressor with an RBF kernel.
//
// Fields:
// - X: Observed input points
// - Y: Observed targets at each input point
// - sigma: Kernel width controlling the smoothness of interpolation
//
// Memory usage:
// - Grows linearly with number of observations
// - Each observation stores a copy of the input.
type gaussianProcess struct {
	X     [][]float64
	Y     []float64
	sigma float64
}

//////
// Methods.
//////

// RBFKernel measures the similarity between two points, decreasing
// exponentially with distance.
//
// Mathematical formula:
//
//	k(x1, x2) = exp(-sum((x1 - x2)^2) / (2 * sigma^2))
//
// Important notes:
// - Panics if input vectors have different lengths
// - Returns 1.0 for identical points
func (gp *gaussianProcess) RBFKernel(x1, x2 []float64) float64 {
	if len(x1) != len(x2) {
		panic("input vectors must have the same length")
	}

	var sum float64

	for i := range x1 {
		diff := x1[i] - x2[i]

		sum += diff * diff
	}

	return math.Exp(-sum / (2 * gp.sigma * gp.sigma))
}

// Predict returns the kernel-weighted mean of the observed targets at x, 0
// with no observations.
func (gp *gaussianProcess) Predict(x []float64) float64 {
	if len(gp.X) == 0 {
		return 0
	}

	var sum float64

	for i := range gp.X {
		sum += gp.RBFKernel(x, gp.X[i]) * gp.Y[i]
	}

	return sum / float64(len(gp.X))
}

// Update adds one observation. The input is copied.
func (gp *gaussianProcess) Update(x []float64, y float64) {
	newX := make([]float64, len(x))
	copy(newX, x)

	gp.X = append(gp.X, newX)
	gp.Y = append(gp.Y, y)
}

// newGaussianProcess creates a regressor with kernel width sigma.
func newGaussianProcess(sigma float64) *gaussianProcess {
	return &gaussianProcess{sigma: sigma}
}

//////
// Classifier.
//////

type gaussianProcessClassifier struct {
	sigma    float64
	maxTrain int

	classes    []int
	regressors []*gaussianProcess
}

// Fit implements mab.Model. Only the first max_train rows are kept.
func (m *gaussianProcessClassifier) Fit(x [][]float64, y []int) error {
	if err := checkTrainingData(x, y); err != nil {
		return err
	}

	if len(x) > m.maxTrain {
		x, y = x[:m.maxTrain], y[:m.maxTrain]
	}

	m.classes = classesOf(y)
	m.regressors = make([]*gaussianProcess, len(m.classes))

	for c, label := range m.classes {
		gp := newGaussianProcess(m.sigma)

		for i, row := range x {
			target := 0.0
			if y[i] == label {
				target = 1
			}

			gp.Update(row, target)
		}

		m.regressors[c] = gp
	}

	return nil
}

// Predict implements mab.Model.
func (m *gaussianProcessClassifier) Predict(x [][]float64) []int {
	predictions := make([]int, len(x))
	scores := make([]float64, len(m.classes))

	for i, row := range x {
		for c, gp := range m.regressors {
			scores[c] = gp.Predict(row)
		}

		predictions[i] = bestClass(m.classes, scores)
	}

	return predictions
}
