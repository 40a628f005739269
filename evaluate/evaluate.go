// Package evaluate scores models by stratified k-fold cross-validation. A
// CrossValidator is the mab.Evaluator used by the experiment harness.
package evaluate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/thalesfsp/mab"
	"gonum.org/v1/gonum/floats"
)

// Criterion is the evaluation metric.
type Criterion string

const (
	// Accuracy is the share of correct predictions.
	Accuracy Criterion = "accuracy"

	// AUC is the area under the ROC curve of binary predictions.
	AUC Criterion = "auc"
)

// DefaultFolds is the number of folds used when none is configured.
const DefaultFolds = 5

// ErrNotBinary is returned by the AUC criterion on multi-class folds.
var ErrNotBinary = errors.New("auc requires binary labels")

// CrossValidator evaluates a model by stratified k-fold cross-validation
// without shuffling, so the same data always yields the same folds.
type CrossValidator struct {
	Folds     int
	Criterion Criterion
}

// New creates a validator. Zero values fall back to 5 folds and accuracy.
func New(folds int, criterion Criterion) *CrossValidator {
	if folds <= 1 {
		folds = DefaultFolds
	}

	if criterion == "" {
		criterion = Accuracy
	}

	return &CrossValidator{Folds: folds, Criterion: criterion}
}

// Score implements mab.Evaluator: the mean of the per-fold scores. A fit
// failure is returned as is, so errors wrapping mab.ErrInvalidConfiguration
// reach the arm unchanged.
func (cv *CrossValidator) Score(model mab.Model, x [][]float64, y []int) (float64, error) {
	folds, err := StratifiedKFold(y, cv.Folds)
	if err != nil {
		return 0, err
	}

	scores := make([]float64, 0, len(folds))

	for _, validIndex := range folds {
		trainX, trainY, validX, validY := split(x, y, validIndex)

		if err := model.Fit(trainX, trainY); err != nil {
			return 0, err
		}

		predictions := model.Predict(validX)

		score, err := cv.measure(validY, predictions)
		if err != nil {
			return 0, err
		}

		scores = append(scores, score)
	}

	return floats.Sum(scores) / float64(len(scores)), nil
}

func (cv *CrossValidator) measure(truth, predictions []int) (float64, error) {
	switch cv.Criterion {
	case Accuracy, "":
		return AccuracyScore(truth, predictions), nil
	case AUC:
		return AUCScore(truth, predictions)
	default:
		return 0, fmt.Errorf("unknown criterion %q", cv.Criterion)
	}
}

// StratifiedKFold returns the validation indexes of k folds. Samples of each
// class are dealt to folds in order, so every fold keeps the class balance.
func StratifiedKFold(y []int, k int) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}

	if len(y) < k {
		return nil, fmt.Errorf("%w: %d samples for %d folds", mab.ErrInvalidConfiguration, len(y), k)
	}

	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	classes := make([]int, 0, len(byClass))
	for label := range byClass {
		classes = append(classes, label)
	}

	sort.Ints(classes)

	folds := make([][]int, k)
	next := 0

	for _, label := range classes {
		for _, i := range byClass[label] {
			folds[next] = append(folds[next], i)
			next = (next + 1) % k
		}
	}

	for _, fold := range folds {
		sort.Ints(fold)
	}

	return folds, nil
}

// split separates the validation rows from the training rows.
func split(x [][]float64, y []int, validIndex []int) (trainX [][]float64, trainY []int, validX [][]float64, validY []int) {
	valid := make(map[int]struct{}, len(validIndex))
	for _, i := range validIndex {
		valid[i] = struct{}{}
	}

	for i := range x {
		if _, ok := valid[i]; ok {
			validX = append(validX, x[i])
			validY = append(validY, y[i])

			continue
		}

		trainX = append(trainX, x[i])
		trainY = append(trainY, y[i])
	}

	return trainX, trainY, validX, validY
}

// AccuracyScore is the share of predictions equal to the truth.
func AccuracyScore(truth, predictions []int) float64 {
	if len(truth) == 0 {
		return 0
	}

	correct := 0

	for i := range truth {
		if i < len(predictions) && truth[i] == predictions[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(truth))
}

// AUCScore computes the ROC AUC of binary predictions with the Mann-Whitney
// statistic. The larger label is the positive class. A fold with a single
// class scores 0.5.
func AUCScore(truth, predictions []int) (float64, error) {
	classes := make(map[int]struct{})
	for _, label := range truth {
		classes[label] = struct{}{}
	}

	switch {
	case len(classes) > 2:
		return 0, ErrNotBinary
	case len(classes) < 2:
		return 0.5, nil
	}

	positive := truth[0]
	for label := range classes {
		if label > positive {
			positive = label
		}
	}

	var pos, neg []int

	for i, label := range truth {
		if label == positive {
			pos = append(pos, predictions[i])
		} else {
			neg = append(neg, predictions[i])
		}
	}

	var wins float64

	for _, p := range pos {
		for _, n := range neg {
			switch {
			case p > n:
				wins++
			case p == n:
				wins += 0.5
			}
		}
	}

	return wins / float64(len(pos)*len(neg)), nil
}
