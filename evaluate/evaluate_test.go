package evaluate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thalesfsp/mab"
)

// majority predicts the most frequent training label.
type majority struct {
	label int
	fits  int
}

func (m *majority) Fit(x [][]float64, y []int) error {
	m.fits++

	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}

	m.label = 0
	for label, c := range counts {
		if c > counts[m.label] || (c == counts[m.label] && label < m.label) {
			m.label = label
		}
	}

	return nil
}

func (m *majority) Predict(x [][]float64) []int {
	p := make([]int, len(x))
	for i := range p {
		p[i] = m.label
	}

	return p
}

type failing struct{}

func (failing) Fit([][]float64, []int) error {
	return errors.New("singular matrix")
}
func (failing) Predict(x [][]float64) []int { return nil }

func TestStratifiedKFold(t *testing.T) {
	y := []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1}

	folds, err := StratifiedKFold(y, 2)
	require.NoError(t, err)
	require.Len(t, folds, 2)

	seen := make(map[int]bool)

	for _, fold := range folds {
		ones := 0

		for _, i := range fold {
			assert.False(t, seen[i], "index %d in two folds", i)
			seen[i] = true

			if y[i] == 1 {
				ones++
			}
		}

		assert.Equal(t, 2, ones)
		assert.Len(t, fold, 5)
	}

	assert.Len(t, seen, len(y))
}

func TestStratifiedKFoldErrors(t *testing.T) {
	_, err := StratifiedKFold([]int{0, 1}, 1)
	assert.Error(t, err)

	_, err = StratifiedKFold([]int{0, 1}, 5)
	assert.ErrorIs(t, err, mab.ErrInvalidConfiguration)
}

func TestCrossValidatorScore(t *testing.T) {
	x := make([][]float64, 10)
	for i := range x {
		x[i] = []float64{float64(i)}
	}

	y := []int{0, 0, 0, 0, 0, 0, 0, 0, 1, 1}

	model := &majority{}

	score, err := New(2, Accuracy).Score(model, x, y)
	require.NoError(t, err)

	assert.Equal(t, 2, model.fits)
	assert.InDelta(t, 0.8, score, 1e-12)
}

func TestCrossValidatorPassesFitErrors(t *testing.T) {
	x := [][]float64{{1}, {2}, {3}, {4}}
	y := []int{0, 1, 0, 1}

	_, err := New(2, Accuracy).Score(failing{}, x, y)
	assert.EqualError(t, err, "singular matrix")
}

func TestCrossValidatorTooFewSamples(t *testing.T) {
	_, err := New(5, Accuracy).Score(&majority{}, [][]float64{{1}}, []int{0})
	assert.ErrorIs(t, err, mab.ErrInvalidConfiguration)
}

func TestNewDefaults(t *testing.T) {
	cv := New(0, "")
	assert.Equal(t, DefaultFolds, cv.Folds)
	assert.Equal(t, Accuracy, cv.Criterion)
}

func TestAccuracyScore(t *testing.T) {
	assert.Equal(t, 0.75, AccuracyScore([]int{1, 0, 1, 1}, []int{1, 0, 0, 1}))
	assert.Zero(t, AccuracyScore(nil, nil))
}

func TestAUCScore(t *testing.T) {
	perfect, err := AUCScore([]int{0, 0, 1, 1}, []int{0, 0, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, perfect)

	constant, err := AUCScore([]int{0, 0, 1, 1}, []int{1, 1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, constant)

	inverted, err := AUCScore([]int{-1, -1, 3, 3}, []int{3, 3, -1, -1})
	require.NoError(t, err)
	assert.Zero(t, inverted)

	single, err := AUCScore([]int{1, 1}, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.5, single)

	_, err = AUCScore([]int{0, 1, 2}, []int{0, 1, 2})
	assert.ErrorIs(t, err, ErrNotBinary)
}
