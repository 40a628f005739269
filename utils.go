package mab

import (
	"errors"

	"golang.org/x/exp/constraints"
)

//////
// Helper functions.
//////

// forcedInit returns the lowest index of an arm that was never pulled.
func forcedInit(arms []ArmStatistics) (int, bool) {
	for i, a := range arms {
		if a.N == 0 {
			return i, true
		}
	}

	return 0, false
}

// greedy returns the arm with the highest mean.
func greedy(arms []ArmStatistics) int {
	return argmaxBy(arms, func(a ArmStatistics) float64 { return a.Mean })
}

// argmaxBy scores every element and returns the index of the highest score.
func argmaxBy[E any, T constraints.Ordered](xs []E, score func(E) T) int {
	scores := make([]T, len(xs))
	for i, x := range xs {
		scores[i] = score(x)
	}

	return argmax(scores)
}

// argmax returns the index of the first maximum, so ties break toward the
// lowest index. Returns -1 for an empty slice. NaN only wins when every
// element is NaN.
func argmax[T constraints.Ordered](xs []T) int {
	if len(xs) == 0 {
		return -1
	}

	best := -1

	for i, x := range xs {
		if x != x {
			continue
		}

		if best == -1 || x > xs[best] {
			best = i
		}
	}

	if best == -1 {
		return 0
	}

	return best
}

// isInvalidConfiguration reports whether err signals an invalid combination
// rather than a failed evaluation.
func isInvalidConfiguration(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}
