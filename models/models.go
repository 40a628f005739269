// Package models provides small pure-Go classifiers together with the
// hyperparameter spaces the bandit engine searches over. Every constructor
// returns a *mab.Generator ready to be wrapped in an arm.
package models

import (
	"fmt"
	"sort"

	"github.com/thalesfsp/mab"
)

// Factory creates a fresh generator.
type Factory func() *mab.Generator

// Names of the built-in generators, in catalog order.
const (
	KNeighborsName      = "KNeighbors"
	NearestCentroidName = "NearestCentroid"
	GaussianNBName      = "GaussianNB"
	GaussianProcessName = "GaussianProcess"
	PerceptronName      = "Perceptron"
)

var factories = map[string]Factory{
	KNeighborsName:      KNeighbors,
	NearestCentroidName: NearestCentroid,
	GaussianNBName:      GaussianNB,
	GaussianProcessName: GaussianProcess,
	PerceptronName:      Perceptron,
}

// Names returns the built-in generator names in catalog order.
func Names() []string {
	return []string{
		KNeighborsName,
		NearestCentroidName,
		GaussianNBName,
		GaussianProcessName,
		PerceptronName,
	}
}

// Catalog returns fresh generators for names, or all of them when names is
// empty. Generators are never shared between engines.
func Catalog(names ...string) ([]*mab.Generator, error) {
	if len(names) == 0 {
		names = Names()
	}

	generators := make([]*mab.Generator, 0, len(names))

	for _, name := range names {
		factory, ok := factories[name]
		if !ok {
			return nil, fmt.Errorf("unknown model %q", name)
		}

		generators = append(generators, factory())
	}

	return generators, nil
}

// must panics on a malformed built-in space, which is a programming error.
func must(g *mab.Generator, err error) *mab.Generator {
	if err != nil {
		panic(err)
	}

	return g
}

// checkTrainingData rejects empty or inconsistent training sets.
func checkTrainingData(x [][]float64, y []int) error {
	if len(x) == 0 {
		return fmt.Errorf("%w: empty training set", mab.ErrInvalidConfiguration)
	}

	if len(x) != len(y) {
		return fmt.Errorf("%w: %d rows but %d labels", mab.ErrInvalidConfiguration, len(x), len(y))
	}

	return nil
}

// classesOf returns the sorted distinct labels.
func classesOf(y []int) []int {
	seen := make(map[int]struct{})
	for _, label := range y {
		seen[label] = struct{}{}
	}

	classes := make([]int, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}

	sort.Ints(classes)

	return classes
}

// bestClass returns the class with the highest score, the smallest label on
// ties.
func bestClass(classes []int, scores []float64) int {
	best := 0
	for i := range scores {
		if scores[i] > scores[best] {
			best = i
		}
	}

	return classes[best]
}
