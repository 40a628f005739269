// Package dataset loads classification datasets stored as CSV files. Each
// row holds the numeric features followed by the class label in the last
// column. A directory holds <name>_train.csv and optionally <name>_test.csv.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	trainSuffix = "_train.csv"
	testSuffix  = "_test.csv"
)

var (
	// ErrEmpty is returned for files without data rows.
	ErrEmpty = errors.New("dataset has no rows")

	// ErrWidth is returned when the test split does not have as many features
	// as the training split.
	ErrWidth = errors.New("feature count differs between splits")
)

// Dataset is a named training set with an optional test split.
type Dataset struct {
	Name string

	TrainX [][]float64
	TrainY []int

	TestX [][]float64
	TestY []int

	// Classes maps the label strings found in the files to the encoded ints.
	Classes map[string]int
}

// HasTest reports whether a test split was loaded.
func (d *Dataset) HasTest() bool { return len(d.TestX) > 0 }

// Train returns the training split.
func (d *Dataset) Train() ([][]float64, []int) { return d.TrainX, d.TrainY }

// Test returns the test split.
func (d *Dataset) Test() ([][]float64, []int) { return d.TestX, d.TestY }

// Read parses CSV rows from r. The first row is skipped when header is true.
// Labels are encoded through classes, which is extended with new labels.
func Read(r io.Reader, header bool, classes map[string]int) ([][]float64, []int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	if header && len(records) > 0 {
		records = records[1:]
	}

	if len(records) == 0 {
		return nil, nil, ErrEmpty
	}

	width := len(records[0])
	if width < 2 {
		return nil, nil, fmt.Errorf("need at least one feature and a label, got %d columns", width)
	}

	x := make([][]float64, 0, len(records))
	y := make([]int, 0, len(records))

	for line, record := range records {
		if len(record) != width {
			return nil, nil, fmt.Errorf("row %d has %d columns, expected %d", line+1, len(record), width)
		}

		row := make([]float64, width-1)

		for j, field := range record[:width-1] {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %d: %w", line+1, j+1, err)
			}

			row[j] = v
		}

		x = append(x, row)
		y = append(y, encode(classes, strings.TrimSpace(record[width-1])))
	}

	return x, y, nil
}

// encode returns the int of label, assigning the next free one to new labels.
func encode(classes map[string]int, label string) int {
	if c, ok := classes[label]; ok {
		return c
	}

	c := len(classes)
	classes[label] = c

	return c
}

// LoadFile reads one CSV file.
func LoadFile(path string, header bool, classes map[string]int) ([][]float64, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	x, y, err := Read(f, header, classes)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return x, y, nil
}

// Load reads the <name>_train.csv and, if present, <name>_test.csv files of
// name in dir.
func Load(dir, name string, header bool) (*Dataset, error) {
	d := &Dataset{Name: name, Classes: make(map[string]int)}

	var err error

	d.TrainX, d.TrainY, err = LoadFile(filepath.Join(dir, name+trainSuffix), header, d.Classes)
	if err != nil {
		return nil, err
	}

	testPath := filepath.Join(dir, name+testSuffix)
	if _, statErr := os.Stat(testPath); statErr == nil {
		d.TestX, d.TestY, err = LoadFile(testPath, header, d.Classes)
		if err != nil {
			return nil, err
		}

		if got, want := len(d.TestX[0]), len(d.TrainX[0]); got != want {
			return nil, fmt.Errorf("%s: %w: %d features, train has %d", testPath, ErrWidth, got, want)
		}
	}

	return d, nil
}

// Names lists the dataset names found in dir, sorted. When include is not
// empty only those names are kept; names in exclude are dropped.
func Names(dir string, include, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory %s: %w", dir, err)
	}

	keep := toSet(include)
	drop := toSet(exclude)

	var names []string

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), trainSuffix) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), trainSuffix)

		if len(keep) > 0 {
			if _, ok := keep[name]; !ok {
				continue
			}
		}

		if _, ok := drop[name]; ok {
			continue
		}

		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// All loads every dataset of dir selected by include and exclude.
func All(dir string, header bool, include, exclude []string) ([]*Dataset, error) {
	names, err := Names(dir, include, exclude)
	if err != nil {
		return nil, err
	}

	datasets := make([]*Dataset, 0, len(names))

	for _, name := range names {
		d, err := Load(dir, name, header)
		if err != nil {
			return nil, err
		}

		datasets = append(datasets, d)
	}

	return datasets, nil
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}

	return set
}
