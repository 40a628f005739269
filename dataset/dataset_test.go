package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRead(t *testing.T) {
	classes := make(map[string]int)

	x, y, err := Read(strings.NewReader("a,b,label\n1,2,yes\n3, 4,no\n5,6,yes\n"), true, classes)
	require.NoError(t, err)

	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}, x)
	assert.Equal(t, []int{0, 1, 0}, y)
	assert.Equal(t, map[string]int{"yes": 0, "no": 1}, classes)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		header  bool
	}{
		{"empty", "", false},
		{"header only", "a,label\n", true},
		{"single column", "1\n2\n", false},
		{"not a number", "1,x,0\n", false},
		{"ragged", "1,2,0\n1,0\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Read(strings.NewReader(tt.content), tt.header, make(map[string]int))
			assert.Error(t, err)
		})
	}

	_, _, err := Read(strings.NewReader(""), false, make(map[string]int))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestLoadAndAll(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "iris_train.csv", "1,2,setosa\n3,4,virginica\n")
	writeFile(t, dir, "iris_test.csv", "5,6,virginica\n")
	writeFile(t, dir, "wine_train.csv", "1,0\n2,1\n")
	writeFile(t, dir, "notes.txt", "ignored")

	d, err := Load(dir, "iris", false)
	require.NoError(t, err)

	assert.Equal(t, "iris", d.Name)
	assert.True(t, d.HasTest())

	testX, testY := d.Test()
	assert.Equal(t, [][]float64{{5, 6}}, testX)
	assert.Equal(t, []int{1}, testY)

	names, err := Names(dir, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"iris", "wine"}, names)

	names, err = Names(dir, nil, []string{"iris"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wine"}, names)

	names, err = Names(dir, []string{"iris", "missing"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"iris"}, names)

	all, err := All(dir, false, nil, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.False(t, all[1].HasTest())

	_, err = Names(filepath.Join(dir, "nope"), nil, nil)
	assert.Error(t, err)

	_, err = Load(dir, "missing", false)
	assert.Error(t, err)
}

func TestLoadSplitWidthMismatch(t *testing.T) {
	dir := t.TempDir()

	writeFile(t, dir, "iris_train.csv", "0,0,a\n1,1,b\n")
	writeFile(t, dir, "iris_test.csv", "0,0,0,a\n")

	_, err := Load(dir, "iris", false)
	assert.ErrorIs(t, err, ErrWidth)

	_, err = All(dir, false, nil, nil)
	assert.ErrorIs(t, err, ErrWidth)
}
