// Package dataset supplies the feature-set variants ("base", "complete",
// "sub") of one table, split into train and test partitions.
package dataset

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Variant names in canonical order.
const (
	Base     = "base"
	Complete = "complete"
	Sub      = "sub"
)

// Split names.
const (
	Train = "train"
	Test  = "test"
)

// SetTypes returns the variant names in canonical order.
func SetTypes() []string {
	return []string{Base, Complete, Sub}
}

// Dataset holds a feature table, the columns each variant selects, and a
// train/test partition of its rows.
type Dataset struct {
	features *mat.Dense
	names    []string
	variants map[string][]int
	trainIdx []int
	testIdx  []int
	yTrain   *mat.VecDense
	yTest    *mat.VecDense
}

// New builds a Dataset from in-memory data. variants maps every name in
// SetTypes to a list of column names; trainIdx and testIdx select rows.
func New(features mat.Matrix, names []string, y []float64, variants map[string][]string, trainIdx, testIdx []int) (*Dataset, error) {
	rows, cols := features.Dims()
	if rows == 0 || cols == 0 {
		return nil, errors.NewModelError("dataset.New", "empty data", errors.ErrEmptyData)
	}
	if len(names) != cols {
		return nil, errors.NewDimensionError("dataset.New", cols, len(names), 1)
	}
	if len(y) != rows {
		return nil, errors.NewDimensionError("dataset.New", rows, len(y), 0)
	}
	if len(trainIdx) == 0 || len(testIdx) == 0 {
		return nil, errors.NewValueError("dataset.New", "train and test partitions must both be non-empty")
	}
	for _, idx := range [][]int{trainIdx, testIdx} {
		for _, i := range idx {
			if i < 0 || i >= rows {
				return nil, errors.NewValueError("dataset.New", fmt.Sprintf("row index %d out of range [0, %d)", i, rows))
			}
		}
	}

	d := &Dataset{
		features: mat.DenseCopyOf(features),
		names:    append([]string(nil), names...),
		variants: make(map[string][]int, len(variants)),
		trainIdx: append([]int(nil), trainIdx...),
		testIdx:  append([]int(nil), testIdx...),
		yTrain:   gather(y, trainIdx),
		yTest:    gather(y, testIdx),
	}
	for _, v := range SetTypes() {
		cols, ok := variants[v]
		if !ok || len(cols) == 0 {
			return nil, errors.NewValidationError("variants."+v, "variant needs at least one column", cols)
		}
		idx := make([]int, len(cols))
		for i, c := range cols {
			j := slices.Index(d.names, c)
			if j < 0 {
				return nil, errors.NewValidationError("variants."+v, fmt.Sprintf("unknown column %q", c), cols)
			}
			idx[i] = j
		}
		d.variants[v] = idx
	}
	return d, nil
}

func gather(y []float64, idx []int) *mat.VecDense {
	out := mat.NewVecDense(len(idx), nil)
	for i, r := range idx {
		out.SetVec(i, y[r])
	}
	return out
}

// SetTypes returns the variant names in canonical order.
func (d *Dataset) SetTypes() []string { return SetTypes() }

// GetSet returns a fresh matrix with the variant's columns for the rows of
// split.
func (d *Dataset) GetSet(variant, split string) (*mat.Dense, error) {
	cols, ok := d.variants[variant]
	if !ok {
		return nil, errors.NewValidationError("variant", "must be one of base, complete, sub", variant)
	}
	var rows []int
	switch split {
	case Train:
		rows = d.trainIdx
	case Test:
		rows = d.testIdx
	default:
		return nil, errors.NewValidationError("split", "must be train or test", split)
	}

	out := mat.NewDense(len(rows), len(cols), nil)
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, d.features.At(r, c))
		}
	}
	return out, nil
}

// YTrain returns the training targets.
func (d *Dataset) YTrain() *mat.VecDense { return d.yTrain }

// YTest returns the test targets.
func (d *Dataset) YTest() *mat.VecDense { return d.yTest }

// Columns returns the column names selected by variant.
func (d *Dataset) Columns(variant string) ([]string, error) {
	idx, ok := d.variants[variant]
	if !ok {
		return nil, errors.NewValidationError("variant", "must be one of base, complete, sub", variant)
	}
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = d.names[j]
	}
	return out, nil
}

// SplitIndices shuffles [0, n) with seed and returns ceil(testSize*n) test
// rows and the remaining train rows.
func SplitIndices(n int, testSize float64, seed int64) (train, test []int, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	nTest := int(math.Ceil(float64(n) * testSize))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, errors.NewValueError("SplitIndices",
			fmt.Sprintf("test_size=%g leaves an empty partition for n_samples=%d", testSize, n))
	}
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
