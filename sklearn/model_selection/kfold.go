// Package model_selection provides k-fold splitting and exhaustive
// cross-validated grid search.
package model_selection

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Splitter produces cross-validation folds.
type Splitter interface {
	Split(X mat.Matrix) ([]Fold, error)
	GetNSplits() int
}

// Fold holds the row indices of one train/test partition.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold splits rows into NSplits consecutive folds. The first
// n_samples % NSplits folds hold one extra sample.
type KFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed uint64
}

// NewKFold creates a k-fold splitter without shuffling.
func NewKFold(nSplits int) *KFold {
	return &KFold{NSplits: nSplits}
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold. It fails when NSplits is
// below 2 or exceeds the number of samples.
func (kf *KFold) Split(X mat.Matrix) ([]Fold, error) {
	nSamples, _ := X.Dims()
	if kf.NSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "k-fold cross-validation requires at least one train/test split by setting n_splits=2 or more", kf.NSplits)
	}
	if kf.NSplits > nSamples {
		return nil, errors.NewValueError("KFold.Split",
			fmt.Sprintf("Cannot have number of splits n_splits=%d greater than the number of samples: n_samples=%d.", kf.NSplits, nSamples))
	}

	indices := make([]int, nSamples)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.RandomSeed, kf.RandomSeed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := nSamples / kf.NSplits
	remainder := nSamples % kf.NSplits

	start := 0
	for i := range folds {
		size := foldSize
		if i < remainder {
			size++
		}
		end := start + size

		train := make([]int, 0, nSamples-size)
		train = append(train, indices[:start]...)
		train = append(train, indices[end:]...)
		folds[i] = Fold{
			TrainIndices: train,
			TestIndices:  append([]int(nil), indices[start:end]...),
		}
		start = end
	}
	return folds, nil
}

// takeRows copies the listed rows of X and y, in index order.
func takeRows(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.VecDense) {
	_, cols := X.Dims()
	xs := mat.NewDense(len(indices), cols, nil)
	ys := mat.NewVecDense(len(indices), nil)
	row := make([]float64, cols)
	for i, idx := range indices {
		mat.Row(row, idx, X)
		xs.SetRow(i, row)
		ys.SetVec(i, y.At(idx, 0))
	}
	return xs, ys
}
