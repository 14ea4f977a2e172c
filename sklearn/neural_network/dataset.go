// Package neural_network trains feed-forward regression networks with
// mini-batch gradient descent.
package neural_network

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Dataset pairs a feature matrix with its regression targets.
type Dataset struct {
	X *mat.Dense
	Y *mat.VecDense
}

// NewDataset copies X and y into a Dataset. y must be n×1.
func NewDataset(X, y mat.Matrix) (Dataset, error) {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return Dataset{}, errors.NewModelError("NewDataset", "empty data", errors.ErrEmptyData)
	}
	yr, yc := y.Dims()
	if yr != rows {
		return Dataset{}, errors.NewDimensionError("NewDataset", rows, yr, 0)
	}
	if yc != 1 {
		return Dataset{}, errors.NewDimensionError("NewDataset", 1, yc, 1)
	}
	ys := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		ys.SetVec(i, y.At(i, 0))
	}
	return Dataset{X: mat.DenseCopyOf(X), Y: ys}, nil
}

// Len returns the number of samples.
func (d Dataset) Len() int {
	if d.Y == nil {
		return 0
	}
	return d.Y.Len()
}

// Batches partitions sample indices into consecutive batches of at most
// batchSize. With a non-nil rng the indices are shuffled first.
func (d Dataset) Batches(batchSize int, rng *rand.Rand) [][]int {
	n := d.Len()
	if n == 0 || batchSize < 1 {
		return nil
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if rng != nil {
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	}
	batches := make([][]int, 0, (n+batchSize-1)/batchSize)
	for start := 0; start < n; start += batchSize {
		batches = append(batches, order[start:min(start+batchSize, n)])
	}
	return batches
}

// batch gathers the rows listed in idx.
func (d Dataset) batch(idx []int) (*mat.Dense, *mat.Dense) {
	_, cols := d.X.Dims()
	xb := mat.NewDense(len(idx), cols, nil)
	yb := mat.NewDense(len(idx), 1, nil)
	for i, r := range idx {
		xb.SetRow(i, d.X.RawRowView(r))
		yb.Set(i, 0, d.Y.AtVec(r))
	}
	return xb, yb
}
