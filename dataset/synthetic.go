package dataset

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// syntheticColumns are the columns of the generated table. The first two
// form the "base" variant and the first five the "sub" variant.
var syntheticColumns = []string{"latitude", "longitude", "rooms", "age", "income", "population", "households", "distance"}

// syntheticCoef weights each column in the generated target.
var syntheticCoef = []float64{1.5, -2.0, 0.8, -0.3, 2.5, 0.1, -0.4, 0.6}

// Synthetic generates nTrain+nTest rows of features uniform on [0, 1) with a linear
// target (intercept 3 plus small Gaussian noise). The first nTrain rows are
// the train partition.
func Synthetic(nTrain, nTest int, seed int64) (*Dataset, error) {
	if nTrain < 1 || nTest < 1 {
		return nil, errors.NewValueError("dataset.Synthetic", "train and test partitions must both be non-empty")
	}
	rng := rand.New(rand.NewSource(seed))
	n := nTrain + nTest
	cols := len(syntheticColumns)
	X := mat.NewDense(n, cols, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		target := 3.0
		for j := 0; j < cols; j++ {
			v := rng.Float64()
			X.Set(i, j, v)
			target += syntheticCoef[j] * v
		}
		y[i] = target + rng.NormFloat64()*0.1
	}

	train := make([]int, nTrain)
	for i := range train {
		train[i] = i
	}
	test := make([]int, nTest)
	for i := range test {
		test[i] = nTrain + i
	}
	return New(X, syntheticColumns, y, DefaultVariants(syntheticColumns), train, test)
}
