package neighbors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

func TestKNeighborsRegressorUniform(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 10})
	y := mat.NewVecDense(4, []float64{0, 1, 2, 10})

	knn := NewKNeighborsRegressor(WithNNeighbors(2))
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(2, 1, []float64{0.4, 9}))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, pred.At(0, 0), 1e-12) // neighbors 0 and 1
	assert.InDelta(t, 6.0, pred.At(1, 0), 1e-12) // neighbors 10 and 2
}

func TestKNeighborsRegressorDistanceWeights(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 3})
	y := mat.NewVecDense(3, []float64{0, 10, 30})

	knn := NewKNeighborsRegressor(WithNNeighbors(2), WithWeights("distance"))
	require.NoError(t, knn.Fit(X, y))

	pred, err := knn.Predict(mat.NewDense(2, 1, []float64{0.25, 1}))
	require.NoError(t, err)
	// weights 1/0.25=4 and 1/0.75=4/3
	assert.InDelta(t, (4*0+10*4.0/3)/(4+4.0/3), pred.At(0, 0), 1e-12)
	// exact match dominates
	assert.InDelta(t, 10.0, pred.At(1, 0), 1e-12)
}

func TestKNeighborsRegressorManhattan(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 0,
		3, 0,
		2, 2,
	})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	knn := NewKNeighborsRegressor(WithNNeighbors(1))
	require.NoError(t, knn.SetParams(model.Params{"p": 1}))
	require.NoError(t, knn.Fit(X, y))

	// query (2.1, 0.9): L1 to (3,0)=1.8, to (2,2)=1.2
	pred, err := knn.Predict(mat.NewDense(1, 2, []float64{2.1, 0.9}))
	require.NoError(t, err)
	assert.Equal(t, 3.0, pred.At(0, 0))
}

func TestKNeighborsRegressorPerfectTrainScore(t *testing.T) {
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewVecDense(5, []float64{2, 4, 6, 8, 10})

	knn := NewKNeighborsRegressor(WithNNeighbors(1))
	require.NoError(t, knn.Fit(X, y))
	score, err := knn.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestKNeighborsRegressorErrors(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewVecDense(3, []float64{1, 2, 3})

	_, err := NewKNeighborsRegressor().Predict(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	// default n_neighbors=5 exceeds 3 samples
	var ve *errors.ValueError
	assert.True(t, errors.As(NewKNeighborsRegressor().Fit(X, y), &ve))

	knn := NewKNeighborsRegressor()
	assert.Error(t, knn.SetParams(model.Params{"leaf_size": 30}))
	assert.Error(t, knn.SetParams(model.Params{"weights": "gaussian"}))
	assert.Error(t, knn.SetParams(model.Params{"p": 3}))
	assert.Equal(t, 5, knn.GetParams()["n_neighbors"])
}

func TestKNeighborsRegressorSetParamsRequiresRefit(t *testing.T) {
	for _, n := range []int{3, 100} {
		X := mat.NewDense(n, 1, nil)
		y := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			X.Set(i, 0, float64(i))
			y.SetVec(i, float64(i))
		}

		knn := NewKNeighborsRegressor(WithNNeighbors(2))
		require.NoError(t, knn.Fit(X, y))
		require.NoError(t, knn.SetParams(model.Params{"n_neighbors": n + 2}))
		assert.False(t, knn.IsFitted())

		var pred mat.Matrix
		var err error
		require.NotPanics(t, func() { pred, err = knn.Predict(X) })
		assert.Nil(t, pred)
		var nf *errors.NotFittedError
		assert.True(t, errors.As(err, &nf), "n=%d", n)

		// refitting with too many neighbors is rejected up front
		var ve *errors.ValueError
		assert.True(t, errors.As(knn.Fit(X, y), &ve), "n=%d", n)
	}
}

func TestKNeighborsRegressorParallelPredictMatchesSequential(t *testing.T) {
	n := 300
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i%17))
		X.Set(i, 1, float64(i%5))
		y.SetVec(i, float64(i))
	}

	knn := NewKNeighborsRegressor()
	require.NoError(t, knn.Fit(X, y))

	all, err := knn.Predict(X)
	require.NoError(t, err)
	for _, i := range []int{0, 42, 299} {
		one, err := knn.Predict(X.Slice(i, i+1, 0, 2))
		require.NoError(t, err)
		assert.Equal(t, one.At(0, 0), all.At(i, 0))
	}
}

func TestKNeighborsRegressorClone(t *testing.T) {
	knn := NewKNeighborsRegressor(WithNNeighbors(3), WithWeights("distance"))
	c := knn.Clone()
	assert.Equal(t, knn.GetParams(), c.GetParams())
}
