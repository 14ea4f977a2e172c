package neural_network

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/pkg/log"
	"github.com/YuminosukeSato/regbench/sklearn/model_selection"
)

func linearDataset(t *testing.T, n int, seed int64) Dataset {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		a, b := rng.Float64()*2-1, rng.Float64()*2-1
		X.Set(i, 0, a)
		X.Set(i, 1, b)
		y.SetVec(i, 0.5*a-0.25*b+0.1)
	}
	d, err := NewDataset(X, y)
	require.NoError(t, err)
	return d
}

func TestDatasetBatches(t *testing.T) {
	d := linearDataset(t, 10, 1)
	assert.Equal(t, 10, d.Len())

	batches := d.Batches(4, nil)
	require.Len(t, batches, 3)
	assert.Equal(t, []int{0, 1, 2, 3}, batches[0])
	assert.Equal(t, []int{8, 9}, batches[2])

	seen := map[int]bool{}
	for _, b := range d.Batches(3, rand.New(rand.NewSource(1))) {
		for _, i := range b {
			seen[i] = true
		}
	}
	assert.Len(t, seen, 10)
	assert.Nil(t, d.Batches(0, nil))
}

func TestNewDatasetErrors(t *testing.T) {
	_, err := NewDataset(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(3, nil))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))

	_, err = NewDataset(&mat.Dense{}, &mat.VecDense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestMLPRegressorLearnsLinearTarget(t *testing.T) {
	train := linearDataset(t, 200, 2)

	for _, act := range []string{"relu", "tanh", "sigmoid"} {
		t.Run(act, func(t *testing.T) {
			net := NewMLPRegressor(
				WithHiddenLayerSizes(16),
				WithActivation(act),
				WithLearningRate(0.05),
				WithEpochs(100),
				WithBatchSize(16),
			)
			require.NoError(t, net.FitDataset(train))

			curve := net.LossCurve()
			require.Len(t, curve, 100)
			assert.Less(t, curve[99], curve[0])

			mse, _, err := net.Evaluate(train)
			require.NoError(t, err)
			assert.Less(t, mse, 0.05)
		})
	}
}

func TestMLPRegressorDeterministic(t *testing.T) {
	train := linearDataset(t, 50, 3)
	a := NewMLPRegressor(WithHiddenLayerSizes(8, 4), WithEpochs(5), WithRandomState(11))
	b := NewMLPRegressor(WithHiddenLayerSizes(8, 4), WithEpochs(5), WithRandomState(11))
	require.NoError(t, a.FitDataset(train))
	require.NoError(t, b.FitDataset(train))
	assert.Equal(t, a.LossCurve(), b.LossCurve())
}

func TestMLPRegressorParams(t *testing.T) {
	net := NewMLPRegressor()
	require.NoError(t, net.SetParams(model.Params{
		"hidden_layer_sizes": []interface{}{32, 16},
		"activation":         "tanh",
		"epochs":             10,
	}))
	p := net.GetParams()
	assert.Equal(t, []int{32, 16}, p["hidden_layer_sizes"])
	assert.Equal(t, "tanh", p["activation"])

	var ve *errors.ValidationError
	assert.True(t, errors.As(net.SetParams(model.Params{"activation": "softplus"}), &ve))
	assert.True(t, errors.As(net.SetParams(model.Params{"dropout": 0.5}), &ve))
	assert.True(t, errors.As(net.SetParams(model.Params{"batch_size": 0}), &ve))
	assert.Equal(t, 10, net.GetParams()["epochs"])

	c := net.Clone()
	assert.Equal(t, net.GetParams(), c.GetParams())
	_, err := c.Predict(mat.NewDense(1, 2, nil))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))
}

func TestMLPRegressorCloneKeepsInvalidSettings(t *testing.T) {
	net := NewMLPRegressor(WithHiddenLayerSizes(8, 4), WithEpochs(0), WithLearningRate(0.5))
	require.Error(t, NewMLPRegressor().SetParams(net.GetParams()))

	c := net.Clone()
	assert.Equal(t, net.GetParams(), c.GetParams())
	assert.Equal(t, 0, c.GetParams()["epochs"])

	// the clone owns its layer sizes
	net.hiddenLayerSizes[0] = 99
	assert.Equal(t, []int{8, 4}, c.GetParams()["hidden_layer_sizes"])
}

func TestMLPRegressorDivergenceIsReported(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1e3, 2e3, 3e3, 4e3})
	y := mat.NewVecDense(4, []float64{1e3, 2e3, 3e3, 4e3})
	net := NewMLPRegressor(WithHiddenLayerSizes(4), WithLearningRate(10), WithEpochs(500), WithBatchSize(4))

	err := net.Fit(X, y)
	var ne *errors.NumericalInstabilityError
	assert.True(t, errors.As(err, &ne), "got %v", err)
}

func TestTrainNeuralNetworks(t *testing.T) {
	train := linearDataset(t, 40, 4)
	test := linearDataset(t, 10, 5)
	logger, _ := log.NewTestLogger(log.LevelDebug)

	reports, err := TrainNeuralNetworks(train, test, model_selection.Grid{
		"hidden_layer_sizes": {[]interface{}{8}},
		"learning_rate":      {0.01, 0.05},
		"epochs":             {3},
		"batch_size":         {8},
	}, logger)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, 0.01, reports[0].Params["learning_rate"])
	assert.Equal(t, 0.05, reports[1].Params["learning_rate"])
	for _, r := range reports {
		assert.Len(t, r.LossCurve, 3)
		assert.GreaterOrEqual(t, r.TestMSE, 0.0)
		assert.LessOrEqual(t, r.TestR2, 1.0)
	}
	assert.Equal(t, 6, logger.CountMessages("epoch finished"))
	assert.Equal(t, 2, logger.CountMessages("neural network evaluated"))
}

func TestTrainNeuralNetworksErrors(t *testing.T) {
	train := linearDataset(t, 10, 6)
	logger, _ := log.NewTestLogger(log.LevelError)

	_, err := TrainNeuralNetworks(train, train, model_selection.Grid{"momentum": {0.9}}, logger)
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))

	narrow, err := NewDataset(mat.NewDense(2, 1, []float64{1, 2}), mat.NewVecDense(2, []float64{1, 2}))
	require.NoError(t, err)
	_, err = TrainNeuralNetworks(train, narrow, model_selection.Grid{}, logger)
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}
