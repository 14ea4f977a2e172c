package experiment

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/dataset"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/pkg/log"
	"github.com/YuminosukeSato/regbench/results"
	"github.com/YuminosukeSato/regbench/sklearn/model_selection"
	"github.com/YuminosukeSato/regbench/sklearn/neighbors"
)

func newTestHandler(t *testing.T, options ...HandlerOption) (*Handler, *log.TestLogger, string) {
	t.Helper()
	data, err := dataset.Synthetic(20, 5, 42)
	require.NoError(t, err)

	logger, _ := log.NewTestLogger(log.LevelDebug)
	dir := t.TempDir()
	opts := append([]HandlerOption{WithOutputDir(dir), WithLogger(logger)}, options...)
	h, err := NewHandler(data, opts...)
	require.NoError(t, err)
	return h, logger, dir
}

type recordingSink struct {
	tables []*results.Table
}

func (s *recordingSink) Save(t *results.Table) error {
	s.tables = append(s.tables, t)
	return nil
}

func TestParseModelKind(t *testing.T) {
	for _, kind := range ModelKinds() {
		got, err := ParseModelKind(string(kind))
		require.NoError(t, err)
		assert.Equal(t, kind, got)

		est, err := NewEstimator(kind)
		require.NoError(t, err)
		assert.NotNil(t, est)
	}

	_, err := ParseModelKind("xyz")
	assert.True(t, errors.Is(err, ErrUnknownModel))
	_, err = NewEstimator("svm")
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestCreateModelsSetsSGD(t *testing.T) {
	sink := &recordingSink{}
	h, logger, dir := newTestHandler(t, WithSinks(sink))

	table, err := h.CreateModelsSets("sgd", model_selection.Grid{"max_iter": {100}})
	require.NoError(t, err)
	require.Equal(t, 9, table.Len())

	i := 0
	for _, variant := range dataset.SetTypes() {
		for _, prep := range PreprocessingTypes() {
			row := table.Rows[i]
			assert.Equal(t, "sgd", row.ModelType)
			assert.Equal(t, variant, row.DatasetType)
			assert.Equal(t, prep, row.PreprocessingType)
			assert.Contains(t, row.Params, "max_iter: 100")
			assert.False(t, math.IsNaN(row.R2Train) || math.IsInf(row.R2Train, 0))
			assert.LessOrEqual(t, row.R2Train, 1.0)
			assert.Equal(t, math.Sqrt(row.MSETrain), row.RMSETrain)
			assert.Equal(t, math.Sqrt(row.MSETest), row.RMSETest)
			i++
		}
	}

	saved, err := results.ReadCSV(filepath.Join(dir, "sgd_results.csv"))
	require.NoError(t, err)
	assert.Equal(t, table.Rows, saved.Rows)

	require.Len(t, sink.tables, 1)
	assert.Same(t, table, sink.tables[0])

	assert.Equal(t, 9, logger.CountMessages("best candidate"))
	assert.True(t, logger.ContainsField(log.EstimatorIDKey, h.RunID()))
}

func TestCreateModelsSetsUniquePairs(t *testing.T) {
	h, _, _ := newTestHandler(t, WithCVFolds(3))

	table, err := h.CreateModelsSets("rf", model_selection.Grid{
		"n_estimators": {5},
		"max_depth":    {2, 4},
	})
	require.NoError(t, err)
	require.Equal(t, 9, table.Len())

	seen := map[[2]string]bool{}
	perVariant := map[string]int{}
	for _, r := range table.Rows {
		key := [2]string{r.DatasetType, r.PreprocessingType}
		assert.False(t, seen[key], "duplicate pair %v", key)
		seen[key] = true
		perVariant[r.DatasetType]++
	}
	assert.Equal(t, map[string]int{"base": 3, "complete": 3, "sub": 3}, perVariant)
}

func TestCreateModelsSetsSinglePointGrid(t *testing.T) {
	h, _, _ := newTestHandler(t)

	table, err := h.CreateModelsSets("knn", model_selection.Grid{
		"n_neighbors": {3},
		"weights":     {"distance"},
	})
	require.NoError(t, err)
	for _, r := range table.Rows {
		assert.Equal(t, "{n_neighbors: 3, weights: distance}", r.Params)
	}
}

func TestCreateModelsSetsUnknownModel(t *testing.T) {
	h, logger, dir := newTestHandler(t)

	table, err := h.CreateModelsSets("xyz", model_selection.Grid{})
	assert.Nil(t, table)
	assert.True(t, errors.Is(err, ErrUnknownModel))
	assert.True(t, logger.ContainsMessage("model kind does not exist"))

	_, statErr := os.Stat(filepath.Join(dir, "xyz_results.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestCreateModelsSetsFailureKeepsPreviousFile(t *testing.T) {
	h, _, dir := newTestHandler(t)
	path := filepath.Join(dir, "knn_results.csv")

	_, err := h.CreateModelsSets("knn", model_selection.Grid{"n_neighbors": {2}})
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = h.CreateModelsSets("knn", model_selection.Grid{"leaf_size": {30}})
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve), "unknown hyperparameter is fatal: %v", err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCreateModelsSetsTooManyFolds(t *testing.T) {
	h, _, dir := newTestHandler(t, WithCVFolds(21))

	_, err := h.CreateModelsSets("knn", model_selection.Grid{"n_neighbors": {1}})
	assert.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "knn_results.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestScalersNotRefit(t *testing.T) {
	h, _, _ := newTestHandler(t)
	data, err := dataset.Synthetic(20, 5, 42)
	require.NoError(t, err)
	xTest, err := data.GetSet(dataset.Complete, dataset.Test)
	require.NoError(t, err)

	before := map[string]mat.Matrix{}
	for _, prep := range PreprocessingTypes() {
		out, err := h.Scalers().Transform(dataset.Complete, prep, xTest)
		require.NoError(t, err)
		before[prep] = out
	}

	_, err = h.CreateModelsSets("knn", model_selection.Grid{"n_neighbors": {2, 4}})
	require.NoError(t, err)

	for _, prep := range PreprocessingTypes() {
		out, err := h.Scalers().Transform(dataset.Complete, prep, xTest)
		require.NoError(t, err)
		assert.True(t, mat.Equal(before[prep], out), prep)
	}
}

func TestScalerBank(t *testing.T) {
	data, err := dataset.Synthetic(20, 5, 3)
	require.NoError(t, err)
	bank, err := NewScalerBank(data)
	require.NoError(t, err)

	train, err := data.GetSet(dataset.Base, dataset.Train)
	require.NoError(t, err)

	same, err := bank.Transform(dataset.Base, NoScaling, train)
	require.NoError(t, err)
	assert.True(t, mat.Equal(train, same))

	std, err := bank.Transform(dataset.Base, StandardScaling, train)
	require.NoError(t, err)
	col := mat.Col(nil, 0, std)
	var sum float64
	for _, v := range col {
		sum += v
	}
	assert.InDelta(t, 0, sum/float64(len(col)), 1e-9)

	mm, err := bank.Transform(dataset.Base, MinMaxScaling, train)
	require.NoError(t, err)
	assert.InDelta(t, 0, mat.Min(mm), 1e-12)
	assert.InDelta(t, 1, mat.Max(mm), 1e-12)

	_, err = bank.Transform(dataset.Base, "robust_scaling", train)
	assert.Error(t, err)
	_, err = bank.Transform("full", StandardScaling, train)
	assert.Error(t, err)
}

type countingSelector struct {
	calls int
	inner Selector
}

func (c *countingSelector) Select(est model.Regressor, X, y mat.Matrix, grid model_selection.Grid) (Selection, error) {
	c.calls++
	return c.inner.Select(est, X, y, grid)
}

func TestWithSelector(t *testing.T) {
	sel := &countingSelector{inner: GridSelector{Folds: 2}}
	h, _, _ := newTestHandler(t, WithSelector(sel))

	_, err := h.CreateModelsSets("knn", model_selection.Grid{"n_neighbors": {1}})
	require.NoError(t, err)
	assert.Equal(t, 9, sel.calls)
}

func TestCalcModelsStatisticsConstantTarget(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
	y := []float64{5, 5, 5, 5, 5, 5}
	data, err := dataset.New(X, []string{"a", "b"}, y, map[string][]string{
		dataset.Base: {"a"}, dataset.Complete: {"a", "b"}, dataset.Sub: {"b"},
	}, []int{0, 1, 2, 3}, []int{4, 5})
	require.NoError(t, err)

	h, err := NewHandler(data, WithOutputDir(t.TempDir()))
	require.NoError(t, err)

	xTrain, _ := data.GetSet(dataset.Complete, dataset.Train)
	xTest, _ := data.GetSet(dataset.Complete, dataset.Test)
	est := neighbors.NewKNeighborsRegressor(neighbors.WithNNeighbors(2))
	require.NoError(t, est.Fit(xTrain, data.YTrain()))

	_, err = h.CalcModelsStatistics(est, xTrain, xTest)
	var ume *errors.UndefinedMetricError
	assert.True(t, errors.As(err, &ume))
}

func TestCreateNeuralNetworks(t *testing.T) {
	h, logger, dir := newTestHandler(t)

	runs, err := h.CreateNeuralNetworks(model_selection.Grid{
		"hidden_layer_sizes": {[]int{4}},
		"epochs":             {3},
		"batch_size":         {8},
		"learning_rate":      {0.01, 0.001},
	})
	require.NoError(t, err)
	require.Len(t, runs, 6)

	assert.Equal(t, "base", runs[0].Variant)
	assert.Equal(t, NoScaling, runs[0].Preprocessing)
	assert.Equal(t, StandardScaling, runs[1].Preprocessing)
	assert.Equal(t, "sub", runs[5].Variant)
	for _, r := range runs {
		require.Len(t, r.Reports, 2)
		assert.Len(t, r.Reports[0].LossCurve, 3)
	}
	assert.Equal(t, 12, logger.CountMessages("neural network evaluated"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
