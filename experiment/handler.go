package experiment

import (
	"math"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/dataset"
	"github.com/YuminosukeSato/regbench/metrics"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/pkg/log"
	"github.com/YuminosukeSato/regbench/results"
	"github.com/YuminosukeSato/regbench/sklearn/model_selection"
	"github.com/YuminosukeSato/regbench/sklearn/neural_network"
)

// Handler trains and evaluates model kinds over every dataset variant and
// preprocessing regime of one dataset.
type Handler struct {
	data      Provider
	scalers   *ScalerBank
	selector  Selector
	outputDir string
	folds     int
	sinks     []results.Sink
	logger    log.Logger
	runID     string
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithOutputDir sets the directory results files are written to.
func WithOutputDir(dir string) HandlerOption {
	return func(h *Handler) { h.outputDir = dir }
}

// WithCVFolds sets the number of cross-validation folds.
func WithCVFolds(k int) HandlerOption {
	return func(h *Handler) { h.folds = k }
}

// WithLogger sets the progress logger.
func WithLogger(l log.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// WithSinks adds destinations that receive every completed table after the
// CSV file is written.
func WithSinks(sinks ...results.Sink) HandlerOption {
	return func(h *Handler) { h.sinks = append(h.sinks, sinks...) }
}

// WithSelector replaces the default cross-validated grid search.
func WithSelector(s Selector) HandlerOption {
	return func(h *Handler) { h.selector = s }
}

// NewHandler fits the scaler bank of data and returns a ready handler.
func NewHandler(data Provider, options ...HandlerOption) (*Handler, error) {
	h := &Handler{
		data:      data,
		outputDir: "results",
		folds:     5,
		runID:     uuid.NewString(),
	}
	for _, opt := range options {
		opt(h)
	}
	if h.logger == nil {
		h.logger = log.GetLoggerWithName("ModelsHandler")
	}
	h.logger = h.logger.With(log.EstimatorIDKey, h.runID)
	if h.selector == nil {
		h.selector = GridSelector{Folds: h.folds, Logger: h.logger}
	}

	scalers, err := NewScalerBank(data)
	if err != nil {
		return nil, err
	}
	h.scalers = scalers
	return h, nil
}

// RunID identifies this handler in logs.
func (h *Handler) RunID() string { return h.runID }

// Scalers returns the fitted scaler bank.
func (h *Handler) Scalers() *ScalerBank { return h.scalers }

// ResultsPath returns the CSV path for a model kind.
func (h *Handler) ResultsPath(name string) string {
	return filepath.Join(h.outputDir, name+"_results.csv")
}

// CreateModelsSets benchmarks one model kind: for every dataset variant and
// preprocessing regime it selects hyperparameters from grid, refits and
// scores the winner. The 9-row table is written to ResultsPath(name) and the
// configured sinks only when every row succeeded.
//
// An unknown name is logged and reported as ErrUnknownModel; nothing is
// written in that case.
func (h *Handler) CreateModelsSets(name string, grid model_selection.Grid) (*results.Table, error) {
	kind, err := ParseModelKind(name)
	if err != nil {
		h.logger.Error("model kind does not exist",
			log.ModelNameKey, name,
			log.ErrorCodeKey, log.ErrorUnknownModel,
		)
		return nil, err
	}

	logger := h.logger.With(log.ModelNameKey, name)
	logger.Info("regressor started")
	start := time.Now()

	table := results.NewTable(name)
	for _, variant := range h.data.SetTypes() {
		logger.Info("dataset variant started", log.DatasetKey, variant)
		rows, err := h.trainModels(kind, variant, grid, logger.With(log.DatasetKey, variant))
		if err != nil {
			return nil, errors.Wrapf(err, "%s on %s set", name, variant)
		}
		for _, r := range rows {
			table.Append(r)
		}
	}

	path := h.ResultsPath(name)
	if err := table.SaveCSV(path); err != nil {
		return nil, err
	}
	for _, s := range h.sinks {
		if err := s.Save(table); err != nil {
			return nil, errors.Wrapf(err, "save %s results", name)
		}
	}
	logger.Info("results written",
		log.OutputPathKey, path,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return table, nil
}

// trainModels produces the three rows of one dataset variant.
func (h *Handler) trainModels(kind ModelKind, variant string, grid model_selection.Grid, logger log.Logger) ([]results.Row, error) {
	xTrain, err := h.data.GetSet(variant, dataset.Train)
	if err != nil {
		return nil, err
	}
	xTest, err := h.data.GetSet(variant, dataset.Test)
	if err != nil {
		return nil, err
	}

	rows := make([]results.Row, 0, 3)
	for _, prep := range PreprocessingTypes() {
		tr, err := h.scalers.Transform(variant, prep, xTrain)
		if err != nil {
			return nil, err
		}
		te, err := h.scalers.Transform(variant, prep, xTest)
		if err != nil {
			return nil, err
		}

		est, err := NewEstimator(kind)
		if err != nil {
			return nil, err
		}
		sel, err := h.selector.Select(est, tr, h.data.YTrain(), grid)
		if err != nil {
			return nil, errors.Wrapf(err, "select %s", prep)
		}
		m, err := h.CalcModelsStatistics(sel.Estimator, tr, te)
		if err != nil {
			return nil, errors.Wrapf(err, "metrics %s", prep)
		}
		logger.Info("best candidate",
			log.PreprocessingKey, prep,
			log.R2ScoreKey, sel.Score,
			log.HyperParamsKey, sel.Params.String(),
		)

		rows = append(rows, results.Row{
			ModelType:         string(kind),
			DatasetType:       variant,
			PreprocessingType: prep,
			Params:            sel.Params.String(),
			Metrics:           m,
		})
	}
	return rows, nil
}

// CalcModelsStatistics scores a fitted estimator on the dataset's train and
// test targets. R² comes from the estimator's own Score, RMSE is the square
// root of MSE.
func (h *Handler) CalcModelsStatistics(est model.Regressor, xTrain, xTest mat.Matrix) (results.Metrics, error) {
	var m results.Metrics
	yTrain, yTest := h.data.YTrain(), h.data.YTest()

	predTrain, err := est.Predict(xTrain)
	if err != nil {
		return m, err
	}
	predTest, err := est.Predict(xTest)
	if err != nil {
		return m, err
	}
	pTrain, pTest := metrics.VecFromMatrix(predTrain), metrics.VecFromMatrix(predTest)

	if m.R2Train, err = est.Score(xTrain, yTrain); err != nil {
		return m, err
	}
	if m.R2Test, err = est.Score(xTest, yTest); err != nil {
		return m, err
	}
	if m.MSETrain, err = metrics.MSE(yTrain, pTrain); err != nil {
		return m, err
	}
	if m.MSETest, err = metrics.MSE(yTest, pTest); err != nil {
		return m, err
	}
	m.RMSETrain = math.Sqrt(m.MSETrain)
	m.RMSETest = math.Sqrt(m.MSETest)
	if m.RAETrain, err = metrics.RAE(yTrain, pTrain); err != nil {
		return m, err
	}
	if m.RAETest, err = metrics.RAE(yTest, pTest); err != nil {
		return m, err
	}
	return m, nil
}

// NetworkRun holds the trained networks of one (variant, regime) pair.
type NetworkRun struct {
	Variant       string
	Preprocessing string
	Reports       []neural_network.Report
}

// CreateNeuralNetworks trains a network per grid point on every dataset
// variant, once unscaled and once standardized. Nothing is written to the
// results files.
func (h *Handler) CreateNeuralNetworks(grid model_selection.Grid) ([]NetworkRun, error) {
	logger := h.logger.With(log.ModelNameKey, "nn")
	logger.Info("neural network started")

	var runs []NetworkRun
	for _, variant := range h.data.SetTypes() {
		xTrain, err := h.data.GetSet(variant, dataset.Train)
		if err != nil {
			return nil, err
		}
		xTest, err := h.data.GetSet(variant, dataset.Test)
		if err != nil {
			return nil, err
		}

		for _, prep := range []string{NoScaling, StandardScaling} {
			tr, err := h.scalers.Transform(variant, prep, xTrain)
			if err != nil {
				return nil, err
			}
			te, err := h.scalers.Transform(variant, prep, xTest)
			if err != nil {
				return nil, err
			}
			train, err := neural_network.NewDataset(tr, h.data.YTrain())
			if err != nil {
				return nil, err
			}
			test, err := neural_network.NewDataset(te, h.data.YTest())
			if err != nil {
				return nil, err
			}

			reports, err := neural_network.TrainNeuralNetworks(train, test, grid,
				logger.With(log.DatasetKey, variant, log.PreprocessingKey, prep))
			if err != nil {
				return nil, errors.Wrapf(err, "neural networks on %s/%s", variant, prep)
			}
			runs = append(runs, NetworkRun{Variant: variant, Preprocessing: prep, Reports: reports})
		}
	}
	return runs, nil
}
