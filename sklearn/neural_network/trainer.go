package neural_network

import (
	"time"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/pkg/log"
	"github.com/YuminosukeSato/regbench/sklearn/model_selection"
)

// Report summarizes one trained network.
type Report struct {
	Params    model.Params
	LossCurve []float64
	TestMSE   float64
	TestR2    float64
	Duration  time.Duration
}

// TrainNeuralNetworks trains one MLPRegressor per point of grid on train and
// evaluates it on test. Progress goes to logger only; the caller decides
// what to keep from the returned reports.
func TrainNeuralNetworks(train, test Dataset, grid model_selection.Grid, logger log.Logger) ([]Report, error) {
	if logger == nil {
		logger = log.GetLoggerWithName("neural_network")
	}
	if train.Len() == 0 || test.Len() == 0 {
		return nil, errors.NewModelError("TrainNeuralNetworks", "empty data", errors.ErrEmptyData)
	}
	trainCols, testCols := train.X.RawMatrix().Cols, test.X.RawMatrix().Cols
	if trainCols != testCols {
		return nil, errors.NewDimensionError("TrainNeuralNetworks", trainCols, testCols, 1)
	}

	candidates, err := model_selection.ParameterGrid(grid)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, 0, len(candidates))
	for ci, params := range candidates {
		net := NewMLPRegressor()
		if err := net.SetParams(params); err != nil {
			return nil, err
		}
		l := logger.With(log.CandidateKey, ci, log.HyperParamsKey, params.String())
		net.OnEpoch = func(epoch int, loss float64) {
			l.Debug("epoch finished", log.EpochKey, epoch, log.LossKey, loss)
		}

		start := time.Now()
		l.Info("training neural network",
			log.SamplesKey, train.Len(),
			log.FeaturesKey, trainCols,
			log.BatchSizeKey, net.batchSize,
		)
		if err := net.FitDataset(train); err != nil {
			return nil, errors.Wrapf(err, "train network %s", params)
		}
		mse, r2, err := net.Evaluate(test)
		if err != nil {
			return nil, errors.Wrapf(err, "evaluate network %s", params)
		}

		curve := net.LossCurve()
		r := Report{
			Params:    params,
			LossCurve: curve,
			TestMSE:   mse,
			TestR2:    r2,
			Duration:  time.Since(start),
		}
		reports = append(reports, r)
		l.Info("neural network evaluated",
			log.LossKey, curve[len(curve)-1],
			log.MSEKey, mse,
			log.R2ScoreKey, r2,
			log.DurationMsKey, r.Duration.Milliseconds(),
		)
	}
	return reports, nil
}
