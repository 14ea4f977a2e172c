package model_selection

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/pkg/log"
)

// CandidateResult records the cross-validation outcome of one grid point.
type CandidateResult struct {
	Params     model.Params
	FoldScores []float64
	MeanScore  float64
	StdScore   float64
	FitTime    time.Duration
}

// GridSearchCV selects hyperparameters by exhaustive search scored with R²
// on held-out folds, then refits the winner on all rows.
type GridSearchCV struct {
	Estimator model.Regressor
	Grid      Grid
	CV        Splitter
	Logger    log.Logger

	BestParams    model.Params
	BestScore     float64
	BestIndex     int
	BestEstimator model.Regressor
	CVResults     []CandidateResult
}

// NewGridSearchCV creates a search over grid with 5-fold cross-validation.
func NewGridSearchCV(estimator model.Regressor, grid Grid) *GridSearchCV {
	return &GridSearchCV{
		Estimator: estimator,
		Grid:      grid,
		CV:        NewKFold(5),
	}
}

// Fit runs every candidate on every fold sequentially. The best candidate is
// the first one with the strictly highest mean score; NaN means never win.
// Unknown parameter names and impossible fold counts abort the search.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	if gs.Estimator == nil {
		return errors.NewValueError("GridSearchCV.Fit", "estimator is nil")
	}
	logger := gs.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("GridSearchCV")
	}

	candidates, err := ParameterGrid(gs.Grid)
	if err != nil {
		return err
	}
	folds, err := gs.CV.Split(X)
	if err != nil {
		return err
	}
	if yr, _ := y.Dims(); yr != len(folds[0].TrainIndices)+len(folds[0].TestIndices) {
		return errors.NewDimensionError("GridSearchCV.Fit", len(folds[0].TrainIndices)+len(folds[0].TestIndices), yr, 0)
	}

	logger.Debug("grid search started",
		log.OperationKey, log.OperationGridSearch,
		log.CandidatesKey, len(candidates),
		log.SplitsKey, gs.CV.GetNSplits(),
	)

	type split struct {
		xTrain, xTest *mat.Dense
		yTrain, yTest *mat.VecDense
	}
	splits := make([]split, len(folds))
	for i, f := range folds {
		splits[i].xTrain, splits[i].yTrain = takeRows(X, y, f.TrainIndices)
		splits[i].xTest, splits[i].yTest = takeRows(X, y, f.TestIndices)
	}

	gs.CVResults = make([]CandidateResult, 0, len(candidates))
	gs.BestIndex = -1
	for ci, params := range candidates {
		start := time.Now()
		scores := make([]float64, len(splits))
		for fi, s := range splits {
			est := gs.Estimator.Clone()
			if err := est.SetParams(params); err != nil {
				return err
			}
			if err := est.Fit(s.xTrain, s.yTrain); err != nil {
				return errors.Wrapf(err, "fit candidate %s on fold %d", params, fi)
			}
			score, err := est.Score(s.xTest, s.yTest)
			if err != nil {
				return errors.Wrapf(err, "score candidate %s on fold %d", params, fi)
			}
			scores[fi] = score
			logger.Debug("fold scored",
				log.OperationKey, log.OperationGridSearch,
				log.CandidateKey, ci,
				log.FoldKey, fi,
				log.R2ScoreKey, score,
			)
		}

		mean, std := stat.PopMeanStdDev(scores, nil)
		gs.CVResults = append(gs.CVResults, CandidateResult{
			Params:     params,
			FoldScores: scores,
			MeanScore:  mean,
			StdScore:   std,
			FitTime:    time.Since(start),
		})
		if math.IsNaN(mean) {
			continue
		}
		if gs.BestIndex < 0 || mean > gs.BestScore {
			gs.BestIndex = ci
			gs.BestScore = mean
		}
	}

	if gs.BestIndex < 0 {
		return errors.NewValueError("GridSearchCV.Fit", "every candidate has a NaN mean score")
	}

	gs.BestParams = candidates[gs.BestIndex]
	best := gs.Estimator.Clone()
	if err := best.SetParams(gs.BestParams); err != nil {
		return err
	}
	if err := best.Fit(X, y); err != nil {
		return errors.Wrap(err, "refit best candidate")
	}
	gs.BestEstimator = best

	logger.Debug("grid search finished",
		log.OperationKey, log.OperationGridSearch,
		log.HyperParamsKey, gs.BestParams.String(),
		log.R2ScoreKey, gs.BestScore,
	)
	return nil
}

// Predict delegates to the refitted best estimator.
func (gs *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if gs.BestEstimator == nil {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return gs.BestEstimator.Predict(X)
}
