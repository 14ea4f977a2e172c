package experiment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/log"
	"github.com/YuminosukeSato/regbench/sklearn/model_selection"
)

// Selection is the outcome of hyperparameter selection.
type Selection struct {
	Params    model.Params
	Score     float64
	Estimator model.Regressor // refit on all training rows
}

// Selector picks the best hyperparameters of est on (X, y) from grid.
type Selector interface {
	Select(est model.Regressor, X, y mat.Matrix, grid model_selection.Grid) (Selection, error)
}

// GridSelector selects by k-fold cross-validated exhaustive grid search.
type GridSelector struct {
	Folds  int
	Logger log.Logger
}

// Select implements Selector.
func (g GridSelector) Select(est model.Regressor, X, y mat.Matrix, grid model_selection.Grid) (Selection, error) {
	gs := model_selection.NewGridSearchCV(est, grid)
	if g.Folds > 0 {
		gs.CV = model_selection.NewKFold(g.Folds)
	}
	gs.Logger = g.Logger
	if err := gs.Fit(X, y); err != nil {
		return Selection{}, err
	}
	return Selection{Params: gs.BestParams, Score: gs.BestScore, Estimator: gs.BestEstimator}, nil
}
