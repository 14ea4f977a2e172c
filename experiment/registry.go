// Package experiment runs the regression benchmark: for one model kind it
// grid-searches every dataset variant under every preprocessing regime and
// records train and test metrics in a results table.
package experiment

import (
	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/sklearn/ensemble"
	"github.com/YuminosukeSato/regbench/sklearn/linear_model"
	"github.com/YuminosukeSato/regbench/sklearn/neighbors"
)

// ModelKind names a benchmarked regressor family.
type ModelKind string

const (
	KNN ModelKind = "knn"
	SGD ModelKind = "sgd"
	RF  ModelKind = "rf"
)

// ErrUnknownModel is returned for model kinds outside the registry. It is
// not fatal to a run: callers report it and continue with the next kind.
var ErrUnknownModel = errors.New("unknown model kind")

var registry = map[ModelKind]func() model.Regressor{
	KNN: func() model.Regressor { return neighbors.NewKNeighborsRegressor() },
	SGD: func() model.Regressor { return linear_model.NewSGDRegressor() },
	RF:  func() model.Regressor { return ensemble.NewRandomForestRegressor() },
}

// ModelKinds returns the registered kinds in a fixed order.
func ModelKinds() []ModelKind {
	return []ModelKind{KNN, SGD, RF}
}

// ParseModelKind maps an identifier to its ModelKind.
func ParseModelKind(name string) (ModelKind, error) {
	kind := ModelKind(name)
	if _, ok := registry[kind]; !ok {
		return "", errors.Wrapf(ErrUnknownModel, "%q", name)
	}
	return kind, nil
}

// NewEstimator returns an unfitted regressor with default hyperparameters.
func NewEstimator(kind ModelKind) (model.Regressor, error) {
	factory, ok := registry[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownModel, "%q", string(kind))
	}
	return factory(), nil
}
