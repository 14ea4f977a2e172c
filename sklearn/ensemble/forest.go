// Package ensemble implements bagged tree ensembles.
package ensemble

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/core/parallel"
	"github.com/YuminosukeSato/regbench/pkg/errors"
	"github.com/YuminosukeSato/regbench/sklearn/tree"
)

// treeParams are forwarded to every tree.
var treeParams = []string{"max_depth", "min_samples_split", "min_samples_leaf", "max_features"}

// RandomForestRegressor averages regression trees grown on bootstrap samples.
type RandomForestRegressor struct {
	model.BaseEstimator

	nEstimators int
	bootstrap   bool
	randomState int64
	// template carries the per-tree settings
	template *tree.DecisionTreeRegressor

	trees     []*tree.DecisionTreeRegressor
	nFeatures int
}

// ForestOption configures a RandomForestRegressor.
type ForestOption func(*RandomForestRegressor)

// NewRandomForestRegressor creates a forest with scikit-learn defaults:
// 100 trees, bootstrap, all features per split.
func NewRandomForestRegressor(options ...ForestOption) *RandomForestRegressor {
	rf := &RandomForestRegressor{
		nEstimators: 100,
		bootstrap:   true,
		template:    tree.NewDecisionTreeRegressor(tree.WithMaxFeatures(1.0)),
	}
	for _, opt := range options {
		opt(rf)
	}
	return rf
}

// WithNEstimators sets the number of trees.
func WithNEstimators(n int) ForestOption {
	return func(rf *RandomForestRegressor) { rf.nEstimators = n }
}

// WithBootstrap toggles bootstrap sampling.
func WithBootstrap(b bool) ForestOption {
	return func(rf *RandomForestRegressor) { rf.bootstrap = b }
}

// WithRandomState seeds bootstrap sampling and per-tree feature sampling.
func WithRandomState(seed int64) ForestOption {
	return func(rf *RandomForestRegressor) { rf.randomState = seed }
}

// WithTreeOptions applies options to every tree.
func WithTreeOptions(opts ...tree.Option) ForestOption {
	return func(rf *RandomForestRegressor) {
		for _, o := range opts {
			o(rf.template)
		}
	}
}

// Fit grows nEstimators trees concurrently. Tree seeds are drawn up front
// from randomState, so the fitted forest does not depend on scheduling.
func (rf *RandomForestRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("RandomForestRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr, _ := y.Dims(); yr != rows {
		return errors.NewDimensionError("RandomForestRegressor.Fit", rows, yr, 0)
	}
	if rf.nEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", rf.nEstimators)
	}

	xs := make([][]float64, rows)
	ys := make([]float64, rows)
	for i := range xs {
		xs[i] = mat.Row(nil, i, X)
		ys[i] = y.At(i, 0)
	}

	rng := rand.New(rand.NewSource(rf.randomState))
	seeds := make([]int64, rf.nEstimators)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	rf.Reset()
	trees := make([]*tree.DecisionTreeRegressor, rf.nEstimators)
	err := parallel.ForEach(rf.nEstimators, func(i int) error {
		treeRand := rand.New(rand.NewSource(seeds[i]))
		idx := make([]int, rows)
		for j := range idx {
			if rf.bootstrap {
				idx[j] = treeRand.Intn(rows)
			} else {
				idx[j] = j
			}
		}

		t := rf.template.Clone().(*tree.DecisionTreeRegressor)
		if err := t.SetParam("random_state", seeds[i]); err != nil {
			return err
		}
		if err := t.FitSamples(xs, ys, idx); err != nil {
			return errors.Wrapf(err, "tree %d", i)
		}
		trees[i] = t
		return nil
	})
	if err != nil {
		return err
	}

	rf.trees = trees
	rf.nFeatures = cols
	rf.SetFitted()
	return nil
}

// Predict returns the mean of the tree predictions.
func (rf *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := rf.CheckFitted("RandomForestRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != rf.nFeatures {
		return nil, errors.NewDimensionError("RandomForestRegressor.Predict", rf.nFeatures, cols, 1)
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, 32, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			var sum float64
			for _, t := range rf.trees {
				sum += t.PredictRow(row)
			}
			out[i] = sum / float64(len(rf.trees))
		}
	})
	return mat.NewVecDense(rows, out), nil
}

// Score returns R² of the predictions for X against y.
func (rf *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	return model.ScoreR2(rf, X, y)
}

// FeatureImportances averages the importances of the fitted trees.
func (rf *RandomForestRegressor) FeatureImportances() []float64 {
	if len(rf.trees) == 0 {
		return nil
	}
	out := make([]float64, rf.nFeatures)
	for _, t := range rf.trees {
		for j, v := range t.FeatureImportances() {
			out[j] += v / float64(len(rf.trees))
		}
	}
	return out
}

// Estimators returns the fitted trees.
func (rf *RandomForestRegressor) Estimators() []*tree.DecisionTreeRegressor {
	return rf.trees
}

// GetParams returns the hyperparameters under scikit-learn names.
func (rf *RandomForestRegressor) GetParams() model.Params {
	p := model.Params{
		"n_estimators": rf.nEstimators,
		"bootstrap":    rf.bootstrap,
		"random_state": rf.randomState,
	}
	tp := rf.template.GetParams()
	for _, name := range treeParams {
		p[name] = tp[name]
	}
	return p
}

// SetParams applies hyperparameters by name; nothing changes on error.
func (rf *RandomForestRegressor) SetParams(params model.Params) error {
	next := *rf
	next.template = rf.template.Clone().(*tree.DecisionTreeRegressor)
	for _, name := range params.Keys() {
		v := params[name]
		var err error
		switch name {
		case "n_estimators":
			next.nEstimators, err = model.ParamInt(name, v)
			if err == nil && next.nEstimators < 1 {
				err = errors.NewValidationError(name, "must be >= 1", v)
			}
		case "bootstrap":
			next.bootstrap, err = model.ParamBool(name, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(name, v)
			next.randomState = int64(seed)
		case "max_depth", "min_samples_split", "min_samples_leaf", "max_features":
			err = next.template.SetParam(name, v)
		default:
			err = model.UnknownParam("RandomForestRegressor", name, v)
		}
		if err != nil {
			return err
		}
	}
	*rf = next
	return nil
}

// Clone returns an unfitted forest with the same hyperparameters.
func (rf *RandomForestRegressor) Clone() model.Regressor {
	return &RandomForestRegressor{
		nEstimators: rf.nEstimators,
		bootstrap:   rf.bootstrap,
		randomState: rf.randomState,
		template:    rf.template.Clone().(*tree.DecisionTreeRegressor),
	}
}

func (rf *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, bootstrap=%t, random_state=%d)",
		rf.nEstimators, rf.bootstrap, rf.randomState)
}

var _ model.Regressor = (*RandomForestRegressor)(nil)
