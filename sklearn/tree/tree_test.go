package tree

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// stepData returns y = 1 for x0 < 5, y = 10 otherwise, with an irrelevant x1.
func stepData() (*mat.Dense, *mat.VecDense) {
	X := mat.NewDense(10, 2, nil)
	y := mat.NewVecDense(10, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, float64((i*7)%3))
		if i < 5 {
			y.SetVec(i, 1)
		} else {
			y.SetVec(i, 10)
		}
	}
	return X, y
}

// TestDecisionTreeRegressor_FitPredict tests a single clean split
func TestDecisionTreeRegressor_FitPredict(t *testing.T) {
	X, y := stepData()

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatalf("Failed to fit model: %v", err)
	}

	if dt.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", dt.Depth())
	}
	if dt.NLeaves() != 2 {
		t.Errorf("expected 2 leaves, got %d", dt.NLeaves())
	}
	if dt.nodes[0].threshold != 4.5 {
		t.Errorf("expected threshold 4.5, got %v", dt.nodes[0].threshold)
	}

	XTest := mat.NewDense(2, 2, []float64{
		2.2, 0,
		8.9, 2,
	})
	pred, err := dt.Predict(XTest)
	if err != nil {
		t.Fatalf("Failed to predict: %v", err)
	}
	if pred.At(0, 0) != 1 || pred.At(1, 0) != 10 {
		t.Errorf("unexpected predictions %v, %v", pred.At(0, 0), pred.At(1, 0))
	}

	imp := dt.FeatureImportances()
	if imp[0] != 1 || imp[1] != 0 {
		t.Errorf("expected all importance on feature 0, got %v", imp)
	}
}

// TestDecisionTreeRegressor_FullDepthMemorizes checks an unlimited tree fits
// distinct training rows exactly
func TestDecisionTreeRegressor_FullDepthMemorizes(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(6, []float64{3, -1, 4, 1, -5, 9})

	dt := NewDecisionTreeRegressor()
	if err := dt.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	score, err := dt.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(score-1) > 1e-12 {
		t.Errorf("expected R² 1 on training data, got %v", score)
	}
}

// TestDecisionTreeRegressor_MaxDepth tests depth limiting
func TestDecisionTreeRegressor_MaxDepth(t *testing.T) {
	X := mat.NewDense(8, 1, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	y := mat.NewVecDense(8, []float64{1, 4, 9, 16, 25, 36, 49, 64})

	dt := NewDecisionTreeRegressor(WithMaxDepth(2))
	if err := dt.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if dt.Depth() > 2 {
		t.Errorf("depth %d exceeds max_depth 2", dt.Depth())
	}
	if dt.NLeaves() > 4 {
		t.Errorf("expected at most 4 leaves, got %d", dt.NLeaves())
	}
}

// TestDecisionTreeRegressor_MinSamplesLeaf tests leaf size limits
func TestDecisionTreeRegressor_MinSamplesLeaf(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(6, []float64{0, 0, 0, 0, 0, 100})

	dt := NewDecisionTreeRegressor(WithMinSamplesLeaf(3))
	if err := dt.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	for _, nd := range dt.nodes {
		if nd.feature < 0 && nd.nSamples < 3 {
			t.Errorf("leaf with %d samples violates min_samples_leaf", nd.nSamples)
		}
	}
}

// TestDecisionTreeRegressor_FitSamplesWithRepeats tests bootstrap-style indices
func TestDecisionTreeRegressor_FitSamplesWithRepeats(t *testing.T) {
	xs := [][]float64{{0}, {1}, {2}, {3}}
	y := []float64{0, 10, 20, 30}

	dt := NewDecisionTreeRegressor(WithMaxDepth(1))
	if err := dt.FitSamples(xs, y, []int{0, 0, 0, 3}); err != nil {
		t.Fatal(err)
	}
	if got := dt.PredictRow([]float64{0.5}); got != 0 {
		t.Errorf("expected 0, got %v", got)
	}
	if got := dt.PredictRow([]float64{2.5}); got != 30 {
		t.Errorf("expected 30, got %v", got)
	}
}

// TestDecisionTreeRegressor_MaxFeatures tests feature subsampling is seeded
func TestDecisionTreeRegressor_MaxFeatures(t *testing.T) {
	X, y := stepData()

	for _, mf := range []interface{}{"sqrt", "log2", 1, 0.5} {
		a := NewDecisionTreeRegressor(WithMaxFeatures(mf), WithRandomState(3))
		b := NewDecisionTreeRegressor(WithMaxFeatures(mf), WithRandomState(3))
		if err := a.Fit(X, y); err != nil {
			t.Fatalf("max_features=%v: %v", mf, err)
		}
		if err := b.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		pa, _ := a.Predict(X)
		pb, _ := b.Predict(X)
		if !mat.Equal(pa, pb) {
			t.Errorf("max_features=%v: same seed gave different trees", mf)
		}
	}

	bad := NewDecisionTreeRegressor(WithMaxFeatures("cube"))
	if err := bad.Fit(X, y); err == nil {
		t.Error("expected error for max_features=cube")
	}
}

// TestDecisionTreeRegressor_GetSetParams tests parameter round trips
func TestDecisionTreeRegressor_GetSetParams(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	if dt.GetParams()["max_depth"] != nil {
		t.Errorf("default max_depth should be none")
	}

	err := dt.SetParams(model.Params{"max_depth": 4, "min_samples_leaf": 2, "max_features": "sqrt"})
	if err != nil {
		t.Fatal(err)
	}
	p := dt.GetParams()
	if p["max_depth"] != 4 || p["min_samples_leaf"] != 2 || p["max_features"] != "sqrt" {
		t.Errorf("unexpected params %v", p)
	}

	if err := dt.SetParams(model.Params{"criterion": "gini"}); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if err := dt.SetParams(model.Params{"max_depth": 0}); err == nil {
		t.Error("expected error for max_depth=0")
	}
	if err := dt.SetParams(model.Params{"max_depth": nil}); err != nil || dt.GetParams()["max_depth"] != nil {
		t.Errorf("max_depth=none should reset depth limit, err=%v", err)
	}

	c := dt.Clone()
	if c.GetParams().String() != dt.GetParams().String() {
		t.Errorf("clone params differ: %v vs %v", c.GetParams(), dt.GetParams())
	}
}

// TestDecisionTreeRegressor_NotFitted tests error handling before Fit
func TestDecisionTreeRegressor_NotFitted(t *testing.T) {
	dt := NewDecisionTreeRegressor()
	_, err := dt.Predict(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}
}
