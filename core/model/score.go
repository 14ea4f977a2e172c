package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/metrics"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// ScoreR2 predicts X with p and returns the coefficient of determination
// against y. Constant targets follow scikit-learn: 1.0 for a perfect fit,
// 0.0 otherwise.
func ScoreR2(p Predictor, X, y mat.Matrix) (float64, error) {
	yPred, err := p.Predict(X)
	if err != nil {
		return 0, err
	}
	rTrue, _ := y.Dims()
	rPred, _ := yPred.Dims()
	if rTrue != rPred {
		return 0, errors.NewDimensionError("Score", rTrue, rPred, 0)
	}
	return metrics.R2ScoreForceFinite(metrics.VecFromMatrix(y), metrics.VecFromMatrix(yPred))
}
