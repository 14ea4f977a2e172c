package model

import "gonum.org/v1/gonum/mat"

// Fitter is implemented by trainable models.
type Fitter interface {
	// Fit trains on X; y is an n×1 column.
	Fit(X, y mat.Matrix) error
}

// Predictor is implemented by models that produce predictions.
type Predictor interface {
	// Predict returns an n×1 column of predictions.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is implemented by models that report the coefficient of
// determination R² of their predictions.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// ParameterGetter exposes hyperparameters under their scikit-learn names.
type ParameterGetter interface {
	GetParams() Params
}

// ParameterSetter updates hyperparameters by name. Unknown names fail with
// a ValidationError.
type ParameterSetter interface {
	SetParams(params Params) error
}

// Regressor is the contract grid search and the benchmark handler rely on.
type Regressor interface {
	Fitter
	Predictor
	Scorer
	ParameterGetter
	ParameterSetter

	// Clone returns an unfitted copy carrying the same hyperparameters.
	Clone() Regressor
}
