package neural_network

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/metrics"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// EpochFunc is called after every epoch with the mean training loss.
type EpochFunc func(epoch int, loss float64)

// MLPRegressor is a fully connected network with an identity output unit,
// trained by mini-batch SGD on mean squared error.
type MLPRegressor struct {
	model.BaseEstimator

	hiddenLayerSizes []int
	activation       string
	learningRate     float64
	epochs           int
	batchSize        int
	randomState      int64

	// OnEpoch, when set, observes training progress.
	OnEpoch EpochFunc

	weights   []*mat.Dense // weights[l] is fan_in × fan_out
	biases    []*mat.VecDense
	act       activation
	lossCurve []float64
	nFeatures int
}

// MLPOption configures an MLPRegressor.
type MLPOption func(*MLPRegressor)

// NewMLPRegressor creates a network with one hidden layer of 100 relu units,
// learning rate 0.001, 200 epochs and batches of 32.
func NewMLPRegressor(options ...MLPOption) *MLPRegressor {
	m := &MLPRegressor{
		hiddenLayerSizes: []int{100},
		activation:       "relu",
		learningRate:     0.001,
		epochs:           200,
		batchSize:        32,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// WithHiddenLayerSizes sets the width of each hidden layer.
func WithHiddenLayerSizes(sizes ...int) MLPOption {
	return func(m *MLPRegressor) { m.hiddenLayerSizes = append([]int(nil), sizes...) }
}

// WithActivation sets the hidden-layer activation.
func WithActivation(name string) MLPOption {
	return func(m *MLPRegressor) { m.activation = name }
}

// WithLearningRate sets the SGD step size.
func WithLearningRate(lr float64) MLPOption {
	return func(m *MLPRegressor) { m.learningRate = lr }
}

// WithEpochs sets the number of passes over the training data.
func WithEpochs(n int) MLPOption {
	return func(m *MLPRegressor) { m.epochs = n }
}

// WithBatchSize sets the mini-batch size.
func WithBatchSize(n int) MLPOption {
	return func(m *MLPRegressor) { m.batchSize = n }
}

// WithRandomState seeds weight initialization and batch shuffling.
func WithRandomState(seed int64) MLPOption {
	return func(m *MLPRegressor) { m.randomState = seed }
}

func (m *MLPRegressor) validate() error {
	switch {
	case m.learningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be > 0", m.learningRate)
	case m.epochs < 1:
		return errors.NewValidationError("epochs", "must be >= 1", m.epochs)
	case m.batchSize < 1:
		return errors.NewValidationError("batch_size", "must be >= 1", m.batchSize)
	}
	for _, h := range m.hiddenLayerSizes {
		if h < 1 {
			return errors.NewValidationError("hidden_layer_sizes", "every layer needs at least one unit", m.hiddenLayerSizes)
		}
	}
	_, err := lookupActivation(m.activation)
	return err
}

// Fit trains on X, y. See FitDataset.
func (m *MLPRegressor) Fit(X, y mat.Matrix) error {
	d, err := NewDataset(X, y)
	if err != nil {
		return err
	}
	return m.FitDataset(d)
}

// FitDataset runs m.epochs epochs of shuffled mini-batch SGD. A non-finite
// loss aborts training with a NumericalInstabilityError.
func (m *MLPRegressor) FitDataset(d Dataset) error {
	if err := m.validate(); err != nil {
		return err
	}
	if d.Len() == 0 {
		return errors.NewModelError("MLPRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	m.act, _ = lookupActivation(m.activation)

	rng := rand.New(rand.NewSource(m.randomState))
	_, cols := d.X.Dims()
	m.Reset()
	m.nFeatures = cols
	m.initWeights(cols, rng)
	m.lossCurve = m.lossCurve[:0]

	for epoch := 0; epoch < m.epochs; epoch++ {
		var total float64
		for _, idx := range d.Batches(m.batchSize, rng) {
			xb, yb := d.batch(idx)
			total += m.step(xb, yb) * float64(len(idx))
		}
		loss := total / float64(d.Len())
		if err := errors.CheckScalar("MLPRegressor.Fit", loss, epoch); err != nil {
			return err
		}
		m.lossCurve = append(m.lossCurve, loss)
		if m.OnEpoch != nil {
			m.OnEpoch(epoch, loss)
		}
	}

	m.SetFitted()
	return nil
}

// initWeights draws weights from the Glorot uniform distribution and zeroes
// the biases.
func (m *MLPRegressor) initWeights(nIn int, rng *rand.Rand) {
	sizes := append(append([]int{nIn}, m.hiddenLayerSizes...), 1)
	m.weights = make([]*mat.Dense, len(sizes)-1)
	m.biases = make([]*mat.VecDense, len(sizes)-1)
	for l := 0; l < len(sizes)-1; l++ {
		fanIn, fanOut := sizes[l], sizes[l+1]
		bound := math.Sqrt(m.act.glorotFactor / float64(fanIn+fanOut))
		w := make([]float64, fanIn*fanOut)
		for i := range w {
			w[i] = (2*rng.Float64() - 1) * bound
		}
		m.weights[l] = mat.NewDense(fanIn, fanOut, w)
		m.biases[l] = mat.NewVecDense(fanOut, nil)
	}
}

// forward returns pre-activations z[l] and activations a[l] (a[0] is the input).
func (m *MLPRegressor) forward(X mat.Matrix) (zs, as []*mat.Dense) {
	rows, _ := X.Dims()
	as = []*mat.Dense{mat.DenseCopyOf(X)}
	last := len(m.weights) - 1
	for l, w := range m.weights {
		_, fanOut := w.Dims()
		z := mat.NewDense(rows, fanOut, nil)
		z.Mul(as[l], w)
		b := m.biases[l]
		z.Apply(func(_, j int, v float64) float64 { return v + b.AtVec(j) }, z)
		zs = append(zs, z)

		if l == last {
			as = append(as, z)
			continue
		}
		a := mat.NewDense(rows, fanOut, nil)
		a.Apply(func(_, _ int, v float64) float64 { return m.act.f(v) }, z)
		as = append(as, a)
	}
	return zs, as
}

// step performs one gradient update on a batch and returns its MSE.
func (m *MLPRegressor) step(xb, yb *mat.Dense) float64 {
	zs, as := m.forward(xb)
	n, _ := yb.Dims()
	pred := as[len(as)-1]

	// dL/dpred for L = mean((pred - y)^2)
	delta := mat.NewDense(n, 1, nil)
	delta.Sub(pred, yb)
	var loss float64
	for i := 0; i < n; i++ {
		e := delta.At(i, 0)
		loss += e * e
	}
	loss /= float64(n)
	delta.Scale(2/float64(n), delta)

	for l := len(m.weights) - 1; l >= 0; l-- {
		fanIn, fanOut := m.weights[l].Dims()
		var gradW mat.Dense
		gradW.Mul(as[l].T(), delta)
		gradB := make([]float64, fanOut)
		for j := 0; j < fanOut; j++ {
			gradB[j] = mat.Sum(delta.ColView(j))
		}

		if l > 0 {
			prev := mat.NewDense(n, fanIn, nil)
			prev.Mul(delta, m.weights[l].T())
			z := zs[l-1]
			prev.Apply(func(i, j int, v float64) float64 { return v * m.act.prime(z.At(i, j)) }, prev)
			delta = prev
		}

		m.weights[l].Sub(m.weights[l], scaled(m.learningRate, &gradW))
		for j, g := range gradB {
			m.biases[l].SetVec(j, m.biases[l].AtVec(j)-m.learningRate*g)
		}
	}
	return loss
}

func scaled(f float64, a mat.Matrix) *mat.Dense {
	var out mat.Dense
	out.Scale(f, a)
	return &out
}

// Predict runs the forward pass and returns an n×1 column.
func (m *MLPRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := m.CheckFitted("MLPRegressor", "Predict"); err != nil {
		return nil, err
	}
	_, cols := X.Dims()
	if cols != m.nFeatures {
		return nil, errors.NewDimensionError("MLPRegressor.Predict", m.nFeatures, cols, 1)
	}
	_, as := m.forward(X)
	return as[len(as)-1], nil
}

// Score returns R² of the predictions for X against y.
func (m *MLPRegressor) Score(X, y mat.Matrix) (float64, error) {
	return model.ScoreR2(m, X, y)
}

// Evaluate returns the test MSE and R² of a fitted network.
func (m *MLPRegressor) Evaluate(d Dataset) (mse, r2 float64, err error) {
	pred, err := m.Predict(d.X)
	if err != nil {
		return 0, 0, err
	}
	p := metrics.VecFromMatrix(pred)
	if mse, err = metrics.MSE(d.Y, p); err != nil {
		return 0, 0, err
	}
	if r2, err = metrics.R2ScoreForceFinite(d.Y, p); err != nil {
		return 0, 0, err
	}
	return mse, r2, nil
}

// LossCurve returns the mean training loss of every epoch.
func (m *MLPRegressor) LossCurve() []float64 {
	return append([]float64(nil), m.lossCurve...)
}

// GetParams returns the hyperparameters.
func (m *MLPRegressor) GetParams() model.Params {
	return model.Params{
		"hidden_layer_sizes": append([]int(nil), m.hiddenLayerSizes...),
		"activation":         m.activation,
		"learning_rate":      m.learningRate,
		"epochs":             m.epochs,
		"batch_size":         m.batchSize,
		"random_state":       m.randomState,
	}
}

// SetParams applies hyperparameters by name; nothing changes on error.
func (m *MLPRegressor) SetParams(params model.Params) error {
	next := *m
	for _, name := range params.Keys() {
		v := params[name]
		var err error
		switch name {
		case "hidden_layer_sizes":
			next.hiddenLayerSizes, err = model.ParamIntSlice(name, v)
		case "activation":
			next.activation, err = model.ParamString(name, v, "relu", "tanh", "sigmoid")
		case "learning_rate":
			next.learningRate, err = model.ParamFloat(name, v)
		case "epochs":
			next.epochs, err = model.ParamInt(name, v)
		case "batch_size":
			next.batchSize, err = model.ParamInt(name, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(name, v)
			next.randomState = int64(seed)
		default:
			err = model.UnknownParam("MLPRegressor", name, v)
		}
		if err != nil {
			return err
		}
	}
	if err := next.validate(); err != nil {
		return err
	}
	*m = next
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (m *MLPRegressor) Clone() model.Regressor {
	return &MLPRegressor{
		hiddenLayerSizes: append([]int(nil), m.hiddenLayerSizes...),
		activation:       m.activation,
		learningRate:     m.learningRate,
		epochs:           m.epochs,
		batchSize:        m.batchSize,
		randomState:      m.randomState,
		OnEpoch:          m.OnEpoch,
	}
}

func (m *MLPRegressor) String() string {
	return fmt.Sprintf("MLPRegressor(hidden_layer_sizes=%v, activation=%s, learning_rate=%g, epochs=%d, batch_size=%d)",
		m.hiddenLayerSizes, m.activation, m.learningRate, m.epochs, m.batchSize)
}

var _ model.Regressor = (*MLPRegressor)(nil)
