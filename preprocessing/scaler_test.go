package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	out, err := s.FitTransform(X)
	require.NoError(t, err)

	assert.InDelta(t, 2.5, s.Mean[0], 1e-12)
	assert.InDelta(t, math.Sqrt(1.25), s.Scale[0], 1e-12)
	// constant column keeps unit scale
	assert.Equal(t, 1.0, s.Scale[1])

	col := mat.Col(nil, 0, out)
	var sum float64
	for _, v := range col {
		sum += v
	}
	assert.InDelta(t, 0, sum, 1e-12)
	assert.InDelta(t, 0, out.At(2, 1), 1e-12)

	back, err := s.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		0, 5,
		5, 5,
		10, 5,
	})

	m := NewMinMaxScalerDefault()
	require.NoError(t, m.Fit(X))

	out, err := m.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, mat.Col(nil, 0, out))
	assert.Equal(t, []float64{0, 0, 0}, mat.Col(nil, 1, out))

	// values beyond the training range are not clipped
	test := mat.NewDense(1, 2, []float64{20, 5})
	out, err = m.Transform(test)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out.At(0, 0), 1e-12)

	back, err := m.InverseTransform(out)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(test, back, 1e-12))
}

func TestMinMaxScalerInvalidRange(t *testing.T) {
	m := NewMinMaxScaler([2]float64{1, 0})
	err := m.Fit(mat.NewDense(2, 1, []float64{1, 2}))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestScalerFitErrors(t *testing.T) {
	nan := mat.NewDense(2, 2, []float64{1, math.NaN(), 3, 4})
	inf := mat.NewDense(2, 1, []float64{1, math.Inf(1)})

	tests := []struct {
		name   string
		fit    func(mat.Matrix) error
		X      mat.Matrix
		target error
	}{
		{"standard NaN", NewStandardScalerDefault().Fit, nan, errors.ErrNonFinite},
		{"standard Inf", NewStandardScalerDefault().Fit, inf, errors.ErrNonFinite},
		{"standard empty", NewStandardScalerDefault().Fit, &mat.Dense{}, errors.ErrEmptyData},
		{"minmax NaN", NewMinMaxScalerDefault().Fit, nan, errors.ErrNonFinite},
		{"minmax empty", NewMinMaxScalerDefault().Fit, &mat.Dense{}, errors.ErrEmptyData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fit(tt.X)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestTransformBeforeFit(t *testing.T) {
	X := mat.NewDense(1, 1, []float64{1})

	_, err := NewStandardScalerDefault().Transform(X)
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	_, err = NewMinMaxScalerDefault().Transform(X)
	assert.True(t, errors.As(err, &nf))
}

func TestTransformColumnMismatch(t *testing.T) {
	s := NewStandardScalerDefault()
	require.NoError(t, s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))

	_, err := s.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 3})
	orig := mat.DenseCopyOf(X)

	s := NewStandardScalerDefault()
	_, err := s.FitTransform(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(orig, X))

	out, err := Identity{}.Transform(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(orig, out))
	out.(*mat.Dense).Set(0, 0, 99)
	assert.Equal(t, 1.0, X.At(0, 0))
}

func TestScalerString(t *testing.T) {
	s := NewStandardScalerDefault()
	assert.Equal(t, "StandardScaler(with_mean=true, with_std=true)", s.String())
	require.NoError(t, s.Fit(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})))
	assert.Equal(t, "StandardScaler(with_mean=true, with_std=true, n_features=3)", s.String())
	assert.Equal(t, "MinMaxScaler(feature_range=[0.0, 1.0])", NewMinMaxScalerDefault().String())
}
