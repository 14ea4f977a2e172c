package errors

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestCheckScalar(t *testing.T) {
	assert.NoError(t, CheckScalar("loss", 1.5, 0))
	assert.Error(t, CheckScalar("loss", math.NaN(), 3))
	assert.Error(t, CheckScalar("loss", math.Inf(1), 3))

	var ni *NumericalInstabilityError
	err := CheckNumericalStability("weights", []float64{1, math.Inf(-1)}, 7)
	if assert.True(t, As(err, &ni)) {
		assert.Equal(t, 7, ni.Iteration)
	}
}

func TestCheckFinite(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.NoError(t, CheckFinite("Fit", ok))

	bad := mat.NewDense(2, 2, []float64{1, 2, math.NaN(), 4})
	err := CheckFinite("Fit", bad)
	assert.True(t, Is(err, ErrNonFinite))
	assert.Contains(t, err.Error(), "row 1, column 0")
}
