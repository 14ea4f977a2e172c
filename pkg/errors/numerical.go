package errors

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// CheckNumericalStability returns a NumericalInstabilityError if any value is
// NaN or Inf.
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar checks a single value for NaN or Inf.
func CheckScalar(operation string, value float64, iteration int) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckFinite verifies every cell of X is a finite number. It reports the
// first offending cell by position.
func CheckFinite(op string, X mat.Matrix) error {
	r, c := X.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return NewModelError(op, fmt.Sprintf("non-finite value at row %d, column %d", i, j), ErrNonFinite)
			}
		}
	}
	return nil
}
