package neural_network

import (
	"math"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// activation is an element-wise nonlinearity and its derivative, expressed in
// terms of the pre-activation value.
type activation struct {
	name  string
	f     func(float64) float64
	prime func(float64) float64
	// glorotFactor scales the Glorot uniform bound (2 for sigmoid).
	glorotFactor float64
}

func sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

var activations = map[string]activation{
	"relu": {
		name: "relu",
		f:    func(x float64) float64 { return math.Max(0, x) },
		prime: func(x float64) float64 {
			if x > 0 {
				return 1
			}
			return 0
		},
		glorotFactor: 6,
	},
	"tanh": {
		name:         "tanh",
		f:            math.Tanh,
		prime:        func(x float64) float64 { t := math.Tanh(x); return 1 - t*t },
		glorotFactor: 6,
	},
	"sigmoid": {
		name:         "sigmoid",
		f:            sigmoid,
		prime:        func(x float64) float64 { s := sigmoid(x); return s * (1 - s) },
		glorotFactor: 2,
	},
}

func lookupActivation(name string) (activation, error) {
	a, ok := activations[name]
	if !ok {
		return activation{}, errors.NewValidationError("activation", "must be one of relu, tanh, sigmoid", name)
	}
	return a, nil
}
