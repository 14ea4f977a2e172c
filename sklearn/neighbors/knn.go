// Package neighbors implements nearest-neighbor regression.
package neighbors

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/core/parallel"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Inputs with fewer rows than predictParallelThreshold are predicted sequentially.
const predictParallelThreshold = 64

// KNeighborsRegressor predicts the (optionally distance-weighted) mean target
// of the k nearest training rows, using brute-force search.
type KNeighborsRegressor struct {
	model.BaseEstimator

	nNeighbors int
	weights    string // "uniform" | "distance"
	p          int    // Minkowski power: 1 manhattan, 2 euclidean

	xs [][]float64
	y  []float64
}

// KNNOption configures a KNeighborsRegressor.
type KNNOption func(*KNeighborsRegressor)

// NewKNeighborsRegressor creates a regressor with scikit-learn defaults
// (n_neighbors=5, weights="uniform", p=2).
func NewKNeighborsRegressor(options ...KNNOption) *KNeighborsRegressor {
	knn := &KNeighborsRegressor{
		nNeighbors: 5,
		weights:    "uniform",
		p:          2,
	}
	for _, opt := range options {
		opt(knn)
	}
	return knn
}

// WithNNeighbors sets the neighbor count.
func WithNNeighbors(k int) KNNOption {
	return func(r *KNeighborsRegressor) { r.nNeighbors = k }
}

// WithWeights sets the weighting scheme, "uniform" or "distance".
func WithWeights(w string) KNNOption {
	return func(r *KNeighborsRegressor) { r.weights = w }
}

// Fit stores a copy of the training rows.
func (r *KNeighborsRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("KNeighborsRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr, _ := y.Dims(); yr != rows {
		return errors.NewDimensionError("KNeighborsRegressor.Fit", rows, yr, 0)
	}
	if r.nNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be >= 1", r.nNeighbors)
	}
	if r.nNeighbors > rows {
		return errors.NewValueError("KNeighborsRegressor.Fit",
			fmt.Sprintf("Expected n_neighbors <= n_samples, but n_samples = %d, n_neighbors = %d", rows, r.nNeighbors))
	}

	r.xs = make([][]float64, rows)
	r.y = make([]float64, rows)
	for i := 0; i < rows; i++ {
		r.xs[i] = mat.Row(nil, i, X)
		r.y[i] = y.At(i, 0)
	}
	r.SetFitted()
	return nil
}

// Predict fans rows out over core/parallel; every row writes its own slot.
func (r *KNeighborsRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.CheckFitted("KNeighborsRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != len(r.xs[0]) {
		return nil, errors.NewDimensionError("KNeighborsRegressor.Predict", len(r.xs[0]), cols, 1)
	}
	if rows == 0 {
		return nil, errors.NewModelError("KNeighborsRegressor.Predict", "empty data", errors.ErrEmptyData)
	}

	out := make([]float64, rows)
	parallel.ParallelizeWithThreshold(rows, predictParallelThreshold, func(start, end int) {
		row := make([]float64, cols)
		nbrs := make([]neighbor, len(r.xs))
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out[i] = r.predictRow(row, nbrs)
		}
	})
	return mat.NewVecDense(rows, out), nil
}

type neighbor struct {
	dist float64
	idx  int
}

func (r *KNeighborsRegressor) predictRow(x []float64, nbrs []neighbor) float64 {
	for j, xj := range r.xs {
		nbrs[j] = neighbor{dist: floats.Distance(x, xj, float64(r.p)), idx: j}
	}
	// ties resolve to the lower training index
	sort.Slice(nbrs, func(a, b int) bool {
		if nbrs[a].dist != nbrs[b].dist {
			return nbrs[a].dist < nbrs[b].dist
		}
		return nbrs[a].idx < nbrs[b].idx
	})
	k := nbrs[:r.nNeighbors]

	if r.weights == "distance" {
		// exact matches take all the weight
		if k[0].dist == 0 {
			var sum float64
			var n int
			for _, nb := range k {
				if nb.dist == 0 {
					sum += r.y[nb.idx]
					n++
				}
			}
			return sum / float64(n)
		}
		var num, den float64
		for _, nb := range k {
			w := 1 / nb.dist
			num += w * r.y[nb.idx]
			den += w
		}
		return num / den
	}

	var sum float64
	for _, nb := range k {
		sum += r.y[nb.idx]
	}
	return sum / float64(len(k))
}

// Score returns R² of the predictions for X against y.
func (r *KNeighborsRegressor) Score(X, y mat.Matrix) (float64, error) {
	return model.ScoreR2(r, X, y)
}

// GetParams returns the hyperparameters under scikit-learn names.
func (r *KNeighborsRegressor) GetParams() model.Params {
	return model.Params{
		"n_neighbors": r.nNeighbors,
		"weights":     r.weights,
		"p":           r.p,
	}
}

// SetParams applies hyperparameters by name; nothing changes on error.
// A successful call drops the stored training rows, so Predict needs a new Fit.
func (r *KNeighborsRegressor) SetParams(params model.Params) error {
	next := *r
	next.Reset()
	next.xs, next.y = nil, nil
	for _, name := range params.Keys() {
		v := params[name]
		var err error
		switch name {
		case "n_neighbors":
			next.nNeighbors, err = model.ParamInt(name, v)
			if err == nil && next.nNeighbors < 1 {
				err = errors.NewValidationError(name, "must be >= 1", v)
			}
		case "weights":
			next.weights, err = model.ParamString(name, v, "uniform", "distance")
		case "p":
			next.p, err = model.ParamInt(name, v)
			if err == nil && next.p != 1 && next.p != 2 {
				err = errors.NewValidationError(name, "must be 1 (manhattan) or 2 (euclidean)", v)
			}
		default:
			err = model.UnknownParam("KNeighborsRegressor", name, v)
		}
		if err != nil {
			return err
		}
	}
	*r = next
	return nil
}

// Clone returns an unfitted copy with the same hyperparameters.
func (r *KNeighborsRegressor) Clone() model.Regressor {
	return NewKNeighborsRegressor(WithNNeighbors(r.nNeighbors), WithWeights(r.weights), func(c *KNeighborsRegressor) {
		c.p = r.p
	})
}

func (r *KNeighborsRegressor) String() string {
	return fmt.Sprintf("KNeighborsRegressor(n_neighbors=%d, weights=%s, p=%d)", r.nNeighbors, r.weights, r.p)
}

var _ model.Regressor = (*KNeighborsRegressor)(nil)
