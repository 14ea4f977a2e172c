// Package tree implements CART regression trees with the squared-error
// criterion.
package tree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// Nodes at or below minImpurity are treated as pure and never split.
const minImpurity = 1e-7

// node is one tree node; feature < 0 marks a leaf.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
	nSamples  int
	impurity  float64
}

// DecisionTreeRegressor is a CART regression tree.
type DecisionTreeRegressor struct {
	model.BaseEstimator

	maxDepth        int // 0 means unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     interface{} // nil | int | float64 | "sqrt" | "log2"
	randomState     int64

	nodes       []node
	nFeatures   int
	importances []float64
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// NewDecisionTreeRegressor creates a tree with scikit-learn defaults.
func NewDecisionTreeRegressor(options ...Option) *DecisionTreeRegressor {
	dt := &DecisionTreeRegressor{
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
	}
	for _, opt := range options {
		opt(dt)
	}
	return dt
}

// WithMaxDepth limits the tree depth; 0 means unlimited.
func WithMaxDepth(depth int) Option {
	return func(dt *DecisionTreeRegressor) { dt.maxDepth = depth }
}

// WithMinSamplesSplit sets the minimum samples needed to split a node.
func WithMinSamplesSplit(n int) Option {
	return func(dt *DecisionTreeRegressor) { dt.minSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum samples per leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(dt *DecisionTreeRegressor) { dt.minSamplesLeaf = n }
}

// WithMaxFeatures sets how many features each split considers.
func WithMaxFeatures(v interface{}) Option {
	return func(dt *DecisionTreeRegressor) { dt.maxFeatures = v }
}

// WithRandomState seeds feature sampling.
func WithRandomState(seed int64) Option {
	return func(dt *DecisionTreeRegressor) { dt.randomState = seed }
}

// Fit grows the tree on every row of X.
func (dt *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr, _ := y.Dims(); yr != rows {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", rows, yr, 0)
	}
	xs := make([][]float64, rows)
	ys := make([]float64, rows)
	idx := make([]int, rows)
	for i := range xs {
		xs[i] = mat.Row(nil, i, X)
		ys[i] = y.At(i, 0)
		idx[i] = i
	}
	return dt.FitSamples(xs, ys, idx)
}

// FitSamples grows the tree on the rows listed in idx. Indices may repeat,
// which is how bootstrap samples are passed without copying rows.
func (dt *DecisionTreeRegressor) FitSamples(xs [][]float64, y []float64, idx []int) error {
	if len(idx) == 0 || len(xs) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := dt.validate(); err != nil {
		return err
	}
	nFeatures := len(xs[0])
	k, err := resolveMaxFeatures(dt.maxFeatures, nFeatures)
	if err != nil {
		return err
	}

	dt.Reset()
	dt.nFeatures = nFeatures
	dt.nodes = dt.nodes[:0]
	dt.importances = make([]float64, nFeatures)

	b := &builder{
		dt:          dt,
		xs:          xs,
		y:           y,
		maxFeatures: k,
		rng:         rand.New(rand.NewSource(dt.randomState)),
		features:    make([]int, nFeatures),
	}
	for i := range b.features {
		b.features[i] = i
	}
	b.grow(append([]int(nil), idx...), 0)

	var total float64
	for _, v := range dt.importances {
		total += v
	}
	if total > 0 {
		for i := range dt.importances {
			dt.importances[i] /= total
		}
	}

	dt.SetFitted()
	return nil
}

func (dt *DecisionTreeRegressor) validate() error {
	switch {
	case dt.maxDepth < 0:
		return errors.NewValidationError("max_depth", "must be >= 1 or none", dt.maxDepth)
	case dt.minSamplesSplit < 2:
		return errors.NewValidationError("min_samples_split", "must be >= 2", dt.minSamplesSplit)
	case dt.minSamplesLeaf < 1:
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", dt.minSamplesLeaf)
	}
	return nil
}

// resolveMaxFeatures turns the max_features setting into a feature count.
func resolveMaxFeatures(v interface{}, n int) (int, error) {
	switch x := v.(type) {
	case nil:
		return n, nil
	case string:
		switch x {
		case "sqrt":
			return max(1, int(math.Sqrt(float64(n)))), nil
		case "log2":
			return max(1, int(math.Log2(float64(n)))), nil
		}
	case float64:
		if x > 0 && x <= 1 {
			return max(1, int(x*float64(n))), nil
		}
		if x == math.Trunc(x) && x > 1 {
			return min(n, int(x)), nil
		}
	case int:
		if x >= 1 {
			return min(n, x), nil
		}
	}
	return 0, errors.NewValidationError("max_features", "must be none, a positive int, a fraction in (0, 1], sqrt or log2", v)
}

type builder struct {
	dt          *DecisionTreeRegressor
	xs          [][]float64
	y           []float64
	maxFeatures int
	rng         *rand.Rand
	features    []int
}

type split struct {
	feature   int
	threshold float64
	pos       int // idx[:pos] goes left after sorting by feature
	gain      float64
}

// grow appends the subtree for idx and returns its node index.
func (b *builder) grow(idx []int, depth int) int {
	dt := b.dt
	n := len(idx)
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	mean := sum / float64(n)
	impurity := math.Max(0, sumSq/float64(n)-mean*mean)

	id := len(dt.nodes)
	dt.nodes = append(dt.nodes, node{feature: -1, value: mean, nSamples: n, impurity: impurity, left: -1, right: -1})

	if (dt.maxDepth > 0 && depth >= dt.maxDepth) ||
		n < dt.minSamplesSplit ||
		n < 2*dt.minSamplesLeaf ||
		impurity <= minImpurity {
		return id
	}

	best, ok := b.bestSplit(idx, sum, sumSq)
	if !ok {
		return id
	}

	sortByFeature(idx, b.xs, best.feature)
	dt.importances[best.feature] += best.gain

	left := b.grow(idx[:best.pos], depth+1)
	right := b.grow(idx[best.pos:], depth+1)
	dt.nodes[id].feature = best.feature
	dt.nodes[id].threshold = best.threshold
	dt.nodes[id].left = left
	dt.nodes[id].right = right
	return id
}

// bestSplit scans the sampled features and returns the split with the
// largest reduction in summed squared error.
func (b *builder) bestSplit(idx []int, sum, sumSq float64) (split, bool) {
	n := len(idx)
	minLeaf := b.dt.minSamplesLeaf
	parentSSE := sumSq - sum*sum/float64(n)

	features := b.features
	if b.maxFeatures < len(features) {
		b.rng.Shuffle(len(features), func(i, j int) { features[i], features[j] = features[j], features[i] })
		features = features[:b.maxFeatures]
	}

	best := split{gain: 0}
	found := false
	sorted := make([]int, n)
	for _, f := range features {
		copy(sorted, idx)
		sortByFeature(sorted, b.xs, f)

		var leftSum, leftSq float64
		for pos := 1; pos < n; pos++ {
			yi := b.y[sorted[pos-1]]
			leftSum += yi
			leftSq += yi * yi

			lo, hi := b.xs[sorted[pos-1]][f], b.xs[sorted[pos]][f]
			if hi <= lo || pos < minLeaf || n-pos < minLeaf {
				continue
			}
			rightSum, rightSq := sum-leftSum, sumSq-leftSq
			sse := (leftSq - leftSum*leftSum/float64(pos)) +
				(rightSq - rightSum*rightSum/float64(n-pos))
			gain := parentSSE - sse
			if !found || gain > best.gain {
				threshold := lo/2 + hi/2
				if threshold == hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, pos: pos, gain: gain}
				found = true
			}
		}
	}
	return best, found
}

// sortByFeature orders idx by feature f, breaking ties by row index so the
// result is deterministic.
func sortByFeature(idx []int, xs [][]float64, f int) {
	sort.Slice(idx, func(a, b int) bool {
		va, vb := xs[idx[a]][f], xs[idx[b]][f]
		if va != vb {
			return va < vb
		}
		return idx[a] < idx[b]
	})
}

// Predict returns the leaf mean reached by each row.
func (dt *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.CheckFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != dt.nFeatures {
		return nil, errors.NewDimensionError("DecisionTreeRegressor.Predict", dt.nFeatures, cols, 1)
	}
	out := mat.NewVecDense(rows, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.SetVec(i, dt.PredictRow(row))
	}
	return out, nil
}

// PredictRow walks the fitted tree for a single sample.
func (dt *DecisionTreeRegressor) PredictRow(x []float64) float64 {
	i := 0
	for dt.nodes[i].feature >= 0 {
		if x[dt.nodes[i].feature] <= dt.nodes[i].threshold {
			i = dt.nodes[i].left
		} else {
			i = dt.nodes[i].right
		}
	}
	return dt.nodes[i].value
}

// Score returns R² of the predictions for X against y.
func (dt *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	return model.ScoreR2(dt, X, y)
}

// FeatureImportances returns the normalized total squared-error reduction
// contributed by each feature.
func (dt *DecisionTreeRegressor) FeatureImportances() []float64 {
	return append([]float64(nil), dt.importances...)
}

// Depth returns the depth of the fitted tree; a single leaf has depth 0.
func (dt *DecisionTreeRegressor) Depth() int {
	if len(dt.nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		nd := dt.nodes[i]
		if nd.feature < 0 {
			return 0
		}
		return 1 + max(walk(nd.left), walk(nd.right))
	}
	return walk(0)
}

// NLeaves returns the number of leaves.
func (dt *DecisionTreeRegressor) NLeaves() int {
	n := 0
	for _, nd := range dt.nodes {
		if nd.feature < 0 {
			n++
		}
	}
	return n
}

// GetParams returns the hyperparameters under scikit-learn names.
func (dt *DecisionTreeRegressor) GetParams() model.Params {
	var depth interface{}
	if dt.maxDepth > 0 {
		depth = dt.maxDepth
	}
	return model.Params{
		"max_depth":         depth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"random_state":      dt.randomState,
	}
}

// SetParams applies hyperparameters by name; nothing changes on error.
func (dt *DecisionTreeRegressor) SetParams(params model.Params) error {
	next := *dt
	for _, name := range params.Keys() {
		if err := next.setParam(name, params[name]); err != nil {
			return err
		}
	}
	*dt = next
	return nil
}

func (dt *DecisionTreeRegressor) setParam(name string, v interface{}) error {
	var err error
	switch name {
	case "max_depth":
		var depth int
		var ok bool
		depth, ok, err = model.ParamOptionalInt(name, v)
		if ok && depth < 1 {
			return errors.NewValidationError(name, "must be >= 1 or none", v)
		}
		dt.maxDepth = depth
	case "min_samples_split":
		dt.minSamplesSplit, err = model.ParamInt(name, v)
	case "min_samples_leaf":
		dt.minSamplesLeaf, err = model.ParamInt(name, v)
	case "max_features":
		if _, err = resolveMaxFeatures(normalizeMaxFeatures(v), math.MaxInt32); err == nil {
			dt.maxFeatures = normalizeMaxFeatures(v)
		}
	case "random_state":
		var seed int
		seed, err = model.ParamInt(name, v)
		dt.randomState = int64(seed)
	default:
		err = model.UnknownParam("DecisionTreeRegressor", name, v)
	}
	return err
}

// SetParam applies a single hyperparameter. The random forest forwards its
// tree settings through it.
func (dt *DecisionTreeRegressor) SetParam(name string, v interface{}) error {
	return dt.setParam(name, v)
}

// normalizeMaxFeatures maps YAML integer types onto int.
func normalizeMaxFeatures(v interface{}) interface{} {
	switch x := v.(type) {
	case int64:
		return int(x)
	case float32:
		return float64(x)
	}
	return v
}

// Clone returns an unfitted copy with the same hyperparameters.
func (dt *DecisionTreeRegressor) Clone() model.Regressor {
	c := NewDecisionTreeRegressor()
	c.maxDepth = dt.maxDepth
	c.minSamplesSplit = dt.minSamplesSplit
	c.minSamplesLeaf = dt.minSamplesLeaf
	c.maxFeatures = dt.maxFeatures
	c.randomState = dt.randomState
	return c
}

func (dt *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%s, min_samples_split=%d, min_samples_leaf=%d, max_features=%s)",
		model.FormatValue(dt.GetParams()["max_depth"]), dt.minSamplesSplit, dt.minSamplesLeaf, model.FormatValue(dt.maxFeatures))
}

var _ model.Regressor = (*DecisionTreeRegressor)(nil)
