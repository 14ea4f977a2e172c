package linear_model

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/core/model"
	"github.com/YuminosukeSato/regbench/pkg/errors"
)

const (
	// maxDLoss は1ステップの更新量の上限 (scikit-learn の MAX_DLOSS)
	maxDLoss = 1e12
	// minAdaptiveEta を下回ると adaptive でも学習を打ち切る
	minAdaptiveEta = 1e-6
)

// SGDRegressor は確率的勾配降下法による線形回帰モデル
// scikit-learnのSGDRegressorと互換性を持つ
type SGDRegressor struct {
	model.BaseEstimator

	// ハイパーパラメータ
	loss          string   // "squared_error" | "huber"
	penalty       string   // "l2" | "l1" | "none"
	alpha         float64  // 正則化の強さ
	maxIter       int      // 最大エポック数
	tol           *float64 // nil なら早期終了しない
	learningRate  string   // "invscaling" | "constant" | "optimal" | "adaptive"
	eta0          float64  // 初期学習率
	powerT        float64  // invscaling の指数
	shuffle       bool     // 各エポックでデータをシャッフルするか
	randomState   int64    // 乱数シード
	fitIntercept  bool     // 切片を学習するか
	nIterNoChange int      // 改善なしとみなすエポック数
	epsilon       float64  // huber損失の閾値

	// 学習パラメータ
	coef_      []float64
	intercept_ float64
	nIter_     int
	t_         float64
	nFeatures_ int
}

// SGDOption は SGDRegressor の設定オプション
type SGDOption func(*SGDRegressor)

// NewSGDRegressor は scikit-learn と同じデフォルト値で SGDRegressor を作成する
func NewSGDRegressor(options ...SGDOption) *SGDRegressor {
	tol := 1e-3
	sgd := &SGDRegressor{
		loss:          "squared_error",
		penalty:       "l2",
		alpha:         1e-4,
		maxIter:       1000,
		tol:           &tol,
		learningRate:  "invscaling",
		eta0:          0.01,
		powerT:        0.25,
		shuffle:       true,
		randomState:   0,
		fitIntercept:  true,
		nIterNoChange: 5,
		epsilon:       0.1,
	}
	for _, opt := range options {
		opt(sgd)
	}
	return sgd
}

// WithSGDMaxIter は最大エポック数を設定
func WithSGDMaxIter(n int) SGDOption {
	return func(s *SGDRegressor) { s.maxIter = n }
}

// WithSGDTol は収束判定の許容誤差を設定。nil で早期終了を無効化
func WithSGDTol(tol *float64) SGDOption {
	return func(s *SGDRegressor) { s.tol = tol }
}

// WithSGDLearningRate は学習率スケジュールと初期学習率を設定
func WithSGDLearningRate(schedule string, eta0 float64) SGDOption {
	return func(s *SGDRegressor) {
		s.learningRate = schedule
		s.eta0 = eta0
	}
}

// WithSGDRandomState は乱数シードを設定
func WithSGDRandomState(seed int64) SGDOption {
	return func(s *SGDRegressor) { s.randomState = seed }
}

// Fit はサンプルごとの SGD でモデルを学習する。各エポックで全サンプルを1回ずつ使い、
// エポック損失の合計が最良値を tol*n_samples 以上改善しない状態が
// nIterNoChange エポック続いたら打ち切る
func (s *SGDRegressor) Fit(X, y mat.Matrix) error {
	if err := s.validate(); err != nil {
		return err
	}
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.NewModelError("SGDRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if yr, _ := y.Dims(); yr != rows {
		return errors.NewDimensionError("SGDRegressor.Fit", rows, yr, 0)
	}

	s.Reset()
	s.nFeatures_ = cols
	s.coef_ = make([]float64, cols)
	s.intercept_ = 0
	s.nIter_ = 0
	s.t_ = 1

	rng := rand.New(rand.NewSource(s.randomState))
	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}
	xs := make([][]float64, rows)
	for i := range xs {
		xs[i] = mat.Row(nil, i, X)
	}

	eta := s.eta0
	optimalInit := s.optimalInit()
	bestLoss := math.Inf(1)
	noImprovement := 0

	for epoch := 0; epoch < s.maxIter; epoch++ {
		if s.shuffle {
			rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })
		}

		var sumLoss float64
		for _, i := range order {
			xi := xs[i]
			yi := y.At(i, 0)
			p := floats.Dot(s.coef_, xi) + s.intercept_

			switch s.learningRate {
			case "optimal":
				eta = 1.0 / (s.alpha * (optimalInit + s.t_ - 1))
			case "invscaling":
				eta = s.eta0 / math.Pow(s.t_, s.powerT)
			}

			sumLoss += s.lossValue(p, yi)
			update := -eta * clip(s.dloss(p, yi), maxDLoss)

			if s.penalty == "l2" {
				floats.Scale(math.Max(0, 1-eta*s.alpha), s.coef_)
			}
			floats.AddScaled(s.coef_, update, xi)
			if s.fitIntercept {
				s.intercept_ += update
			}
			if s.penalty == "l1" {
				shrink := eta * s.alpha
				for j, w := range s.coef_ {
					s.coef_[j] = math.Copysign(math.Max(0, math.Abs(w)-shrink), w)
				}
			}
			s.t_++
		}
		s.nIter_++

		if err := errors.CheckNumericalStability("SGDRegressor.Fit", s.coef_, epoch); err != nil {
			return err
		}
		if err := errors.CheckScalar("SGDRegressor.Fit", s.intercept_, epoch); err != nil {
			return err
		}

		if s.tol != nil {
			if sumLoss > bestLoss-*s.tol*float64(rows) {
				noImprovement++
			} else {
				noImprovement = 0
			}
			if sumLoss < bestLoss {
				bestLoss = sumLoss
			}
			if noImprovement >= s.nIterNoChange {
				if s.learningRate == "adaptive" && eta > minAdaptiveEta {
					eta /= 5
					noImprovement = 0
					continue
				}
				break
			}
		}
	}

	if s.tol != nil && s.nIter_ >= s.maxIter {
		errors.Warn(errors.NewConvergenceWarning("SGDRegressor", s.nIter_,
			"Maximum number of iteration reached before convergence. Consider increasing max_iter to improve the fit."))
	}

	s.SetFitted()
	return nil
}

func (s *SGDRegressor) validate() error {
	switch {
	case s.maxIter < 1:
		return errors.NewValidationError("max_iter", "must be >= 1", s.maxIter)
	case s.alpha < 0:
		return errors.NewValidationError("alpha", "must be >= 0", s.alpha)
	case s.learningRate != "optimal" && s.eta0 <= 0:
		return errors.NewValidationError("eta0", "must be > 0", s.eta0)
	case s.learningRate == "optimal" && s.alpha == 0:
		return errors.NewValidationError("alpha", "must be > 0 with learning_rate=optimal", s.alpha)
	case s.nIterNoChange < 1:
		return errors.NewValidationError("n_iter_no_change", "must be >= 1", s.nIterNoChange)
	}
	return nil
}

// optimalInit は learning_rate="optimal" の t0 (Léon Bottou のヒューリスティック)
func (s *SGDRegressor) optimalInit() float64 {
	if s.learningRate != "optimal" {
		return 0
	}
	typw := math.Sqrt(1.0 / math.Sqrt(s.alpha))
	initialEta0 := typw / math.Max(1.0, s.dloss(-typw, 1.0))
	return 1.0 / (initialEta0 * s.alpha)
}

func (s *SGDRegressor) lossValue(p, y float64) float64 {
	r := p - y
	if s.loss == "huber" {
		a := math.Abs(r)
		if a <= s.epsilon {
			return 0.5 * r * r
		}
		return s.epsilon*a - 0.5*s.epsilon*s.epsilon
	}
	return 0.5 * r * r
}

func (s *SGDRegressor) dloss(p, y float64) float64 {
	r := p - y
	if s.loss == "huber" {
		switch {
		case math.Abs(r) <= s.epsilon:
			return r
		case r > s.epsilon:
			return s.epsilon
		default:
			return -s.epsilon
		}
	}
	return r
}

func clip(v, limit float64) float64 {
	return math.Max(-limit, math.Min(limit, v))
}

// Predict は線形予測 X·w + b を返す
func (s *SGDRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := s.CheckFitted("SGDRegressor", "Predict"); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	if cols != s.nFeatures_ {
		return nil, errors.NewDimensionError("SGDRegressor.Predict", s.nFeatures_, cols, 1)
	}

	w := mat.NewVecDense(cols, s.coef_)
	out := mat.NewVecDense(rows, nil)
	out.MulVec(X, w)
	for i := 0; i < rows; i++ {
		out.SetVec(i, out.AtVec(i)+s.intercept_)
	}
	return out, nil
}

// Score はモデルの決定係数（R²）を計算
func (s *SGDRegressor) Score(X, y mat.Matrix) (float64, error) {
	return model.ScoreR2(s, X, y)
}

// Coef は学習された重み係数のコピーを返す
func (s *SGDRegressor) Coef() []float64 {
	return append([]float64(nil), s.coef_...)
}

// Intercept は学習された切片を返す
func (s *SGDRegressor) Intercept() float64 { return s.intercept_ }

// NIter は実行されたエポック数を返す
func (s *SGDRegressor) NIter() int { return s.nIter_ }

// GetParams は scikit-learn と同じ名前でハイパーパラメータを返す
func (s *SGDRegressor) GetParams() model.Params {
	var tol interface{}
	if s.tol != nil {
		tol = *s.tol
	}
	return model.Params{
		"loss":             s.loss,
		"penalty":          s.penalty,
		"alpha":            s.alpha,
		"max_iter":         s.maxIter,
		"tol":              tol,
		"learning_rate":    s.learningRate,
		"eta0":             s.eta0,
		"power_t":          s.powerT,
		"shuffle":          s.shuffle,
		"random_state":     s.randomState,
		"fit_intercept":    s.fitIntercept,
		"n_iter_no_change": s.nIterNoChange,
		"epsilon":          s.epsilon,
	}
}

// SetParams は scikit-learn の名前でハイパーパラメータを設定する。
// 全ての名前と値が正しい場合にだけ反映される
func (s *SGDRegressor) SetParams(params model.Params) error {
	next := *s
	for _, name := range params.Keys() {
		v := params[name]
		var err error
		switch name {
		case "loss":
			next.loss, err = model.ParamString(name, v, "squared_error", "huber")
		case "penalty":
			if v == nil {
				next.penalty = "none"
				break
			}
			next.penalty, err = model.ParamString(name, v, "l2", "l1", "none")
		case "alpha":
			next.alpha, err = model.ParamFloat(name, v)
		case "max_iter":
			next.maxIter, err = model.ParamInt(name, v)
		case "tol":
			var tol float64
			var ok bool
			tol, ok, err = model.ParamOptionalFloat(name, v)
			next.tol = nil
			if ok {
				next.tol = &tol
			}
		case "learning_rate":
			next.learningRate, err = model.ParamString(name, v, "invscaling", "constant", "optimal", "adaptive")
		case "eta0":
			next.eta0, err = model.ParamFloat(name, v)
		case "power_t":
			next.powerT, err = model.ParamFloat(name, v)
		case "shuffle":
			next.shuffle, err = model.ParamBool(name, v)
		case "random_state":
			var seed int
			seed, err = model.ParamInt(name, v)
			next.randomState = int64(seed)
		case "fit_intercept":
			next.fitIntercept, err = model.ParamBool(name, v)
		case "n_iter_no_change":
			next.nIterNoChange, err = model.ParamInt(name, v)
		case "epsilon":
			next.epsilon, err = model.ParamFloat(name, v)
		default:
			err = model.UnknownParam("SGDRegressor", name, v)
		}
		if err != nil {
			return err
		}
	}
	*s = next
	return nil
}

// Clone は同じハイパーパラメータを持つ未学習の SGDRegressor を返す
func (s *SGDRegressor) Clone() model.Regressor {
	c := &SGDRegressor{
		loss:          s.loss,
		penalty:       s.penalty,
		alpha:         s.alpha,
		maxIter:       s.maxIter,
		learningRate:  s.learningRate,
		eta0:          s.eta0,
		powerT:        s.powerT,
		shuffle:       s.shuffle,
		randomState:   s.randomState,
		fitIntercept:  s.fitIntercept,
		nIterNoChange: s.nIterNoChange,
		epsilon:       s.epsilon,
	}
	if s.tol != nil {
		tol := *s.tol
		c.tol = &tol
	}
	return c
}

func (s *SGDRegressor) String() string {
	return fmt.Sprintf("SGDRegressor(loss=%s, penalty=%s, alpha=%g, max_iter=%d, learning_rate=%s, eta0=%g)",
		s.loss, s.penalty, s.alpha, s.maxIter, s.learningRate, s.eta0)
}

var _ model.Regressor = (*SGDRegressor)(nil)
