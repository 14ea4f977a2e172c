package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/regbench/pkg/errors"
)

// VecFromMatrix は n×1 の行列（または任意の行列の先頭列）を VecDense に変換する
func VecFromMatrix(m mat.Matrix) *mat.VecDense {
	if v, ok := m.(*mat.VecDense); ok {
		return v
	}
	r, _ := m.Dims()
	if r == 0 {
		return &mat.VecDense{}
	}
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		out.SetVec(i, m.At(i, 0))
	}
	return out
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差を計算する。常に math.Sqrt(MSE) と一致する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// RAE は相対絶対誤差（Relative Absolute Error）を計算する
//
//	RAE = Σ|yPred - yTrue| / Σ|yTrue - mean(yTrue)|
//
// 完全な予測で 0 になる。yTrue が定数の場合は分母が 0 となり
// UndefinedMetricError を返す。
func RAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("RAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	mean := mat.Sum(yTrue) / float64(n)

	var num, den float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		num += math.Abs(yPred.AtVec(i) - t)
		den += math.Abs(t - mean)
	}
	if den == 0 {
		return 0, errors.NewUndefinedMetricError("rae", "all target values are identical")
	}
	return num / den, nil
}

// R2Score は決定係数（R²）を計算する。yTrue の分散が 0 の場合はエラー
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	tss, rss, err := sumsOfSquares("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// R2ScoreForceFinite は R2Score と同じだが、scikit-learn の推定器の score と同様に
// yTrue が定数なら完全一致で 1.0、それ以外で 0.0 を返す。
// 目的変数が定数の交差検証フォールドもエラーにならずスコアが付く
func R2ScoreForceFinite(yTrue, yPred *mat.VecDense) (float64, error) {
	tss, rss, err := sumsOfSquares("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if tss == 0 {
		if rss == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - rss/tss, nil
}

func sumsOfSquares(op string, yTrue, yPred *mat.VecDense) (tss, rss float64, err error) {
	n, err := checkPair(op, yTrue, yPred)
	if err != nil {
		return 0, 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		p := yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}
	return tss, rss, nil
}
