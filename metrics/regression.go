// Package metrics provides regression evaluation metrics for the scoring
// pipeline: MSE, RMSE, MAE and the R² coefficient of determination, plus a
// Report bundling them for a prediction run.
//
// All functions validate their inputs and are deterministic given the same
// vectors.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/pkg/errors"
)

// MSE calculates the mean squared error between true and predicted values.
//
// Errors:
//   - ValueError: if the input vectors are empty
//   - DimensionError: if yTrue and yPred have different lengths
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MSE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MSE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE calculates the root mean squared error, the square root of MSE, in
// the same units as the target variable.
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE calculates the mean absolute error between true and predicted
// values. More robust to outliers than MSE.
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("MAE", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("MAE", n, yPred.Len(), 0)
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// R2Score calculates the coefficient of determination. 1 is a perfect fit,
// 0 matches predicting the mean, negative is worse than the mean.
//
// Errors:
//   - ValueError: if yTrue has no variance (TSS is zero)
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("R2Score", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("R2Score", n, yPred.Len(), 0)
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	var tss, rss float64
	for i := 0; i < n; i++ {
		yTrueVal := yTrue.AtVec(i)
		yPredVal := yPred.AtVec(i)
		tss += (yTrueVal - yMean) * (yTrueVal - yMean)
		rss += (yTrueVal - yPredVal) * (yTrueVal - yPredVal)
	}

	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	return 1 - rss/tss, nil
}

// Report bundles the regression metrics for one prediction run.
type Report struct {
	MAE  float64
	MSE  float64
	RMSE float64
	R2   float64
	N    int
}

// NewReport computes all metrics for yTrue against yPred. R2 is NaN when
// yTrue has no variance; the error metrics are still valid then.
func NewReport(yTrue, yPred *mat.VecDense) (Report, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}
	mae, err := MAE(yTrue, yPred)
	if err != nil {
		return Report{}, err
	}

	r2, err := R2Score(yTrue, yPred)
	if err != nil {
		var valueErr *errors.ValueError
		if !errors.As(err, &valueErr) {
			return Report{}, err
		}
		r2 = math.NaN()
	}

	return Report{
		MAE:  mae,
		MSE:  mse,
		RMSE: math.Sqrt(mse),
		R2:   r2,
		N:    yTrue.Len(),
	}, nil
}
