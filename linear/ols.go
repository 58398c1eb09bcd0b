// Package linear implements the regression estimators searched by the
// model selection engine: ordinary least squares, ridge regression and
// stochastic gradient descent. All estimators share the same Fit/Predict
// surface over gonum matrices and expose their learned parameters as
// plain float64 slices so fitted models survive gob round trips.
package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
)

// LinearRegression fits an ordinary least squares model via singular
// value decomposition, yielding the minimum-norm solution when the design
// matrix is rank deficient. One-hot encoded inputs always carry linearly
// dependent columns, so a plain QR solve would reject them.
type LinearRegression struct {
	state *model.StateManager

	fitIntercept bool

	coef      []float64
	intercept float64
	nFeatures int
	nSamples  int

	logger log.Logger
}

// LinearRegressionOption configures a LinearRegression.
type LinearRegressionOption func(*LinearRegression)

// WithLRFitIntercept sets whether the intercept term is learned.
func WithLRFitIntercept(fit bool) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRLogger sets the logger.
func WithLRLogger(logger log.Logger) LinearRegressionOption {
	return func(lr *LinearRegression) {
		lr.logger = logger
	}
}

// NewLinearRegression creates an unfitted ordinary least squares model.
func NewLinearRegression(options ...LinearRegressionOption) *LinearRegression {
	lr := &LinearRegression{
		state:        model.NewStateManager(),
		fitIntercept: true,
	}
	for _, opt := range options {
		opt(lr)
	}
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName("linear.ols")
	}
	return lr
}

// Kind identifies the estimator in persisted artifacts.
func (lr *LinearRegression) Kind() string { return "ols" }

// Fit solves the least squares problem X w = y.
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows != yRows {
		return errors.NewDimensionError("LinearRegression.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LinearRegression.Fit", 1, yCols, 1)
	}
	if rows == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}

	XFit := designMatrix(X, lr.fitIntercept)

	solution, err := lstsq(XFit, y)
	if err != nil {
		return errors.Wrap(err, "LinearRegression.Fit")
	}

	lr.coef, lr.intercept = splitSolution(solution, cols, lr.fitIntercept)
	lr.nFeatures = cols
	lr.nSamples = rows
	lr.state.SetFitted()
	lr.state.SetDimensions(cols, rows)

	lr.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	return nil
}

// Predict computes X w + b for each input row.
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !lr.state.IsFitted() {
		return nil, errors.NewNotFittedError("LinearRegression", "Predict")
	}
	return predictLinear(X, lr.coef, lr.intercept, "LinearRegression.Predict")
}

// Score computes the coefficient of determination on (X, y).
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	preds, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, preds, "LinearRegression.Score")
}

// Coef returns a copy of the learned weight coefficients.
func (lr *LinearRegression) Coef() []float64 {
	return copyFloats(lr.coef)
}

// Intercept returns the learned intercept.
func (lr *LinearRegression) Intercept() float64 {
	return lr.intercept
}

// Restore loads previously learned parameters, marking the model fitted.
func (lr *LinearRegression) Restore(coef []float64, intercept float64) {
	lr.coef = copyFloats(coef)
	lr.intercept = intercept
	lr.nFeatures = len(coef)
	lr.state.SetFitted()
	lr.state.SetDimensions(len(coef), 0)
}
