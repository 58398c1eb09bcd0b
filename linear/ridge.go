package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
)

// RidgeRegression fits a linear model with L2 regularization using the
// closed-form solution (X'X + alpha I)^-1 X'y. The intercept column is
// never penalized.
type RidgeRegression struct {
	state *model.StateManager

	alpha        float64
	fitIntercept bool

	coef      []float64
	intercept float64
	nFeatures int
	nSamples  int

	logger log.Logger
}

// RidgeOption configures a RidgeRegression.
type RidgeOption func(*RidgeRegression)

// WithRidgeAlpha sets the regularization strength.
func WithRidgeAlpha(alpha float64) RidgeOption {
	return func(r *RidgeRegression) {
		r.alpha = alpha
	}
}

// WithRidgeFitIntercept sets whether the intercept term is learned.
func WithRidgeFitIntercept(fit bool) RidgeOption {
	return func(r *RidgeRegression) {
		r.fitIntercept = fit
	}
}

// WithRidgeLogger sets the logger.
func WithRidgeLogger(logger log.Logger) RidgeOption {
	return func(r *RidgeRegression) {
		r.logger = logger
	}
}

// NewRidgeRegression creates an unfitted ridge model with alpha 1.0.
func NewRidgeRegression(options ...RidgeOption) *RidgeRegression {
	r := &RidgeRegression{
		state:        model.NewStateManager(),
		alpha:        1.0,
		fitIntercept: true,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("linear.ridge")
	}
	return r
}

// Kind identifies the estimator in persisted artifacts.
func (r *RidgeRegression) Kind() string { return "ridge" }

// Alpha returns the regularization strength.
func (r *RidgeRegression) Alpha() float64 { return r.alpha }

// Fit solves the regularized normal equations.
func (r *RidgeRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RidgeRegression.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows != yRows {
		return errors.NewDimensionError("RidgeRegression.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("RidgeRegression.Fit", 1, yCols, 1)
	}
	if rows == 0 {
		return errors.NewModelError("RidgeRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if r.alpha < 0 {
		return errors.NewValueError("RidgeRegression.Fit", "alpha must be non-negative")
	}

	XFit := designMatrix(X, r.fitIntercept)
	_, p := XFit.Dims()

	// Gram matrix with the ridge penalty on the diagonal. The first
	// diagonal entry is skipped when it corresponds to the intercept.
	var gram mat.Dense
	gram.Mul(XFit.T(), XFit)
	start := 0
	if r.fitIntercept {
		start = 1
	}
	for j := start; j < p; j++ {
		gram.Set(j, j, gram.At(j, j)+r.alpha)
	}

	var xty mat.Dense
	xty.Mul(XFit.T(), y)

	solution := mat.NewDense(p, 1, nil)
	if err := solution.Solve(&gram, &xty); err != nil {
		return errors.NewModelError("RidgeRegression.Fit", "singular design matrix", errors.ErrSingularMatrix)
	}

	r.coef, r.intercept = splitSolution(solution, cols, r.fitIntercept)
	r.nFeatures = cols
	r.nSamples = rows
	r.state.SetFitted()
	r.state.SetDimensions(cols, rows)

	r.logger.Debug("fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		"alpha", r.alpha,
	)
	return nil
}

// Predict computes X w + b for each input row.
func (r *RidgeRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !r.state.IsFitted() {
		return nil, errors.NewNotFittedError("RidgeRegression", "Predict")
	}
	return predictLinear(X, r.coef, r.intercept, "RidgeRegression.Predict")
}

// Score computes the coefficient of determination on (X, y).
func (r *RidgeRegression) Score(X, y mat.Matrix) (float64, error) {
	preds, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, preds, "RidgeRegression.Score")
}

// Coef returns a copy of the learned weight coefficients.
func (r *RidgeRegression) Coef() []float64 {
	return copyFloats(r.coef)
}

// Intercept returns the learned intercept.
func (r *RidgeRegression) Intercept() float64 {
	return r.intercept
}

// Restore loads previously learned parameters, marking the model fitted.
func (r *RidgeRegression) Restore(coef []float64, intercept float64) {
	r.coef = copyFloats(coef)
	r.intercept = intercept
	r.nFeatures = len(coef)
	r.state.SetFitted()
	r.state.SetDimensions(len(coef), 0)
}
