package linear

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
)

// SGDRegressor fits a linear model with squared loss by stochastic
// gradient descent. Training shuffles the sample order each epoch and
// stops early when the epoch loss stops improving.
type SGDRegressor struct {
	state *model.StateManager

	penalty       string // "l2" or "none"
	alpha         float64
	fitIntercept  bool
	maxIter       int
	tol           float64
	shuffle       bool
	learningRate  string // "constant" or "invscaling"
	eta0          float64
	powerT        float64
	nIterNoChange int
	randomState   int64

	coef      []float64
	intercept float64
	nFeatures int

	nIter       int
	t           int64
	lossHistory []float64
	converged   bool

	rng    *rand.Rand
	logger log.Logger
}

// SGDOption configures an SGDRegressor.
type SGDOption func(*SGDRegressor)

// WithSGDAlpha sets the L2 regularization strength.
func WithSGDAlpha(alpha float64) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.alpha = alpha
	}
}

// WithSGDPenalty sets the regularization kind, "l2" or "none".
func WithSGDPenalty(penalty string) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.penalty = penalty
	}
}

// WithSGDEta0 sets the initial learning rate.
func WithSGDEta0(eta0 float64) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.eta0 = eta0
	}
}

// WithSGDLearningRate sets the schedule, "constant" or "invscaling".
func WithSGDLearningRate(schedule string) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.learningRate = schedule
	}
}

// WithSGDMaxIter sets the maximum number of epochs.
func WithSGDMaxIter(maxIter int) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.maxIter = maxIter
	}
}

// WithSGDTol sets the convergence tolerance on the epoch loss.
func WithSGDTol(tol float64) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.tol = tol
	}
}

// WithSGDFitIntercept sets whether the intercept term is learned.
func WithSGDFitIntercept(fit bool) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.fitIntercept = fit
	}
}

// WithSGDShuffle sets whether samples are shuffled each epoch.
func WithSGDShuffle(shuffle bool) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.shuffle = shuffle
	}
}

// WithSGDRandomState seeds the shuffling and weight initialization so
// repeated fits on the same data produce identical models.
func WithSGDRandomState(seed int64) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.randomState = seed
	}
}

// WithSGDLogger sets the logger.
func WithSGDLogger(logger log.Logger) SGDOption {
	return func(sgd *SGDRegressor) {
		sgd.logger = logger
	}
}

// NewSGDRegressor creates an unfitted SGD regressor with the defaults
// used by the candidate catalog.
func NewSGDRegressor(options ...SGDOption) *SGDRegressor {
	sgd := &SGDRegressor{
		state:         model.NewStateManager(),
		penalty:       "l2",
		alpha:         0.0001,
		fitIntercept:  true,
		maxIter:       1000,
		tol:           1e-3,
		shuffle:       true,
		learningRate:  "invscaling",
		eta0:          0.01,
		powerT:        0.25,
		nIterNoChange: 5,
		randomState:   1,
	}
	for _, opt := range options {
		opt(sgd)
	}
	sgd.rng = rand.New(rand.NewPCG(uint64(sgd.randomState), uint64(sgd.randomState)^0x9e3779b97f4a7c15))
	if sgd.logger == nil {
		sgd.logger = log.GetLoggerWithName("linear.sgd")
	}
	return sgd
}

// Kind identifies the estimator in persisted artifacts.
func (sgd *SGDRegressor) Kind() string { return "sgd" }

// Fit trains the model for at most maxIter epochs.
func (sgd *SGDRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "SGDRegressor.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows != yRows {
		return errors.NewDimensionError("SGDRegressor.Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("SGDRegressor.Fit", 1, yCols, 1)
	}
	if rows == 0 {
		return errors.NewModelError("SGDRegressor.Fit", "empty data", errors.ErrEmptyData)
	}

	sgd.reset()
	sgd.nFeatures = cols
	sgd.coef = make([]float64, cols)
	scale := math.Sqrt(2.0 / float64(cols))
	for i := range sgd.coef {
		sgd.coef[i] = sgd.rng.NormFloat64() * scale
	}

	indices := make([]int, rows)
	for i := range indices {
		indices[i] = i
	}

	for iter := 0; iter < sgd.maxIter; iter++ {
		if sgd.shuffle {
			sgd.rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}

		epochLoss := 0.0
		for _, idx := range indices {
			xi := mat.Row(nil, idx, X)
			epochLoss += sgd.updateWeights(xi, y.At(idx, 0))
		}
		epochLoss /= float64(rows)
		sgd.lossHistory = append(sgd.lossHistory, epochLoss)
		sgd.nIter++

		if sgd.checkConvergence() {
			sgd.converged = true
			break
		}
	}

	if !sgd.converged {
		sgd.logger.Debug("max iterations reached without convergence",
			log.OperationKey, log.OperationFit,
			"n_iter", sgd.nIter,
		)
	}

	sgd.state.SetFitted()
	sgd.state.SetDimensions(cols, rows)
	return nil
}

// updateWeights applies one gradient step for a single sample and
// returns its squared loss.
func (sgd *SGDRegressor) updateWeights(x []float64, y float64) float64 {
	pred := sgd.intercept
	for i, xi := range x {
		pred += sgd.coef[i] * xi
	}

	diff := pred - y
	loss := 0.5 * diff * diff

	lr := sgd.learningRateAt()
	sgd.t++

	for i, xi := range x {
		grad := diff * xi
		if sgd.penalty == "l2" {
			grad += sgd.alpha * sgd.coef[i]
		}
		grad = clip(grad, 10.0)
		sgd.coef[i] -= lr * grad
	}
	if sgd.fitIntercept {
		sgd.intercept -= lr * clip(diff, 10.0)
	}
	return loss
}

func (sgd *SGDRegressor) learningRateAt() float64 {
	switch sgd.learningRate {
	case "constant":
		return sgd.eta0
	case "invscaling":
		return sgd.eta0 / math.Pow(float64(sgd.t)+1, sgd.powerT)
	default:
		return sgd.eta0
	}
}

func (sgd *SGDRegressor) checkConvergence() bool {
	if len(sgd.lossHistory) < sgd.nIterNoChange+1 {
		return false
	}
	recent := sgd.lossHistory[len(sgd.lossHistory)-sgd.nIterNoChange:]
	maxLoss, minLoss := recent[0], recent[0]
	for _, loss := range recent {
		if loss > maxLoss {
			maxLoss = loss
		}
		if loss < minLoss {
			minLoss = loss
		}
	}
	return maxLoss-minLoss < sgd.tol
}

// Predict computes X w + b for each input row.
func (sgd *SGDRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !sgd.state.IsFitted() {
		return nil, errors.NewNotFittedError("SGDRegressor", "Predict")
	}
	return predictLinear(X, sgd.coef, sgd.intercept, "SGDRegressor.Predict")
}

// Score computes the coefficient of determination on (X, y).
func (sgd *SGDRegressor) Score(X, y mat.Matrix) (float64, error) {
	preds, err := sgd.Predict(X)
	if err != nil {
		return 0, err
	}
	return r2(y, preds, "SGDRegressor.Score")
}

// Coef returns a copy of the learned weight coefficients.
func (sgd *SGDRegressor) Coef() []float64 {
	return copyFloats(sgd.coef)
}

// Intercept returns the learned intercept.
func (sgd *SGDRegressor) Intercept() float64 {
	return sgd.intercept
}

// NIterations returns the number of training epochs executed.
func (sgd *SGDRegressor) NIterations() int {
	return sgd.nIter
}

// Converged reports whether early stopping triggered.
func (sgd *SGDRegressor) Converged() bool {
	return sgd.converged
}

// Restore loads previously learned parameters, marking the model fitted.
func (sgd *SGDRegressor) Restore(coef []float64, intercept float64) {
	sgd.coef = copyFloats(coef)
	sgd.intercept = intercept
	sgd.nFeatures = len(coef)
	sgd.state.SetFitted()
	sgd.state.SetDimensions(len(coef), 0)
}

func (sgd *SGDRegressor) reset() {
	sgd.coef = nil
	sgd.intercept = 0
	sgd.nIter = 0
	sgd.t = 0
	sgd.lossHistory = sgd.lossHistory[:0]
	sgd.converged = false
	sgd.state.Reset()
}

func clip(g, limit float64) float64 {
	if g > limit {
		return limit
	}
	if g < -limit {
		return -limit
	}
	return g
}
