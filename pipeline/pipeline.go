// Package pipeline binds a feature encoder to a regression estimator and
// exposes frame-level train, predict and evaluate operations. A fitted
// pipeline is the unit the artifact store persists: loading one back
// reproduces its predictions exactly.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/metrics"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
	"github.com/civicdata/inspectscore/preprocessing"
)

// Estimator is the regression model surface the pipeline drives. Learned
// parameters are exposed as plain floats so fitted estimators can be
// persisted and restored without re-training.
type Estimator interface {
	Fit(X, y mat.Matrix) error
	Predict(X mat.Matrix) (mat.Matrix, error)
	Coef() []float64
	Intercept() float64
	Restore(coef []float64, intercept float64)
	Kind() string
}

// Pipeline chains feature encoding and a regression estimator over
// dataset frames.
type Pipeline struct {
	state   *model.StateManager
	encoder *preprocessing.FeatureEncoder
	est     Estimator
	schema  frame.Schema
	logger  log.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates an unfitted pipeline over spec and est.
func New(spec preprocessing.FeatureSpec, est Estimator, options ...Option) *Pipeline {
	p := &Pipeline{
		state:   model.NewStateManager(),
		encoder: preprocessing.NewFeatureEncoder(spec),
		est:     est,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("pipeline")
	}
	return p
}

// Estimator returns the wrapped estimator.
func (p *Pipeline) Estimator() Estimator {
	return p.est
}

// Schema returns the dataset schema the pipeline was fitted on, or nil.
func (p *Pipeline) Schema() frame.Schema {
	return p.schema
}

// Fit learns the feature encoding from train and fits the estimator on
// the encoded design matrix.
func (p *Pipeline) Fit(train *frame.Frame) (err error) {
	defer errors.Recover(&err, "Pipeline.Fit")

	if train.NumRows() == 0 {
		return errors.NewModelError("Pipeline.Fit", "empty training frame", errors.ErrEmptyData)
	}

	if err := p.encoder.Fit(train); err != nil {
		return err
	}
	X, err := p.encoder.Transform(train)
	if err != nil {
		return err
	}
	y, err := p.encoder.Label(train)
	if err != nil {
		return err
	}

	if err := p.est.Fit(X, y); err != nil {
		return err
	}

	p.schema = train.Schema().Clone()
	p.state.SetFitted()
	rows, cols := X.Dims()
	p.state.SetDimensions(cols, rows)

	p.logger.Info("pipeline fitted",
		log.OperationKey, log.OperationFit,
		log.ModelNameKey, p.est.Kind(),
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
	)
	return nil
}

// Predict scores every row of f and returns the predictions in row order.
func (p *Pipeline) Predict(f *frame.Frame) (_ *mat.VecDense, err error) {
	defer errors.Recover(&err, "Pipeline.Predict")

	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}

	X, err := p.encoder.Transform(f)
	if err != nil {
		return nil, err
	}
	raw, err := p.est.Predict(X)
	if err != nil {
		return nil, err
	}

	rows, _ := raw.Dims()
	preds := mat.NewVecDense(rows, nil)
	for i := 0; i < rows; i++ {
		preds.SetVec(i, raw.At(i, 0))
	}
	return preds, nil
}

// PredictRow scores a single inspection given as a column-name keyed map.
// Every feature column must be present; identifier and label columns are
// ignored if supplied.
func (p *Pipeline) PredictRow(row map[string]interface{}) (_ float64, err error) {
	defer errors.Recover(&err, "Pipeline.PredictRow")

	if !p.state.IsFitted() {
		return 0, errors.NewNotFittedError("Pipeline", "PredictRow")
	}

	single, err := p.singleRowFrame(row)
	if err != nil {
		return 0, err
	}
	preds, err := p.Predict(single)
	if err != nil {
		return 0, err
	}
	return preds.AtVec(0), nil
}

// Labels extracts the label column of f as a vector.
func (p *Pipeline) Labels(f *frame.Frame) (*mat.VecDense, error) {
	return p.encoder.Label(f)
}

// Evaluate scores f and reports regression metrics against its labels.
func (p *Pipeline) Evaluate(f *frame.Frame) (_ metrics.Report, err error) {
	defer errors.Recover(&err, "Pipeline.Evaluate")

	if !p.state.IsFitted() {
		return metrics.Report{}, errors.NewNotFittedError("Pipeline", "Evaluate")
	}

	yTrue, err := p.encoder.Label(f)
	if err != nil {
		return metrics.Report{}, err
	}
	yPred, err := p.Predict(f)
	if err != nil {
		return metrics.Report{}, err
	}

	report, err := metrics.NewReport(yTrue, yPred)
	if err != nil {
		return metrics.Report{}, err
	}

	p.logger.Info("evaluated",
		log.OperationKey, log.OperationEvaluate,
		log.ModelNameKey, p.est.Kind(),
		log.SamplesKey, report.N,
		"mse", report.MSE,
		"r2", report.R2,
	)
	return report, nil
}

// singleRowFrame builds a one-row frame holding the feature columns of
// the training schema, pulled from row by column name.
func (p *Pipeline) singleRowFrame(row map[string]interface{}) (*frame.Frame, error) {
	spec := p.encoder.Spec
	needed := make(map[string]bool, len(spec.Categorical)+len(spec.Numeric)+1)
	for _, name := range spec.Categorical {
		needed[name] = true
	}
	for _, name := range spec.Numeric {
		needed[name] = true
	}
	if spec.Codes != "" {
		needed[spec.Codes] = true
	}

	schema := make(frame.Schema, 0, len(needed))
	for _, col := range p.schema {
		if !needed[col.Name] {
			continue
		}
		schema = append(schema, col)
	}

	values := make([]interface{}, 0, len(schema))
	for _, col := range schema {
		v, ok := row[col.Name]
		if !ok {
			return nil, errors.NewMissingColumnError("Pipeline.PredictRow", col.Name)
		}
		values = append(values, v)
	}

	f := frame.New(schema)
	if err := f.Append(values...); err != nil {
		return nil, err
	}
	return f, nil
}
