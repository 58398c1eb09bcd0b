package pipeline

import (
	"io"

	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/linear"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
	"github.com/civicdata/inspectscore/preprocessing"
)

// ArtifactVersion is bumped when the persisted layout changes.
const ArtifactVersion = 1

// Artifact is the gob-encoded form of a fitted pipeline: the trained
// feature encoder plus the estimator's kind and learned parameters.
// Estimators persist as plain float slices, never gonum values.
type Artifact struct {
	Version   int
	Schema    frame.Schema
	Encoder   *preprocessing.FeatureEncoder
	Kind      string
	Coef      []float64
	Intercept float64
}

// Save writes the fitted pipeline to path.
func Save(p *Pipeline, path string) (err error) {
	defer errors.Recover(&err, "pipeline.Save")

	art, err := p.artifact()
	if err != nil {
		return err
	}
	if err := model.Save(art, path); err != nil {
		return err
	}
	p.logger.Info("artifact saved",
		log.OperationKey, log.OperationSave,
		log.ModelNameKey, art.Kind,
		log.PathKey, path,
	)
	return nil
}

// SaveTo writes the fitted pipeline to w.
func SaveTo(p *Pipeline, w io.Writer) error {
	art, err := p.artifact()
	if err != nil {
		return err
	}
	return model.SaveToWriter(art, w)
}

// Load reads a fitted pipeline from path.
func Load(path string) (_ *Pipeline, err error) {
	defer errors.Recover(&err, "pipeline.Load")

	var art Artifact
	if err := model.Load(&art, path); err != nil {
		return nil, err
	}
	return fromArtifact(&art)
}

// LoadFrom reads a fitted pipeline from r.
func LoadFrom(r io.Reader) (*Pipeline, error) {
	var art Artifact
	if err := model.LoadFromReader(&art, r); err != nil {
		return nil, err
	}
	return fromArtifact(&art)
}

func (p *Pipeline) artifact() (*Artifact, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Save")
	}
	return &Artifact{
		Version:   ArtifactVersion,
		Schema:    p.schema,
		Encoder:   p.encoder,
		Kind:      p.est.Kind(),
		Coef:      p.est.Coef(),
		Intercept: p.est.Intercept(),
	}, nil
}

func fromArtifact(art *Artifact) (*Pipeline, error) {
	if art.Version != ArtifactVersion {
		return nil, errors.Newf("unsupported artifact version %d", art.Version)
	}
	if art.Encoder == nil {
		return nil, errors.NewValueError("pipeline.Load", "artifact has no encoder")
	}

	est, err := newEstimator(art.Kind)
	if err != nil {
		return nil, err
	}
	est.Restore(art.Coef, art.Intercept)

	p := &Pipeline{
		state:   model.NewStateManager(),
		encoder: art.Encoder,
		est:     est,
		schema:  art.Schema,
		logger:  log.GetLoggerWithName("pipeline"),
	}
	p.state.SetFitted()
	p.state.SetDimensions(len(art.Coef), 0)
	return p, nil
}

// newEstimator constructs an empty estimator of the persisted kind.
// Hyperparameters are not restored; a loaded pipeline only serves
// predictions, which depend on the learned parameters alone.
func newEstimator(kind string) (Estimator, error) {
	switch kind {
	case "ols":
		return linear.NewLinearRegression(), nil
	case "ridge":
		return linear.NewRidgeRegression(), nil
	case "sgd":
		return linear.NewSGDRegressor(), nil
	default:
		return nil, errors.NewValueError("pipeline.Load", "unknown estimator kind "+kind)
	}
}
