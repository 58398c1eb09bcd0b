package preprocessing

import (
	"math"
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/pkg/errors"
)

// FeatureSpec names the dataset columns each encoder block consumes.
type FeatureSpec struct {
	// Categorical columns are one-hot encoded.
	Categorical []string

	// Codes is the joined violation-code column, multi-hot encoded.
	// Empty disables the block.
	Codes string

	// Numeric columns pass through standardization.
	Numeric []string

	// Label is the target column, excluded from features.
	Label string
}

// InspectionFeatures is the fixed spec for the aggregated inspection
// dataset: borough and inspection type one-hot, violation codes multi-hot,
// violation counts standardized, score as the label. The entity id is an
// identifier, not a feature.
func InspectionFeatures() FeatureSpec {
	return FeatureSpec{
		Categorical: []string{"borough", "inspection_type"},
		Codes:       "codes",
		Numeric:     []string{"critical_violations", "total_violations"},
		Label:       "score",
	}
}

// FeatureEncoder assembles the design matrix from a dataset frame:
// one-hot(categorical) | multi-hot(codes) | standardized(numeric).
// Exported fields make a fitted encoder gob-encodable inside the model
// artifact.
type FeatureEncoder struct {
	model.BaseEstimator

	Spec    FeatureSpec
	OneHot  *OneHotEncoder
	Codes   *ViolationCodeEncoder
	Scaler  *StandardScaler
	NOutput int
}

// NewFeatureEncoder creates an untrained FeatureEncoder for the given
// column selection.
func NewFeatureEncoder(spec FeatureSpec) *FeatureEncoder {
	return &FeatureEncoder{Spec: spec}
}

// Fit learns all encoder vocabularies and scaling statistics from f.
func (e *FeatureEncoder) Fit(f *frame.Frame) (err error) {
	defer errors.Recover(&err, "FeatureEncoder.Fit")
	if f.NumRows() == 0 {
		return errors.NewModelError("FeatureEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	e.NOutput = 0

	if len(e.Spec.Categorical) > 0 {
		data, err := e.categoricalCells(f)
		if err != nil {
			return err
		}
		e.OneHot = NewOneHotEncoder()
		if err := e.OneHot.Fit(data); err != nil {
			return err
		}
		e.NOutput += e.OneHot.NOutputs
	}

	if e.Spec.Codes != "" {
		cells, err := f.Strings(e.Spec.Codes)
		if err != nil {
			return err
		}
		e.Codes = NewViolationCodeEncoder()
		if err := e.Codes.Fit(cells); err != nil {
			return err
		}
		e.NOutput += e.Codes.NOutputs()
	}

	if len(e.Spec.Numeric) > 0 {
		numeric, err := e.numericMatrix(f)
		if err != nil {
			return err
		}
		e.Scaler = NewStandardScaler()
		if err := e.Scaler.Fit(numeric); err != nil {
			return err
		}
		e.NOutput += len(e.Spec.Numeric)
	}

	if e.NOutput == 0 {
		return errors.NewValueError("FeatureEncoder.Fit", "feature spec selects no columns")
	}

	e.SetFitted()
	return nil
}

// Transform builds the design matrix for f using the fitted encoders.
func (e *FeatureEncoder) Transform(f *frame.Frame) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "FeatureEncoder.Transform")
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("FeatureEncoder", "Transform")
	}
	n := f.NumRows()
	if n == 0 {
		return nil, errors.NewModelError("FeatureEncoder.Transform", "empty data", errors.ErrEmptyData)
	}

	blocks := make([]*mat.Dense, 0, 3)

	if e.OneHot != nil {
		data, err := e.categoricalCells(f)
		if err != nil {
			return nil, err
		}
		block, err := e.OneHot.Transform(data)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if e.Codes != nil && e.Codes.NOutputs() > 0 {
		cells, err := f.Strings(e.Spec.Codes)
		if err != nil {
			return nil, err
		}
		block, err := e.Codes.Transform(cells)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	if e.Scaler != nil {
		numeric, err := e.numericMatrix(f)
		if err != nil {
			return nil, err
		}
		block, err := e.Scaler.Transform(numeric)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	return hstack(n, blocks), nil
}

// Label extracts the label column as a vector. Rows with a null label are
// rejected: they must have been filtered before modeling.
func (e *FeatureEncoder) Label(f *frame.Frame) (*mat.VecDense, error) {
	values, err := f.Floats(e.Spec.Label)
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		if math.IsNaN(v) {
			return nil, errors.NewValueError("FeatureEncoder.Label",
				"null label at row "+strconv.Itoa(i))
		}
	}
	out := mat.NewVecDense(len(values), nil)
	for i, v := range values {
		out.SetVec(i, v)
	}
	return out, nil
}

// NFeaturesOut returns the design matrix width.
func (e *FeatureEncoder) NFeaturesOut() int {
	return e.NOutput
}

// categoricalCells gathers the categorical columns row-wise.
func (e *FeatureEncoder) categoricalCells(f *frame.Frame) ([][]string, error) {
	cols := make([][]string, len(e.Spec.Categorical))
	for j, name := range e.Spec.Categorical {
		col, err := f.Strings(name)
		if err != nil {
			return nil, errors.NewMissingColumnError("FeatureEncoder", name)
		}
		cols[j] = col
	}

	data := make([][]string, f.NumRows())
	for i := range data {
		row := make([]string, len(cols))
		for j := range cols {
			row[j] = cols[j][i]
		}
		data[i] = row
	}
	return data, nil
}

// numericMatrix gathers the numeric columns into a matrix.
func (e *FeatureEncoder) numericMatrix(f *frame.Frame) (*mat.Dense, error) {
	cols := make([][]float64, len(e.Spec.Numeric))
	for j, name := range e.Spec.Numeric {
		col, err := f.Floats(name)
		if err != nil {
			return nil, errors.NewMissingColumnError("FeatureEncoder", name)
		}
		cols[j] = col
	}

	out := mat.NewDense(f.NumRows(), len(cols), nil)
	for i := 0; i < f.NumRows(); i++ {
		for j := range cols {
			v := cols[j][i]
			if math.IsNaN(v) {
				return nil, errors.NewValueError("FeatureEncoder",
					"null value in numeric column "+e.Spec.Numeric[j])
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

func hstack(rows int, blocks []*mat.Dense) *mat.Dense {
	width := 0
	for _, b := range blocks {
		_, c := b.Dims()
		width += c
	}

	out := mat.NewDense(rows, width, nil)
	offset := 0
	for _, b := range blocks {
		_, c := b.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < c; j++ {
				out.Set(i, offset+j, b.At(i, j))
			}
		}
		offset += c
	}
	return out
}

