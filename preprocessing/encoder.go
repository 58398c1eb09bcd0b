// Package preprocessing provides the feature encoders that turn aggregated
// inspection rows into the numeric design matrix the regressors consume:
// one-hot encoding for categorical columns, multi-hot encoding for the
// joined violation-code column, and standardization for count features.
//
// All components follow the Fit / Transform / FitTransform pattern with
// fitted-state gating. Fields are exported for gob encoding: a fitted
// encoder travels inside the model artifact.
package preprocessing

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/pkg/errors"
)

// OneHotEncoder maps categorical string features to binary indicator
// columns. Categories are learned at fit time and sorted, so the output
// column order is deterministic. Unknown categories at transform time
// encode to all zeros rather than failing: a prediction request may carry
// a category never seen in training.
type OneHotEncoder struct {
	model.BaseEstimator

	// Categories holds the sorted category list per input feature.
	Categories [][]string

	// CategoryToIdx maps category to indicator position per input feature.
	CategoryToIdx []map[string]int

	// NFeatures is the input feature count.
	NFeatures int

	// NOutputs is the total indicator column count.
	NOutputs int
}

// NewOneHotEncoder creates an untrained OneHotEncoder.
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{}
}

// Fit learns the category vocabulary from training data, given as
// n_samples rows of n_features string cells.
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer errors.Recover(&err, "OneHotEncoder.Fit")
	if len(data) == 0 || len(data[0]) == 0 {
		return errors.NewModelError("OneHotEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	nFeatures := len(data[0])
	for i, row := range data {
		if len(row) != nFeatures {
			return errors.NewDimensionError("OneHotEncoder.Fit", nFeatures, len(row), i)
		}
	}

	e.NFeatures = nFeatures
	e.Categories = make([][]string, nFeatures)
	e.CategoryToIdx = make([]map[string]int, nFeatures)
	e.NOutputs = 0

	for j := 0; j < nFeatures; j++ {
		seen := make(map[string]bool)
		for i := range data {
			seen[data[i][j]] = true
		}

		categories := make([]string, 0, len(seen))
		for category := range seen {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		e.Categories[j] = categories

		toIdx := make(map[string]int, len(categories))
		for idx, category := range categories {
			toIdx[category] = idx
		}
		e.CategoryToIdx[j] = toIdx
		e.NOutputs += len(categories)
	}

	e.SetFitted()
	return nil
}

// Transform one-hot encodes data using the fitted vocabulary.
func (e *OneHotEncoder) Transform(data [][]string) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "OneHotEncoder.Transform")
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	if len(data) == 0 {
		return mat.NewDense(0, e.NOutputs, nil), nil
	}
	if len(data[0]) != e.NFeatures {
		return nil, errors.NewDimensionError("OneHotEncoder.Transform", e.NFeatures, len(data[0]), 1)
	}

	result := mat.NewDense(len(data), e.NOutputs, nil)
	for i := range data {
		offset := 0
		for j := 0; j < e.NFeatures; j++ {
			if idx, known := e.CategoryToIdx[j][data[i][j]]; known {
				result.Set(i, offset+idx, 1.0)
			}
			offset += len(e.Categories[j])
		}
	}
	return result, nil
}

// FitTransform fits on data and transforms it in one step.
func (e *OneHotEncoder) FitTransform(data [][]string) (*mat.Dense, error) {
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// FeatureNamesOut returns the indicator column names, "<feature>_<category>".
func (e *OneHotEncoder) FeatureNamesOut(inputFeatures []string) []string {
	if !e.IsFitted() {
		return nil
	}

	var out []string
	for j, categories := range e.Categories {
		name := "x"
		if j < len(inputFeatures) {
			name = inputFeatures[j]
		}
		for _, category := range categories {
			out = append(out, name+"_"+category)
		}
	}
	return out
}
