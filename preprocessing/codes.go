package preprocessing

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/pkg/errors"
)

// ViolationCodeEncoder multi-hot encodes the joined violation-code column.
// Each cell is a separator-joined list of codes ("04H,09C,10F"); the
// encoder learns the code vocabulary at fit time and emits one indicator
// column per known code. Codes unseen in training are ignored at transform
// time, and an empty cell (a clean inspection) encodes to all zeros.
type ViolationCodeEncoder struct {
	model.BaseEstimator

	// Separator splits the joined cell. Defaults to ",".
	Separator string

	// Vocabulary holds the sorted known codes.
	Vocabulary []string

	// CodeToIdx maps code to indicator position.
	CodeToIdx map[string]int
}

// NewViolationCodeEncoder creates an untrained encoder with the default
// comma separator.
func NewViolationCodeEncoder() *ViolationCodeEncoder {
	return &ViolationCodeEncoder{Separator: ","}
}

// Fit learns the code vocabulary from the joined-code cells.
func (e *ViolationCodeEncoder) Fit(cells []string) (err error) {
	defer errors.Recover(&err, "ViolationCodeEncoder.Fit")
	if len(cells) == 0 {
		return errors.NewModelError("ViolationCodeEncoder.Fit", "empty data", errors.ErrEmptyData)
	}
	if e.Separator == "" {
		e.Separator = ","
	}

	seen := make(map[string]bool)
	for _, cell := range cells {
		for _, code := range e.split(cell) {
			seen[code] = true
		}
	}

	e.Vocabulary = make([]string, 0, len(seen))
	for code := range seen {
		e.Vocabulary = append(e.Vocabulary, code)
	}
	sort.Strings(e.Vocabulary)

	e.CodeToIdx = make(map[string]int, len(e.Vocabulary))
	for idx, code := range e.Vocabulary {
		e.CodeToIdx[code] = idx
	}

	e.SetFitted()
	return nil
}

// Transform multi-hot encodes the joined-code cells. The vocabulary must
// be non-empty; callers skip the code block entirely when training data
// contained no codes at all.
func (e *ViolationCodeEncoder) Transform(cells []string) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "ViolationCodeEncoder.Transform")
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("ViolationCodeEncoder", "Transform")
	}
	if len(cells) == 0 {
		return nil, errors.NewModelError("ViolationCodeEncoder.Transform", "empty data", errors.ErrEmptyData)
	}
	if len(e.Vocabulary) == 0 {
		return nil, errors.NewValueError("ViolationCodeEncoder.Transform", "empty vocabulary")
	}

	result := mat.NewDense(len(cells), len(e.Vocabulary), nil)
	for i, cell := range cells {
		for _, code := range e.split(cell) {
			if idx, known := e.CodeToIdx[code]; known {
				result.Set(i, idx, 1.0)
			}
		}
	}
	return result, nil
}

// FitTransform fits on cells and transforms them in one step.
func (e *ViolationCodeEncoder) FitTransform(cells []string) (*mat.Dense, error) {
	if err := e.Fit(cells); err != nil {
		return nil, err
	}
	return e.Transform(cells)
}

// NOutputs returns the indicator column count.
func (e *ViolationCodeEncoder) NOutputs() int {
	return len(e.Vocabulary)
}

func (e *ViolationCodeEncoder) split(cell string) []string {
	if cell == "" {
		return nil
	}
	parts := strings.Split(cell, e.Separator)
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
