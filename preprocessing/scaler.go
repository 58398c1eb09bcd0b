package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/model"
	"github.com/civicdata/inspectscore/pkg/errors"
)

// StandardScaler standardizes features to zero mean and unit variance.
// The count features (critical and total violations) go through this
// before reaching gradient-based estimators.
type StandardScaler struct {
	model.BaseEstimator

	// Mean holds the per-feature mean.
	Mean []float64

	// Scale holds the per-feature standard deviation. A constant feature
	// gets scale 1 so transforming it is a no-op rather than a division
	// by zero.
	Scale []float64

	// NFeatures is the feature count.
	NFeatures int
}

// NewStandardScaler creates an untrained StandardScaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// Fit computes per-feature mean and standard deviation.
func (s *StandardScaler) Fit(X mat.Matrix) (err error) {
	defer errors.Recover(&err, "StandardScaler.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}

	s.NFeatures = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += X.At(i, j)
		}
		mean := sum / float64(r)

		var ss float64
		for i := 0; i < r; i++ {
			d := X.At(i, j) - mean
			ss += d * d
		}
		std := math.Sqrt(ss / float64(r))
		if std == 0 {
			std = 1
		}

		s.Mean[j] = mean
		s.Scale[j] = std
	}

	s.SetFitted()
	return nil
}

// Transform applies the fitted standardization.
func (s *StandardScaler) Transform(X mat.Matrix) (_ *mat.Dense, err error) {
	defer errors.Recover(&err, "StandardScaler.Transform")
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform fits on X and transforms it in one step.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
