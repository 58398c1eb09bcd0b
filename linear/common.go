package linear

import (
	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/pkg/errors"
)

// designMatrix returns X with a leading column of ones when fitIntercept
// is set, otherwise X itself.
func designMatrix(X mat.Matrix, fitIntercept bool) mat.Matrix {
	if !fitIntercept {
		return X
	}
	rows, cols := X.Dims()
	out := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, 1.0)
		for j := 0; j < cols; j++ {
			out.Set(i, j+1, X.At(i, j))
		}
	}
	return out
}

// splitSolution separates the intercept from the weight block of a
// stacked least squares solution.
func splitSolution(solution mat.Matrix, nFeatures int, fitIntercept bool) ([]float64, float64) {
	coef := make([]float64, nFeatures)
	if fitIntercept {
		for j := 0; j < nFeatures; j++ {
			coef[j] = solution.At(j+1, 0)
		}
		return coef, solution.At(0, 0)
	}
	for j := 0; j < nFeatures; j++ {
		coef[j] = solution.At(j, 0)
	}
	return coef, 0
}

// lstsq computes the minimum-norm least squares solution of X w = y via
// the thin SVD, zeroing singular values below a relative tolerance.
func lstsq(X, y mat.Matrix) (mat.Matrix, error) {
	rows, cols := X.Dims()

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDThin); !ok {
		return nil, errors.NewModelError("lstsq", "SVD failed to converge", errors.ErrSingularMatrix)
	}

	s := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// Projection of y onto the left singular vectors, scaled by the
	// inverse singular values where they are meaningful.
	var uty mat.Dense
	uty.Mul(u.T(), y)

	larger := rows
	if cols > larger {
		larger = cols
	}
	tol := s[0] * float64(larger) * 2.22e-16
	rank := 0
	for i, sv := range s {
		if sv > tol {
			uty.Set(i, 0, uty.At(i, 0)/sv)
			rank++
		} else {
			uty.Set(i, 0, 0)
		}
	}
	if rank == 0 {
		return nil, errors.NewModelError("lstsq", "design matrix has rank zero", errors.ErrSingularMatrix)
	}

	var solution mat.Dense
	solution.Mul(&v, &uty)
	return &solution, nil
}

// predictLinear evaluates X w + b row by row.
func predictLinear(X mat.Matrix, coef []float64, intercept float64, op string) (mat.Matrix, error) {
	rows, cols := X.Dims()
	if cols != len(coef) {
		return nil, errors.NewDimensionError(op, len(coef), cols, 1)
	}

	preds := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		pred := intercept
		for j := 0; j < cols; j++ {
			pred += X.At(i, j) * coef[j]
		}
		preds.Set(i, 0, pred)
	}
	return preds, nil
}

// r2 computes the coefficient of determination of preds against y.
func r2(y, preds mat.Matrix, op string) (float64, error) {
	rows, _ := y.Dims()
	if rows == 0 {
		return 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}

	var yMean float64
	for i := 0; i < rows; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(rows)

	var ssTot, ssRes float64
	for i := 0; i < rows; i++ {
		yi := y.At(i, 0)
		pi := preds.At(i, 0)
		ssTot += (yi - yMean) * (yi - yMean)
		ssRes += (yi - pi) * (yi - pi)
	}

	if ssTot == 0 {
		return 0, errors.NewValueError(op, "cannot compute score with zero variance in y_true")
	}
	return 1.0 - ssRes/ssTot, nil
}

func copyFloats(src []float64) []float64 {
	if src == nil {
		return nil
	}
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
