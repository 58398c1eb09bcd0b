package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSavePredictedActual(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{10, 13, 20, 28})
	yPred := mat.NewVecDense(4, []float64{11, 12, 22, 25})

	path := filepath.Join(t.TempDir(), "predicted_actual.png")
	if err := SavePredictedActual(yTrue, yPred, "Validation", path); err != nil {
		t.Fatalf("SavePredictedActual failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestSavePredictedActualMismatch(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{1, 2, 3})
	yPred := mat.NewVecDense(2, []float64{1, 2})

	if err := SavePredictedActual(yTrue, yPred, "", "unused.png"); err == nil {
		t.Error("expected error for mismatched vector lengths")
	}
}
