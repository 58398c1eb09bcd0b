package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name    string
		yTrue   []float64
		yPred   []float64
		want    float64
		wantErr bool
	}{
		{
			name:  "perfect prediction",
			yTrue: []float64{1, 2, 3},
			yPred: []float64{1, 2, 3},
			want:  0,
		},
		{
			name:  "constant offset of one",
			yTrue: []float64{1, 2, 3, 4},
			yPred: []float64{2, 3, 4, 5},
			want:  1,
		},
		{
			name:  "mixed errors",
			yTrue: []float64{10, 20},
			yPred: []float64{12, 17},
			want:  (4.0 + 9.0) / 2.0,
		},
		{
			name:    "empty vectors",
			yTrue:   nil,
			yPred:   nil,
			wantErr: true,
		},
		{
			name:    "length mismatch",
			yTrue:   []float64{1, 2, 3},
			yPred:   []float64{1, 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := vec(tt.yTrue)
			yPred := vec(tt.yPred)

			got, err := MSE(yTrue, yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("MSE() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("MSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMAEAndRMSE(t *testing.T) {
	yTrue := vec([]float64{1, 2, 3, 4})
	yPred := vec([]float64{2, 1, 5, 2})

	mae, err := MAE(yTrue, yPred)
	if err != nil {
		t.Fatalf("MAE failed: %v", err)
	}
	if want := (1.0 + 1.0 + 2.0 + 2.0) / 4.0; math.Abs(mae-want) > 1e-12 {
		t.Errorf("MAE = %v, want %v", mae, want)
	}

	rmse, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("RMSE failed: %v", err)
	}
	mse, _ := MSE(yTrue, yPred)
	if math.Abs(rmse-math.Sqrt(mse)) > 1e-12 {
		t.Errorf("RMSE = %v, want sqrt(MSE) = %v", rmse, math.Sqrt(mse))
	}
}

func TestR2Score(t *testing.T) {
	yTrue := vec([]float64{3, -0.5, 2, 7})
	yPred := vec([]float64{2.5, 0.0, 2, 8})

	r2, err := R2Score(yTrue, yPred)
	if err != nil {
		t.Fatalf("R2Score failed: %v", err)
	}
	// Reference value from the standard definition.
	if math.Abs(r2-0.9486081370449679) > 1e-9 {
		t.Errorf("R2 = %v, want ~0.9486", r2)
	}

	// No variance in yTrue is an error.
	if _, err := R2Score(vec([]float64{5, 5, 5}), vec([]float64{4, 5, 6})); err == nil {
		t.Error("expected error for zero-variance yTrue")
	}
}

func TestNewReport(t *testing.T) {
	yTrue := vec([]float64{10, 12, 14, 20})
	yPred := vec([]float64{11, 11, 15, 18})

	report, err := NewReport(yTrue, yPred)
	if err != nil {
		t.Fatalf("NewReport failed: %v", err)
	}
	if report.N != 4 {
		t.Errorf("N = %d, want 4", report.N)
	}
	if report.RMSE != math.Sqrt(report.MSE) {
		t.Errorf("RMSE = %v, want sqrt(MSE)", report.RMSE)
	}
	if report.MAE <= 0 || report.MSE <= 0 {
		t.Errorf("error metrics should be positive here: %+v", report)
	}
	if report.R2 >= 1 {
		t.Errorf("R2 = %v, want < 1 for imperfect predictions", report.R2)
	}

	// Constant labels: R2 degrades to NaN, error metrics survive.
	flat, err := NewReport(vec([]float64{5, 5}), vec([]float64{4, 6}))
	if err != nil {
		t.Fatalf("NewReport failed on constant labels: %v", err)
	}
	if !math.IsNaN(flat.R2) {
		t.Errorf("R2 = %v, want NaN for constant labels", flat.R2)
	}
	if flat.MSE != 1 {
		t.Errorf("MSE = %v, want 1", flat.MSE)
	}
}

func vec(values []float64) *mat.VecDense {
	if len(values) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(values), values)
}
