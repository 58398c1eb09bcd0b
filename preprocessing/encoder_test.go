package preprocessing

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestOneHotEncoderFitTransform(t *testing.T) {
	data := [][]string{
		{"Manhattan", "Cycle"},
		{"Queens", "Cycle"},
		{"Manhattan", "Pre-permit"},
	}

	enc := NewOneHotEncoder()
	encoded, err := enc.FitTransform(data)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Columns: Manhattan, Queens | Cycle, Pre-permit (sorted per feature).
	r, c := encoded.Dims()
	if r != 3 || c != 4 {
		t.Fatalf("encoded dims = (%d, %d), want (3, 4)", r, c)
	}

	want := [][]float64{
		{1, 0, 1, 0},
		{0, 1, 1, 0},
		{1, 0, 0, 1},
	}
	for i := range want {
		for j := range want[i] {
			if encoded.At(i, j) != want[i][j] {
				t.Errorf("encoded[%d][%d] = %v, want %v", i, j, encoded.At(i, j), want[i][j])
			}
		}
	}
}

func TestOneHotEncoderUnknownCategory(t *testing.T) {
	enc := NewOneHotEncoder()
	if err := enc.Fit([][]string{{"Manhattan"}, {"Queens"}}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	encoded, err := enc.Transform([][]string{{"Staten Island"}})
	if err != nil {
		t.Fatalf("Transform on unknown category should not error: %v", err)
	}

	// Unknown categories encode to all zeros.
	for j := 0; j < enc.NOutputs; j++ {
		if encoded.At(0, j) != 0 {
			t.Errorf("column %d = %v, want 0", j, encoded.At(0, j))
		}
	}
}

func TestOneHotEncoderNotFitted(t *testing.T) {
	enc := NewOneHotEncoder()
	if _, err := enc.Transform([][]string{{"x"}}); err == nil {
		t.Error("expected error when transforming with unfitted encoder")
	}
}

func TestOneHotEncoderFeatureNamesOut(t *testing.T) {
	enc := NewOneHotEncoder()
	if err := enc.Fit([][]string{{"b", "y"}, {"a", "x"}}); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	names := enc.FeatureNamesOut([]string{"borough", "type"})
	want := []string{"borough_a", "borough_b", "type_x", "type_y"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestViolationCodeEncoder(t *testing.T) {
	cells := []string{"04H,09C", "09C,10F", ""}

	enc := NewViolationCodeEncoder()
	encoded, err := enc.FitTransform(cells)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	if got := enc.NOutputs(); got != 3 {
		t.Fatalf("NOutputs = %d, want 3 (04H, 09C, 10F)", got)
	}

	want := [][]float64{
		{1, 1, 0},
		{0, 1, 1},
		{0, 0, 0}, // clean inspection: all zeros
	}
	for i := range want {
		for j := range want[i] {
			if encoded.At(i, j) != want[i][j] {
				t.Errorf("encoded[%d][%d] = %v, want %v", i, j, encoded.At(i, j), want[i][j])
			}
		}
	}

	// Unknown code at transform time is ignored.
	out, err := enc.Transform([]string{"99Z,04H"})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if out.At(0, 0) != 1 || out.At(0, 1) != 0 || out.At(0, 2) != 0 {
		t.Errorf("unknown code handling wrong: row = [%v %v %v]",
			out.At(0, 0), out.At(0, 1), out.At(0, 2))
	}
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScaler()
	out, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// First column standardizes; second is constant and passes through
	// centered at zero.
	var sum float64
	for i := 0; i < 4; i++ {
		sum += out.At(i, 0)
	}
	if sum > 1e-12 || sum < -1e-12 {
		t.Errorf("standardized column mean = %v, want 0", sum/4)
	}
	for i := 0; i < 4; i++ {
		if out.At(i, 1) != 0 {
			t.Errorf("constant column row %d = %v, want 0", i, out.At(i, 1))
		}
	}
}
