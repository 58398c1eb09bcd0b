package inspection

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/civicdata/inspectscore/core/frame"
)

func rawSchema() frame.Schema {
	return frame.Schema{
		{Name: "CAMIS", Type: frame.String},
		{Name: "BORO", Type: frame.String},
		{Name: "INSPECTION DATE", Type: frame.String},
		{Name: "INSPECTION TYPE", Type: frame.String},
		{Name: "VIOLATION CODE", Type: frame.String},
		{Name: "CRITICAL FLAG", Type: frame.String},
		{Name: "SCORE", Type: frame.Float},
	}
}

type rawRow struct {
	camis, boro, date, instype, code, flag string
	score                                  interface{}
}

func buildRaw(t *testing.T, rows []rawRow) *frame.Frame {
	t.Helper()
	f := frame.New(rawSchema())
	for _, r := range rows {
		if err := f.Append(r.camis, r.boro, r.date, r.instype, r.code, r.flag, r.score); err != nil {
			t.Fatalf("failed to build raw frame: %v", err)
		}
	}
	return f
}

func TestAggregateSingleInspectionEvent(t *testing.T) {
	// Three violation rows of one inspection visit collapse to one row.
	raw := buildRaw(t, []rawRow{
		{"41720083", "Manhattan", "04/24/2018", "Cycle Inspection / Re-inspection", "04H", "Critical", 12.0},
		{"41720083", "Manhattan", "04/24/2018", "Cycle Inspection / Re-inspection", "09C", "Not Critical", 12.0},
		{"41720083", "Manhattan", "04/24/2018", "Cycle Inspection / Re-inspection", "10F", "Critical", 12.0},
	})

	out, summary, err := NewAggregator().Aggregate(raw)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if out.NumRows() != 1 {
		t.Fatalf("NumRows = %d, want 1", out.NumRows())
	}
	if summary.Groups != 1 || summary.RowsIn != 3 {
		t.Errorf("summary = %+v, want 3 rows in, 1 group", summary)
	}

	row := out.Row(0)
	if row["entity_id"] != "41720083" {
		t.Errorf("entity_id = %v", row["entity_id"])
	}
	if row["codes"] != "04H,09C,10F" {
		t.Errorf("codes = %v, want 04H,09C,10F", row["codes"])
	}
	if row["critical_violations"] != 2.0 {
		t.Errorf("critical_violations = %v, want 2", row["critical_violations"])
	}
	if row["total_violations"] != 3.0 {
		t.Errorf("total_violations = %v, want 3", row["total_violations"])
	}
	if row["score"] != 12.0 {
		t.Errorf("score = %v, want 12", row["score"])
	}
	// Date is a grouping key only, never a feature.
	if _, present := row["INSPECTION DATE"]; present {
		t.Error("date column should be dropped from the projection")
	}
}

func TestAggregateFilters(t *testing.T) {
	tests := []struct {
		name        string
		row         rawRow
		wantDropped func(s *Summary) int
	}{
		{
			name:        "sentinel date",
			row:         rawRow{"1", "Queens", "01/01/1900", "Cycle", "04H", "Critical", 10.0},
			wantDropped: func(s *Summary) int { return s.DroppedSentinelDate },
		},
		{
			name:        "unparseable date",
			row:         rawRow{"1", "Queens", "not-a-date", "Cycle", "04H", "Critical", 10.0},
			wantDropped: func(s *Summary) int { return s.DroppedSentinelDate },
		},
		{
			name:        "null score",
			row:         rawRow{"1", "Queens", "04/24/2018", "Cycle", "04H", "Critical", nil},
			wantDropped: func(s *Summary) int { return s.DroppedNullScore },
		},
		{
			name:        "zero borough",
			row:         rawRow{"1", "0", "04/24/2018", "Cycle", "04H", "Critical", 10.0},
			wantDropped: func(s *Summary) int { return s.DroppedUnknownBorough },
		},
		{
			name:        "missing borough",
			row:         rawRow{"1", "Missing", "04/24/2018", "Cycle", "04H", "Critical", 10.0},
			wantDropped: func(s *Summary) int { return s.DroppedUnknownBorough },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := buildRaw(t, []rawRow{tt.row})
			out, summary, err := NewAggregator().Aggregate(raw)
			if err != nil {
				t.Fatalf("Aggregate failed: %v", err)
			}
			if out.NumRows() != 0 {
				t.Errorf("invalid row reached the output: %+v", out.Row(0))
			}
			if got := tt.wantDropped(summary); got != 1 {
				t.Errorf("drop count = %d, want 1 (summary %+v)", got, summary)
			}
		})
	}
}

func TestAggregateCountInvariants(t *testing.T) {
	raw := buildRaw(t, []rawRow{
		{"10", "Bronx", "03/01/2019", "Cycle", "02B", "Critical", 20.0},
		{"10", "Bronx", "03/01/2019", "Cycle", "06C", "Not Critical", 20.0},
		{"10", "Bronx", "05/12/2019", "Cycle", "08A", "Not Critical", 9.0},
		{"11", "Brooklyn", "03/01/2019", "Cycle", "04L", "Critical", 31.0},
		{"11", "Brooklyn", "03/01/2019", "Cycle", "04M", "Critical", 31.0},
		{"11", "Brooklyn", "03/01/2019", "Cycle", "10B", "Not Critical", 31.0},
	})

	out, _, err := NewAggregator().Aggregate(raw)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	crit, _ := out.Floats("critical_violations")
	total, _ := out.Floats("total_violations")
	for i := range crit {
		if crit[i] > total[i] {
			t.Errorf("row %d: critical %v > total %v", i, crit[i], total[i])
		}
		if total[i] < 1 {
			t.Errorf("row %d: total %v < 1", i, total[i])
		}
	}
}

func TestAggregateDistinctEventsNotMerged(t *testing.T) {
	// Same entity, two visits on different dates: grouping must keep them
	// apart even though entity, type and score coincide.
	raw := buildRaw(t, []rawRow{
		{"42", "Queens", "01/15/2019", "Cycle", "04H", "Critical", 13.0},
		{"42", "Queens", "07/20/2019", "Cycle", "06D", "Critical", 13.0},
	})

	out, _, err := NewAggregator().Aggregate(raw)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if out.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2 distinct inspection events", out.NumRows())
	}
}

func TestAggregateZeroViolationPlaceholderRow(t *testing.T) {
	// A clean inspection encoded as a single row with an empty code stays
	// in the output with an empty codes column.
	raw := buildRaw(t, []rawRow{
		{"77", "Staten Island", "02/02/2019", "Cycle", "", "Not Applicable", 0.0},
	})

	out, _, err := NewAggregator().Aggregate(raw)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if out.NumRows() != 1 {
		t.Fatalf("NumRows = %d, want 1", out.NumRows())
	}
	row := out.Row(0)
	if row["codes"] != "" {
		t.Errorf("codes = %q, want empty", row["codes"])
	}
	if row["total_violations"] != 1.0 || row["critical_violations"] != 0.0 {
		t.Errorf("counts = (%v, %v), want (0, 1)",
			row["critical_violations"], row["total_violations"])
	}
}

func TestAggregateDeterministicOrderAcrossPartitionCounts(t *testing.T) {
	var rows []rawRow
	entities := []string{"905", "113", "547", "200", "881", "362"}
	for i := 0; i < 300; i++ {
		e := entities[i%len(entities)]
		rows = append(rows, rawRow{
			e, "Manhattan", "04/24/2018", "Cycle", "04H", "Critical",
			float64(10 + i%3),
		})
	}
	raw := buildRaw(t, rows)

	sequential, _, err := NewAggregator(WithWorkers(1)).Aggregate(raw)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	parallel4, _, err := NewAggregator(WithWorkers(4)).Aggregate(raw)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	if sequential.NumRows() != parallel4.NumRows() {
		t.Fatalf("row counts differ: %d vs %d", sequential.NumRows(), parallel4.NumRows())
	}
	for i := 0; i < sequential.NumRows(); i++ {
		a, b := sequential.Row(i), parallel4.Row(i)
		for _, col := range []string{"entity_id", "codes", "score", "critical_violations", "total_violations"} {
			if a[col] != b[col] {
				t.Fatalf("row %d column %s differs: %v vs %v", i, col, a[col], b[col])
			}
		}
	}

	// Output is ordered by entity id.
	ids, _ := sequential.Strings("entity_id")
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Fatalf("output not sorted by entity id: %q before %q", ids[i-1], ids[i])
		}
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	raw := buildRaw(t, []rawRow{
		{"41720083", "Manhattan", "04/24/2018", "Cycle Inspection / Re-inspection", "04H", "Critical", 12.0},
		{"41720083", "Manhattan", "04/24/2018", "Cycle Inspection / Re-inspection", "09C", "Not Critical", 12.0},
	})

	out, _, err := NewAggregator().Aggregate(raw)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "dataset.csv")
	if err := WriteDataset(out, path); err != nil {
		t.Fatalf("WriteDataset failed: %v", err)
	}

	back, err := ReadDataset(path)
	if err != nil {
		t.Fatalf("ReadDataset failed: %v", err)
	}
	if back.NumRows() != out.NumRows() {
		t.Fatalf("round trip row count = %d, want %d", back.NumRows(), out.NumRows())
	}
	for i := 0; i < out.NumRows(); i++ {
		a, b := out.Row(i), back.Row(i)
		for k, v := range a {
			fv, isFloat := v.(float64)
			if isFloat && math.IsNaN(fv) {
				continue
			}
			if b[k] != v {
				t.Errorf("row %d column %s = %v, want %v", i, k, b[k], v)
			}
		}
	}
}
