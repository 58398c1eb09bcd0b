package frame

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// InferenceStrategy determines column types from sampled raw cells. It is
// independent of the loader so alternative policies can be tested and
// substituted.
type InferenceStrategy interface {
	// Infer returns a schema for the given column names and sampled rows.
	// Every sampled row has len(names) cells.
	Infer(names []string, sample [][]string) (Schema, error)
}

// WideningInference infers the narrowest type that fits every sampled cell
// of a column, widening Int -> Float -> String on conflict instead of
// failing. Empty cells are nulls and do not narrow the type, except that an
// Int column containing nulls widens to Float (NaN is the only null
// representation for numeric columns).
type WideningInference struct {
	// SampleRows caps how many rows are examined per column. Zero means
	// all provided rows.
	SampleRows int
}

// Infer implements InferenceStrategy.
func (w *WideningInference) Infer(names []string, sample [][]string) (Schema, error) {
	limit := len(sample)
	if w.SampleRows > 0 && w.SampleRows < limit {
		limit = w.SampleRows
	}

	schema := make(Schema, len(names))
	for j, name := range names {
		schema[j] = Column{Name: name, Type: w.inferColumn(j, sample[:limit])}
	}
	return schema, nil
}

func (w *WideningInference) inferColumn(j int, sample [][]string) DType {
	t := Int
	seen := false
	for _, row := range sample {
		cell := strings.TrimSpace(row[j])
		if cell == "" {
			// Null: an Int column cannot represent it.
			if t == Int {
				t = Float
			}
			continue
		}
		seen = true

		switch t {
		case Int:
			if _, err := cast.ToInt64E(cell); err == nil {
				continue
			}
			t = Float
			fallthrough
		case Float:
			if _, err := cast.ToFloat64E(cell); err == nil {
				continue
			}
			t = String
		case String:
			return String
		}
	}

	if !seen {
		// Nothing but nulls: the most general compatible type.
		return String
	}
	return t
}

// DeclaredSchema is an InferenceStrategy that returns a fixed schema,
// validating only the column count. Used when the caller already knows the
// layout, for example when reading back a processed dataset.
type DeclaredSchema struct {
	Schema Schema
}

// Infer implements InferenceStrategy.
func (d *DeclaredSchema) Infer(names []string, _ [][]string) (Schema, error) {
	if len(names) != len(d.Schema) {
		return nil, fmt.Errorf("declared schema has %d columns, source has %d",
			len(d.Schema), len(names))
	}
	return d.Schema.Clone(), nil
}
