// Package frame provides the in-memory columnar dataset the pipeline
// stages exchange: named, typed columns with deterministic row order, plus
// delimited-text loading with pluggable schema inference.
package frame

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/civicdata/inspectscore/pkg/errors"
)

// DType is the type of a column.
type DType int

const (
	// String columns hold arbitrary text; empty string encodes null.
	String DType = iota
	// Int columns hold 64-bit integers.
	Int
	// Float columns hold 64-bit floats; NaN encodes null.
	Float
)

// String returns the type name.
func (d DType) String() string {
	switch d {
	case Int:
		return "int"
	case Float:
		return "float"
	default:
		return "string"
	}
}

// Column is a named, typed column declaration.
type Column struct {
	Name string
	Type DType
}

// Schema is an ordered list of column declarations.
type Schema []Column

// Index returns the position of the named column, or -1.
func (s Schema) Index(name string) int {
	for i, c := range s {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Equal reports whether two schemas have identical columns in order.
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the schema.
func (s Schema) Clone() Schema {
	out := make(Schema, len(s))
	copy(out, s)
	return out
}

// String renders the schema as "name:type, ...".
func (s Schema) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + ":" + c.Type.String()
	}
	return strings.Join(parts, ", ")
}

// Frame is a columnar dataset. Rows are addressed by position; columns by
// name. Frames are written once by their producer and treated as immutable
// by consumers.
type Frame struct {
	schema Schema
	strs   [][]string
	ints   [][]int64
	floats [][]float64
	n      int
}

// New creates an empty frame with the given schema.
func New(schema Schema) *Frame {
	f := &Frame{
		schema: schema.Clone(),
		strs:   make([][]string, len(schema)),
		ints:   make([][]int64, len(schema)),
		floats: make([][]float64, len(schema)),
	}
	return f
}

// Schema returns the frame's schema.
func (f *Frame) Schema() Schema {
	return f.schema.Clone()
}

// NumRows returns the number of rows.
func (f *Frame) NumRows() int {
	return f.n
}

// NumCols returns the number of columns.
func (f *Frame) NumCols() int {
	return len(f.schema)
}

// Append adds one row. Values are given in schema order and coerced to the
// column type; nil coerces to the column's null value (empty string for
// String, NaN for Float) and is rejected for Int columns.
func (f *Frame) Append(values ...interface{}) error {
	if len(values) != len(f.schema) {
		return errors.NewSchemaMismatchError("Frame.Append", len(f.schema), len(values))
	}

	for j, v := range values {
		switch f.schema[j].Type {
		case String:
			if v == nil {
				f.strs[j] = append(f.strs[j], "")
				continue
			}
			s, err := cast.ToStringE(v)
			if err != nil {
				return errors.NewValueError("Frame.Append",
					"cannot coerce value to string column "+f.schema[j].Name)
			}
			f.strs[j] = append(f.strs[j], s)
		case Int:
			iv, err := cast.ToInt64E(v)
			if err != nil {
				return errors.NewValueError("Frame.Append",
					"cannot coerce value to int column "+f.schema[j].Name)
			}
			f.ints[j] = append(f.ints[j], iv)
		case Float:
			if v == nil {
				f.floats[j] = append(f.floats[j], math.NaN())
				continue
			}
			fv, err := cast.ToFloat64E(v)
			if err != nil {
				return errors.NewValueError("Frame.Append",
					"cannot coerce value to float column "+f.schema[j].Name)
			}
			f.floats[j] = append(f.floats[j], fv)
		}
	}

	f.n++
	return nil
}

// AppendText adds one row given as raw text cells, parsing each cell
// according to the column type. Empty cells are null for String and Float
// columns and invalid for Int columns.
func (f *Frame) AppendText(cells []string) error {
	if len(cells) != len(f.schema) {
		return errors.NewSchemaMismatchError("Frame.AppendText", len(f.schema), len(cells))
	}

	values := make([]interface{}, len(cells))
	for j, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" && f.schema[j].Type != Int {
			values[j] = nil
			continue
		}
		values[j] = cell
	}
	return f.Append(values...)
}

// Strings returns the backing slice of a String column. The slice must not
// be mutated by the caller.
func (f *Frame) Strings(name string) ([]string, error) {
	j := f.schema.Index(name)
	if j < 0 {
		return nil, errors.NewMissingColumnError("Frame.Strings", name)
	}
	if f.schema[j].Type != String {
		return nil, errors.NewValueError("Frame.Strings", "column "+name+" is not a string column")
	}
	return f.strs[j], nil
}

// Floats returns the backing slice of a Float column.
func (f *Frame) Floats(name string) ([]float64, error) {
	j := f.schema.Index(name)
	if j < 0 {
		return nil, errors.NewMissingColumnError("Frame.Floats", name)
	}
	if f.schema[j].Type != Float {
		return nil, errors.NewValueError("Frame.Floats", "column "+name+" is not a float column")
	}
	return f.floats[j], nil
}

// Ints returns the backing slice of an Int column.
func (f *Frame) Ints(name string) ([]int64, error) {
	j := f.schema.Index(name)
	if j < 0 {
		return nil, errors.NewMissingColumnError("Frame.Ints", name)
	}
	if f.schema[j].Type != Int {
		return nil, errors.NewValueError("Frame.Ints", "column "+name+" is not an int column")
	}
	return f.ints[j], nil
}

// Value returns the cell at row i of the named column.
func (f *Frame) Value(i int, name string) (interface{}, error) {
	j := f.schema.Index(name)
	if j < 0 {
		return nil, errors.NewMissingColumnError("Frame.Value", name)
	}
	if i < 0 || i >= f.n {
		return nil, errors.NewValueError("Frame.Value", "row index out of range")
	}
	switch f.schema[j].Type {
	case Int:
		return f.ints[j][i], nil
	case Float:
		return f.floats[j][i], nil
	default:
		return f.strs[j][i], nil
	}
}

// Row returns row i as a name-to-value map.
func (f *Frame) Row(i int) map[string]interface{} {
	row := make(map[string]interface{}, len(f.schema))
	for _, c := range f.schema {
		v, err := f.Value(i, c.Name)
		if err != nil {
			continue
		}
		row[c.Name] = v
	}
	return row
}

// Filter returns a new frame containing the rows where mask is true. The
// mask length must equal the row count.
func (f *Frame) Filter(mask []bool) (*Frame, error) {
	if len(mask) != f.n {
		return nil, errors.NewDimensionError("Frame.Filter", f.n, len(mask), 0)
	}

	out := New(f.schema)
	for j := range f.schema {
		switch f.schema[j].Type {
		case String:
			for i, keep := range mask {
				if keep {
					out.strs[j] = append(out.strs[j], f.strs[j][i])
				}
			}
		case Int:
			for i, keep := range mask {
				if keep {
					out.ints[j] = append(out.ints[j], f.ints[j][i])
				}
			}
		case Float:
			for i, keep := range mask {
				if keep {
					out.floats[j] = append(out.floats[j], f.floats[j][i])
				}
			}
		}
	}
	for _, keep := range mask {
		if keep {
			out.n++
		}
	}
	return out, nil
}
