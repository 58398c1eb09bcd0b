package inspection

import (
	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/pkg/errors"
)

// WriteDataset persists an aggregated dataset as headerless delimited text
// in the fixed DatasetSchema column order.
func WriteDataset(f *frame.Frame, path string) error {
	if !f.Schema().Equal(DatasetSchema()) {
		return errors.NewSchemaMismatchError("inspection.WriteDataset",
			len(DatasetSchema()), f.NumCols())
	}
	return frame.WriteFile(f, path, ',', false)
}

// ReadDataset loads a processed dataset written by WriteDataset. The schema
// is declared, not inferred; a column-count conflict is a
// SchemaMismatchError.
func ReadDataset(path string) (*frame.Frame, error) {
	f, _, err := frame.LoadFile(path, frame.Options{
		Schema: DatasetSchema(),
	})
	return f, err
}
