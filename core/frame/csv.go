package frame

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
)

// Options controls delimited-text reading.
type Options struct {
	// Delimiter is the field separator. Zero means comma.
	Delimiter rune

	// Header indicates the first row carries column names.
	Header bool

	// LazyQuotes relaxes quote handling, accepting bare quotes inside
	// unquoted fields.
	LazyQuotes bool

	// Schema, when non-nil, declares the column layout explicitly. A
	// column-count conflict with the source is a SchemaMismatchError.
	Schema Schema

	// Inference chooses column types when Schema is nil. Nil selects
	// WideningInference over the first 1000 rows.
	Inference InferenceStrategy

	// Logger receives load diagnostics. Nil uses the default provider.
	Logger log.Logger
}

// LoadReport summarizes a load: how many source rows were read and how many
// were dropped as malformed.
type LoadReport struct {
	RowsRead    int
	RowsDropped int
}

// ReadCSV reads delimited text into a frame.
//
// With an explicit schema, a source whose column count conflicts fails with
// SchemaMismatchError; individual rows with the wrong field count or an
// unparseable typed cell are dropped and counted, never fatal. With
// inference, types widen to the most general compatible type instead.
func ReadCSV(r io.Reader, opts Options) (*Frame, *LoadReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("frame")
	}

	cr := csv.NewReader(r)
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	cr.LazyQuotes = opts.LazyQuotes
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(err, "frame.ReadCSV: failed to read source")
	}

	var names []string
	if opts.Header {
		if len(records) == 0 {
			return nil, nil, errors.NewValueError("frame.ReadCSV", "source has no header row")
		}
		names = records[0]
		records = records[1:]
	}

	schema := opts.Schema
	if schema != nil {
		if names != nil && len(names) != len(schema) {
			return nil, nil, errors.NewSchemaMismatchError("frame.ReadCSV", len(schema), len(names))
		}
		if names == nil && len(records) > 0 && len(records[0]) != len(schema) {
			return nil, nil, errors.NewSchemaMismatchError("frame.ReadCSV", len(schema), len(records[0]))
		}
	} else {
		if names == nil {
			if len(records) == 0 {
				return nil, nil, errors.NewModelError("frame.ReadCSV", "empty source", errors.ErrEmptyData)
			}
			names = make([]string, len(records[0]))
			for j := range names {
				names[j] = fmt.Sprintf("c%d", j)
			}
		}

		inference := opts.Inference
		if inference == nil {
			inference = &WideningInference{SampleRows: 1000}
		}
		sample := make([][]string, 0, len(records))
		for _, rec := range records {
			if len(rec) == len(names) {
				sample = append(sample, rec)
			}
		}
		schema, err = inference.Infer(names, sample)
		if err != nil {
			return nil, nil, errors.Wrap(err, "frame.ReadCSV: schema inference failed")
		}
	}

	f := New(schema)
	report := &LoadReport{}
	for _, rec := range records {
		report.RowsRead++
		if len(rec) != len(schema) {
			report.RowsDropped++
			continue
		}
		if err := f.AppendText(rec); err != nil {
			report.RowsDropped++
		}
	}

	logger.Info("Source loaded",
		log.OperationKey, log.OperationLoad,
		log.PhaseKey, log.PhaseData,
		log.RowsKey, f.NumRows(),
		"rows_dropped", report.RowsDropped,
	)

	return f, report, nil
}

// LoadFile reads the delimited file at path, closing it on every exit path.
func LoadFile(path string, opts Options) (*Frame, *LoadReport, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "frame.LoadFile: failed to open %s", path)
	}
	defer func() { _ = file.Close() }()

	return ReadCSV(file, opts)
}

// WriteCSV writes a frame as delimited text. Null cells (empty strings,
// NaN floats) are written empty. Floats are written in their shortest
// round-trippable form.
func WriteCSV(f *Frame, w io.Writer, delimiter rune, header bool) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	schema := f.Schema()
	if header {
		if err := cw.Write(schema.Names()); err != nil {
			return errors.Wrap(err, "frame.WriteCSV: failed to write header")
		}
	}

	cells := make([]string, len(schema))
	for i := 0; i < f.NumRows(); i++ {
		for j, c := range schema {
			v, err := f.Value(i, c.Name)
			if err != nil {
				return err
			}
			switch c.Type {
			case Int:
				cells[j] = strconv.FormatInt(v.(int64), 10)
			case Float:
				fv := v.(float64)
				if math.IsNaN(fv) {
					cells[j] = ""
				} else {
					cells[j] = strconv.FormatFloat(fv, 'g', -1, 64)
				}
			default:
				cells[j] = v.(string)
			}
		}
		if err := cw.Write(cells); err != nil {
			return errors.Wrap(err, "frame.WriteCSV: failed to write row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "frame.WriteCSV")
}

// WriteFile writes a frame to the file at path, closing it on every exit
// path.
func WriteFile(f *Frame, path string, delimiter rune, header bool) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "frame.WriteFile: failed to create %s", path)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "frame.WriteFile: failed to close file")
		}
	}()

	return WriteCSV(f, file, delimiter, header)
}
