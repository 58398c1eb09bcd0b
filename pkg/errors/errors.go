// Package errors defines the error taxonomy shared by every stage of the
// inspection scoring pipeline.
//
// Two families of errors live here:
//
//   - Estimator errors raised by models and transformers: NotFittedError,
//     DimensionError, ValueError, ModelError and the sentinel errors they
//     wrap (ErrEmptyData, ErrSingularMatrix, ...).
//   - Pipeline errors raised by the data and experiment stages:
//     SchemaMismatchError, InsufficientDataError, ExperimentExhaustedError
//     and CandidateFitError.
//
// All constructors produce errors that participate in Go 1.13+ error
// wrapping (errors.Is / errors.As) and, through cockroachdb/errors, carry
// stack traces visible with %+v formatting.
package errors

import (
	"fmt"
	"time"

	crdberrors "github.com/cockroachdb/errors"
)

// prefix is prepended to every root error raised by this module.
const prefix = "inspectscore: "

// Sentinel errors for common failure conditions. Sentinels carry no module
// prefix; the typed errors that wrap them add it.
var (
	// ErrEmptyData indicates an operation received no rows or no columns.
	ErrEmptyData = crdberrors.New("empty data")

	// ErrNotFitted indicates an estimator was used before training.
	ErrNotFitted = crdberrors.New("model is not fitted")

	// ErrSingularMatrix indicates a linear system could not be solved.
	ErrSingularMatrix = crdberrors.New("singular matrix")

	// ErrNotImplemented indicates a requested variant is not supported.
	ErrNotImplemented = crdberrors.New("not implemented")
)

// New creates a new error with a stack trace.
func New(msg string) error {
	return crdberrors.New(msg)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return crdberrors.Newf(format, args...)
}

// Wrap annotates err with a message, preserving the chain.
func Wrap(err error, msg string) error {
	return crdberrors.Wrap(err, msg)
}

// Wrapf annotates err with a formatted message, preserving the chain.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdberrors.Wrapf(err, format, args...)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return crdberrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return crdberrors.As(err, target)
}

// Recover converts a panic inside an estimator method into an error.
// Use as the first statement of a public method:
//
//	func (m *Model) Fit(X, y mat.Matrix) (err error) {
//		defer errors.Recover(&err, "Model.Fit")
//		...
//	}
func Recover(err *error, op string) {
	if r := recover(); r != nil {
		*err = crdberrors.Newf(prefix+"%s: panic: %v", op, r)
	}
}

// NotFittedError is returned when a model method requiring training is
// called on an untrained model.
type NotFittedError struct {
	ModelName string
	Method    string
}

// NewNotFittedError creates a NotFittedError for the given model and method.
func NewNotFittedError(modelName, method string) *NotFittedError {
	return &NotFittedError{ModelName: modelName, Method: method}
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf(prefix+"%s.%s: model is not fitted", e.ModelName, e.Method)
}

// Unwrap lets errors.Is(err, ErrNotFitted) succeed on NotFittedError values.
func (e *NotFittedError) Unwrap() error {
	return ErrNotFitted
}

// DimensionError reports a shape mismatch between expected and observed data.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int
}

// NewDimensionError creates a DimensionError for op along the given axis.
func NewDimensionError(op string, expected, got, axis int) *DimensionError {
	return &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf(prefix+"%s: dimension mismatch on axis %d: expected %d, got %d",
		e.Op, e.Axis, e.Expected, e.Got)
}

// ValueError reports an invalid argument or data value.
type ValueError struct {
	Op      string
	Message string
}

// NewValueError creates a ValueError for op.
func NewValueError(op, message string) *ValueError {
	return &ValueError{Op: op, Message: message}
}

func (e *ValueError) Error() string {
	return fmt.Sprintf(prefix+"%s: %s", e.Op, e.Message)
}

// ModelError wraps a lower-level error with model operation context.
type ModelError struct {
	Op      string
	Message string
	Err     error
}

// NewModelError creates a ModelError wrapping err.
func NewModelError(op, message string, err error) *ModelError {
	return &ModelError{Op: op, Message: message, Err: err}
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(prefix+"%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf(prefix+"%s: %s", e.Op, e.Message)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError reports a structural conflict between a declared
// schema and observed data. Column is empty for column-count conflicts and
// names the offending column otherwise.
type SchemaMismatchError struct {
	Op       string
	Column   string
	Expected int
	Got      int
}

// NewSchemaMismatchError reports a column-count conflict.
func NewSchemaMismatchError(op string, expected, got int) *SchemaMismatchError {
	return &SchemaMismatchError{Op: op, Expected: expected, Got: got}
}

// NewMissingColumnError reports a required column absent from the input.
func NewMissingColumnError(op, column string) *SchemaMismatchError {
	return &SchemaMismatchError{Op: op, Column: column}
}

func (e *SchemaMismatchError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf(prefix+"%s: schema mismatch: missing or incompatible column %q", e.Op, e.Column)
	}
	return fmt.Sprintf(prefix+"%s: schema mismatch: expected %d columns, got %d", e.Op, e.Expected, e.Got)
}

// InsufficientDataError is returned when a dataset is too small to split
// or train on.
type InsufficientDataError struct {
	Op       string
	Keys     int
	Fraction float64
}

// NewInsufficientDataError creates an InsufficientDataError for op given the
// observed distinct-key count and requested test fraction.
func NewInsufficientDataError(op string, keys int, fraction float64) *InsufficientDataError {
	return &InsufficientDataError{Op: op, Keys: keys, Fraction: fraction}
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf(prefix+"%s: insufficient data: %d distinct keys cannot produce non-empty partitions at fraction %.2f",
		e.Op, e.Keys, e.Fraction)
}

// ExperimentExhaustedError is returned when a model search finished without
// a single successful candidate.
type ExperimentExhaustedError struct {
	Attempted int
	Elapsed   time.Duration
	Budget    time.Duration
}

// NewExperimentExhaustedError creates an ExperimentExhaustedError carrying
// the attempted-candidate count and the elapsed time against the budget.
func NewExperimentExhaustedError(attempted int, elapsed, budget time.Duration) *ExperimentExhaustedError {
	return &ExperimentExhaustedError{Attempted: attempted, Elapsed: elapsed, Budget: budget}
}

func (e *ExperimentExhaustedError) Error() string {
	return fmt.Sprintf(prefix+"experiment exhausted: no viable candidate after %d attempts (elapsed %s of %s budget)",
		e.Attempted, e.Elapsed.Round(time.Millisecond), e.Budget)
}

// CandidateFitError records the failure of a single search candidate. It is
// recovered locally by the search engine and surfaced only through
// ExperimentResult entries.
type CandidateFitError struct {
	Candidate string
	Err       error
}

// NewCandidateFitError wraps err with the failing candidate's identifier.
func NewCandidateFitError(candidate string, err error) *CandidateFitError {
	return &CandidateFitError{Candidate: candidate, Err: err}
}

func (e *CandidateFitError) Error() string {
	return fmt.Sprintf(prefix+"candidate %s: fit failed: %v", e.Candidate, e.Err)
}

func (e *CandidateFitError) Unwrap() error {
	return e.Err
}
