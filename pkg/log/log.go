// Package log provides structured logging for pipeline stages and
// estimators, backed by rs/zerolog.
//
// Components obtain a named logger either from a LoggerProvider owned by a
// session, or from the package-level default provider:
//
//	logger := log.GetLoggerWithName("aggregator").With(
//		log.ComponentKey, "inspection",
//	)
//	logger.Info("Aggregation completed", log.RowsKey, n)
//
// Fields are alternating key/value pairs; odd trailing values are dropped.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Standard field keys used across the pipeline.
const (
	ComponentKey  = "component"
	ModelNameKey  = "model"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	SamplesKey    = "samples"
	FeaturesKey   = "features"
	RowsKey       = "rows"
	GroupsKey     = "groups"
	ColumnKey     = "column"
	PredsKey      = "predictions"
	CandidateKey  = "candidate"
	WorkersKey    = "workers"
	DurationMsKey = "duration_ms"
	ElapsedMsKey  = "elapsed_ms"
	BudgetMsKey   = "budget_ms"
	SeedKey       = "seed"
	PathKey       = "path"
)

// Standard values for the operation field.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationAggregate = "aggregate"
	OperationSplit     = "split"
	OperationSearch    = "search"
	OperationEvaluate  = "evaluate"
	OperationLoad      = "load"
	OperationSave      = "save"
)

// Standard values for the phase field.
const (
	PhaseData      = "data"
	PhaseTraining  = "training"
	PhaseInference = "inference"
)

// Logger is the structured logging interface used by all components.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})

	// With returns a child logger carrying the given fields.
	With(keysAndValues ...interface{}) Logger
}

// LoggerProvider constructs named loggers.
type LoggerProvider interface {
	GetLoggerWithName(name string) Logger
}

// ToLogLevel converts a level name ("debug", "info", "warn", "error") to a
// zerolog level. Unknown names fall back to info.
func ToLogLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

type zerologProvider struct {
	root zerolog.Logger
}

// NewZerologProvider creates a LoggerProvider writing JSON lines to stderr
// at the given level.
func NewZerologProvider(level zerolog.Level) LoggerProvider {
	return NewZerologProviderWithWriter(level, os.Stderr)
}

// NewZerologProviderWithWriter creates a LoggerProvider writing to w.
// Tests pass an in-memory buffer or io.Discard.
func NewZerologProviderWithWriter(level zerolog.Level, w io.Writer) LoggerProvider {
	root := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return &zerologProvider{root: root}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	return &zerologLogger{zl: p.root.With().Str("logger", name).Logger()}
}

type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Debug(), msg, keysAndValues)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Info(), msg, keysAndValues)
}

func (l *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Warn(), msg, keysAndValues)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	emit(l.zl.Error(), msg, keysAndValues)
}

func (l *zerologLogger) With(keysAndValues ...interface{}) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keysAndValues[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func emit(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}

var (
	defaultMu       sync.RWMutex
	defaultProvider LoggerProvider
)

// SetDefaultProvider replaces the package default provider. Sessions call
// this once at startup so estimators constructed without an explicit
// provider log consistently.
func SetDefaultProvider(p LoggerProvider) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultProvider = p
}

// GetLoggerWithName returns a named logger from the default provider,
// initializing it at info level on first use.
func GetLoggerWithName(name string) Logger {
	defaultMu.RLock()
	p := defaultProvider
	defaultMu.RUnlock()
	if p == nil {
		defaultMu.Lock()
		if defaultProvider == nil {
			defaultProvider = NewZerologProvider(zerolog.InfoLevel)
		}
		p = defaultProvider
		defaultMu.Unlock()
	}
	return p.GetLoggerWithName(name)
}
