// Package session provides the explicit execution context shared by the
// pipeline stages. A Session owns the logger provider, the base random
// seed, and the worker budget; it is created at startup, passed to each
// stage, and closed at shutdown. Nothing in the pipeline reaches for
// process-global state.
package session

import (
	"runtime"

	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
)

// Session is the execution context for one pipeline run.
type Session struct {
	provider log.LoggerProvider
	seed     int64
	workers  int
	closed   bool
}

// Option configures a Session.
type Option func(*Session)

// WithSeed sets the base random seed. All derived randomness (splits,
// candidate shuffling) is deterministic given the seed.
func WithSeed(seed int64) Option {
	return func(s *Session) { s.seed = seed }
}

// WithWorkers caps concurrent workers for parallel stages.
func WithWorkers(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithLoggerProvider sets the logger provider.
func WithLoggerProvider(p log.LoggerProvider) Option {
	return func(s *Session) { s.provider = p }
}

// WithLogLevel configures a stderr zerolog provider at the named level.
func WithLogLevel(level string) Option {
	return func(s *Session) {
		s.provider = log.NewZerologProvider(log.ToLogLevel(level))
	}
}

// New creates a Session. Defaults: seed 1, one worker per logical CPU,
// info-level logging to stderr.
func New(opts ...Option) *Session {
	s := &Session{
		seed:    1,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.provider == nil {
		s.provider = log.NewZerologProvider(log.ToLogLevel("info"))
	}
	log.SetDefaultProvider(s.provider)
	return s
}

// Logger returns a named logger from the session's provider.
func (s *Session) Logger(name string) log.Logger {
	return s.provider.GetLoggerWithName(name)
}

// Seed returns the base random seed.
func (s *Session) Seed() int64 {
	return s.seed
}

// Workers returns the worker budget.
func (s *Session) Workers() int {
	return s.workers
}

// Close releases the session. Using a closed session is a programming
// error surfaced by Err.
func (s *Session) Close() error {
	s.closed = true
	return nil
}

// Err returns an error if the session has been closed.
func (s *Session) Err() error {
	if s.closed {
		return errors.New("inspectscore: session is closed")
	}
	return nil
}
