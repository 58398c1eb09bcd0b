// Package model provides the shared estimator abstractions for the
// pipeline: fitted-state tracking and gob-based persistence.
//
// Estimators either embed BaseEstimator (transformers with little state) or
// compose a StateManager (models that also track training dimensions):
//
//	type MyModel struct {
//		State *model.StateManager
//	}
//
//	func (m *MyModel) Fit(X, y mat.Matrix) error {
//		// training logic
//		m.State.SetFitted()
//		return nil
//	}
package model

import "sync"

// EstimatorState represents the learning state of a model.
type EstimatorState int

const (
	// NotFitted indicates the model is not yet trained.
	NotFitted EstimatorState = iota
	// Fitted indicates the model has been trained.
	Fitted
)

// StateManager tracks an estimator's fitted state and training dimensions.
// Safe for concurrent readers; the exported fields exist for gob encoding.
type StateManager struct {
	mu sync.RWMutex

	// State holds the learning state. Public for gob encoding.
	State EstimatorState

	// NFeatures and NSamples record the training data dimensions.
	NFeatures int
	NSamples  int
}

// NewStateManager creates an untrained StateManager.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the estimator has been trained.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.State == Fitted
}

// SetFitted marks the estimator as trained. Called by estimator
// implementations at the end of a successful Fit.
func (s *StateManager) SetFitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = Fitted
}

// Reset returns the estimator to its untrained state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State = NotFitted
	s.NFeatures = 0
	s.NSamples = 0
}

// SetDimensions records the training data dimensions.
func (s *StateManager) SetDimensions(nFeatures, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NFeatures = nFeatures
	s.NSamples = nSamples
}

// Dimensions returns the recorded training dimensions.
func (s *StateManager) Dimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.NFeatures, s.NSamples
}

// BaseEstimator is the embeddable base for transformers that only need
// fitted-state gating.
type BaseEstimator struct {
	// State holds the learning state. Public for gob encoding.
	State EstimatorState
}

// IsFitted returns whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted marks the estimator as fitted. Should only be called by
// estimator implementations.
func (e *BaseEstimator) SetFitted() {
	e.State = Fitted
}

// Reset returns the estimator to its initial untrained state.
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
}
