package automl

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/pipeline"
	"github.com/civicdata/inspectscore/pkg/errors"
	"github.com/civicdata/inspectscore/pkg/log"
	"github.com/civicdata/inspectscore/preprocessing"
	"github.com/civicdata/inspectscore/split"
)

// CandidateResult records one attempted candidate: its validation
// metrics on success, or the fit error on failure.
type CandidateResult struct {
	ID       string
	Name     string
	Params   map[string]interface{}
	MSE      float64
	R2       float64
	Duration time.Duration
	Err      error
}

// ExperimentResult is the outcome of a search: every attempted
// candidate, the winner, and the winning pipeline refitted on the full
// training frame.
type ExperimentResult struct {
	Candidates   []CandidateResult
	Best         *CandidateResult
	BestPipeline *pipeline.Pipeline
	Elapsed      time.Duration
	Skipped      int
}

// Engine runs candidate searches. Construct with NewEngine.
type Engine struct {
	catalog         []CandidateSpec
	features        preprocessing.FeatureSpec
	keyColumn       string
	holdoutFraction float64
	workers         int
	seed            int64
	logger          log.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithCatalog replaces the default candidate catalog.
func WithCatalog(catalog []CandidateSpec) EngineOption {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithFeatures sets the feature spec used to build candidate pipelines.
func WithFeatures(spec preprocessing.FeatureSpec) EngineOption {
	return func(e *Engine) {
		e.features = spec
	}
}

// WithKeyColumn sets the grouping column for the validation holdout.
func WithKeyColumn(name string) EngineOption {
	return func(e *Engine) {
		e.keyColumn = name
	}
}

// WithHoldoutFraction sets the validation holdout fraction.
func WithHoldoutFraction(fraction float64) EngineOption {
	return func(e *Engine) {
		e.holdoutFraction = fraction
	}
}

// WithWorkers sets the number of concurrent candidate fits.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithSeed seeds the holdout split and stochastic candidates.
func WithSeed(seed int64) EngineOption {
	return func(e *Engine) {
		e.seed = seed
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a search engine with the default catalog, the
// inspection feature spec, an entity-keyed 25% holdout and one worker.
func NewEngine(options ...EngineOption) *Engine {
	e := &Engine{
		catalog:         DefaultCatalog(),
		features:        preprocessing.InspectionFeatures(),
		keyColumn:       "entity_id",
		holdoutFraction: 0.25,
		workers:         1,
		seed:            1,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if e.logger == nil {
		e.logger = log.GetLoggerWithName("automl")
	}
	return e
}

// Search trains catalog candidates on an internal split of train until
// the budget expires and returns them ranked by validation MSE. The
// winner is refitted on all of train. Candidates already running when
// the deadline passes are allowed to finish; unstarted ones are skipped
// and counted, not failed. An error is returned only when no candidate
// at all succeeded.
func (e *Engine) Search(ctx context.Context, train *frame.Frame, budget time.Duration) (_ *ExperimentResult, err error) {
	defer errors.Recover(&err, "Engine.Search")

	if budget <= 0 {
		return nil, errors.NewValueError("Engine.Search", "budget must be positive")
	}
	if len(e.catalog) == 0 {
		return nil, errors.NewValueError("Engine.Search", "empty candidate catalog")
	}

	start := time.Now()

	splitter := &split.GroupSplitter{
		KeyColumn:    e.keyColumn,
		TestFraction: e.holdoutFraction,
		Seed:         e.seed,
	}
	fitFrame, valFrame, err := splitter.Split(train)
	if err != nil {
		return nil, err
	}

	deadline := start.Add(budget)
	searchCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	e.logger.Info("search started",
		log.OperationKey, log.OperationSearch,
		log.WorkersKey, e.workers,
		log.SeedKey, e.seed,
		log.BudgetMsKey, budget.Milliseconds(),
		"candidates", len(e.catalog),
		log.RowsKey, train.NumRows(),
	)

	// One private slot per candidate; workers never share a slot, so
	// no result locking is needed.
	slots := make([]*CandidateResult, len(e.catalog))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				slots[idx] = e.runCandidate(e.catalog[idx], fitFrame, valFrame)
			}
		}()
	}

	skipped := 0
feed:
	for idx := range e.catalog {
		// Stop feeding once the deadline passes; in-flight fits finish.
		if searchCtx.Err() != nil {
			skipped = len(e.catalog) - idx
			break
		}
		select {
		case jobs <- idx:
		case <-searchCtx.Done():
			skipped = len(e.catalog) - idx
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	result := &ExperimentResult{Skipped: skipped}
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		result.Candidates = append(result.Candidates, *slot)
		if slot.Err != nil {
			continue
		}
		if result.Best == nil || slot.MSE < result.Best.MSE {
			best := *slot
			result.Best = &best
		}
	}
	result.Elapsed = time.Since(start)

	if result.Best == nil {
		return nil, errors.NewExperimentExhaustedError(len(result.Candidates), result.Elapsed, budget)
	}

	// Refit the winner on the full frame so the returned pipeline has
	// seen every training row, holdout included.
	best, err := e.specByName(result.Best.Name)
	if err != nil {
		return nil, err
	}
	p := pipeline.New(e.features, best.New(e.seed))
	if err := p.Fit(train); err != nil {
		return nil, errors.NewCandidateFitError(best.Name, err)
	}
	result.BestPipeline = p

	e.logger.Info("search finished",
		log.OperationKey, log.OperationSearch,
		log.CandidateKey, result.Best.Name,
		"mse", result.Best.MSE,
		"attempted", len(result.Candidates),
		"skipped", skipped,
		log.ElapsedMsKey, result.Elapsed.Milliseconds(),
	)
	return result, nil
}

// runCandidate fits one candidate on fitFrame and scores it on valFrame.
// A fit or evaluation failure is captured in the result, never returned:
// one bad candidate must not abort the experiment.
func (e *Engine) runCandidate(spec CandidateSpec, fitFrame, valFrame *frame.Frame) *CandidateResult {
	start := time.Now()
	res := &CandidateResult{
		ID:     uuid.NewString(),
		Name:   spec.Name,
		Params: spec.Params,
		MSE:    math.NaN(),
		R2:     math.NaN(),
	}

	p := pipeline.New(e.features, spec.New(e.seed))
	if err := p.Fit(fitFrame); err != nil {
		res.Err = errors.NewCandidateFitError(spec.Name, err)
		res.Duration = time.Since(start)
		e.logger.Warn("candidate failed",
			log.CandidateKey, spec.Name,
			"error", res.Err.Error(),
		)
		return res
	}

	report, err := p.Evaluate(valFrame)
	if err != nil {
		res.Err = errors.NewCandidateFitError(spec.Name, err)
		res.Duration = time.Since(start)
		return res
	}

	res.MSE = report.MSE
	res.R2 = report.R2
	res.Duration = time.Since(start)

	e.logger.Debug("candidate scored",
		log.CandidateKey, spec.Name,
		"mse", res.MSE,
		log.DurationMsKey, res.Duration.Milliseconds(),
	)
	return res
}

func (e *Engine) specByName(name string) (CandidateSpec, error) {
	for _, spec := range e.catalog {
		if spec.Name == name {
			return spec, nil
		}
	}
	return CandidateSpec{}, errors.NewValueError("Engine.Search", "candidate not in catalog: "+name)
}
