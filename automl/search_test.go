package automl

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/civicdata/inspectscore/core/frame"
	"github.com/civicdata/inspectscore/inspection"
	"github.com/civicdata/inspectscore/linear"
	"github.com/civicdata/inspectscore/pipeline"
	"github.com/civicdata/inspectscore/pkg/errors"
)

// searchFrame builds an aggregated dataset over many entities with a
// noiseless linear relationship, so least squares candidates score near
// zero validation error.
func searchFrame(t *testing.T) *frame.Frame {
	t.Helper()

	boroughs := []string{"Manhattan", "Brooklyn", "Queens", "Bronx"}
	types := []string{
		"Cycle Inspection / Initial Inspection",
		"Cycle Inspection / Re-inspection",
	}
	codes := []string{"04H", "06D,09C", "04H,10F", ""}

	f := frame.New(inspection.DatasetSchema())
	for i := 0; i < 40; i++ {
		entity := fmt.Sprintf("4%07d", i)
		for j := 0; j < 2; j++ {
			critical := float64((i + j) % 3)
			total := critical + 1
			score := 5*critical + 2*total + float64(i%4)
			err := f.Append(
				entity,
				boroughs[i%len(boroughs)],
				types[j],
				score,
				codes[(i+j)%len(codes)],
				critical,
				total,
			)
			if err != nil {
				t.Fatalf("building frame: %v", err)
			}
		}
	}
	return f
}

// failingEstimator always fails to fit.
type failingEstimator struct{}

func (failingEstimator) Fit(X, y mat.Matrix) error {
	return errors.New("synthetic fit failure")
}
func (failingEstimator) Predict(X mat.Matrix) (mat.Matrix, error) {
	return nil, errors.New("not fitted")
}
func (failingEstimator) Coef() []float64 { return nil }

func (failingEstimator) Intercept() float64 { return 0 }

func (failingEstimator) Restore([]float64, float64) {}

func (failingEstimator) Kind() string { return "failing" }

func failingSpec(name string) CandidateSpec {
	return CandidateSpec{
		Name:   name,
		Params: map[string]interface{}{},
		New:    func(int64) pipeline.Estimator { return failingEstimator{} },
	}
}

func TestSearchPicksLowestValidationMSE(t *testing.T) {
	train := searchFrame(t)

	engine := NewEngine(
		WithWorkers(2),
		WithSeed(11),
	)
	result, err := engine.Search(context.Background(), train, time.Minute)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if result.Best == nil || result.BestPipeline == nil {
		t.Fatal("expected a winning candidate and pipeline")
	}
	if len(result.Candidates) == 0 {
		t.Fatal("expected attempted candidates")
	}

	for _, c := range result.Candidates {
		if c.Err != nil {
			continue
		}
		if c.MSE < result.Best.MSE {
			t.Errorf("candidate %q has MSE %v below winner's %v", c.Name, c.MSE, result.Best.MSE)
		}
	}

	// The winner must score each validation row to a finite value.
	preds, err := result.BestPipeline.Predict(train)
	if err != nil {
		t.Fatalf("winning pipeline Predict failed: %v", err)
	}
	for i := 0; i < preds.Len(); i++ {
		if math.IsNaN(preds.AtVec(i)) {
			t.Fatalf("prediction %d is NaN", i)
		}
	}
}

func TestSearchDeterministicWinner(t *testing.T) {
	train := searchFrame(t)

	run := func() string {
		engine := NewEngine(WithSeed(5), WithWorkers(4))
		result, err := engine.Search(context.Background(), train, time.Minute)
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		return result.Best.Name
	}

	if a, b := run(), run(); a != b {
		t.Errorf("same seed picked different winners: %q vs %q", a, b)
	}
}

func TestSearchToleratesFailingCandidate(t *testing.T) {
	train := searchFrame(t)

	catalog := []CandidateSpec{
		failingSpec("broken"),
		{
			Name:   "ridge(alpha=1)",
			Params: map[string]interface{}{"alpha": 1.0},
			New: func(int64) pipeline.Estimator {
				return linear.NewRidgeRegression(linear.WithRidgeAlpha(1.0))
			},
		},
	}

	engine := NewEngine(WithCatalog(catalog), WithSeed(3))
	result, err := engine.Search(context.Background(), train, time.Minute)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if result.Best.Name != "ridge(alpha=1)" {
		t.Errorf("winner = %q, want the surviving candidate", result.Best.Name)
	}

	var sawFailure bool
	for _, c := range result.Candidates {
		if c.Name != "broken" {
			continue
		}
		sawFailure = true
		if c.Err == nil {
			t.Error("broken candidate should carry its error")
		}
		var cf *errors.CandidateFitError
		if !errors.As(c.Err, &cf) {
			t.Errorf("expected CandidateFitError, got %T", c.Err)
		}
	}
	if !sawFailure {
		t.Error("broken candidate missing from attempted results")
	}
}

func TestSearchAllCandidatesFail(t *testing.T) {
	train := searchFrame(t)

	engine := NewEngine(WithCatalog([]CandidateSpec{
		failingSpec("broken-a"),
		failingSpec("broken-b"),
	}))
	_, err := engine.Search(context.Background(), train, time.Minute)
	if err == nil {
		t.Fatal("expected error when every candidate fails")
	}
	var ex *errors.ExperimentExhaustedError
	if !errors.As(err, &ex) {
		t.Errorf("expected ExperimentExhaustedError, got %T: %v", err, err)
	}
}

func TestSearchExpiredBudgetSkipsCandidates(t *testing.T) {
	train := searchFrame(t)

	engine := NewEngine()
	_, err := engine.Search(context.Background(), train, time.Nanosecond)
	if err == nil {
		t.Fatal("expected error when the budget expires before any candidate runs")
	}
	var ex *errors.ExperimentExhaustedError
	if !errors.As(err, &ex) {
		t.Errorf("expected ExperimentExhaustedError, got %T: %v", err, err)
	}
}

func TestSearchRejectsNonPositiveBudget(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.Search(context.Background(), searchFrame(t), 0); err == nil {
		t.Error("expected error for zero budget")
	}
}
