// Package automl runs a time-budgeted search over a catalog of
// regression candidates, training each on an entity-disjoint split of the
// input and ranking them by validation error.
package automl

import (
	"fmt"

	"github.com/civicdata/inspectscore/linear"
	"github.com/civicdata/inspectscore/pipeline"
)

// CandidateSpec describes one entry of the search catalog: a display
// name, the hyperparameters it encodes, and a factory producing a fresh
// estimator. The factory takes the experiment seed so stochastic
// candidates stay reproducible across runs.
type CandidateSpec struct {
	Name   string
	Params map[string]interface{}
	New    func(seed int64) pipeline.Estimator
}

// DefaultCatalog returns the standard candidate set: ordinary least
// squares, a ridge sweep, and an SGD grid over learning rate schedule
// and regularization strength.
func DefaultCatalog() []CandidateSpec {
	catalog := []CandidateSpec{
		{
			Name:   "ols",
			Params: map[string]interface{}{},
			New: func(int64) pipeline.Estimator {
				return linear.NewLinearRegression()
			},
		},
	}

	for _, alpha := range []float64{0.01, 0.1, 1.0, 10.0} {
		alpha := alpha
		catalog = append(catalog, CandidateSpec{
			Name:   fmt.Sprintf("ridge(alpha=%g)", alpha),
			Params: map[string]interface{}{"alpha": alpha},
			New: func(int64) pipeline.Estimator {
				return linear.NewRidgeRegression(linear.WithRidgeAlpha(alpha))
			},
		})
	}

	for _, schedule := range []string{"constant", "invscaling"} {
		for _, eta0 := range []float64{0.001, 0.01} {
			for _, alpha := range []float64{0.0001, 0.001} {
				schedule, eta0, alpha := schedule, eta0, alpha
				catalog = append(catalog, CandidateSpec{
					Name: fmt.Sprintf("sgd(lr=%s,eta0=%g,alpha=%g)", schedule, eta0, alpha),
					Params: map[string]interface{}{
						"learning_rate": schedule,
						"eta0":          eta0,
						"alpha":         alpha,
					},
					New: func(seed int64) pipeline.Estimator {
						return linear.NewSGDRegressor(
							linear.WithSGDLearningRate(schedule),
							linear.WithSGDEta0(eta0),
							linear.WithSGDAlpha(alpha),
							linear.WithSGDRandomState(seed),
						)
					},
				})
			}
		}
	}

	return catalog
}
