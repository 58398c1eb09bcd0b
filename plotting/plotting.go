// Package plotting renders diagnostic charts for evaluation runs.
package plotting

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/civicdata/inspectscore/pkg/errors"
)

// SavePredictedActual writes a predicted-vs-actual scatter with an
// identity line to path. Points on the line are perfect predictions.
func SavePredictedActual(yTrue, yPred *mat.VecDense, title, path string) (err error) {
	defer errors.Recover(&err, "plotting.SavePredictedActual")

	if yTrue.Len() != yPred.Len() {
		return errors.NewDimensionError("plotting.SavePredictedActual", yTrue.Len(), yPred.Len(), 0)
	}
	if yTrue.Len() == 0 {
		return errors.NewModelError("plotting.SavePredictedActual", "empty data", errors.ErrEmptyData)
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Actual score"
	p.Y.Label.Text = "Predicted score"

	pts := make(plotter.XYs, yTrue.Len())
	lo, hi := yTrue.AtVec(0), yTrue.AtVec(0)
	for i := 0; i < yTrue.Len(); i++ {
		pts[i].X = yTrue.AtVec(i)
		pts[i].Y = yPred.AtVec(i)
		for _, v := range []float64{yTrue.AtVec(i), yPred.AtVec(i)} {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "plotting.SavePredictedActual")
	}
	scatter.Color = plotter.DefaultLineStyle.Color
	p.Add(scatter)
	p.Legend.Add("Inspections", scatter)

	identity := plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}}
	line, err := plotter.NewLine(identity)
	if err != nil {
		return errors.Wrap(err, "plotting.SavePredictedActual")
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("Perfect prediction", line)

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, "plotting.SavePredictedActual")
	}
	return nil
}
