package fitter

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/optimize"
)

// Refinement is the result of a local maximization started from the
// best sample.
type Refinement struct {
	Best        []float64
	LogProb     float64
	Status      optimize.Status
	Evaluations int
	Improved    bool
}

// Refine maximizes the log posterior with the Nelder-Mead simplex
// starting from res.Best. The returned point is never worse than the
// start.
func (e *Estimator) Refine(res *FitResult, maxIter int) (*Refinement, error) {
	if res == nil || len(res.Best) != e.space.Dim() {
		return nil, errors.New("no best point to refine")
	}
	x0, err := e.space.FromReported(res.Best)
	if err != nil {
		return nil, err
	}
	start := e.LogPosterior(x0)
	if math.IsInf(start, -1) {
		return nil, errors.Errorf("start point %v is outside of the prior", res.Best)
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			return -e.LogPosterior(x)
		},
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
	}
	r, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, errors.Wrap(err, "refinement")
	}

	ref := &Refinement{
		Status:      r.Status,
		Evaluations: r.Stats.FuncEvaluations,
	}
	x, l := x0, start
	if -r.F > start {
		x, l = r.X, -r.F
		ref.Improved = true
	}
	if ref.Best, err = e.space.ToReported(x); err != nil {
		return nil, err
	}
	ref.LogProb = l
	log.Infof("Refined lnP=%f (from %f), status %v", l, start, r.Status)
	return ref, nil
}
