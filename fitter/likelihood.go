package fitter

import (
	"math"

	"github.com/pkg/errors"
)

// Sentinel marks a failed evaluation. It is finite so that rejected
// points stay comparable.
const Sentinel = -math.MaxFloat64

// Model computes predictions at x for the given parameters. The result
// must have the same length as x.
type Model func(x []float64, params ...float64) ([]float64, error)

// Evaluation is the outcome of one likelihood evaluation: either a log
// likelihood or an error.
type Evaluation struct {
	LogL float64
	Err  error
}

// OK returns true for a successful evaluation.
func (e Evaluation) OK() bool {
	return e.Err == nil
}

// Value returns the log likelihood, or Sentinel on failure.
func (e Evaluation) Value() float64 {
	if e.Err != nil {
		return Sentinel
	}
	return e.LogL
}

// Evaluate computes the chi-square log likelihood of params. Without
// errors the prediction itself is the variance of a point. Panics in
// the model, model errors, length mismatches and non-finite results
// (a zero variance among them) are returned as failures.
func Evaluate(model Model, obs *Observations, params []float64) (ev Evaluation) {
	defer func() {
		if r := recover(); r != nil {
			ev = Evaluation{Err: errors.Errorf("model panic: %v", r)}
		}
	}()

	pred, err := model(obs.X, params...)
	if err != nil {
		return Evaluation{Err: errors.Wrap(err, "model")}
	}
	if len(pred) != len(obs.Y) {
		return Evaluation{Err: errors.Errorf("model returned %d values, expected %d", len(pred), len(obs.Y))}
	}

	chi2 := 0.0
	for i, m := range pred {
		r := obs.Y[i] - m
		var w float64
		if obs.Err != nil {
			w = obs.Err[i] * obs.Err[i]
		} else {
			w = m
		}
		chi2 += r * r / w
	}
	l := -chi2 / 2
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return Evaluation{Err: errors.Errorf("non-finite log likelihood %v", l)}
	}
	return Evaluation{LogL: l}
}
