package fitter

import (
	"sort"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// FitResult is the outcome of a run. Samples and LogProbs have the same
// length and order; Best is the sample with the largest log
// probability (the first one on ties).
type FitResult struct {
	Names       []string
	Best        []float64
	BestLogProb float64
	Samples     [][]float64
	LogProbs    []float64
	// Filtered is the number of rejected chain entries.
	Filtered int
}

// Column returns the samples of parameter i.
func (r *FitResult) Column(i int) []float64 {
	col := make([]float64, len(r.Samples))
	for j, s := range r.Samples {
		col[j] = s[i]
	}
	return col
}

// ParameterSummary describes the marginal posterior of one parameter.
type ParameterSummary struct {
	Name   string  `json:"name"`
	Best   float64 `json:"best"`
	Median float64 `json:"median"`
	Lower  float64 `json:"lower"`
	Upper  float64 `json:"upper"`
}

// Summary is the goodness of fit and the credible intervals of a fit.
type Summary struct {
	Chi2        float64            `json:"chi2"`
	DoF         int                `json:"dof"`
	ReducedChi2 float64            `json:"reducedChi2"`
	PValue      float64            `json:"pValue"`
	Samples     int                `json:"samples"`
	Parameters  []ParameterSummary `json:"parameters"`
}

// Summarize computes the chi-square statistics of the best point and
// the 16%, 50% and 84% quantiles of every parameter.
func (e *Estimator) Summarize(res *FitResult) (*Summary, error) {
	if res == nil || len(res.Samples) == 0 {
		return nil, ErrNoValidSamples
	}
	dof := e.obs.Len() - e.space.Dim()
	if dof < 1 {
		return nil, errors.Errorf("not enough observations (%d) for %d parameters", e.obs.Len(), e.space.Dim())
	}

	chi2 := -2 * res.BestLogProb
	sum := &Summary{
		Chi2:        chi2,
		DoF:         dof,
		ReducedChi2: chi2 / float64(dof),
		PValue:      distuv.ChiSquared{K: float64(dof)}.Survival(chi2),
		Samples:     len(res.Samples),
		Parameters:  make([]ParameterSummary, len(res.Names)),
	}

	for i, name := range res.Names {
		col := res.Column(i)
		sort.Float64s(col)
		sum.Parameters[i] = ParameterSummary{
			Name:   name,
			Best:   res.Best[i],
			Median: stat.Quantile(0.5, stat.Empirical, col, nil),
			Lower:  stat.Quantile(0.16, stat.Empirical, col, nil),
			Upper:  stat.Quantile(0.84, stat.Empirical, col, nil),
		}
	}
	return sum, nil
}
