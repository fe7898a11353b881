package main

import (
	"bitbucket.org/chiappo/chi2fit/fitter"
)

// RunSummary is storing chi2fit run summary information.
type RunSummary struct {
	// Version stores chi2fit version.
	Version string `json:"version"`
	// CommandLine is an array storing binary name and all command-line parameters.
	CommandLine []string `json:"commandLine"`
	// Seed is the seed used for random number generation initialization.
	Seed int64 `json:"seed"`
	// Model is the model name.
	Model string `json:"model"`
	// Ranges are the parameter ranges in the model order.
	Ranges []string `json:"ranges"`
	Scale  string   `json:"scale"`
	// Config is the sampler configuration.
	Config fitter.Config `json:"config"`
	// Best is the maximum likelihood parameter values.
	Best map[string]float64 `json:"best"`
	// BestLnP is the log posterior of Best.
	BestLnP float64 `json:"bestLnP"`
	// Kept is the number of samples after filtering.
	Kept     int `json:"kept"`
	Filtered int `json:"filtered"`
	// Summary is the goodness of fit, if it could be computed.
	Summary *fitter.Summary `json:"summary,omitempty"`
	// Refined is the result of the local optimization (if performed).
	Refined    map[string]float64 `json:"refined,omitempty"`
	RefinedLnP float64            `json:"refinedLnP,omitempty"`
	// Plots are the files written.
	Plots []string `json:"plots,omitempty"`
	// Time is the computations time in seconds.
	Time float64 `json:"time"`
}

// paramMap returns a name to value map.
func paramMap(names []string, values []float64) map[string]float64 {
	m := make(map[string]float64, len(names))
	for i, name := range names {
		m[name] = values[i]
	}
	return m
}
