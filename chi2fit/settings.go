package main

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"bitbucket.org/chiappo/chi2fit/fitter"
	"bitbucket.org/chiappo/chi2fit/params"
)

// settings stores everything needed for a fit. It is read from the
// optional JSON file and then overridden by command-line flags.
type settings struct {
	Model  string   `json:"model"`
	Ranges []string `json:"ranges"`
	Prior  string   `json:"prior"`
	Scale  string   `json:"scale"`
	Seed   int64    `json:"seed"`
	Refine int      `json:"refine"`
	fitter.Config
}

// defaultSettings returns settings used when nothing is specified.
func defaultSettings() settings {
	return settings{
		Model:  "linear",
		Prior:  "uniform",
		Scale:  "linear",
		Seed:   -1,
		Config: fitter.DefaultConfig(),
	}
}

// readSettings updates s with values present in a JSON file.
func readSettings(fn string, s *settings) error {
	b, err := os.ReadFile(fn)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, s); err != nil {
		return errors.Wrapf(err, "cannot parse %s", fn)
	}
	return nil
}

// applyFlags overrides settings with command-line values. Negative
// numbers and empty strings mean the flag was not given.
func (s *settings) applyFlags() {
	if *model != "" {
		s.Model = *model
	}
	if len(*ranges) > 0 {
		s.Ranges = *ranges
	}
	if *prior != "" {
		s.Prior = *prior
	}
	if *scale != "" {
		s.Scale = *scale
	}
	if *seed >= 0 {
		s.Seed = *seed
	}
	if *refine >= 0 {
		s.Refine = *refine
	}
	if *walkers >= 0 {
		s.Walkers = *walkers
	}
	if *nThreads >= 0 {
		s.Threads = *nThreads
	}
	if *burnin >= 0 {
		s.Burnin = *burnin
	}
	if *steps >= 0 {
		s.Steps = *steps
	}
}

// parseRange parses name=lower:upper.
func parseRange(s string) (params.Range, error) {
	name, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return params.Range{}, errors.Errorf("range %q should look like name=lower:upper", s)
	}
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return params.Range{}, errors.Errorf("range %q should look like name=lower:upper", s)
	}
	lower, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return params.Range{}, errors.Wrapf(err, "range %q", s)
	}
	upper, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return params.Range{}, errors.Wrapf(err, "range %q", s)
	}
	return params.NewRange(strings.TrimSpace(name), lower, upper)
}

// parseRanges parses ranges and orders them as the model parameters.
// Every model parameter needs a range.
func parseRanges(specs []string, names []string) ([]params.Range, error) {
	byName := make(map[string]params.Range, len(specs))
	for _, spec := range specs {
		r, err := parseRange(spec)
		if err != nil {
			return nil, err
		}
		if _, ok := byName[r.Name]; ok {
			return nil, errors.Errorf("duplicate range for %s", r.Name)
		}
		byName[r.Name] = r
	}
	res := make([]params.Range, 0, len(names))
	for _, name := range names {
		r, ok := byName[name]
		if !ok {
			return nil, errors.Errorf("no range for parameter %s", name)
		}
		res = append(res, r)
		delete(byName, name)
	}
	if len(byName) > 0 {
		unknown := make([]string, 0, len(byName))
		for name := range byName {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, errors.Errorf("unknown parameters: %s", strings.Join(unknown, ", "))
	}
	return res, nil
}
