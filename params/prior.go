package params

import (
	"math"
	"math/rand"
)

// Prior is a prior family. The set of families is closed, Uniform is
// the only member.
type Prior interface {
	// Name returns the family name as accepted by ParsePrior.
	Name() string
	// LogPrior returns the log prior density of theta given the
	// parameter ranges, in the same order.
	LogPrior(theta []float64, ranges []Range) float64
	// Draw returns a random value from the prior of a single
	// parameter.
	Draw(rng *rand.Rand, r Range) float64

	prior()
}

// UnsupportedPriorError is returned when a prior family is not
// implemented.
type UnsupportedPriorError struct {
	Name string
}

func (e *UnsupportedPriorError) Error() string {
	if e.Name == "" {
		return "no prior family specified, only uniform priors implemented"
	}
	return "prior family " + e.Name + " is not supported, only uniform priors implemented"
}

// ParsePrior returns a prior family given its name.
func ParsePrior(name string) (Prior, error) {
	switch name {
	case "uniform":
		return Uniform{}, nil
	}
	return nil, &UnsupportedPriorError{Name: name}
}

// Uniform is a flat prior over the open box defined by the ranges.
// It is not normalized: inside the box the log density is exactly 0.
type Uniform struct{}

func (Uniform) prior() {}

// Name returns "uniform".
func (Uniform) Name() string {
	return "uniform"
}

// LogPrior returns 0 if every component is strictly inside its
// range and -Inf otherwise. Boundary values are rejected.
func (Uniform) LogPrior(theta []float64, ranges []Range) float64 {
	if len(theta) != len(ranges) {
		return math.Inf(-1)
	}
	for i, r := range ranges {
		if !r.Contains(theta[i]) {
			return math.Inf(-1)
		}
	}
	return 0
}

// Draw returns a value uniformly distributed in [lower, upper).
func (Uniform) Draw(rng *rand.Rand, r Range) float64 {
	return r.Lower + rng.Float64()*r.Width()
}
