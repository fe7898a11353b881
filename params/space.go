// Package params describes the parameter space of a fit: named
// ranges, the prior family, the sampling scale and the initial
// positions of the ensemble walkers.
package params

import (
	"math/rand"
	"strings"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// log is the global logging variable.
var log = logging.MustGetLogger("params")

// Space is an ordered set of parameter ranges together with the prior
// and the scale. The order of the ranges defines the order of the
// components in every parameter vector.
type Space struct {
	ranges []Range
	prior  Prior
	scale  Scale
	rng    *rand.Rand

	// walkers is replaced as a whole on reinitialization.
	walkers *mat.Dense
}

// NewSpace creates a new parameter space and draws the initial
// positions of nWalkers walkers from the prior. If rng is nil a
// generator seeded with 1 is used.
func NewSpace(ranges []Range, prior Prior, scale Scale, nWalkers int, rng *rand.Rand) (*Space, error) {
	if prior == nil {
		return nil, &UnsupportedPriorError{}
	}
	if err := scale.Check(); err != nil {
		return nil, err
	}
	if len(ranges) == 0 {
		return nil, errors.New("parameter space needs at least one parameter")
	}
	seen := make(map[string]bool, len(ranges))
	for _, r := range ranges {
		if err := r.Check(); err != nil {
			return nil, err
		}
		if seen[r.Name] {
			return nil, errors.Errorf("duplicate parameter %s", r.Name)
		}
		seen[r.Name] = true
	}
	if rng == nil {
		rng = NewRand(1)
	}
	s := &Space{
		ranges: append([]Range(nil), ranges...),
		prior:  prior,
		scale:  scale,
		rng:    rng,
	}
	if err := s.InitializeWalkers(nWalkers); err != nil {
		return nil, err
	}
	return s, nil
}

// InitializeWalkers draws n new walker positions, every component
// from the prior of its parameter. The previous positions are
// discarded.
func (s *Space) InitializeWalkers(n int) error {
	if s.prior == nil {
		return &UnsupportedPriorError{}
	}
	if n < 1 {
		return errors.Errorf("number of walkers should be positive, got %d", n)
	}
	w := mat.NewDense(n, len(s.ranges), nil)
	for i := 0; i < n; i++ {
		row := w.RawRowView(i)
		for p, r := range s.ranges {
			row[p] = s.prior.Draw(s.rng, r)
		}
	}
	s.walkers = w
	log.Debugf("Initialized %d walkers in %d dimensions", n, len(s.ranges))
	return nil
}

// LogPrior returns the log prior of theta: 0 inside all the ranges
// and -Inf otherwise.
func (s *Space) LogPrior(theta []float64) float64 {
	return s.prior.LogPrior(theta, s.ranges)
}

// ToWorking converts a sampled vector to model parameters.
func (s *Space) ToWorking(theta []float64) ([]float64, error) {
	return s.scale.Apply(nil, theta)
}

// ToReported converts a sampled vector to the values reported in the
// fit results. It uses the same transform as ToWorking.
func (s *Space) ToReported(theta []float64) ([]float64, error) {
	return s.scale.Apply(nil, theta)
}

// FromReported converts a reported vector back to sampling space.
func (s *Space) FromReported(x []float64) ([]float64, error) {
	return s.scale.Invert(nil, x)
}

// Dim returns the number of parameters.
func (s *Space) Dim() int {
	return len(s.ranges)
}

// Names returns parameter names in order.
func (s *Space) Names() []string {
	names := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		names[i] = r.Name
	}
	return names
}

// Ranges returns a copy of the parameter ranges.
func (s *Space) Ranges() []Range {
	return append([]Range(nil), s.ranges...)
}

// Prior returns the prior family.
func (s *Space) Prior() Prior {
	return s.prior
}

// Scale returns the sampling scale.
func (s *Space) Scale() Scale {
	return s.scale
}

// Rand returns the random generator used for walker initialization.
func (s *Space) Rand() *rand.Rand {
	return s.rng
}

// NumWalkers returns the number of walkers.
func (s *Space) NumWalkers() int {
	r, _ := s.walkers.Dims()
	return r
}

// Walkers returns a copy of the walker positions, one walker per
// row.
func (s *Space) Walkers() *mat.Dense {
	return mat.DenseCopyOf(s.walkers)
}

func (s *Space) String() string {
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		parts[i] = r.String()
	}
	return strings.Join(parts, " ") + " (" + s.prior.Name() + ", " + s.scale.String() + ")"
}
