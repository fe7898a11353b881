// Package ensemble implements the affine-invariant ensemble sampler
// with stretch moves (Goodman & Weare, 2010).
//
// The walkers are split into two halves. Walkers of one half are moved
// along lines through randomly chosen walkers of the other half, so
// the proposals of a half can be evaluated concurrently.
package ensemble

import (
	"math"
	"math/rand"

	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"
)

// log is the global logging variable.
var log = logging.MustGetLogger("ensemble")

// DefaultStretch is the default stretch move scale.
const DefaultStretch = 2

// LogProbFunc returns the log probability of a position. It may be
// called concurrently and must not modify its argument.
type LogProbFunc func(theta []float64) float64

// State is the state of the ensemble after a run.
type State struct {
	// Positions holds one walker per row.
	Positions *mat.Dense
	// LogProbs are log probabilities of the positions.
	LogProbs []float64
	// Rand is the random generator; passing it to Run continues the
	// random sequence.
	Rand *rand.Rand
}

// Sampler is an ensemble sampler. It accumulates the chain of all the
// visited positions until Reset is called.
type Sampler struct {
	walkers int
	dim     int
	threads int
	lnprob  LogProbFunc
	rng     *rand.Rand

	// Stretch is the scale parameter a of the stretch move.
	Stretch float64
	// ReportPeriod is how often (in steps) the progress is logged.
	ReportPeriod int

	// chain and lnprobs are stored per walker.
	chain      [][]float64
	lnprobs    [][]float64
	accepted   []int
	iterations int
}

// New creates a new sampler. The number of walkers must be even and
// at least twice the dimension.
func New(walkers, dim int, lnprob LogProbFunc, threads int, rng *rand.Rand) (*Sampler, error) {
	switch {
	case dim < 1:
		return nil, errors.Errorf("dimension should be positive, got %d", dim)
	case walkers < 2*dim:
		return nil, errors.Errorf("number of walkers (%d) should be at least twice the dimension (%d)", walkers, dim)
	case walkers%2 != 0:
		return nil, errors.Errorf("number of walkers should be even, got %d", walkers)
	case threads < 1:
		return nil, errors.Errorf("number of threads should be positive, got %d", threads)
	case lnprob == nil:
		return nil, errors.New("no log probability function")
	case rng == nil:
		return nil, errors.New("no random generator")
	}
	s := &Sampler{
		walkers:      walkers,
		dim:          dim,
		threads:      threads,
		lnprob:       lnprob,
		rng:          rng,
		Stretch:      DefaultStretch,
		ReportPeriod: 100,
	}
	s.Reset()
	return s, nil
}

// Reset clears the accumulated chain and acceptance counters.
func (s *Sampler) Reset() {
	s.chain = make([][]float64, s.walkers)
	s.lnprobs = make([][]float64, s.walkers)
	s.accepted = make([]int, s.walkers)
	s.iterations = 0
}

// Run advances the ensemble for steps steps starting from initial.
// If rstate is not nil, it replaces the sampler random generator.
func (s *Sampler) Run(initial *mat.Dense, steps int, rstate *rand.Rand) (*State, error) {
	if initial == nil {
		return nil, errors.New("no initial positions")
	}
	if r, c := initial.Dims(); r != s.walkers || c != s.dim {
		return nil, errors.Errorf("initial positions have shape %dx%d, expected %dx%d", r, c, s.walkers, s.dim)
	}
	if steps < 0 {
		return nil, errors.Errorf("number of steps should be non-negative, got %d", steps)
	}
	if s.Stretch <= 1 {
		return nil, errors.Errorf("stretch scale should be > 1, got %v", s.Stretch)
	}
	if rstate != nil {
		s.rng = rstate
	}

	pos := mat.DenseCopyOf(initial)
	lnp := make([]float64, s.walkers)
	s.evaluate(pos, lnp)

	half := s.walkers / 2
	halves := [2][2]int{{0, half}, {half, s.walkers}}
	prop := mat.NewDense(half, s.dim, nil)
	propLnp := make([]float64, half)
	zs := make([]float64, half)

	for i := 0; i < steps; i++ {
		for h, set := range halves {
			other := halves[1-h]
			for k := set[0]; k < set[1]; k++ {
				z := s.stretch()
				j := other[0] + s.rng.Intn(other[1]-other[0])
				row := prop.RawRowView(k - set[0])
				xk := pos.RawRowView(k)
				xj := pos.RawRowView(j)
				for d := range row {
					row[d] = xj[d] + z*(xk[d]-xj[d])
				}
				zs[k-set[0]] = z
			}
			s.evaluate(prop, propLnp)
			for k := set[0]; k < set[1]; k++ {
				n := k - set[0]
				diff := float64(s.dim-1)*math.Log(zs[n]) + propLnp[n] - lnp[k]
				if diff > math.Log(s.rng.Float64()) {
					pos.SetRow(k, prop.RawRowView(n))
					lnp[k] = propLnp[n]
					s.accepted[k]++
				}
			}
		}
		for k := 0; k < s.walkers; k++ {
			s.chain[k] = append(s.chain[k], pos.RawRowView(k)...)
			s.lnprobs[k] = append(s.lnprobs[k], lnp[k])
		}
		s.iterations++
		if s.ReportPeriod > 0 && s.iterations%s.ReportPeriod == 0 {
			log.Debugf("%d: max lnP=%f, acceptance=%.2f%%", s.iterations, maxValue(lnp), 100*s.meanAcceptance())
		}
	}

	return &State{
		Positions: pos,
		LogProbs:  lnp,
		Rand:      s.rng,
	}, nil
}

// stretch draws z from g(z) ∝ 1/sqrt(z) on [1/a, a].
func (s *Sampler) stretch() float64 {
	a := s.Stretch
	u := (a-1)*s.rng.Float64() + 1
	return u * u / a
}

// evaluate computes log probabilities of all the rows of m using at
// most s.threads goroutines. NaN is treated as -Inf.
func (s *Sampler) evaluate(m *mat.Dense, dst []float64) {
	n, _ := m.Dims()
	if s.threads == 1 {
		for i := 0; i < n; i++ {
			dst[i] = s.call(mat.Row(nil, i, m))
		}
		return
	}
	p := pool.New().WithMaxGoroutines(s.threads)
	for i := 0; i < n; i++ {
		i := i
		theta := mat.Row(nil, i, m)
		p.Go(func() {
			dst[i] = s.call(theta)
		})
	}
	p.Wait()
}

func (s *Sampler) call(theta []float64) float64 {
	l := s.lnprob(theta)
	if math.IsNaN(l) {
		return math.Inf(-1)
	}
	return l
}

// FlatChain returns all the positions accumulated since the last
// Reset, walker by walker, one position per row. It returns nil if
// nothing was accumulated.
func (s *Sampler) FlatChain() *mat.Dense {
	if s.iterations == 0 {
		return nil
	}
	data := make([]float64, 0, s.walkers*s.iterations*s.dim)
	for _, c := range s.chain {
		data = append(data, c...)
	}
	return mat.NewDense(s.walkers*s.iterations, s.dim, data)
}

// FlatLnProbability returns log probabilities in the FlatChain order.
func (s *Sampler) FlatLnProbability() []float64 {
	res := make([]float64, 0, s.walkers*s.iterations)
	for _, l := range s.lnprobs {
		res = append(res, l...)
	}
	return res
}

// AcceptanceFraction returns the fraction of accepted proposals per
// walker since the last Reset.
func (s *Sampler) AcceptanceFraction() []float64 {
	res := make([]float64, s.walkers)
	if s.iterations == 0 {
		return res
	}
	for i, a := range s.accepted {
		res[i] = float64(a) / float64(s.iterations)
	}
	return res
}

// Iterations returns the number of steps since the last Reset.
func (s *Sampler) Iterations() int {
	return s.iterations
}

// Walkers returns the number of walkers.
func (s *Sampler) Walkers() int {
	return s.walkers
}

func (s *Sampler) meanAcceptance() float64 {
	if s.iterations == 0 {
		return 0
	}
	sum := 0
	for _, a := range s.accepted {
		sum += a
	}
	return float64(sum) / float64(s.iterations*s.walkers)
}

func maxValue(v []float64) float64 {
	m := math.Inf(-1)
	for _, x := range v {
		if x > m {
			m = x
		}
	}
	return m
}
