package fitter

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"bitbucket.org/chiappo/chi2fit/ensemble"
)

// recorder is a sampler which never moves the walkers. It records the
// calls it receives.
type recorder struct {
	walkers int
	dim     int
	threads int
	lnprob  func([]float64) float64
	rng     *rand.Rand

	chain    [][]float64
	steps    []int
	initials []*mat.Dense
	rstates  []*rand.Rand
	finals   []*ensemble.State
	resets   int
}

func (r *recorder) Run(initial *mat.Dense, steps int, rstate *rand.Rand) (*ensemble.State, error) {
	r.steps = append(r.steps, steps)
	r.initials = append(r.initials, mat.DenseCopyOf(initial))
	r.rstates = append(r.rstates, rstate)
	if rstate != nil {
		r.rng = rstate
	}
	pos := mat.DenseCopyOf(initial)
	lnp := make([]float64, r.walkers)
	for k := range lnp {
		lnp[k] = r.lnprob(pos.RawRowView(k))
	}
	for s := 0; s < steps; s++ {
		for k := 0; k < r.walkers; k++ {
			r.chain = append(r.chain, mat.Row(nil, k, pos))
		}
	}
	// each run hands out a fresh state
	r.rng = rand.New(rand.NewSource(r.rng.Int63()))
	st := &ensemble.State{Positions: pos, LogProbs: lnp, Rand: r.rng}
	r.finals = append(r.finals, st)
	return st, nil
}

func (r *recorder) Reset() {
	r.resets++
	r.chain = nil
}

func (r *recorder) FlatChain() *mat.Dense {
	if len(r.chain) == 0 {
		return nil
	}
	m := mat.NewDense(len(r.chain), r.dim, nil)
	for i, row := range r.chain {
		m.SetRow(i, row)
	}
	return m
}

func (r *recorder) FlatLnProbability() []float64 {
	res := make([]float64, len(r.chain))
	for i, row := range r.chain {
		res[i] = r.lnprob(row)
	}
	return res
}

// fixed is a sampler returning a predefined chain.
type fixed struct {
	chain  *mat.Dense
	lnprob []float64
}

func (f *fixed) Run(initial *mat.Dense, steps int, rstate *rand.Rand) (*ensemble.State, error) {
	r, _ := initial.Dims()
	return &ensemble.State{Positions: initial, LogProbs: make([]float64, r), Rand: rstate}, nil
}

func (f *fixed) Reset() {}

func (f *fixed) FlatChain() *mat.Dense { return f.chain }

func (f *fixed) FlatLnProbability() []float64 { return f.lnprob }

// recorderFactory returns a factory which keeps the created samplers.
func recorderFactory(created *[]*recorder) SamplerFactory {
	return func(walkers, dim int, lnprob func([]float64) float64, threads int, rng *rand.Rand) (Sampler, error) {
		r := &recorder{walkers: walkers, dim: dim, threads: threads, lnprob: lnprob, rng: rng}
		*created = append(*created, r)
		return r, nil
	}
}

func fixedFactory(f *fixed) SamplerFactory {
	return func(walkers, dim int, lnprob func([]float64) float64, threads int, rng *rand.Rand) (Sampler, error) {
		return f, nil
	}
}
