// Package fitter estimates model parameters by chi-square fitting with
// an ensemble MCMC sampler.
//
// An Estimator combines a parameter space, a model function and the
// observations. Run drives the sampler through an optional burn-in and
// the production phase, then filters the chain and selects the best
// point.
package fitter

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/cespare/xxhash/v2"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"bitbucket.org/chiappo/chi2fit/checkpoint"
	"bitbucket.org/chiappo/chi2fit/ensemble"
	"bitbucket.org/chiappo/chi2fit/params"
)

// log is the global logging variable.
var log = logging.MustGetLogger("fitter")

// ErrNoValidSamples is returned when every sample of the chain was
// rejected.
var ErrNoValidSamples = errors.New("no valid samples in the chain")

// Sampler is an ensemble sampler.
type Sampler interface {
	// Run advances the walkers for steps steps from initial. If rstate
	// is not nil the sampler continues from it.
	Run(initial *mat.Dense, steps int, rstate *rand.Rand) (*ensemble.State, error)
	// Reset discards the accumulated chain.
	Reset()
	// FlatChain returns accumulated positions, one per row.
	FlatChain() *mat.Dense
	// FlatLnProbability returns log probabilities matching FlatChain.
	FlatLnProbability() []float64
}

// SamplerFactory creates a sampler.
type SamplerFactory func(walkers, dim int, lnprob func([]float64) float64, threads int, rng *rand.Rand) (Sampler, error)

// EnsembleSampler is the default SamplerFactory.
func EnsembleSampler(walkers, dim int, lnprob func([]float64) float64, threads int, rng *rand.Rand) (Sampler, error) {
	s, err := ensemble.New(walkers, dim, lnprob, threads, rng)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSamplerFactory replaces the sampler implementation.
func WithSamplerFactory(f SamplerFactory) Option {
	return func(e *Estimator) { e.factory = f }
}

// Estimator is the chi-square MCMC estimator.
type Estimator struct {
	space   *params.Space
	model   Model
	obs     *Observations
	cfg     Config
	factory SamplerFactory
	cp      *checkpoint.CheckpointIO
}

// New creates a new estimator. If the configured number of walkers
// differs from the space, the walkers are reinitialized.
func New(space *params.Space, model Model, obs *Observations, cfg Config, opts ...Option) (*Estimator, error) {
	if space == nil {
		return nil, errors.New("no parameter space")
	}
	if model == nil {
		return nil, errors.New("no model function")
	}
	if obs == nil {
		return nil, errors.New("no observations")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Estimator{
		space:   space,
		model:   model,
		obs:     obs,
		cfg:     cfg,
		factory: EnsembleSampler,
	}
	for _, o := range opts {
		o(e)
	}
	if e.factory == nil {
		return nil, errors.New("no sampler factory")
	}
	if space.NumWalkers() != cfg.Walkers {
		if err := space.InitializeWalkers(cfg.Walkers); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SetCheckpoint attaches a checkpoint. Burn-in positions are saved and
// reused by later runs, the final result is saved at the end of Run.
func (e *Estimator) SetCheckpoint(cp *checkpoint.CheckpointIO) {
	e.cp = cp
}

// Config returns the stored configuration.
func (e *Estimator) Config() Config {
	return e.cfg
}

// Space returns the parameter space.
func (e *Estimator) Space() *params.Space {
	return e.space
}

// Observations returns the observations.
func (e *Estimator) Observations() *Observations {
	return e.obs
}

// LogLikelihood returns the chi-square log likelihood of theta in
// sampling space, or Sentinel if the evaluation fails.
func (e *Estimator) LogLikelihood(theta []float64) float64 {
	p, err := e.space.ToWorking(theta)
	if err != nil {
		log.Debugf("Cannot transform %v: %v", theta, err)
		return Sentinel
	}
	ev := Evaluate(e.model, e.obs, p)
	if !ev.OK() {
		log.Debugf("Evaluation failed at %v: %v", p, ev.Err)
	}
	return ev.Value()
}

// LogPosterior returns the log prior plus the log likelihood. The
// likelihood is not computed if the prior rejects theta. It is safe
// for concurrent use.
func (e *Estimator) LogPosterior(theta []float64) float64 {
	lp := e.space.LogPrior(theta)
	if math.IsInf(lp, -1) || math.IsNaN(lp) {
		return math.Inf(-1)
	}
	return lp + e.LogLikelihood(theta)
}

// Run samples the posterior and returns the filtered chain and the best
// point. Options override the stored configuration for this run only,
// except the number of walkers which is stored.
func (e *Estimator) Run(opts ...RunOption) (*FitResult, error) {
	cfg := e.cfg
	for _, o := range opts {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := e.space.Scale().Check(); err != nil {
		return nil, err
	}

	dim := e.space.Dim()
	rng := params.NewRand(e.space.Rand().Int63())
	sampler, err := e.factory(cfg.Walkers, dim, e.LogPosterior, cfg.Threads, rng)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create sampler")
	}

	if cfg.Walkers != e.cfg.Walkers || cfg.Walkers != e.space.NumWalkers() {
		if err := e.space.InitializeWalkers(cfg.Walkers); err != nil {
			return nil, err
		}
		e.cfg.Walkers = cfg.Walkers
	}

	log.Noticef("Sampling %s: walkers=%d, threads=%d, burnin=%d, steps=%d",
		e.space, cfg.Walkers, cfg.Threads, cfg.Burnin, cfg.Steps)

	initial := e.space.Walkers()
	var rstate *rand.Rand
	if cfg.Burnin > 0 {
		id := e.burninID(cfg.Burnin)
		pos := e.loadBurnin(cfg.Walkers, dim, id)
		if pos == nil {
			st, err := sampler.Run(initial, cfg.Burnin, nil)
			if err != nil {
				return nil, errors.Wrap(err, "burn-in")
			}
			pos, rstate = st.Positions, st.Rand
			sampler.Reset()
			log.Infof("Burn-in finished, max lnP=%f", floats.Max(st.LogProbs))
			if e.cp != nil {
				if err := e.cp.SaveBurnin(pos, id); err != nil {
					log.Warningf("Burn-in checkpoint %s not saved: %v", e.cp.Key(), err)
				}
			}
		}
		initial = pos
	}

	if _, err := sampler.Run(initial, cfg.Steps, rstate); err != nil {
		return nil, errors.Wrap(err, "sampling")
	}
	if af, ok := sampler.(interface{ AcceptanceFraction() []float64 }); ok {
		log.Infof("Mean acceptance fraction: %.3f", stat.Mean(af.AcceptanceFraction(), nil))
	}

	res, err := e.collect(sampler.FlatChain(), sampler.FlatLnProbability())
	if err != nil {
		return nil, err
	}
	log.Noticef("Kept %d samples, filtered %d", len(res.LogProbs), res.Filtered)
	log.Noticef("Best lnP=%f at %v", res.BestLogProb, res.Best)

	if e.cp != nil {
		err := e.cp.SaveResult(&checkpoint.ResultData{
			Names:       res.Names,
			Best:        res.Best,
			BestLogProb: res.BestLogProb,
			Kept:        len(res.LogProbs),
			Filtered:    res.Filtered,
			Walkers:     cfg.Walkers,
			Burnin:      cfg.Burnin,
			Steps:       cfg.Steps,
			Final:       true,
		})
		if err != nil {
			log.Warningf("Result checkpoint %s not saved: %v", e.cp.Key(), err)
		}
	}
	return res, nil
}

// burninID identifies the fit setup a burn-in checkpoint belongs to:
// the parameter space, the number of burn-in steps and the data.
func (e *Estimator) burninID(burnin int) string {
	d := xxhash.New()
	b := make([]byte, 8)
	for _, v := range [][]float64{e.obs.X, e.obs.Y, e.obs.Err} {
		for _, x := range v {
			binary.LittleEndian.PutUint64(b, math.Float64bits(x))
			d.Write(b)
		}
		// separates the columns
		d.Write([]byte{0xff})
	}
	return fmt.Sprintf("%s burnin=%d data=%016x", e.space, burnin, d.Sum64())
}

// loadBurnin returns burn-in positions from the checkpoint if they
// were saved for the same setup, match the ensemble shape and are
// accepted by the prior.
func (e *Estimator) loadBurnin(walkers, dim int, id string) *mat.Dense {
	if e.cp == nil {
		return nil
	}
	pos, err := e.cp.Burnin(id)
	if err != nil {
		log.Warningf("Cannot load burn-in checkpoint: %v", err)
		return nil
	}
	if pos == nil {
		return nil
	}
	if r, c := pos.Dims(); r != walkers || c != dim {
		log.Warningf("Ignoring burn-in checkpoint with shape %dx%d", r, c)
		return nil
	}
	for i := 0; i < walkers; i++ {
		if math.IsInf(e.space.LogPrior(pos.RawRowView(i)), -1) {
			log.Warningf("Ignoring burn-in checkpoint, walker %d is outside of the prior", i)
			return nil
		}
	}
	log.Notice("Resuming from burn-in checkpoint")
	return pos
}

// collect filters the chain, converts positions to reported values and
// finds the best sample.
func (e *Estimator) collect(chain *mat.Dense, lnprobs []float64) (*FitResult, error) {
	if chain == nil {
		return nil, ErrNoValidSamples
	}
	n, _ := chain.Dims()
	if n != len(lnprobs) {
		return nil, errors.Errorf("chain has %d samples but %d log probabilities", n, len(lnprobs))
	}

	res := &FitResult{
		Names:    e.space.Names(),
		Samples:  make([][]float64, 0, n),
		LogProbs: make([]float64, 0, n),
	}
	for i, l := range lnprobs {
		if !(l > Sentinel) || math.IsInf(l, 1) {
			res.Filtered++
			continue
		}
		v, err := e.space.ToReported(chain.RawRowView(i))
		if err != nil {
			return nil, err
		}
		res.Samples = append(res.Samples, v)
		res.LogProbs = append(res.LogProbs, l)
	}
	if len(res.LogProbs) == 0 {
		return nil, errors.Wrapf(ErrNoValidSamples, "%d samples filtered", res.Filtered)
	}

	best := floats.MaxIdx(res.LogProbs)
	res.Best = append([]float64(nil), res.Samples[best]...)
	res.BestLogProb = res.LogProbs[best]
	return res, nil
}
