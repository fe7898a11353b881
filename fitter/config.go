package fitter

import (
	"github.com/pkg/errors"
)

// ErrConfig is returned (wrapped) for invalid run configuration.
var ErrConfig = errors.New("invalid configuration")

// Config holds the run configuration. Zero values are not valid; use
// DefaultConfig as the starting point.
type Config struct {
	// Walkers is the number of ensemble walkers.
	Walkers int `json:"walkers"`
	// Threads is the number of concurrent evaluations.
	Threads int `json:"threads"`
	// Burnin is the number of discarded steps before sampling.
	Burnin int `json:"burnin"`
	// Steps is the number of production steps.
	Steps int `json:"steps"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Walkers: 100,
		Threads: 1,
		Burnin:  0,
		Steps:   1000,
	}
}

// Validate checks the configuration values.
func (c Config) Validate() error {
	switch {
	case c.Walkers < 1:
		return errors.Wrapf(ErrConfig, "walkers=%d", c.Walkers)
	case c.Threads < 1:
		return errors.Wrapf(ErrConfig, "threads=%d", c.Threads)
	case c.Burnin < 0:
		return errors.Wrapf(ErrConfig, "burnin=%d", c.Burnin)
	case c.Steps < 1:
		return errors.Wrapf(ErrConfig, "steps=%d", c.Steps)
	}
	return nil
}

// RunOption overrides a single configuration value for one run.
type RunOption func(*Config)

// WithWalkers sets the number of walkers. A value different from the
// stored one reinitializes the walkers and becomes the new default.
func WithWalkers(n int) RunOption {
	return func(c *Config) { c.Walkers = n }
}

// WithThreads sets the number of threads.
func WithThreads(n int) RunOption {
	return func(c *Config) { c.Threads = n }
}

// WithBurnin sets the number of burn-in steps.
func WithBurnin(n int) RunOption {
	return func(c *Config) { c.Burnin = n }
}

// WithSteps sets the number of production steps.
func WithSteps(n int) RunOption {
	return func(c *Config) { c.Steps = n }
}
