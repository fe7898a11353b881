// Package models contains model functions which can be fitted from the
// command line.
package models

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"bitbucket.org/chiappo/chi2fit/fitter"
)

// Model is a named model function with named parameters.
type Model struct {
	Name   string
	Params []string
	Func   fitter.Model
}

var registry = map[string]Model{}

func register(name string, params []string, f func(x float64, p []float64) float64) {
	registry[name] = Model{
		Name:   name,
		Params: params,
		Func:   elementwise(name, len(params), f),
	}
}

// elementwise lifts a scalar function to a fitter.Model checking the
// number of parameters.
func elementwise(name string, n int, f func(x float64, p []float64) float64) fitter.Model {
	return func(x []float64, p ...float64) ([]float64, error) {
		if len(p) != n {
			return nil, errors.Errorf("%s: expected %d parameters, got %d", name, n, len(p))
		}
		res := make([]float64, len(x))
		for i, v := range x {
			res[i] = f(v, p)
		}
		return res, nil
	}
}

func init() {
	register("linear", []string{"a", "b"}, func(x float64, p []float64) float64 {
		return p[0]*x + p[1]
	})
	register("quadratic", []string{"a", "b", "c"}, func(x float64, p []float64) float64 {
		return (p[0]*x+p[1])*x + p[2]
	})
	register("power", []string{"a", "b"}, func(x float64, p []float64) float64 {
		return p[0] * math.Pow(x, p[1])
	})
	register("exponential", []string{"a", "b"}, func(x float64, p []float64) float64 {
		return p[0] * math.Exp(p[1]*x)
	})
	register("gaussian", []string{"a", "mu", "sigma"}, func(x float64, p []float64) float64 {
		d := (x - p[1]) / p[2]
		return p[0] * math.Exp(-d*d/2)
	})
}

// Get returns the model by name.
func Get(name string) (Model, error) {
	m, ok := registry[name]
	if !ok {
		return Model{}, errors.Errorf("unknown model %q", name)
	}
	return m, nil
}

// Names returns the sorted list of model names.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
