package fitter

import (
	"github.com/pkg/errors"
)

// Observations are the measured points. Err may be nil, in which case
// the model prediction is used as the variance.
type Observations struct {
	X   []float64
	Y   []float64
	Err []float64
}

// NewObservations checks the lengths and creates observations.
func NewObservations(x, y, err []float64) (*Observations, error) {
	if len(x) == 0 {
		return nil, errors.New("no observations")
	}
	if len(x) != len(y) {
		return nil, errors.Errorf("x and y lengths differ: %d != %d", len(x), len(y))
	}
	if err != nil && len(err) != len(x) {
		return nil, errors.Errorf("x and error lengths differ: %d != %d", len(x), len(err))
	}
	return &Observations{X: x, Y: y, Err: err}, nil
}

// Len returns the number of points.
func (o *Observations) Len() int {
	return len(o.X)
}

// HasErrors returns true if per-point errors were supplied.
func (o *Observations) HasErrors() bool {
	return o.Err != nil
}
