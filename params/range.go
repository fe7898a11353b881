package params

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Range is the prior support (Lower, Upper) of a single named
// parameter.
type Range struct {
	Name  string
	Lower float64
	Upper float64
}

// NewRange creates a new range and checks that lower < upper.
func NewRange(name string, lower, upper float64) (Range, error) {
	r := Range{Name: name, Lower: lower, Upper: upper}
	return r, r.Check()
}

// Check returns an error if the range is not usable.
func (r Range) Check() error {
	if r.Name == "" {
		return errors.New("parameter without a name")
	}
	if math.IsNaN(r.Lower) || math.IsNaN(r.Upper) ||
		math.IsInf(r.Lower, 0) || math.IsInf(r.Upper, 0) {
		return errors.Errorf("%s: range bounds must be finite", r.Name)
	}
	if r.Upper <= r.Lower {
		return errors.Errorf("%s: upper <= lower (%v <= %v)", r.Name, r.Upper, r.Lower)
	}
	return nil
}

// Contains reports whether lower < v < upper. Both ends are
// excluded.
func (r Range) Contains(v float64) bool {
	return r.Lower < v && v < r.Upper
}

// Width returns upper - lower.
func (r Range) Width() float64 {
	return r.Upper - r.Lower
}

func (r Range) String() string {
	return r.Name + "=" +
		strconv.FormatFloat(r.Lower, 'g', -1, 64) + ":" +
		strconv.FormatFloat(r.Upper, 'g', -1, 64)
}
