package params

import (
	"math"

	"github.com/pkg/errors"
)

// ErrUnsupportedScale is returned for an unset or unknown scale mode.
var ErrUnsupportedScale = errors.New("unsupported scale, use linear or logarithmic")

// Scale is the space parameters are sampled in.
type Scale int

const (
	// ScaleUnset is the zero value and is not a valid scale.
	ScaleUnset Scale = iota
	// Linear samples parameters directly.
	Linear
	// Logarithmic samples log10 of the parameters.
	Logarithmic
)

// ParseScale returns a scale given its name.
func ParseScale(name string) (Scale, error) {
	switch name {
	case "linear":
		return Linear, nil
	case "logarithmic", "log":
		return Logarithmic, nil
	}
	return ScaleUnset, errors.Wrapf(ErrUnsupportedScale, "scale %q", name)
}

func (s Scale) String() string {
	switch s {
	case Linear:
		return "linear"
	case Logarithmic:
		return "logarithmic"
	}
	return "unset"
}

// Check returns ErrUnsupportedScale unless the scale is linear or
// logarithmic.
func (s Scale) Check() error {
	switch s {
	case Linear, Logarithmic:
		return nil
	}
	return errors.Wrapf(ErrUnsupportedScale, "scale value %d", int(s))
}

// Apply maps a vector from sampling space to parameter space and
// stores it in dst, which is allocated if nil.
func (s Scale) Apply(dst, theta []float64) ([]float64, error) {
	dst = resize(dst, len(theta))
	switch s {
	case Linear:
		copy(dst, theta)
	case Logarithmic:
		for i, v := range theta {
			dst[i] = math.Pow(10, v)
		}
	default:
		return nil, s.Check()
	}
	return dst, nil
}

// Invert maps a vector from parameter space back to sampling space.
func (s Scale) Invert(dst, x []float64) ([]float64, error) {
	dst = resize(dst, len(x))
	switch s {
	case Linear:
		copy(dst, x)
	case Logarithmic:
		for i, v := range x {
			dst[i] = math.Log10(v)
		}
	default:
		return nil, s.Check()
	}
	return dst, nil
}

func resize(s []float64, n int) []float64 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float64, n)
}
