// Package denormal implements the filter-state denormal-prevention
// strategies used by the biquad cascade's Direct-Form-II state update.
//
// Denormal floating point values are not special-cased by most FPUs and
// can be 10-100x slower to operate on than normal values, which turns a
// quiet IIR tail into an audible real-time glitch. Each Policy nudges
// the recursive state away from zero by an amount far below the noise
// floor.
package denormal

import "math"

// Policy perturbs a filter state value to keep it away from the
// denormal range. Implementations must be safe to call once per
// sample on the audio thread: no allocation, no locking.
type Policy interface {
	Prevent(v float64) float64
}

// None disables denormal prevention entirely.
type None struct{}

func (None) Prevent(v float64) float64 { return v }

// DC adds a fixed, inaudible DC offset every sample.
type DC struct{}

func (DC) Prevent(v float64) float64 { return v + 1e-30 }

// AC adds an alternating-sign offset every sample, i.e. a component at
// Nyquist. This is the default policy for the DCA renderer: unlike DC
// it never biases the running average of a section's state.
type AC struct {
	sign float64
}

// NewAC returns an AC policy ready to use; the zero value also works
// since sign defaults to 0 and flips to -epsilon on first use, but
// NewAC documents the starting magnitude explicitly.
func NewAC() *AC {
	return &AC{sign: 1e-30}
}

func (p *AC) Prevent(v float64) float64 {
	if p.sign == 0 {
		p.sign = 1e-30
	}
	p.sign = -p.sign
	return v + p.sign
}

// Quantization adds then immediately subtracts a tiny epsilon, which
// forces a renormalization of the float without the AC policy's
// alternating bias.
type Quantization struct{}

func (Quantization) Prevent(v float64) float64 {
	const eps = 1e-30
	return (v + eps) - eps
}

// SetZero replaces any subnormal value with an exact zero.
type SetZero struct{}

// smallestNormal is the smallest positive normalized float64; anything
// below this (and nonzero) is a subnormal/denormal value.
const smallestNormal = 2.2250738585072014e-308

func (SetZero) Prevent(v float64) float64 {
	if v != 0 && math.Abs(v) < smallestNormal {
		return 0
	}
	return v
}

// New constructs a Policy by name, as used by configuration loaded
// through the parameter map. The DCA renderer's default is "ac".
func New(name string) Policy {
	switch name {
	case "none":
		return None{}
	case "dc":
		return DC{}
	case "quantization":
		return Quantization{}
	case "setzero":
		return SetZero{}
	case "ac", "":
		return NewAC()
	default:
		return NewAC()
	}
}
