// Package biquad implements a denormal-safe Direct-Form-II second-order
// section and cascade, with a bilinear transform from analog Laplace
// prototypes.
//
// Ground truth: original_source/apf/apf/biquad.h (apf::SosCoefficients,
// apf::LaplaceCoefficients, apf::BiQuad, apf::Cascade, apf::bilinear).
package biquad

import (
	"math"

	"github.com/intuitionamiga/dcaspatial/internal/denormal"
)

// Coefficients of a discrete second-order section (a0 is implicitly 1).
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Add returns the element-wise sum of c and o.
func (c Coefficients) Add(o Coefficients) Coefficients {
	return Coefficients{c.B0 + o.B0, c.B1 + o.B1, c.B2 + o.B2, c.A1 + o.A1, c.A2 + o.A2}
}

// Sub returns the element-wise difference c - o.
func (c Coefficients) Sub(o Coefficients) Coefficients {
	return Coefficients{c.B0 - o.B0, c.B1 - o.B1, c.B2 - o.B2, c.A1 - o.A1, c.A2 - o.A2}
}

// Scale returns c with every coefficient multiplied by s.
func (c Coefficients) Scale(s float64) Coefficients {
	return Coefficients{c.B0 * s, c.B1 * s, c.B2 * s, c.A1 * s, c.A2 * s}
}

// Lerp returns the linear interpolation between c (t=0) and o (t=1).
func (c Coefficients) Lerp(o Coefficients, t float64) Coefficients {
	return c.Add(o.Sub(c).Scale(t))
}

// LaplaceCoefficients are analog-domain prototype coefficients, with
// b0 implicitly 1.
type LaplaceCoefficients struct {
	B1, B2 float64
	A1, A2 float64
}

// BiQuad is a Direct-Form-II second-order recursive filter with a
// pluggable denormal-prevention policy applied to the recursive state.
type BiQuad struct {
	Coefficients
	w0, w1, w2 float64
	dp         denormal.Policy
}

// NewBiQuad returns a BiQuad with all-zero coefficients (identity
// only for b0; caller must Set before use) and the given denormal
// policy. A nil policy disables denormal prevention.
func NewBiQuad(dp denormal.Policy) *BiQuad {
	if dp == nil {
		dp = denormal.None{}
	}
	return &BiQuad{dp: dp}
}

// Set replaces the section's coefficients without touching state.
func (b *BiQuad) Set(c Coefficients) {
	b.Coefficients = c
}

// Process runs one sample through the section.
func (b *BiQuad) Process(in float64) float64 {
	b.w0 = b.w1
	b.w1 = b.w2
	b.w2 = in - b.A1*b.w1 - b.A2*b.w0
	b.w2 = b.dp.Prevent(b.w2)
	return b.B0*b.w2 + b.B1*b.w1 + b.B2*b.w0
}

// Cascade is an ordered sequence of second-order sections.
type Cascade struct {
	sections []*BiQuad
}

// NewCascade allocates a cascade of n sections, each using its own
// denormal-prevention policy instance produced by newDP (so "ac"'s
// alternating sign is independent per section). newDP may be nil to
// disable denormal prevention.
func NewCascade(n int, newDP func() denormal.Policy) *Cascade {
	sections := make([]*BiQuad, n)
	for i := range sections {
		var dp denormal.Policy
		if newDP != nil {
			dp = newDP()
		}
		sections[i] = NewBiQuad(dp)
	}
	return &Cascade{sections: sections}
}

// Len returns the number of sections.
func (c *Cascade) Len() int { return len(c.sections) }

// Set replaces every section's coefficients. len(coeffs) must equal
// c.Len().
func (c *Cascade) Set(coeffs []Coefficients) {
	for i, s := range c.sections {
		s.Set(coeffs[i])
	}
}

// Process runs a single sample through every section in order.
func (c *Cascade) Process(in float64) float64 {
	for _, s := range c.sections {
		in = s.Process(in)
	}
	return in
}

// Execute runs an entire block through the cascade with fixed
// coefficients (no interpolation).
func (c *Cascade) Execute(in, out []float64) {
	for i, x := range in {
		out[i] = c.Process(x)
	}
}

// ExecuteInterpolated runs a block through the cascade while linearly
// interpolating each section's coefficients from old to new across
// the block. Sample i is processed first with whatever coefficients
// are currently loaded (sample 0 therefore still uses old in full),
// and only then does the cascade advance to old + (i+1)/N*(new-old);
// by the last sample the cascade holds new in full, ready for the
// next call. old, new and lerpBuf must each have length c.Len();
// lerpBuf is reused as scratch space and must not alias old or new.
func (c *Cascade) ExecuteInterpolated(in, out []float64, old, new, lerpBuf []Coefficients) {
	n := float64(len(in))
	for i, x := range in {
		out[i] = c.Process(x)
		t := float64(i+1) / n
		for s := range lerpBuf {
			lerpBuf[s] = old[s].Lerp(new[s], t)
		}
		c.Set(lerpBuf)
	}
}

// roots2Poly converts the eigenvalues of a 2x2 matrix into the
// coefficients of the monic quadratic they are roots of: given
// roots r0, r1, returns (-(r0+r1), r0*r1) taking only the real part,
// matching apf::internal::roots2poly's handling of real and complex
// conjugate eigenvalue pairs.
func roots2Poly(m [2][2]float64) (p1, p2 float64) {
	trace := (m[0][0] + m[1][1]) / 2
	disc := trace*trace + m[0][1]*m[1][0] - m[0][0]*m[1][1]

	var e0, e1 complex128
	if disc > 0 {
		sq := math.Sqrt(disc)
		e0 = complex(trace+sq, 0)
		e1 = complex(trace-sq, 0)
	} else {
		sq := math.Sqrt(-disc)
		e0 = complex(trace, sq)
		e1 = complex(trace, -sq)
	}

	p1 = real(-e0 - e1)
	p2 = real(-e1 * -e0)
	return
}

// Bilinear converts an analog Laplace-domain prototype section to a
// discrete second-order section via the bilinear transform with
// frequency prewarping at fp Hz, matching apf::bilinear's state-space
// trapezoidal-substitution implementation bit-for-bit in structure.
func Bilinear(in LaplaceCoefficients, fs, fp int) Coefficients {
	fpTemp := float64(fp) * (2 * math.Pi)
	lambda := fpTemp / math.Tan(fpTemp/float64(fs)/2) / 2

	a := [2][2]float64{{-in.A1, -in.A2}, {1, 0}}
	b := [2]float64{1, 0}
	c := [2]float64{in.B1 - in.A1, in.B2 - in.A2}
	d := 1.0

	t := 1 / lambda
	r := math.Sqrt(t)

	t1 := [2][2]float64{
		{(t/2)*a[0][0] + 1, (t / 2) * a[0][1]},
		{(t / 2) * a[1][0], (t/2)*a[1][1] + 1},
	}
	t2 := [2][2]float64{
		{-(t/2)*a[0][0] + 1, -(t / 2) * a[0][1]},
		{-(t / 2) * a[1][0], -(t/2)*a[1][1] + 1},
	}

	det := t2[0][0]*t2[1][1] - t2[0][1]*t2[1][0]

	ad := [2][2]float64{
		{(t1[0][0]*t2[1][1] - t1[1][0]*t2[0][1]) / det, (t1[0][1]*t2[1][1] - t1[1][1]*t2[0][1]) / det},
		{(t1[1][0]*t2[0][0] - t1[0][0]*t2[1][0]) / det, (t1[1][1]*t2[0][0] - t1[0][1]*t2[1][0]) / det},
	}
	bd := [2]float64{
		(t / r) * (b[0]*t2[1][1] - b[1]*t2[0][1]) / det,
		(t / r) * (b[1]*t2[0][0] - b[0]*t2[1][0]) / det,
	}
	cd := [2]float64{
		(c[0]*t2[1][1] - c[1]*t2[1][0]) / det,
		(c[1]*t2[0][0] - c[0]*t2[0][1]) / det,
	}
	dd := (b[0]*cd[0]+b[1]*cd[1])*(t/2) + d

	cd[0] *= r
	cd[1] *= r

	out := Coefficients{}
	out.A1, out.A2 = roots2Poly(ad)

	tmp := [2][2]float64{
		{ad[0][0] - bd[0]*cd[0], ad[0][1] - bd[0]*cd[1]},
		{ad[1][0] - bd[1]*cd[0], ad[1][1] - bd[1]*cd[1]},
	}
	out.B1, out.B2 = roots2Poly(tmp)

	out.B0 = dd
	out.B1 += (dd - 1) * out.A1
	out.B2 += (dd - 1) * out.A2

	return out
}
