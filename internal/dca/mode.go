package dca

import (
	"math"

	"github.com/intuitionamiga/dcaspatial/internal/biquad"
	"github.com/intuitionamiga/dcaspatial/internal/dcacoeff"
	"github.com/intuitionamiga/dcaspatial/internal/denormal"
)

// interpolationMode mirrors apf::CombineChannelsResult::type: whether
// a Mode's contribution to its accumulator is silent, held constant
// across the block, or needs per-sample interpolation.
type interpolationMode int

const (
	interpNothing interpolationMode = iota
	interpConstant
	interpChange
)

// mode is one spherical-harmonic-order channel of one Source's
// contribution to the reproduction: a distance/array-radius-scaled
// biquad cascade (the radial NFC-HOA filter) plus the rotation factor
// that steers it to the source's angle.
//
// Ground truth: original_source/src/dcarenderer.h's DcaRenderer::Mode.
type mode struct {
	source     *source
	modeNumber int

	filter *biquad.Cascade
	bank   *dcacoeff.Bank

	coefficients, oldCoefficients []biquad.Coefficients
	lerpBuf                       []biquad.Coefficients

	rotation1, rotation2, oldRotation1, oldRotation2 float64
	interpolation                                    interpolationMode

	buf []float64 // filtered output, length == block size
}

func newMode(modeNumber int, s *source) (*mode, error) {
	bank, err := dcacoeff.NewBank(modeNumber, s.engine.cfg.SampleRate, s.engine.cfg.ArrayRadius, speedOfSound)
	if err != nil {
		return nil, err
	}
	n := bank.Len()
	m := &mode{
		source:          s,
		modeNumber:      modeNumber,
		filter:          biquad.NewCascade(n, func() denormal.Policy { return denormal.New(s.engine.cfg.DenormalPolicy) }),
		bank:            bank,
		coefficients:    make([]biquad.Coefficients, n),
		oldCoefficients: make([]biquad.Coefficients, n),
		lerpBuf:         make([]biquad.Coefficients, n),
		buf:             make([]float64, s.engine.cfg.BlockSize),
	}
	return m, nil
}

// Process runs the mode's filter and re-derives its rotation factor
// and interpolation mode for this block. It must only be called after
// the owning Source has run its own Process for this block.
func (m *mode) Process() {
	distanceChanged := m.source.distance.Changed()
	modelChanged := m.source.sourceModel.Changed()
	in := m.source.buf

	if !distanceChanged && !modelChanged {
		for i, x := range in {
			m.buf[i] = m.filter.Process(x)
		}
	} else {
		m.oldCoefficients, m.coefficients = m.coefficients, m.oldCoefficients

		// Avoid focused sources: clamp to at least the array radius.
		distance := math.Max(m.source.distance.Get(), m.source.engine.cfg.ArrayRadius)
		st := m.source.sourceModel.Get()
		copy(m.coefficients, m.bank.Reset(distance, st))

		m.filter.ExecuteInterpolated(in, m.buf, m.oldCoefficients, m.coefficients, m.lerpBuf)
	}

	// Must be done whenever angle or weighting factor changes.
	m.oldRotation1, m.oldRotation2 = m.rotation1, m.rotation2

	if m.source.angle.Changed() {
		angle := m.source.angle.Get()
		m.rotation1 = math.Cos(-float64(m.modeNumber) * angle)
		// Note: the imaginary component's factor carries the negative
		// mode number.
		m.rotation2 = math.Sin(float64(m.modeNumber) * angle)
	}

	switch {
	case m.source.weightingFactor.BothZero():
		m.interpolation = interpNothing
	case m.source.weightingFactor.Changed() || m.source.angle.Changed() ||
		distanceChanged || modelChanged:
		m.interpolation = interpChange
	default:
		m.interpolation = interpConstant
	}
}

// speedOfSound is the propagation speed used to scale the NFC filter
// prototype, matching original_source/src/ssr_global.h's ssr::c.
const speedOfSound = 343.0
