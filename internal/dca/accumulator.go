package dca

// VolumeCorrection is applied to every sample before it is weighted
// into the mode accumulator. The original leaves this an admittedly
// arbitrary gain-staging constant (original_source/src/dcarenderer.h:
// "TODO: Come up with a less arbitrary factor"); it is exported here,
// rather than folded into the math as a bare literal, so a host can
// retune overall gain staging without touching the accumulator.
var VolumeCorrection = 0.1

// accumulator sums the weighted, rotated contribution of every Source
// connected at a given mode index into that mode's real/imaginary
// (cosine/sine) channel pair for the block. One accumulator exists
// per mode index 0..order.
//
// Ground truth: original_source/src/dcarenderer.h's
// DcaRenderer::ModeAccumulator and RenderFunction. The original packs
// real and imaginary channels into a single FFTW half-complex array
// addressed by loudspeaker-domain channel index; this adaptation
// keeps them as two explicit per-mode buffers consumed directly by
// the inverse transform in transform.go (see DESIGN.md, entry
// "dca-transform").
type accumulator struct {
	modeIndex int
	hasImag   bool // false for mode 0 and, when the array has an even
	// number of loudspeakers, for the highest mode index (the
	// Nyquist-like bin has no imaginary component)

	real []float64
	imag []float64 // nil when !hasImag

	modes []*mode
}

func newAccumulator(modeIndex int, hasImag bool, blockSize int) *accumulator {
	a := &accumulator{
		modeIndex: modeIndex,
		hasImag:   hasImag,
		real:      make([]float64, blockSize),
	}
	if hasImag {
		a.imag = make([]float64, blockSize)
	}
	return a
}

// Process implements mimo.Processable.
func (a *accumulator) Process() {
	for i := range a.real {
		a.real[i] = 0
	}
	if a.hasImag {
		for i := range a.imag {
			a.imag[i] = 0
		}
	}

	for _, m := range a.modes {
		switch m.interpolation {
		case interpNothing:
			continue
		case interpConstant:
			w := m.source.weightingFactor.Get()
			r1 := m.rotation1 * w
			r2 := m.rotation2 * w
			for i, x := range m.buf {
				in := x * VolumeCorrection
				a.real[i] += in * r1
				if a.hasImag {
					a.imag[i] += in * r2
				}
			}
		case interpChange:
			oldW := m.source.weightingFactor.Old()
			newW := m.source.weightingFactor.Get()
			oldR1 := m.oldRotation1 * oldW
			newR1 := m.rotation1 * newW
			oldR2 := m.oldRotation2 * oldW
			newR2 := m.rotation2 * newW
			n := float64(len(m.buf))
			for i, x := range m.buf {
				t := float64(i) / n
				r1 := oldR1 + t*(newR1-oldR1)
				r2 := oldR2 + t*(newR2-oldR2)
				in := x * VolumeCorrection
				a.real[i] += in * r1
				if a.hasImag {
					a.imag[i] += in * r2
				}
			}
		}
	}
}

// addMode registers a mode so its contribution is summed by this
// accumulator. Only called from the engine's non-realtime side.
func (a *accumulator) addMode(m *mode) {
	a.modes = append(a.modes, m)
}

// removeMode unregisters a mode. Only called from the engine's
// non-realtime side.
func (a *accumulator) removeMode(m *mode) {
	for i, x := range a.modes {
		if x == m {
			a.modes = append(a.modes[:i], a.modes[i+1:]...)
			return
		}
	}
}
