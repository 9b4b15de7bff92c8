package dca

import "math"

// transformJob recombines one audio sample's worth of mode-domain
// (real/imaginary) accumulator output into the loudspeaker domain, by
// direct evaluation of the inverse half-complex-to-real DFT used by
// original_source/src/dcarenderer.h's FftProcessor (there performed
// once per sample via FFTW's HC2R plan across the loudspeaker axis).
// No FFT library is available anywhere in this module's dependency
// corpus (see DESIGN.md, entry "dca-transform"), so this evaluates
// the sum directly: each loudspeaker sums order+1 mode bins, which is
// O(numOutputs^2) work per sample; the engine schedules one job per
// sample, giving O(numOutputs^2 * blockSize) per block.
//
// Unnormalized, matching the original (whose own FftProcessor leaves
// a "TODO: scale result?").
type transformJob struct {
	engine      *Engine
	sampleIndex int
}

// Process implements mimo.Processable.
func (j transformJob) Process() {
	e := j.engine
	n := j.sampleIndex
	numOutputs := len(e.outputMatrix)
	order := len(e.accumulators) - 1
	evenCount := numOutputs%2 == 0

	for l := 0; l < numOutputs; l++ {
		var sum float64
		for m := 0; m <= order; m++ {
			acc := e.accumulators[m]
			weight := 2.0
			if m == 0 || (m == order && evenCount) {
				weight = 1.0
			}
			theta := 2 * math.Pi * float64(m) * float64(l) / float64(numOutputs)
			re := acc.real[n]
			var im float64
			if acc.hasImag {
				im = acc.imag[n]
			}
			sum += weight * (re*math.Cos(theta) - im*math.Sin(theta))
		}
		e.outputMatrix[l][n] = sum
	}
}

// outputNode copies one loudspeaker's reconstructed block from the
// engine's output matrix into the caller-supplied output buffer for
// this callback.
//
// Ground truth: original_source/src/dcarenderer.h's DcaRenderer::Output.
type outputNode struct {
	engine *Engine
	index  int
}

// Process implements mimo.Processable.
func (o outputNode) Process() {
	out := o.engine.currentOut[o.index]
	copy(out, o.engine.outputMatrix[o.index])
}
