package dca

// modePair bundles two mode filters so that workload is distributed
// evenly across the worker pool: pairing a low mode with a high one
// keeps each pair's combined filter length roughly constant, since a
// higher mode number needs proportionally more biquad sections. For an
// odd order, mode k pairs with mode (order-k); for an even order, mode
// order stands alone and mode k-1 pairs with mode (order-k).
//
// Ground truth: original_source/src/dcarenderer.h's DcaRenderer::ModePair.
type modePair struct {
	first  *mode // nil when order is even and this is the first pair
	second *mode
}

// Process runs both modes in the pair. Implements mimo.Processable.
func (p *modePair) Process() {
	if p.first != nil {
		p.first.Process()
	}
	p.second.Process()
}
