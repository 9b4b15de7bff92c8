// Package blockparam implements the BlockParameter cell: a scalar
// carrying both its previous and current block's value, used to drive
// per-sample interpolation and change detection without the RT thread
// needing to diff snapshots itself.
//
// Ground truth: original_source/src/dcarenderer.h's use of
// apf::BlockParameter<float>, e.g. DcaRenderer::Source::distance.
package blockparam

// Param holds the previous ("old") and current ("new") value of a
// scalar across one audio block.
type Param[T comparable] struct {
	old, cur T
}

// New returns a Param with both old and current set to initial, so
// Changed() is true on the first Step() exactly when the stepped value
// differs from initial. Seeding with an "impossible" value therefore
// forces an update on the first processing cycle, matching the
// original's practice for Source fields.
func New[T comparable](initial T) *Param[T] {
	return &Param[T]{old: initial, cur: initial}
}

// Get returns the current value.
func (p *Param[T]) Get() T { return p.cur }

// Old returns the previous block's value.
func (p *Param[T]) Old() T { return p.old }

// Set assigns a new current value without shifting old; used to set
// up the "new" value mid-block before the next Step() call promotes
// it.
func (p *Param[T]) Set(v T) { p.cur = v }

// Step promotes the current value to old and assigns v as the new
// current value. Call once per block, in Source-stage order, before
// reading Changed()/Old()/Get() for this block's processing.
func (p *Param[T]) Step(v T) {
	p.old = p.cur
	p.cur = v
}

// Changed reports whether old and cur differ after the most recent
// Step().
func (p *Param[T]) Changed() bool {
	return p.old != p.cur
}

// Numeric adds zero-comparison helpers on top of Param for types
// where "both values are zero" matters (e.g. a muted source's
// weighting factor, which forces interpolationMode == interpNothing).
type Numeric[T comparable] struct {
	Param[T]
	zero T
}

// NewNumeric returns a Numeric Param seeded at initial, with zero as
// the type's zero value for BothZero checks.
func NewNumeric[T comparable](initial T) *Numeric[T] {
	return &Numeric[T]{Param: Param[T]{old: initial, cur: initial}}
}

// BothZero reports whether both old and current values equal the
// type's zero value.
func (n *Numeric[T]) BothZero() bool {
	return n.old == n.zero && n.cur == n.zero
}
