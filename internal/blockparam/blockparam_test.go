package blockparam

import "testing"

func TestChangedReflectsStepTransition(t *testing.T) {
	p := New(1.0)
	if p.Changed() {
		t.Fatal("fresh param with identical old/cur should report unchanged")
	}

	steps := []struct {
		value   float64
		changed bool
	}{
		{1.0, false},
		{2.0, true},
		{2.0, false},
		{-1.0, true},
	}
	for i, s := range steps {
		p.Step(s.value)
		if got := p.Changed(); got != s.changed {
			t.Errorf("step %d: Step(%v).Changed() = %v, want %v", i, s.value, got, s.changed)
		}
		if p.Get() != s.value {
			t.Errorf("step %d: Get() = %v, want %v", i, p.Get(), s.value)
		}
	}
}

func TestNumericBothZero(t *testing.T) {
	n := NewNumeric(0.0)
	if !n.BothZero() {
		t.Fatal("fresh zero-initialized Numeric should report BothZero")
	}
	n.Step(0.0)
	if !n.BothZero() {
		t.Fatal("stepping to zero again should still report BothZero")
	}
	n.Step(0.5)
	if n.BothZero() {
		t.Fatal("current value nonzero should not report BothZero")
	}
}
