package rtlist

import "testing"

func TestListSnapshotIsStableAcrossSwap(t *testing.T) {
	l := New([]int{1, 2, 3})
	snap := l.Snapshot()
	l.Swap([]int{9, 9})
	if len(snap) != 3 || snap[0] != 1 {
		t.Fatalf("snapshot mutated after Swap: %v", snap)
	}
	if got := l.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestListSwapIndependentOfCallerSlice(t *testing.T) {
	src := []int{1, 2}
	l := New(src)
	src[0] = 99
	if got := l.Snapshot()[0]; got != 1 {
		t.Fatalf("List aliased caller slice: got %d, want 1", got)
	}
}

func TestQueuePushPopFIFO(t *testing.T) {
	q := NewQueue[int](4)
	for i := 0; i < 4; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) failed, queue should have room", i)
		}
	}
	if q.Push(4) {
		t.Fatal("Push succeeded on full queue")
	}
	for i := 0; i < 4; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("Pop() = %d, %v; want %d, true", v, ok, i)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop succeeded on empty queue")
	}
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue[string](8)
	q.Push("a")
	q.Push("b")
	q.Push("c")
	var got []string
	q.Drain(func(s string) { got = append(got, s) })
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Fatalf("Drain order = %v", got)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("queue not empty after Drain")
	}
}

func TestQueueCapacityRoundsToPow2(t *testing.T) {
	q := NewQueue[int](5)
	for i := 0; i < 8; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) failed; capacity should round up to 8", i)
		}
	}
}
