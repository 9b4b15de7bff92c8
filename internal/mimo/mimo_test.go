package mimo

import (
	"context"
	"sync/atomic"
	"testing"
)

type counter struct {
	n *atomic.Int64
}

func (c counter) Process() { c.n.Add(1) }

func TestProcessRunsAllItemsInAllStages(t *testing.T) {
	e := NewEngine(4)
	var a, b atomic.Int64

	s1 := NewStage("a")
	s1.Swap([]Processable{counter{&a}, counter{&a}, counter{&a}})
	s2 := NewStage("b")
	s2.Swap([]Processable{counter{&b}})

	e.AddStage(s1)
	e.AddStage(s2)
	e.Activate()

	if err := e.Process(context.Background()); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if a.Load() != 3 {
		t.Fatalf("stage a ran %d times, want 3", a.Load())
	}
	if b.Load() != 1 {
		t.Fatalf("stage b ran %d times, want 1", b.Load())
	}
}

func TestProcessNoopWhenInactive(t *testing.T) {
	e := NewEngine(2)
	var n atomic.Int64
	s := NewStage("s")
	s.Swap([]Processable{counter{&n}})
	e.AddStage(s)

	if err := e.Process(context.Background()); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if n.Load() != 0 {
		t.Fatalf("stage ran while engine inactive: %d", n.Load())
	}
}

func TestEnqueueAppliedBeforeNextProcess(t *testing.T) {
	e := NewEngine(2)
	e.Activate()
	s := NewStage("s")
	e.AddStage(s)

	var n atomic.Int64
	applied := false
	e.Enqueue(func() {
		applied = true
		s.Swap([]Processable{counter{&n}})
	})

	if err := e.Process(context.Background()); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if !applied {
		t.Fatal("queued command was never applied")
	}
	if n.Load() != 1 {
		t.Fatalf("swapped stage item ran %d times, want 1", n.Load())
	}
}

func TestActivateDeactivate(t *testing.T) {
	e := NewEngine(1)
	if e.Active() {
		t.Fatal("engine active before Activate")
	}
	e.Activate()
	if !e.Active() {
		t.Fatal("engine inactive after Activate")
	}
	e.Deactivate()
	if e.Active() {
		t.Fatal("engine active after Deactivate")
	}
}

// TestDeactivateJoinsWorkers exercises the pool lifetime directly:
// Deactivate must not return until every worker goroutine started by
// Activate has exited, so a subsequent Activate starts from a clean
// pool rather than racing a worker still draining the old jobs
// channel.
func TestDeactivateJoinsWorkers(t *testing.T) {
	e := NewEngine(4)
	e.Activate()
	e.Deactivate()

	e.poolMu.RLock()
	started, jobs := e.started, e.jobs
	e.poolMu.RUnlock()
	if started || jobs != nil {
		t.Fatalf("pool state not cleared after Deactivate: started=%v jobs=%v", started, jobs)
	}
}

// TestProcessStableAcrossManyBlocks runs several hundred blocks
// through the same activated engine, the way the realtime callback
// would, to exercise the persistent pool across repeated Process
// calls rather than a single one.
func TestProcessStableAcrossManyBlocks(t *testing.T) {
	e := NewEngine(3)
	var n atomic.Int64
	s := NewStage("s")
	s.Swap([]Processable{counter{&n}, counter{&n}, counter{&n}, counter{&n}, counter{&n}})
	e.AddStage(s)
	e.Activate()
	defer e.Deactivate()

	const blocks = 200
	for i := 0; i < blocks; i++ {
		if err := e.Process(context.Background()); err != nil {
			t.Fatalf("Process() error on block %d: %v", i, err)
		}
	}
	if want := int64(blocks * 5); n.Load() != want {
		t.Fatalf("items ran %d times across %d blocks, want %d", n.Load(), blocks, want)
	}
}

// TestActivateDeactivateCycleRepeatable restarts the pool across two
// activate/deactivate cycles and checks both produce identical
// per-block item counts, mirroring the state-machine guarantee that
// two activate/process/deactivate intervals with identical inputs
// behave identically.
func TestActivateDeactivateCycleRepeatable(t *testing.T) {
	e := NewEngine(2)
	var n atomic.Int64
	s := NewStage("s")
	s.Swap([]Processable{counter{&n}, counter{&n}})
	e.AddStage(s)

	run := func() int64 {
		n.Store(0)
		e.Activate()
		for i := 0; i < 10; i++ {
			if err := e.Process(context.Background()); err != nil {
				t.Fatalf("Process() error: %v", err)
			}
		}
		e.Deactivate()
		return n.Load()
	}

	first := run()
	second := run()
	if first != second {
		t.Fatalf("activate/deactivate cycles diverged: %d vs %d", first, second)
	}
}
