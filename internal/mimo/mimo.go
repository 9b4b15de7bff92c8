// Package mimo implements the realtime MIMO (multi-input,
// multi-output) processing engine that drives the DCA rendering graph
// one audio block at a time.
//
// Processing is organized as an ordered sequence of stages (Source,
// ModePair, ModeAccumulator, OutputFFT, Output in the DCA renderer),
// mirroring apf::CombineChannels / apf::rtlist_t's role in
// original_source/src/dcarenderer.h: within a stage, every item is
// independent and is farmed out across a worker pool; stages
// themselves run in order because each consumes the previous stage's
// output. Structural changes (adding or removing items from a stage)
// are never applied in place while a block is in flight; they are
// queued by non-realtime callers and applied only at the top of the
// next Process call.
package mimo

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/intuitionamiga/dcaspatial/internal/rtlist"
)

// Processable is one item of work within a stage: a source, a mode
// filter, a mode-pair accumulator, an output FFT job or a loudspeaker
// output. Process must not allocate and must not block.
type Processable interface {
	Process()
}

// Stage is a realtime-safe collection of Processable items, executed
// concurrently across the engine's worker pool on every block.
type Stage struct {
	name  string
	items *rtlist.List[Processable]
}

// NewStage returns an empty, named Stage.
func NewStage(name string) *Stage {
	return &Stage{name: name, items: rtlist.New[Processable](nil)}
}

// Name returns the stage's name, used only for diagnostics.
func (s *Stage) Name() string { return s.name }

// Swap atomically replaces the stage's items. Safe to call from any
// goroutine; never called from the realtime thread.
func (s *Stage) Swap(items []Processable) {
	s.items.Swap(items)
}

// Engine sequences a fixed list of Stages once per audio block,
// fanning the items within each stage out across a pool of worker
// goroutines started once at Activate and parked on a channel between
// blocks, rather than spawned fresh on every call. Activate and
// Deactivate start and stop that pool; Process only ever sends items
// into it and waits for completion signals back.
type Engine struct {
	concurrency int
	stages      []*Stage
	commands    *rtlist.Queue[func()]
	enqueueMu   sync.Mutex // serializes producers of the SPSC commands queue
	active      atomic.Bool

	// poolMu guards the pool's channels and lifetime group against
	// concurrent Activate/Deactivate calls and against Process reading
	// a half-torn-down pool. Uncontended in steady state: Activate and
	// Deactivate are rare control-plane operations, never called from
	// the realtime thread.
	poolMu  sync.RWMutex
	started bool
	jobs    chan Processable
	done    chan struct{}
	quit    chan struct{}
	group   *errgroup.Group
}

// NewEngine returns an Engine that parallelizes each stage across at
// most concurrency goroutines. A concurrency of 0 defaults to
// runtime.GOMAXPROCS(0).
func NewEngine(concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Engine{
		concurrency: concurrency,
		commands:    rtlist.NewQueue[func()](256),
	}
}

// AddStage appends a stage to the engine's fixed processing order.
// Only called during setup, before Activate.
func (e *Engine) AddStage(s *Stage) {
	e.stages = append(e.stages, s)
}

// Stages returns the engine's stages in processing order.
func (e *Engine) Stages() []*Stage {
	return e.stages
}

// Activate starts the worker pool, if it is not already running, and
// enables block processing. Calling Activate again after a prior
// Deactivate restarts the pool from scratch; two activate/deactivate
// cycles with identical inputs produce identical outputs, since no
// worker state survives a Deactivate.
func (e *Engine) Activate() {
	e.poolMu.Lock()
	if !e.started {
		e.startPoolLocked()
		e.started = true
	}
	e.poolMu.Unlock()
	e.active.Store(true)
}

// Deactivate disables block processing and stops the worker pool: a
// shutdown signal is sent to every worker and Deactivate blocks until
// all of them have joined. A subsequent Process call returns
// immediately without running any stage. Idempotent: deactivating an
// already-inactive engine is a no-op.
func (e *Engine) Deactivate() {
	e.active.Store(false)
	e.poolMu.Lock()
	if e.started {
		e.stopPoolLocked()
		e.started = false
	}
	e.poolMu.Unlock()
}

// Active reports whether the engine is currently processing blocks.
func (e *Engine) Active() bool {
	return e.active.Load()
}

// startPoolLocked spawns e.concurrency worker goroutines under an
// errgroup.Group, which here supervises only the pool's lifetime
// (startup and, via Wait in stopPoolLocked, shutdown/join) and never
// runs on the per-block path. Must be called with poolMu held.
func (e *Engine) startPoolLocked() {
	e.jobs = make(chan Processable, e.concurrency)
	e.done = make(chan struct{}, e.concurrency)
	e.quit = make(chan struct{})

	jobs, done, quit := e.jobs, e.done, e.quit
	g := &errgroup.Group{}
	for i := 0; i < e.concurrency; i++ {
		g.Go(func() error {
			for {
				select {
				case item, ok := <-jobs:
					if !ok {
						return nil
					}
					item.Process()
					done <- struct{}{}
				case <-quit:
					return nil
				}
			}
		})
	}
	e.group = g
}

// stopPoolLocked signals every worker to exit and joins them. Must be
// called with poolMu held.
func (e *Engine) stopPoolLocked() {
	close(e.quit)
	e.group.Wait()
	e.group = nil
	e.jobs = nil
	e.done = nil
	e.quit = nil
}

// Enqueue queues a structural-change closure (adding or removing
// items from a stage) to be applied at the start of the next Process
// call. Safe to call from any non-realtime goroutine: concurrent
// callers are serialized, so the queue only ever sees one producer at
// a time. Returns false if the command queue is full.
func (e *Engine) Enqueue(cmd func()) bool {
	e.enqueueMu.Lock()
	defer e.enqueueMu.Unlock()
	return e.commands.Push(cmd)
}

// Process drains pending structural changes and then runs every
// stage, in order, to completion. Within a stage, items are dispatched
// across the engine's already-running worker pool over channels; no
// goroutine is spawned and nothing is allocated on this path. Process
// is the sole entry point called once per audio block by the realtime
// callback.
func (e *Engine) Process(ctx context.Context) error {
	e.commands.Drain(func(cmd func()) { cmd() })

	if !e.active.Load() {
		return nil
	}

	e.poolMu.RLock()
	jobs, done := e.jobs, e.done
	e.poolMu.RUnlock()
	if jobs == nil {
		return nil
	}

	for _, stage := range e.stages {
		items := stage.items.Snapshot()
		if len(items) == 0 {
			continue
		}
		// Completions are collected while items are still being sent, so
		// a stage larger than the channel buffers cannot stall the pool.
		completed := 0
		for _, item := range items {
			for sent := false; !sent; {
				select {
				case jobs <- item:
					sent = true
				case <-done:
					completed++
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		for ; completed < len(items); completed++ {
			select {
			case <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
