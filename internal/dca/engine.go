// Package dca implements the Distance-Coded Ambisonics (NFC-HOA)
// rendering algorithm: per-source radial filtering, mode rotation,
// weighted accumulation across sources, and per-sample inverse
// transform back to the loudspeaker domain.
//
// Ground truth: original_source/src/dcarenderer.h (ssr::DcaRenderer),
// scheduled here on top of internal/mimo the way the original
// schedules Source, ModePair, ModeAccumulator and FftProcessor lists
// through apf::rtlist_t/APF_PROCESS.
package dca

import (
	"context"
	"fmt"
	"sync"

	"github.com/intuitionamiga/dcaspatial/internal/mimo"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
)

// Config holds the fixed parameters of one DCA engine instance,
// derived from the reproduction setup at load time.
type Config struct {
	Order       int // ambisonics order; = NumOutputs/2 rounded down
	SampleRate  int
	BlockSize   int
	ArrayRadius float64
	NumOutputs  int

	// DenormalPolicy names the denormal.Policy every Mode's biquad
	// cascade is built with (see denormal.New). Empty defaults to "ac".
	DenormalPolicy string
}

// Engine is the realtime DCA rendering graph for one reproduction
// setup. It owns the mimo.Engine worker-pool scheduler and the
// mode-domain accumulator/transform state shared by every source.
type Engine struct {
	cfg   Config
	scene *scene.State

	mimoEngine *mimo.Engine

	sourceStage      *mimo.Stage
	modePairStage    *mimo.Stage
	accumulatorStage *mimo.Stage
	transformStage   *mimo.Stage
	outputStage      *mimo.Stage

	// sourcesMu guards sources against concurrent access between the
	// audio callback goroutine (which applies queued AddSource/
	// RemoveSource structural changes) and non-realtime readers such
	// as SourceLevels.
	sourcesMu sync.RWMutex
	sources   map[int]*source

	accumulators []*accumulator
	outputMatrix [][]float64

	currentIn  map[int][]float64
	currentOut [][]float64
}

// New builds an Engine for the given reproduction setup and
// concurrency budget. concurrency of 0 uses runtime.GOMAXPROCS(0) (see
// mimo.NewEngine).
func New(cfg Config, sc *scene.State, concurrency int) (*Engine, error) {
	if cfg.NumOutputs < 2 {
		return nil, fmt.Errorf("dca: at least 2 outputs are required, got %d", cfg.NumOutputs)
	}
	if cfg.Order != cfg.NumOutputs/2 {
		return nil, fmt.Errorf("dca: order %d does not match NumOutputs/2 (%d)", cfg.Order, cfg.NumOutputs/2)
	}

	e := &Engine{
		cfg:        cfg,
		scene:      sc,
		mimoEngine: mimo.NewEngine(concurrency),
		sources:    make(map[int]*source),
	}

	e.sourceStage = mimo.NewStage("source")
	e.modePairStage = mimo.NewStage("mode_pair")
	e.accumulatorStage = mimo.NewStage("mode_accumulator")
	e.transformStage = mimo.NewStage("output_fft")
	e.outputStage = mimo.NewStage("output")

	e.mimoEngine.AddStage(e.sourceStage)
	e.mimoEngine.AddStage(e.modePairStage)
	e.mimoEngine.AddStage(e.accumulatorStage)
	e.mimoEngine.AddStage(e.transformStage)
	e.mimoEngine.AddStage(e.outputStage)

	evenCount := cfg.NumOutputs%2 == 0
	e.accumulators = make([]*accumulator, cfg.Order+1)
	for m := 0; m <= cfg.Order; m++ {
		hasImag := !(m == 0 || (m == cfg.Order && evenCount))
		e.accumulators[m] = newAccumulator(m, hasImag, cfg.BlockSize)
	}

	e.outputMatrix = make([][]float64, cfg.NumOutputs)
	outputs := make([]mimo.Processable, cfg.NumOutputs)
	for l := 0; l < cfg.NumOutputs; l++ {
		e.outputMatrix[l] = make([]float64, cfg.BlockSize)
		outputs[l] = outputNode{engine: e, index: l}
	}
	e.outputStage.Swap(outputs)

	transformJobs := make([]mimo.Processable, cfg.BlockSize)
	for n := 0; n < cfg.BlockSize; n++ {
		transformJobs[n] = transformJob{engine: e, sampleIndex: n}
	}
	e.transformStage.Swap(transformJobs)

	e.refreshAccumulatorStage()

	return e, nil
}

// NewFromSetup derives a Config from a loaded reproduction setup and
// builds the corresponding Engine. denormalPolicy names the
// denormal.Policy used by every Mode's filter cascade; "" defaults to
// "ac".
func NewFromSetup(setup *scene.ReproductionSetup, sampleRate, blockSize, concurrency int, denormalPolicy string, sc *scene.State) (*Engine, error) {
	cfg := Config{
		Order:          setup.Order,
		SampleRate:     sampleRate,
		BlockSize:      blockSize,
		ArrayRadius:    setup.ArrayRadius,
		NumOutputs:     len(setup.Loudspeakers),
		DenormalPolicy: denormalPolicy,
	}
	return New(cfg, sc, concurrency)
}

// Activate enables audio processing.
func (e *Engine) Activate() { e.mimoEngine.Activate() }

// Deactivate disables audio processing; AudioCallback becomes a no-op
// until Activate is called again.
func (e *Engine) Deactivate() { e.mimoEngine.Deactivate() }

// Active reports whether the engine is currently processing blocks.
func (e *Engine) Active() bool { return e.mimoEngine.Active() }

// AddSource connects a new source, keyed by its scene.Source ID, to
// the rendering graph. The actual structural change to the RT stages
// is deferred to the start of the next AudioCallback; safe to call
// from any non-realtime goroutine.
func (e *Engine) AddSource(id int) error {
	s := newSource(e, id)
	if err := s.connect(e.cfg.Order); err != nil {
		return err
	}
	if !e.mimoEngine.Enqueue(func() {
		e.sourcesMu.Lock()
		e.sources[id] = s
		e.sourcesMu.Unlock()
		for _, m := range s.modes {
			if m != nil {
				e.accumulators[m.modeNumber].addMode(m)
			}
		}
		e.refreshSourceStage()
		e.refreshModePairStage()
		e.refreshAccumulatorStage()
	}) {
		return fmt.Errorf("dca: command queue full, could not add source %d", id)
	}
	return nil
}

// RemoveSource disconnects a source from the rendering graph. Safe to
// call from any non-realtime goroutine.
func (e *Engine) RemoveSource(id int) error {
	if !e.mimoEngine.Enqueue(func() {
		e.sourcesMu.RLock()
		s, ok := e.sources[id]
		e.sourcesMu.RUnlock()
		if !ok {
			return
		}
		for _, m := range s.modes {
			if m != nil {
				e.accumulators[m.modeNumber].removeMode(m)
			}
		}
		e.sourcesMu.Lock()
		delete(e.sources, id)
		e.sourcesMu.Unlock()
		e.refreshSourceStage()
		e.refreshModePairStage()
		e.refreshAccumulatorStage()
	}) {
		return fmt.Errorf("dca: command queue full, could not remove source %d", id)
	}
	return nil
}

func (e *Engine) refreshSourceStage() {
	e.sourcesMu.RLock()
	items := make([]mimo.Processable, 0, len(e.sources))
	for _, s := range e.sources {
		items = append(items, s)
	}
	e.sourcesMu.RUnlock()
	e.sourceStage.Swap(items)
}

func (e *Engine) refreshModePairStage() {
	e.sourcesMu.RLock()
	defer e.sourcesMu.RUnlock()
	var items []mimo.Processable
	for _, s := range e.sources {
		for _, p := range s.modePairs {
			items = append(items, p)
		}
	}
	e.modePairStage.Swap(items)
}

func (e *Engine) refreshAccumulatorStage() {
	items := make([]mimo.Processable, len(e.accumulators))
	for i, a := range e.accumulators {
		items[i] = a
	}
	e.accumulatorStage.Swap(items)
}

// AudioCallback runs exactly one audio block through the full
// rendering graph. in maps a source ID to its block of input samples
// (sources with no entry render silence for this block); out holds
// one slice per loudspeaker, each of length BlockSize, to be filled
// in place. Must be called from a single realtime thread, once per
// block; never allocates once warmed up, beyond what the Go runtime
// itself needs for goroutine scheduling in mimo.Engine.Process.
func (e *Engine) AudioCallback(ctx context.Context, in map[int][]float64, out [][]float64) error {
	if len(out) != e.cfg.NumOutputs {
		return fmt.Errorf("dca: audio callback got %d output channels, want %d", len(out), e.cfg.NumOutputs)
	}
	e.currentIn = in
	e.currentOut = out
	return e.mimoEngine.Process(ctx)
}

// SourceLevels returns the most recently measured peak weighted input
// level of every currently-connected source, keyed by source ID.
// Intended for periodic metering broadcast to subscribers, not for
// use on the realtime path.
func (e *Engine) SourceLevels() map[int]float64 {
	e.sourcesMu.RLock()
	defer e.sourcesMu.RUnlock()
	levels := make(map[int]float64, len(e.sources))
	for id, s := range e.sources {
		levels[id] = s.Level()
	}
	return levels
}

// Order returns the engine's configured ambisonics order.
func (e *Engine) Order() int { return e.cfg.Order }

// NumOutputs returns the number of loudspeaker channels.
func (e *Engine) NumOutputs() int { return e.cfg.NumOutputs }
