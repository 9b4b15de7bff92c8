package dca

import (
	"math"
	"sync/atomic"

	"github.com/intuitionamiga/dcaspatial/internal/blockparam"
	"github.com/intuitionamiga/dcaspatial/internal/dcacoeff"
	"github.com/intuitionamiga/dcaspatial/internal/geom"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
)

// source is the realtime-side mirror of one scene.Source: it copies
// its block of input samples and re-derives distance, angle and
// weighting factor from the scene each block, driving every mode
// filter connected to it.
//
// Ground truth: original_source/src/dcarenderer.h's DcaRenderer::Source.
type source struct {
	engine *Engine
	id     int

	buf []float64

	distance        *blockparam.Param[float64]
	angle           *blockparam.Param[float64]
	sourceModel     *blockparam.Param[dcacoeff.SourceType]
	weightingFactor *blockparam.Numeric[float64]

	modes     [order1]*mode // indexed by mode number 0..order
	modePairs []*modePair

	// level holds the last block's peak weighted input amplitude, as
	// math.Float64bits, so the metering goroutine (see
	// Engine.SourceLevels) can read it without a lock. Ground truth:
	// NetworkSubscriber::send_levels reports one meter value per
	// source on a timer independent of the audio thread.
	level atomic.Uint64
}

// order1 is a compile-time upper bound on order+1 mode slots; the
// engine never exceeds dcacoeff.MaxSupportedOrder.
const order1 = dcacoeff.MaxSupportedOrder + 1

func newSource(e *Engine, id int) *source {
	return &source{
		engine: e,
		id:     id,
		buf:    make([]float64, e.cfg.BlockSize),
		// Seed with impossible values to force an update on the first
		// processing cycle, matching the original's Source constructor.
		distance:        blockparam.New(float64(-1)),
		angle:           blockparam.New(math.Inf(1)),
		sourceModel:     blockparam.New(dcacoeff.SourceType(-1)),
		weightingFactor: blockparam.NewNumeric(float64(0)),
	}
}

// Process copies this block's input samples and re-derives distance,
// angle and weighting factor from the current scene state.
//
// Note: the reference offset (used during scene playback) is not yet
// taken into account, matching a known gap in the original.
func (s *source) Process() {
	if buf, ok := s.engine.currentIn[s.id]; ok {
		copy(s.buf, buf)
	} else {
		for i := range s.buf {
			s.buf[i] = 0
		}
	}

	snap, ok := s.engine.scene.Source(s.id)
	if !ok {
		return
	}

	refPos := s.engine.scene.ReferencePosition()
	refOri := s.engine.scene.ReferenceOrientation()

	dist := snap.Position.Sub(refPos).Length()

	var sourceOrientation geom.Orientation
	var model dcacoeff.SourceType

	switch snap.Model {
	case scene.ModelPoint:
		model = dcacoeff.PointSource
		sourceOrientation = geom.OrientationOf(snap.Position.Sub(refPos))
	case scene.ModelPlane:
		model = dcacoeff.PlaneWave
		sourceOrientation = geom.Orientation{Azimuth: snap.Orientation.Azimuth - 180}
	default:
		// Unrecognized model: leave source_model unset, matching the
		// original's silent no-op (a warning belongs in the caller).
		return
	}

	angle := geom.Deg2Rad(180 + sourceOrientation.Sub(refOri).Azimuth)

	s.distance.Step(float64(dist))
	s.angle.Step(angle)
	s.sourceModel.Step(model)

	gain := snap.Gain
	if snap.Mute || s.engine.scene.MasterMute() {
		gain = 0
	}
	gain *= s.engine.scene.MasterVolume()
	if model == dcacoeff.PointSource {
		clamped := math.Max(dist, s.engine.cfg.ArrayRadius)
		gain *= s.engine.scene.AmplitudeFactor(clamped)
	}
	s.weightingFactor.Step(gain)

	var peak float64
	for _, v := range s.buf {
		if a := math.Abs(v * gain); a > peak {
			peak = a
		}
	}
	s.level.Store(math.Float64bits(peak))
}

// Level returns the peak weighted input amplitude measured in the
// most recently processed block. Safe to call from any goroutine.
func (s *source) Level() float64 {
	return math.Float64frombits(s.level.Load())
}

// connect builds this source's mode filters and mode pairs for the
// engine's configured ambisonics order, and attaches each mode to its
// corresponding accumulator. Only called from the engine's
// non-realtime side, through Engine.AddSource.
func (s *source) connect(order int) error {
	oddModeCount := order%2 == 0 // total mode count (order+1) is odd

	for modeNumber := 0; modeNumber <= order/2; modeNumber++ {
		pair := &modePair{}

		secondNum := order - modeNumber
		second, err := newMode(secondNum, s)
		if err != nil {
			return err
		}
		pair.second = second
		s.modes[secondNum] = second

		if !(modeNumber == 0 && oddModeCount) {
			firstNum := modeNumber
			if oddModeCount {
				firstNum--
			}
			first, err := newMode(firstNum, s)
			if err != nil {
				return err
			}
			pair.first = first
			s.modes[firstNum] = first
		}

		s.modePairs = append(s.modePairs, pair)
	}
	return nil
}
