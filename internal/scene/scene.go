// Package scene holds the mutable description of a reproduction: the
// set of sources, the listening reference, master gain/mute and decay
// law, and the loudspeaker setup the DCA renderer was configured for.
//
// Ground truth: original_source/src/boostnetwork/networksubscriber.h
// and .cpp enumerate exactly this state (new_source, set_source_*,
// set_reference_*, set_master_volume, set_decay_exponent,
// set_amplitude_reference_distance, set_transport_state,
// set_processing_state) as the surface a Subscriber is notified of;
// State is the non-realtime owner of that same state.
package scene

import (
	"fmt"
	"math"
	"sync"

	"github.com/intuitionamiga/dcaspatial/internal/geom"
)

// SourceModel selects how a Source's angle and distance are
// interpreted by the DCA renderer.
type SourceModel int

const (
	// ModelPoint is a source at a finite distance: subject to
	// distance-coded delay/amplitude decay and near-field
	// compensation.
	ModelPoint SourceModel = iota
	// ModelPlane is a plane wave arriving from a fixed direction:
	// no distance attenuation is applied.
	ModelPlane
)

func (m SourceModel) String() string {
	switch m {
	case ModelPoint:
		return "point"
	case ModelPlane:
		return "plane"
	default:
		return "unknown"
	}
}

// ParseSourceModel parses the XML-protocol spelling of a source
// model.
func ParseSourceModel(s string) (SourceModel, error) {
	switch s {
	case "point":
		return ModelPoint, nil
	case "plane":
		return ModelPlane, nil
	default:
		return 0, fmt.Errorf("scene: unknown source model %q", s)
	}
}

// Source is one sound source in the scene.
type Source struct {
	ID          int
	Name        string
	Position    geom.Position
	Orientation geom.Orientation
	Model       SourceModel
	Gain        float64 // linear, pre-master
	Mute        bool
	Fixed       bool // position cannot be changed by transport playback
}

// State is the complete, thread-safe scene description. It is owned
// by non-realtime code (the command protocol handlers); the DCA
// engine reads it every block through the accessor methods below,
// each of which locks separately, so one block's reads are not taken
// as a single atomic snapshot.
type State struct {
	mu sync.RWMutex

	sources map[int]*Source
	nextID  int

	referencePosition    geom.Position
	referenceOrientation geom.Orientation
	referenceOffsetPos   geom.Position
	referenceOffsetOri   geom.Orientation

	masterVolume float64
	masterMute   bool

	amplitudeReferenceDistance float64
	decayExponent              float64

	transportRolling bool
	transportFrame   int64
	processingActive bool
}

// New returns a State with SSR-compatible defaults: unity master
// volume, amplitude_reference_distance of 3 m and a 1/r decay
// exponent of 1.
func New() *State {
	return &State{
		sources:                    make(map[int]*Source),
		nextID:                     1,
		masterVolume:               1.0,
		amplitudeReferenceDistance: 3.0,
		decayExponent:              1.0,
	}
}

// AddSource inserts src, assigning it an ID if src.ID is zero, and
// returns the assigned ID.
func (s *State) AddSource(src Source) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src.ID == 0 {
		src.ID = s.nextID
	}
	if src.ID >= s.nextID {
		s.nextID = src.ID + 1
	}
	if src.Gain == 0 && !src.Mute {
		src.Gain = 1.0
	}
	cp := src
	s.sources[cp.ID] = &cp
	return cp.ID
}

// DeleteSource removes a source by ID. Reports whether it existed.
func (s *State) DeleteSource(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sources[id]; !ok {
		return false
	}
	delete(s.sources, id)
	return true
}

// DeleteAllSources removes every source.
func (s *State) DeleteAllSources() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources = make(map[int]*Source)
}

// Source returns a copy of the source with the given ID.
func (s *State) Source(id int) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, ok := s.sources[id]
	if !ok {
		return Source{}, false
	}
	return *src, true
}

// Sources returns a copy of every source, in no particular order.
func (s *State) Sources() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, 0, len(s.sources))
	for _, src := range s.sources {
		out = append(out, *src)
	}
	return out
}

// UpdateSource applies fn to the source with the given id under the
// write lock, and reports whether the source existed.
func (s *State) UpdateSource(id int, fn func(*Source)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	src, ok := s.sources[id]
	if !ok {
		return false
	}
	fn(src)
	return true
}

// SetReferencePosition sets the listening reference point.
func (s *State) SetReferencePosition(p geom.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referencePosition = p
}

// ReferencePosition returns the listening reference point.
func (s *State) ReferencePosition() geom.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.referencePosition
}

// SetReferenceOrientation sets the listening reference orientation.
func (s *State) SetReferenceOrientation(o geom.Orientation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referenceOrientation = o
}

// ReferenceOrientation returns the listening reference orientation.
func (s *State) ReferenceOrientation() geom.Orientation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.referenceOrientation
}

// SetReferenceOffsetPosition sets the reference's playback-relative
// position offset (used during scene playback).
func (s *State) SetReferenceOffsetPosition(p geom.Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referenceOffsetPos = p
}

// SetReferenceOffsetOrientation sets the reference's playback-relative
// orientation offset.
func (s *State) SetReferenceOffsetOrientation(o geom.Orientation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.referenceOffsetOri = o
}

// SetMasterVolume sets the linear master gain.
func (s *State) SetMasterVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterVolume = v
}

// MasterVolume returns the linear master gain.
func (s *State) MasterVolume() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.masterVolume
}

// SetMasterMute sets whether the entire scene is muted.
func (s *State) SetMasterMute(m bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.masterMute = m
}

// MasterMute reports whether the entire scene is muted.
func (s *State) MasterMute() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.masterMute
}

// SetAmplitudeReferenceDistance sets the distance, in meters, at
// which a point source's amplitude equals its nominal gain.
func (s *State) SetAmplitudeReferenceDistance(d float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.amplitudeReferenceDistance = d
}

// AmplitudeReferenceDistance returns the configured reference
// distance.
func (s *State) AmplitudeReferenceDistance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.amplitudeReferenceDistance
}

// SetDecayExponent sets the exponent of the 1/r^n amplitude decay law
// applied to point sources beyond the reference distance.
func (s *State) SetDecayExponent(e float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decayExponent = e
}

// DecayExponent returns the configured decay exponent.
func (s *State) DecayExponent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.decayExponent
}

// SetTransport sets whether the transport is rolling and, if so, the
// current frame.
func (s *State) SetTransport(rolling bool, frame int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transportRolling = rolling
	s.transportFrame = frame
}

// Transport returns whether the transport is rolling and the current
// frame.
func (s *State) Transport() (rolling bool, frame int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transportRolling, s.transportFrame
}

// SetProcessingActive records whether audio processing is enabled.
// The DCA engine does not read this flag; its output does not depend
// on it.
func (s *State) SetProcessingActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processingActive = active
}

// ProcessingActive reports whether audio processing is enabled.
func (s *State) ProcessingActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processingActive
}

// AmplitudeFactor computes the linear distance-decay factor a point
// source at the given distance receives, following a 1/r^n law
// normalized at AmplitudeReferenceDistance. Plane waves never decay;
// callers should only apply this to ModelPoint sources, and should
// clamp distance to at least the array radius before calling (as the
// renderer does to avoid focused sources).
func (s *State) AmplitudeFactor(distance float64) float64 {
	ref := s.AmplitudeReferenceDistance()
	if distance <= ref || ref <= 0 {
		return 1.0
	}
	return math.Pow(ref/distance, s.DecayExponent())
}

// LinearToDB converts a linear amplitude to decibels, mirroring
// apf::math::linear2dB (used by the network layer when reporting
// source/master levels).
func LinearToDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}
