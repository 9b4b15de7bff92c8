package xmlproto

import (
	"fmt"
	"strconv"

	"github.com/intuitionamiga/dcaspatial/internal/geom"
)

// The builders below mirror original_source's NetworkSubscriber
// methods one-for-one (new_source, delete_source, set_source_position,
// set_source_orientation, set_source_gain, set_source_mute,
// set_source_model, set_reference_position, set_reference_orientation,
// set_master_volume, set_transport_state, send_levels), each producing
// one <update> fragment built by direct string concatenation, exactly
// as the original does it rather than through a generic marshaler.

func f(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// NewSource builds the fragment announcing a newly created source.
func NewSource(id int) string {
	return fmt.Sprintf("<update><source id='%d'/></update>", id)
}

// DeleteSource builds the fragment announcing a source's removal.
func DeleteSource(id int) string {
	return fmt.Sprintf("<update><delete><source id='%d'/></delete></update>", id)
}

// DeleteAllSources builds the fragment announcing every source was
// removed at once.
func DeleteAllSources() string {
	return "<update><delete><source id='0'/></delete></update>"
}

// SourcePosition builds the fragment announcing a source's new
// position.
func SourcePosition(id int, p geom.Position) string {
	return fmt.Sprintf("<update><source id='%d'><position x='%s' y='%s'/></source></update>",
		id, f(p.X), f(p.Y))
}

// SourcePositionFixed builds the fragment announcing whether a
// source's position is now fixed (immune to transport playback).
func SourcePositionFixed(id int, fixed bool) string {
	return fmt.Sprintf("<update><source id='%d'><position fixed='%t'/></source></update>", id, fixed)
}

// SourceOrientation builds the fragment announcing a source's new
// orientation.
func SourceOrientation(id int, o geom.Orientation) string {
	return fmt.Sprintf("<update><source id='%d'><orientation azimuth='%s'/></source></update>",
		id, f(o.Azimuth))
}

// SourceGain builds the fragment announcing a source's new gain, in
// dB (the on-wire unit the original protocol uses for level fields).
func SourceGain(id int, linearToDB func(float64) float64, gain float64) string {
	return fmt.Sprintf("<update><source id='%d' volume='%s'/></update>", id, f(linearToDB(gain)))
}

// SourceMute builds the fragment announcing a source's mute state.
func SourceMute(id int, mute bool) string {
	return fmt.Sprintf("<update><source id='%d' mute='%t'/></update>", id, mute)
}

// SourceModel builds the fragment announcing a source's rendering
// model ("point" or "plane").
func SourceModel(id int, model string) string {
	return fmt.Sprintf("<update><source id='%d' model='%s'/></update>", id, model)
}

// ReferencePosition builds the fragment announcing the listening
// reference's new position.
func ReferencePosition(p geom.Position) string {
	return fmt.Sprintf("<update><reference><position x='%s' y='%s'/></reference></update>", f(p.X), f(p.Y))
}

// ReferenceOrientation builds the fragment announcing the listening
// reference's new orientation.
func ReferenceOrientation(o geom.Orientation) string {
	return fmt.Sprintf("<update><reference><orientation azimuth='%s'/></reference></update>", f(o.Azimuth))
}

// ReferenceOffsetPosition builds the fragment announcing the
// reference's playback-relative position offset.
func ReferenceOffsetPosition(p geom.Position) string {
	return fmt.Sprintf("<update><reference_offset><position x='%s' y='%s'/></reference_offset></update>", f(p.X), f(p.Y))
}

// ReferenceOffsetOrientation builds the fragment announcing the
// reference's playback-relative orientation offset.
func ReferenceOffsetOrientation(o geom.Orientation) string {
	return fmt.Sprintf("<update><reference_offset><orientation azimuth='%s'/></reference_offset></update>", f(o.Azimuth))
}

// MasterVolume builds the fragment announcing the scene's new master
// volume, in dB.
func MasterVolume(linearToDB func(float64) float64, volume float64) string {
	return fmt.Sprintf("<update><scene volume='%s'/></update>", f(linearToDB(volume)))
}

// TransportState builds the fragment announcing a transport
// start/stop edge. Callers should only emit this when the state
// actually changed: a repeated request for the same transport state
// must not fire a duplicate update.
func TransportState(rolling bool) string {
	state := "stop"
	if rolling {
		state = "start"
	}
	return fmt.Sprintf("<update><state transport='%s'/></update>", state)
}

// SourceLevel builds the fragment reporting one source's current
// signal level, in dB.
func SourceLevel(id int, linearToDB func(float64) float64, level float64) string {
	return fmt.Sprintf("<update><source id='%d' level='%s'/></update>", id, f(linearToDB(level)))
}

// Levels builds a single <update> fragment batching every source's
// current level, mirroring NetworkSubscriber::send_levels, which
// sends one message per metering tick rather than one per source.
func Levels(ids []int, linearToDB func(float64) float64, levels map[int]float64) string {
	out := "<update>"
	for _, id := range ids {
		out += fmt.Sprintf("<source id='%d' level='%s'/>", id, f(linearToDB(levels[id])))
	}
	out += "</update>"
	return out
}

// Error builds an <error> fragment reported synchronously to the
// connection that submitted a malformed or invalid command.
func Error(message string) string {
	return fmt.Sprintf("<error>%s</error>", escapeText(message))
}

func escapeText(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '<':
			out = append(out, []rune("&lt;")...)
		case '>':
			out = append(out, []rune("&gt;")...)
		case '&':
			out = append(out, []rune("&amp;")...)
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
