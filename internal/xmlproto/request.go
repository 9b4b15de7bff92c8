// Package xmlproto implements the line-terminated XML command/update
// protocol clients use to edit the scene and receive notifications.
//
// Ground truth: original_source/src/boostnetwork/networksubscriber.cpp
// for the shape of outbound <update> fragments (new_source,
// set_source_position, set_reference_position, set_master_volume,
// set_transport_state, ...); the inbound <request> grammar follows
// that same surface, since the original's request parser did not
// survive distillation into this retrieval pack (see DESIGN.md, entry
// "xmlproto-request").
package xmlproto

import (
	"encoding/xml"
	"fmt"

	"github.com/intuitionamiga/dcaspatial/internal/geom"
)

// Request is one parsed inbound <request> fragment. At most one of
// Source, Reference or State is non-nil.
type Request struct {
	Source    *SourceCommand
	Reference *ReferenceCommand
	State     *StateCommand
}

// SourceCommand edits or creates/deletes a source. Pointer fields are
// nil when the corresponding XML attribute/element was absent, so
// that a request can update only the fields it mentions.
type SourceCommand struct {
	ID          int
	New         bool
	Delete      bool
	Name        string
	Position    *geom.Position
	Orientation *geom.Orientation
	Model       string
	Gain        *float64
	Mute        *bool
	Fixed       *bool
}

// ReferenceCommand edits the listening reference point.
type ReferenceCommand struct {
	Position    *geom.Position
	Orientation *geom.Orientation
}

// StateCommand edits transport or master-volume state.
type StateCommand struct {
	Transport    string // "start" or "stop"; empty if not present
	MasterVolume *float64
}

type xmlPosition struct {
	X     float64 `xml:"x,attr"`
	Y     float64 `xml:"y,attr"`
	Fixed *bool   `xml:"fixed,attr"`
}

type xmlOrientation struct {
	Azimuth float64 `xml:"azimuth,attr"`
}

type xmlSource struct {
	ID          int             `xml:"id,attr"`
	New         bool            `xml:"new,attr"`
	Delete      bool            `xml:"delete,attr"`
	Name        string          `xml:"name,attr"`
	Model       string          `xml:"model,attr"`
	Gain        *float64        `xml:"gain,attr"`
	Mute        *bool           `xml:"mute"`
	Position    *xmlPosition    `xml:"position"`
	Orientation *xmlOrientation `xml:"orientation"`
}

type xmlReference struct {
	Position    *xmlPosition    `xml:"position"`
	Orientation *xmlOrientation `xml:"orientation"`
}

type xmlState struct {
	Transport string   `xml:"transport,attr"`
	Volume    *float64 `xml:"volume,attr"`
}

type xmlRequest struct {
	XMLName   xml.Name      `xml:"request"`
	Source    *xmlSource    `xml:"source"`
	Reference *xmlReference `xml:"reference"`
	State     *xmlState     `xml:"state"`
}

// ParseRequest decodes one <request>...</request> fragment (the
// terminator character, if any, must already be stripped by the
// caller; see netserver).
func ParseRequest(data []byte) (*Request, error) {
	var doc xmlRequest
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("xmlproto: %w", err)
	}

	req := &Request{}
	switch {
	case doc.Source != nil:
		s := doc.Source
		if !s.New && !s.Delete && s.ID == 0 {
			return nil, fmt.Errorf("xmlproto: source command missing id")
		}
		cmd := &SourceCommand{
			ID:     s.ID,
			New:    s.New,
			Delete: s.Delete,
			Name:   s.Name,
			Model:  s.Model,
			Gain:   s.Gain,
			Mute:   s.Mute,
		}
		if s.Position != nil {
			cmd.Position = &geom.Position{X: s.Position.X, Y: s.Position.Y}
			cmd.Fixed = s.Position.Fixed
		}
		if s.Orientation != nil {
			cmd.Orientation = &geom.Orientation{Azimuth: s.Orientation.Azimuth}
		}
		req.Source = cmd
	case doc.Reference != nil:
		r := doc.Reference
		cmd := &ReferenceCommand{}
		if r.Position != nil {
			cmd.Position = &geom.Position{X: r.Position.X, Y: r.Position.Y}
		}
		if r.Orientation != nil {
			cmd.Orientation = &geom.Orientation{Azimuth: r.Orientation.Azimuth}
		}
		req.Reference = cmd
	case doc.State != nil:
		req.State = &StateCommand{
			Transport:    doc.State.Transport,
			MasterVolume: doc.State.Volume,
		}
	default:
		return nil, fmt.Errorf("xmlproto: request has no recognized command")
	}
	return req, nil
}
