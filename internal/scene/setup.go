package scene

import (
	"encoding/xml"
	"fmt"
	"io"

	"github.com/intuitionamiga/dcaspatial/internal/geom"
)

// LoudspeakerModel distinguishes regular array elements from
// subwoofers, which the DCA renderer cannot drive.
type LoudspeakerModel int

const (
	LoudspeakerNormal LoudspeakerModel = iota
	LoudspeakerSubwoofer
)

// Loudspeaker is one element of the reproduction setup.
type Loudspeaker struct {
	ID          int
	Position    geom.Position
	Orientation geom.Orientation
	Model       LoudspeakerModel
}

// ReproductionSetup is the fixed loudspeaker array the DCA renderer is
// configured for. It never changes at runtime.
type ReproductionSetup struct {
	Loudspeakers []Loudspeaker
	ArrayRadius  float64
	Order        int // ambisonics order, = len(Loudspeakers)/2 rounded down
}

type xmlReproductionSetup struct {
	XMLName      xml.Name `xml:"reproduction_setup"`
	Loudspeakers []struct {
		ID       int `xml:"id,attr"`
		Position struct {
			X float64 `xml:"x,attr"`
			Y float64 `xml:"y,attr"`
		} `xml:"position"`
		Orientation struct {
			Azimuth float64 `xml:"azimuth,attr"`
		} `xml:"orientation"`
		Model string `xml:"model,attr"`
	} `xml:"loudspeaker"`
}

// LoadReproductionSetup parses a reproduction-setup XML document and
// computes the array radius as the mean distance of every normal
// loudspeaker from the origin, mirroring
// DcaRenderer::load_reproduction_setup in
// original_source/src/dcarenderer.h. Subwoofers are rejected: the DCA
// algorithm has no channel for them.
func LoadReproductionSetup(r io.Reader) (*ReproductionSetup, error) {
	var doc xmlReproductionSetup
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("scene: parsing reproduction setup: %w", err)
	}
	if len(doc.Loudspeakers) == 0 {
		return nil, fmt.Errorf("scene: reproduction setup has no loudspeakers")
	}

	setup := &ReproductionSetup{}
	var total float64
	var normalCount int

	for _, ls := range doc.Loudspeakers {
		model := LoudspeakerNormal
		if ls.Model == "subwoofer" {
			model = LoudspeakerSubwoofer
		}
		if model == LoudspeakerSubwoofer {
			return nil, fmt.Errorf("scene: subwoofers are not supported by the DCA renderer (loudspeaker %d)", ls.ID)
		}
		speaker := Loudspeaker{
			ID:          ls.ID,
			Position:    geom.Position{X: ls.Position.X, Y: ls.Position.Y},
			Orientation: geom.Orientation{Azimuth: ls.Orientation.Azimuth},
			Model:       model,
		}
		setup.Loudspeakers = append(setup.Loudspeakers, speaker)
		total += speaker.Position.Length()
		normalCount++
	}

	setup.ArrayRadius = total / float64(normalCount)
	setup.Order = normalCount / 2 // round down, matches original_source

	return setup, nil
}
