package xmlproto

import (
	"testing"

	"github.com/intuitionamiga/dcaspatial/internal/geom"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
)

func TestParseRequestNewSource(t *testing.T) {
	req, err := ParseRequest([]byte(`<request><source new="true" name="s1"><position x="1.0" y="2.0"/></source></request>`))
	if err != nil {
		t.Fatalf("ParseRequest error: %v", err)
	}
	if req.Source == nil || !req.Source.New {
		t.Fatalf("expected new source command, got %+v", req.Source)
	}
	if req.Source.Position == nil || req.Source.Position.X != 1.0 || req.Source.Position.Y != 2.0 {
		t.Fatalf("position not parsed: %+v", req.Source.Position)
	}
	if req.Source.Name != "s1" {
		t.Fatalf("name = %q, want s1", req.Source.Name)
	}
}

func TestParseRequestMute(t *testing.T) {
	req, err := ParseRequest([]byte(`<request><source id="3"><mute>true</mute></source></request>`))
	if err != nil {
		t.Fatalf("ParseRequest error: %v", err)
	}
	if req.Source == nil || req.Source.ID != 3 {
		t.Fatalf("expected source id 3, got %+v", req.Source)
	}
	if req.Source.Mute == nil || !*req.Source.Mute {
		t.Fatalf("mute not parsed: %+v", req.Source.Mute)
	}
}

func TestParseRequestTransportStart(t *testing.T) {
	req, err := ParseRequest([]byte(`<request><state transport="start"/></request>`))
	if err != nil {
		t.Fatalf("ParseRequest error: %v", err)
	}
	if req.State == nil || req.State.Transport != "start" {
		t.Fatalf("expected transport start, got %+v", req.State)
	}
}

func TestParseRequestMissingSourceIDErrors(t *testing.T) {
	if _, err := ParseRequest([]byte(`<request><source><mute>true</mute></source></request>`)); err == nil {
		t.Fatal("expected error for source command with no id/new/delete")
	}
}

func TestParseRequestMalformedXML(t *testing.T) {
	if _, err := ParseRequest([]byte(`<request><source id="3"`)); err == nil {
		t.Fatal("expected error for malformed xml")
	}
}

func TestParseRequestUnrecognizedCommand(t *testing.T) {
	if _, err := ParseRequest([]byte(`<request></request>`)); err == nil {
		t.Fatal("expected error for request with no recognized command")
	}
}

func TestUpdateBuildersProduceWellFormedFragments(t *testing.T) {
	cases := []string{
		NewSource(3),
		DeleteSource(3),
		DeleteAllSources(),
		SourcePosition(3, geom.Position{X: 1, Y: 2}),
		SourcePositionFixed(3, true),
		SourceOrientation(3, geom.Orientation{Azimuth: 90}),
		SourceGain(3, scene.LinearToDB, 0.5),
		SourceMute(3, true),
		SourceModel(3, "point"),
		ReferencePosition(geom.Position{X: 0, Y: 0}),
		ReferenceOrientation(geom.Orientation{Azimuth: 0}),
		MasterVolume(scene.LinearToDB, 1.0),
		TransportState(true),
		TransportState(false),
		Error("unknown source id"),
	}
	for _, frag := range cases {
		if len(frag) == 0 {
			t.Error("empty fragment produced")
		}
	}
}

func TestErrorEscapesSpecialCharacters(t *testing.T) {
	got := Error("a < b & c > d")
	want := "<error>a &lt; b &amp; c &gt; d</error>"
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
