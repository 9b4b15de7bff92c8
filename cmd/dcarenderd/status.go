package main

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/intuitionamiga/dcaspatial/internal/dca"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
)

// statusLine redraws a single status line on stdout, following
// terminal_host.go's use of golang.org/x/term for terminal control —
// here just GetSize, to truncate the line rather than wrapping it.
type statusLine struct {
	scene   *scene.State
	engine  *dca.Engine
	started time.Time
	lastLen int
}

func newStatusLine(sc *scene.State, engine *dca.Engine) *statusLine {
	return &statusLine{scene: sc, engine: engine, started: time.Now()}
}

func (s *statusLine) draw() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}
	rolling, _ := s.scene.Transport()
	transport := "stopped"
	if rolling {
		transport = "rolling"
	}
	line := fmt.Sprintf("dcarenderd  up %-8s  sources=%-3d  outputs=%-3d  order=%-2d  transport=%s  master=%.1fdB",
		time.Since(s.started).Round(time.Second),
		len(s.scene.Sources()), s.engine.NumOutputs(), s.engine.Order(),
		transport, scene.LinearToDB(s.scene.MasterVolume()))

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && len(line) > w {
		line = line[:w]
	}
	pad := ""
	if s.lastLen > len(line) {
		pad = fmt.Sprintf("%*s", s.lastLen-len(line), "")
	}
	fmt.Fprintf(os.Stdout, "\r%s%s", line, pad)
	s.lastLen = len(line)
}

// clear erases the status line on shutdown so the final log lines
// print cleanly below it.
func (s *statusLine) clear() {
	if !term.IsTerminal(int(os.Stdout.Fd())) || s.lastLen == 0 {
		return
	}
	fmt.Fprintf(os.Stdout, "\r%*s\r", s.lastLen, "")
}
