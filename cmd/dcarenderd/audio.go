package main

import (
	"context"
	"log"
	"time"

	"github.com/intuitionamiga/dcaspatial/internal/dca"
)

// audioDriver ticks the rendering engine at block rate. There is no
// audio transport wired in (see DESIGN.md, entry "dropped-audio-backend"
// for why ebitengine/oto was not a fit for an N-loudspeaker feed); each
// tick instead renders a block of silence to the configured output
// channel count, exercising the full scheduling graph the way
// apf::mimoprocessor_file_io drives MimoProcessor one block at a time.
type audioDriver struct {
	engine    *dca.Engine
	blockSize int
	period    time.Duration
	out       [][]float64
}

func newAudioDriver(engine *dca.Engine, sampleRate, blockSize int) *audioDriver {
	out := make([][]float64, engine.NumOutputs())
	for i := range out {
		out[i] = make([]float64, blockSize)
	}
	return &audioDriver{
		engine:    engine,
		blockSize: blockSize,
		period:    time.Duration(blockSize) * time.Second / time.Duration(sampleRate),
		out:       out,
	}
}

func (d *audioDriver) run(ctx context.Context) {
	ticker := time.NewTicker(d.period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.engine.AudioCallback(ctx, nil, d.out); err != nil {
				log.Printf("audio callback: %v", err)
			}
		}
	}
}
