package main

import (
	"context"
	"sort"
	"time"

	"github.com/intuitionamiga/dcaspatial/internal/dca"
	"github.com/intuitionamiga/dcaspatial/internal/netserver"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
	"github.com/intuitionamiga/dcaspatial/internal/xmlproto"
)

// meteringPeriod matches the original's typical GUI meter refresh
// rate, fast enough to feel live without spamming subscribers every
// audio block (send_levels in networksubscriber.cpp runs on its own
// timer, independent of the audio thread).
const meteringPeriod = 200 * time.Millisecond

// meterLevels periodically broadcasts every connected source's
// current signal level, mirroring NetworkSubscriber::send_levels.
func meterLevels(ctx context.Context, sc *scene.State, engine *dca.Engine, publisher *netserver.Publisher) {
	ticker := time.NewTicker(meteringPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			levels := engine.SourceLevels()
			if len(levels) == 0 {
				continue
			}
			ids := make([]int, 0, len(levels))
			for id := range levels {
				ids = append(ids, id)
			}
			sort.Ints(ids)
			publisher.Broadcast(xmlproto.Levels(ids, scene.LinearToDB, levels))
		}
	}
}
