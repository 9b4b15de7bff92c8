// Command dcarenderd hosts a DCA/NFC-HOA spatial audio renderer: it
// loads a loudspeaker reproduction setup, drives the rendering engine
// on a fixed block-rate ticker, and exposes the scene over the
// line-terminated XML control protocol.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intuitionamiga/dcaspatial/internal/dca"
	"github.com/intuitionamiga/dcaspatial/internal/netserver"
	"github.com/intuitionamiga/dcaspatial/internal/paramap"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
)

func main() {
	var (
		setupPath  = flag.String("setup", "", "path to the reproduction setup XML file (required)")
		listenAddr = flag.String("listen", ":9422", "address the control protocol listens on")
		sampleRate = flag.Int("samplerate", 44100, "audio sample rate in Hz")
		blockSize  = flag.Int("blocksize", 512, "samples rendered per audio block")
		threads    = flag.Int("threads", 0, "worker goroutines per block; 0 uses GOMAXPROCS")
		idleTO     = flag.Duration("idle-timeout", 5*time.Minute, "close a control connection idle this long; 0 disables")
		denormal   = flag.String("denormal", "ac", "denormal prevention policy: none, dc, ac, quantization, setzero")
	)
	flag.Parse()

	if *setupPath == "" {
		fmt.Fprintln(os.Stderr, "dcarenderd: -setup is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := paramap.New()
	paramap.Set(cfg, "reproduction_setup", *setupPath)
	paramap.Set(cfg, "listen", *listenAddr)
	paramap.Set(cfg, "sample_rate", *sampleRate)
	paramap.Set(cfg, "block_size", *blockSize)
	paramap.Set(cfg, "threads", *threads)
	paramap.Set(cfg, "idle_timeout", idleTO.String())
	paramap.Set(cfg, "denormal", *denormal)

	if err := run(cfg); err != nil {
		log.Fatalf("dcarenderd: %v", err)
	}
}

// run builds and drives the renderer from a parameter map, the way
// apf::parameter_map-configured components in the original are built
// from a single typed dictionary rather than positional arguments.
func run(cfg *paramap.Map) error {
	setupPath, err := cfg.String("reproduction_setup")
	if err != nil {
		return err
	}
	listenAddr := paramap.GetOr(cfg, "listen", ":9422")
	sampleRate := paramap.GetOr(cfg, "sample_rate", 44100)
	blockSize := paramap.GetOr(cfg, "block_size", 512)
	threads := paramap.GetOr(cfg, "threads", 0)
	denormalPolicy := paramap.GetOr(cfg, "denormal", "ac")
	idleTimeout, err := time.ParseDuration(paramap.GetOr(cfg, "idle_timeout", "5m0s"))
	if err != nil {
		return fmt.Errorf("parsing idle_timeout: %w", err)
	}

	f, err := os.Open(setupPath)
	if err != nil {
		return fmt.Errorf("opening reproduction setup: %w", err)
	}
	setup, err := scene.LoadReproductionSetup(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("loading reproduction setup: %w", err)
	}
	log.Printf("loaded reproduction setup: %d loudspeakers, array radius %.3fm, order %d",
		len(setup.Loudspeakers), setup.ArrayRadius, setup.Order)

	sc := scene.New()
	engine, err := dca.NewFromSetup(setup, sampleRate, blockSize, threads, denormalPolicy, sc)
	if err != nil {
		return fmt.Errorf("building DCA engine: %w", err)
	}

	publisher := netserver.NewPublisher()
	ctrl := newController(sc, engine, publisher)
	server := netserver.NewServer(ctrl, publisher, netserver.Config{IdleTimeout: idleTimeout})
	if err := server.Start(listenAddr); err != nil {
		return fmt.Errorf("starting control server: %w", err)
	}
	log.Printf("control protocol listening on %s", listenAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine.Activate()
	status := newStatusLine(sc, engine)

	driver := newAudioDriver(engine, sampleRate, blockSize)
	go driver.run(ctx)
	go meterLevels(ctx, sc, engine, publisher)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Print("shutting down")
			status.clear()
			return server.Stop()
		case <-ticker.C:
			status.draw()
		}
	}
}
