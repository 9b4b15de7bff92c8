package main

import (
	"bufio"
	"net"
	"testing"
	"time"

	"github.com/intuitionamiga/dcaspatial/internal/dca"
	"github.com/intuitionamiga/dcaspatial/internal/netserver"
	"github.com/intuitionamiga/dcaspatial/internal/scene"
	"github.com/intuitionamiga/dcaspatial/internal/xmlproto"
)

func newTestController(t *testing.T) *controller {
	t.Helper()
	sc := scene.New()
	engine, err := dca.New(dca.Config{Order: 1, SampleRate: 48000, BlockSize: 32, ArrayRadius: 1.5, NumOutputs: 2}, sc, 1)
	if err != nil {
		t.Fatalf("dca.New() error: %v", err)
	}
	return newController(sc, engine, netserver.NewPublisher())
}

// dialSubscriber starts ctrl's controller and publisher behind a real
// netserver.Server and returns a connection subscribed to its
// broadcasts, the way a real control client would be. Using the real
// Server/Conn plumbing is the only way to observe Publisher.Broadcast
// from outside the netserver package, since its subscriber set is
// keyed on the unexported *netserver.Conn type.
func dialSubscriber(t *testing.T, ctrl *controller) (net.Conn, func()) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	server := netserver.NewServer(ctrl, ctrl.publisher, netserver.Config{})
	if err := server.Start(addr); err != nil {
		t.Fatalf("server.Start: %v", err)
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		server.Stop()
		t.Fatalf("net.Dial: %v", err)
	}
	// Let the accept loop register the subscriber before the test
	// issues any command that broadcasts.
	time.Sleep(20 * time.Millisecond)

	return conn, func() {
		conn.Close()
		server.Stop()
	}
}

// TestHandleStateSuppressesDuplicateTransportUpdate covers the
// transport-state idempotency guarantee: a request repeating the
// transport's current value must not cause a second <update> fragment
// to go out.
func TestHandleStateSuppressesDuplicateTransportUpdate(t *testing.T) {
	ctrl := newTestController(t)
	conn, cleanup := dialSubscriber(t, ctrl)
	defer cleanup()

	if err := ctrl.HandleState(&xmlproto.StateCommand{Transport: "start"}); err != nil {
		t.Fatalf("HandleState error: %v", err)
	}
	if err := ctrl.HandleState(&xmlproto.StateCommand{Transport: "start"}); err != nil {
		t.Fatalf("HandleState error: %v", err)
	}

	reader := bufio.NewReader(conn)
	conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	frag, err := reader.ReadString('$')
	if err != nil {
		t.Fatalf("expected one broadcast fragment, got error: %v", err)
	}
	if want := "<update><state transport='start'/></update>$"; frag != want {
		t.Fatalf("broadcast fragment = %q, want %q", frag, want)
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := reader.ReadByte(); err == nil {
		t.Fatal("repeating an identical transport-state request produced a duplicate broadcast")
	}
}

// TestHandleStateStopWhenNotRollingIsNoop mirrors the start case: a
// "stop" request while the transport is already stopped must not
// broadcast anything.
func TestHandleStateStopWhenNotRollingIsNoop(t *testing.T) {
	ctrl := newTestController(t)
	conn, cleanup := dialSubscriber(t, ctrl)
	defer cleanup()

	if err := ctrl.HandleState(&xmlproto.StateCommand{Transport: "stop"}); err != nil {
		t.Fatalf("HandleState error: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := bufio.NewReader(conn).ReadByte(); err == nil {
		t.Fatal("stopping an already-stopped transport produced a broadcast")
	}
}

// TestHandleStateTogglesAcrossStartStop confirms the suppression is
// state-tracking, not a one-shot latch: start, stop, start again must
// each broadcast exactly once, in order.
func TestHandleStateTogglesAcrossStartStop(t *testing.T) {
	ctrl := newTestController(t)
	conn, cleanup := dialSubscriber(t, ctrl)
	defer cleanup()

	reader := bufio.NewReader(conn)
	wantSeq := []string{
		"<update><state transport='start'/></update>$",
		"<update><state transport='stop'/></update>$",
		"<update><state transport='start'/></update>$",
	}
	transports := []string{"start", "stop", "start"}

	for i, transport := range transports {
		if err := ctrl.HandleState(&xmlproto.StateCommand{Transport: transport}); err != nil {
			t.Fatalf("HandleState(%q) error: %v", transport, err)
		}
		conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		frag, err := reader.ReadString('$')
		if err != nil {
			t.Fatalf("step %d: expected a broadcast, got error: %v", i, err)
		}
		if frag != wantSeq[i] {
			t.Fatalf("step %d: broadcast = %q, want %q", i, frag, wantSeq[i])
		}
	}
}

// TestHandleStateRejectsUnknownTransport ensures a malformed
// transport value is reported as an error and never broadcast.
func TestHandleStateRejectsUnknownTransport(t *testing.T) {
	ctrl := newTestController(t)
	conn, cleanup := dialSubscriber(t, ctrl)
	defer cleanup()

	if err := ctrl.HandleState(&xmlproto.StateCommand{Transport: "pause"}); err == nil {
		t.Fatal("expected an error for an unrecognized transport value")
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if _, err := bufio.NewReader(conn).ReadByte(); err == nil {
		t.Fatal("rejected transport command still produced a broadcast")
	}
}
