package netserver

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/intuitionamiga/dcaspatial/internal/xmlproto"
)

type fakeController struct {
	sources    []*xmlproto.SourceCommand
	references []*xmlproto.ReferenceCommand
	states     []*xmlproto.StateCommand
	failNext   bool
}

func (f *fakeController) HandleSource(c *xmlproto.SourceCommand) error {
	if f.failNext {
		f.failNext = false
		return errBoom
	}
	f.sources = append(f.sources, c)
	return nil
}
func (f *fakeController) HandleReference(c *xmlproto.ReferenceCommand) error {
	f.references = append(f.references, c)
	return nil
}
func (f *fakeController) HandleState(c *xmlproto.StateCommand) error {
	f.states = append(f.states, c)
	return nil
}

type boomErr struct{}

func (boomErr) Error() string { return "boom" }

var errBoom = boomErr{}

func dial(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func TestServerDispatchesSourceCommand(t *testing.T) {
	ctrl := &fakeController{}
	pub := NewPublisher()
	srv := NewServer(ctrl, pub, Config{Terminator: '$'})
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	conn := dial(t, srv.listener.Addr().String())
	defer conn.Close()

	_, err := conn.Write([]byte(`<request><source new="true" name="s1"><position x="1.0" y="2.0"/></source></request>$`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(ctrl.sources) > 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if len(ctrl.sources) != 1 {
		t.Fatalf("got %d dispatched source commands, want 1", len(ctrl.sources))
	}
	if !ctrl.sources[0].New || ctrl.sources[0].Name != "s1" {
		t.Fatalf("unexpected source command: %+v", ctrl.sources[0])
	}
}

func TestServerRepliesWithErrorOnMalformedMessage(t *testing.T) {
	ctrl := &fakeController{}
	pub := NewPublisher()
	srv := NewServer(ctrl, pub, Config{Terminator: '$'})
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	conn := dial(t, srv.listener.Addr().String())
	defer conn.Close()

	_, err := conn.Write([]byte(`<request><source id="3"`))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err = conn.Write([]byte("$"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(time.Second))
	reader := bufio.NewReader(conn)
	resp, err := reader.ReadString('$')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if !strings.HasPrefix(resp, "<error>") {
		t.Fatalf("response = %q, want an <error> fragment", resp)
	}
}

func TestPublisherBroadcastsToSubscribedConnections(t *testing.T) {
	ctrl := &fakeController{}
	pub := NewPublisher()
	srv := NewServer(ctrl, pub, Config{Terminator: '$'})
	if err := srv.Start("127.0.0.1:0"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Stop()

	conn := dial(t, srv.listener.Addr().String())
	defer conn.Close()

	// Give the accept loop a moment to register the connection as a
	// subscriber before broadcasting.
	time.Sleep(20 * time.Millisecond)
	pub.Broadcast("<update><source id='3'/></update>")

	conn.SetReadDeadline(time.Now().Add(time.Second))
	reader := bufio.NewReader(conn)
	resp, err := reader.ReadString('$')
	if err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if !strings.Contains(resp, "source id='3'") {
		t.Fatalf("broadcast = %q, missing expected content", resp)
	}
}

func TestSplitOnTerminator(t *testing.T) {
	split := splitOnTerminator('$')
	adv, tok, err := split([]byte("abc$def"), false)
	if err != nil || adv != 4 || string(tok) != "abc" {
		t.Fatalf("split() = %d, %q, %v", adv, tok, err)
	}
	adv, tok, err = split([]byte("no-terminator"), false)
	if err != nil || adv != 0 || tok != nil {
		t.Fatalf("split() on partial data = %d, %q, %v; want 0, nil, nil", adv, tok, err)
	}
	adv, tok, err = split([]byte("tail"), true)
	if err != nil || adv != 4 || string(tok) != "tail" {
		t.Fatalf("split() at EOF = %d, %q, %v", adv, tok, err)
	}
}
