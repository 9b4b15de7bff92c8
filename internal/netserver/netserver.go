// Package netserver implements the TCP control-plane server: a
// connection-per-client model where each connection reads
// character-terminated XML messages, dispatches them into a
// Controller, and may subscribe to receive outbound update fragments.
//
// Ground truth: original_source/src/boostnetwork/server.h (Server,
// asio-based accept loop) and connection.h (Connection: per-client
// socket, read/write/timeout handlers, an attached NetworkSubscriber).
// asio's reactor is replaced here with a goroutine-per-connection
// model, the idiomatic Go net/bufio equivalent; the per-connection
// deadline_timer becomes net.Conn's SetReadDeadline.
package netserver

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/intuitionamiga/dcaspatial/internal/xmlproto"
)

// Controller receives parsed commands. Implementations translate a
// command into a scene/engine state change and must not block on the
// RT path: command parsing must never block the audio thread.
type Controller interface {
	HandleSource(*xmlproto.SourceCommand) error
	HandleReference(*xmlproto.ReferenceCommand) error
	HandleState(*xmlproto.StateCommand) error
}

// Publisher fans outbound update fragments out to every subscribed
// connection, mirroring ssr::Publisher/NetworkSubscriber's
// broadcast-to-all-clients behavior.
type Publisher struct {
	mu   sync.Mutex
	subs map[*Conn]struct{}
}

// NewPublisher returns an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{subs: make(map[*Conn]struct{})}
}

func (p *Publisher) subscribe(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[c] = struct{}{}
}

func (p *Publisher) unsubscribe(c *Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, c)
}

// Broadcast writes fragment, terminated, to every subscribed
// connection. Write errors are swallowed here; a broken connection
// will fail on its own read loop and unsubscribe itself.
func (p *Publisher) Broadcast(fragment string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for c := range p.subs {
		_ = c.writeFragment(fragment)
	}
}

// Config configures a Server.
type Config struct {
	// Terminator delimits messages on the wire; defaults to '$'.
	Terminator byte
	// IdleTimeout closes a connection that sends nothing (well-formed
	// or not) for this long. Zero disables the timeout.
	IdleTimeout time.Duration
}

// Server accepts TCP connections and serves each on its own
// goroutine.
type Server struct {
	controller Controller
	publisher  *Publisher
	cfg        Config

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
	conns    map[*Conn]struct{}
}

// NewServer returns a Server driven by controller and broadcasting
// through publisher.
func NewServer(controller Controller, publisher *Publisher, cfg Config) *Server {
	if cfg.Terminator == 0 {
		cfg.Terminator = '$'
	}
	return &Server{
		controller: controller,
		publisher:  publisher,
		cfg:        cfg,
		conns:      make(map[*Conn]struct{}),
	}
}

// Start listens on addr and begins accepting connections in the
// background. Returns once the listener is bound.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("netserver: listen: %w", err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.wg.Add(1)
	go s.acceptLoop(ln)
	return nil
}

func (s *Server) acceptLoop(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			return // listener closed by Stop
		}
		c := newConn(conn, s.controller, s.publisher, s.cfg)
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			c.serve()
			s.mu.Lock()
			delete(s.conns, c)
			s.mu.Unlock()
		}()
	}
}

// Stop closes the listener and every open connection, then waits for
// their goroutines to exit. Idempotent.
func (s *Server) Stop() error {
	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	conns := make([]*Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	for _, c := range conns {
		_ = c.conn.Close()
	}
	s.wg.Wait()
	return nil
}

// Conn is one client connection: reads terminated messages, parses
// them as xmlproto requests, dispatches into the Controller, and
// writes any outbound fragments the Publisher broadcasts.
type Conn struct {
	conn       net.Conn
	controller Controller
	publisher  *Publisher
	cfg        Config

	writeMu sync.Mutex
}

func newConn(conn net.Conn, controller Controller, publisher *Publisher, cfg Config) *Conn {
	return &Conn{conn: conn, controller: controller, publisher: publisher, cfg: cfg}
}

func (c *Conn) serve() {
	c.publisher.subscribe(c)
	defer c.publisher.unsubscribe(c)
	defer c.conn.Close()

	scanner := bufio.NewScanner(c.conn)
	scanner.Split(splitOnTerminator(c.cfg.Terminator))

	for {
		if c.cfg.IdleTimeout > 0 {
			_ = c.conn.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
		}
		if !scanner.Scan() {
			return // EOF, timeout, or ill-formed stream: close the session
		}
		msg := scanner.Bytes()
		if len(msg) == 0 {
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Conn) handleMessage(msg []byte) {
	req, err := xmlproto.ParseRequest(msg)
	if err != nil {
		_ = c.writeFragment(xmlproto.Error(err.Error()))
		return
	}

	var dispatchErr error
	switch {
	case req.Source != nil:
		dispatchErr = c.controller.HandleSource(req.Source)
	case req.Reference != nil:
		dispatchErr = c.controller.HandleReference(req.Reference)
	case req.State != nil:
		dispatchErr = c.controller.HandleState(req.State)
	}
	if dispatchErr != nil {
		_ = c.writeFragment(xmlproto.Error(dispatchErr.Error()))
	}
}

func (c *Conn) writeFragment(fragment string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := io.WriteString(c.conn, fragment+string(c.cfg.Terminator))
	return err
}

// splitOnTerminator returns a bufio.SplitFunc that delimits tokens on
// a single terminator byte, analogous to asio's
// read_until(streambuf, end_of_message_character) in the original.
func splitOnTerminator(terminator byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		for i, b := range data {
			if b == terminator {
				return i + 1, data[:i], nil
			}
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
