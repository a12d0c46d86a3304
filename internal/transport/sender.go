// Package transport implements the pluggable egress/ingress capabilities
// the replayer, the client algorithm, and the matching stub dispatch
// through: UDP multicast, TCP, file, console, null, plus NATS and ZeroMQ
// modes pulled in from the rest of the example corpus.
//
// Senders are grounded on backend/cmd/zmq-trader/main.go's PUSH-socket
// send loop and backend/cmd/nats-dex/main.go's publish call; receivers on
// backend/cmd/zmq-exchange/main.go's PULL-socket receive loop.
package transport

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"sync/atomic"

	"golang.org/x/net/ipv4"

	"github.com/BryWillow/beacon/internal/telemetry"
)

// Sender is the capability every egress mode implements, spec.md §4.8.
type Sender interface {
	Send(b []byte) bool
	Flush() error
	MessagesSent() uint64
	Close() error
}

// baseSender tracks the shared messages-sent counter so every concrete
// sender gets MessagesSent for free.
type baseSender struct {
	sent atomic.Uint64
}

func (b *baseSender) MessagesSent() uint64 { return b.sent.Load() }

// --- UDP multicast sender ---

// UDPMulticastSender sends datagrams to a multicast group, spec.md §4.8:
// TTL from config (default 1), loopback enabled, best-effort 2 MiB send
// buffer.
type UDPMulticastSender struct {
	baseSender
	conn *net.UDPConn
	log  telemetry.Logger
}

// NewUDPMulticastSender dials addr:port as a multicast destination.
func NewUDPMulticastSender(addr string, port int, ttl int) (*UDPMulticastSender, error) {
	raddr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", addr, port))
	if err != nil {
		return nil, fmt.Errorf("transport: resolve multicast addr: %w", err)
	}
	conn, err := net.DialUDP("udp4", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("transport: dial multicast: %w", err)
	}
	if err := conn.SetWriteBuffer(2 << 20); err != nil {
		telemetry.Default().Warn("multicast send buffer size not honored", "err", err)
	}
	if err := ipv4.NewConn(conn).SetMulticastTTL(ttl); err != nil {
		telemetry.Default().Warn("multicast TTL not honored", "err", err)
	}
	return &UDPMulticastSender{conn: conn, log: telemetry.New("udp-sender")}, nil
}

func (s *UDPMulticastSender) Send(b []byte) bool {
	if _, err := s.conn.Write(b); err != nil {
		s.log.Warn("multicast send failed", "err", err)
		return false
	}
	s.sent.Add(1)
	return true
}

func (s *UDPMulticastSender) Flush() error { return nil }
func (s *UDPMulticastSender) Close() error { return s.conn.Close() }

// --- TCP sender ---

// TCPSender listens on a port and accepts exactly one client at
// construction time (blocking), per spec.md §4.8.
type TCPSender struct {
	baseSender
	ln   net.Listener
	conn net.Conn
	log  telemetry.Logger
}

// NewTCPSender listens on port and blocks until one client connects.
func NewTCPSender(port int) (*TCPSender, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("transport: tcp listen: %w", err)
	}
	return AcceptTCPSender(ln)
}

// AcceptTCPSender blocks until one client connects to ln and wraps it as a
// Sender. Split out from NewTCPSender so callers (and tests) that need the
// listener's bound address before a client exists can call net.Listen
// themselves first.
func AcceptTCPSender(ln net.Listener) (*TCPSender, error) {
	conn, err := ln.Accept()
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("transport: tcp accept: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
		_ = tc.SetWriteBuffer(2 << 20)
	}
	return &TCPSender{ln: ln, conn: conn, log: telemetry.New("tcp-sender")}, nil
}

func (s *TCPSender) Send(b []byte) bool {
	n, err := s.conn.Write(b)
	if err != nil || n != len(b) {
		s.log.Warn("tcp partial or failed write", "wrote", n, "want", len(b), "err", err)
		return false
	}
	s.sent.Add(1)
	return true
}

func (s *TCPSender) Flush() error { return nil }
func (s *TCPSender) Close() error {
	s.conn.Close()
	return s.ln.Close()
}

// --- File sender ---

// FileSender appends binary records to a file.
type FileSender struct {
	baseSender
	f *os.File
	w *bufio.Writer
}

func NewFileSender(path string) (*FileSender, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("transport: open output file: %w", err)
	}
	return &FileSender{f: f, w: bufio.NewWriter(f)}, nil
}

func (s *FileSender) Send(b []byte) bool {
	if _, err := s.w.Write(b); err != nil {
		return false
	}
	s.sent.Add(1)
	return true
}

func (s *FileSender) Flush() error { return s.w.Flush() }
func (s *FileSender) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}

// --- Console sender ---

// ConsoleSender writes a one-line hex summary of each record to stdout.
// A debugging aid, spec.md §4.8.
type ConsoleSender struct {
	baseSender
}

func NewConsoleSender() *ConsoleSender { return &ConsoleSender{} }

func (s *ConsoleSender) Send(b []byte) bool {
	fmt.Printf("% x\n", b)
	s.sent.Add(1)
	return true
}

func (s *ConsoleSender) Flush() error { return nil }
func (s *ConsoleSender) Close() error { return nil }

// --- Null sender ---

// NullSender discards everything. A debugging aid, spec.md §4.8.
type NullSender struct {
	baseSender
}

func NewNullSender() *NullSender { return &NullSender{} }

func (s *NullSender) Send(b []byte) bool { s.sent.Add(1); return true }
func (s *NullSender) Flush() error       { return nil }
func (s *NullSender) Close() error       { return nil }
