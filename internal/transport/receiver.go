package transport

import (
	"context"
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/BryWillow/beacon/internal/telemetry"
)

// Receiver is the capability every ingress mode implements, spec.md §4.8.
// Recv reads one packet/chunk into buf and returns the number of bytes
// read. It returns (0, err) on a real failure; a read timeout set to poll
// the stop flag returns (0, nil) with ok=false so the caller can retry.
type Receiver interface {
	Recv(buf []byte) (n int, ok bool, err error)
	Close() error
}

// UDPMulticastReceiver joins a multicast group and receives datagrams,
// spec.md §4.8: SO_REUSEADDR (and SO_REUSEPORT when available), 2 MiB
// receive buffer, bound to ANY:port, short receive timeout so the caller's
// stop flag is polled at least every 100 ms.
type UDPMulticastReceiver struct {
	conn    *net.UDPConn
	timeout time.Duration
	log     telemetry.Logger
}

// reuseAddrPort sets SO_REUSEADDR (and SO_REUSEPORT where the platform
// defines it) on the listening socket before bind, mirroring the original
// receiver's non-fatal best-effort setup.
func reuseAddrPort(_, _ string, c syscall.RawConn) error {
	return c.Control(func(fd uintptr) {
		if serr := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); serr != nil {
			telemetry.Default().Warn("multicast socket SO_REUSEADDR not honored", "err", serr)
		}
		if serr := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); serr != nil {
			telemetry.Default().Warn("multicast socket SO_REUSEPORT not honored", "err", serr)
		}
	})
}

// NewUDPMulticastReceiver joins group:port on the default interface.
func NewUDPMulticastReceiver(group string, port int, recvTimeout time.Duration) (*UDPMulticastReceiver, error) {
	lc := net.ListenConfig{Control: reuseAddrPort}
	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("transport: listen multicast: %w", err)
	}
	conn := pc.(*net.UDPConn)
	if err := conn.SetReadBuffer(2 << 20); err != nil {
		telemetry.Default().Warn("multicast recv buffer size not honored", "err", err)
	}

	p := ipv4.NewPacketConn(conn)
	iface, err := defaultMulticastInterface()
	groupAddr := &net.UDPAddr{IP: net.ParseIP(group)}
	if err == nil {
		if jerr := p.JoinGroup(iface, groupAddr); jerr != nil {
			telemetry.Default().Warn("multicast group join failed, receiving unicast only", "group", group, "err", jerr)
		}
	} else {
		telemetry.Default().Warn("no multicast-capable interface found, receiving unicast only", "err", err)
	}

	if recvTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(recvTimeout))
	}

	return &UDPMulticastReceiver{conn: conn, timeout: recvTimeout, log: telemetry.New("udp-receiver")}, nil
}

func defaultMulticastInterface() (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagMulticast != 0 && iface.Flags&net.FlagUp != 0 {
			return &iface, nil
		}
	}
	return nil, fmt.Errorf("transport: no up+multicast interface")
}

func (r *UDPMulticastReceiver) Recv(buf []byte) (int, bool, error) {
	if r.timeout > 0 {
		_ = r.conn.SetReadDeadline(time.Now().Add(r.timeout))
	}
	n, err := r.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return 0, false, nil
		}
		return 0, false, err
	}
	return n, true, nil
}

func (r *UDPMulticastReceiver) Close() error { return r.conn.Close() }

// TCPClient connects to a matching engine / exec-report source.
// TCP_NODELAY is on by default, per spec.md §4.8.
type TCPClient struct {
	conn net.Conn
}

// NewTCPClient connects to host:port.
func NewTCPClient(host string, port int) (*TCPClient, error) {
	conn, err := net.Dial("tcp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, fmt.Errorf("transport: tcp connect: %w", err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &TCPClient{conn: conn}, nil
}

// Send writes b in full.
func (c *TCPClient) Send(b []byte) bool {
	n, err := c.conn.Write(b)
	return err == nil && n == len(b)
}

func (c *TCPClient) Recv(buf []byte) (int, bool, error) {
	n, err := c.conn.Read(buf)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (c *TCPClient) Close() error { return c.conn.Close() }
