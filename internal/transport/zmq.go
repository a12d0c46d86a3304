package transport

import (
	"fmt"

	zmq "github.com/pebbe/zmq4"
)

// ZMQSender is a PUSH-socket sender, supplementing the four senders
// spec.md §6 names. Grounded on backend/cmd/zmq-trader/main.go's
// PUSH-socket send loop.
type ZMQSender struct {
	baseSender
	ctx    *zmq.Context
	socket *zmq.Socket
}

// NewZMQSender connects a PUSH socket to addr (e.g. "tcp://localhost:5555").
func NewZMQSender(addr string) (*ZMQSender, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("transport: zmq context: %w", err)
	}
	socket, err := ctx.NewSocket(zmq.PUSH)
	if err != nil {
		return nil, fmt.Errorf("transport: zmq socket: %w", err)
	}
	if err := socket.Connect(addr); err != nil {
		return nil, fmt.Errorf("transport: zmq connect: %w", err)
	}
	return &ZMQSender{ctx: ctx, socket: socket}, nil
}

func (s *ZMQSender) Send(b []byte) bool {
	if _, err := s.socket.SendBytes(b, zmq.DONTWAIT); err != nil {
		return false
	}
	s.sent.Add(1)
	return true
}

func (s *ZMQSender) Flush() error { return nil }
func (s *ZMQSender) Close() error {
	s.socket.Close()
	return s.ctx.Term()
}

// ZMQReceiver is a PULL-socket receiver. Grounded on
// backend/cmd/zmq-exchange/main.go's PULL-socket receive loop.
type ZMQReceiver struct {
	ctx    *zmq.Context
	socket *zmq.Socket
}

// NewZMQReceiver binds a PULL socket to addr (e.g. "tcp://*:5555").
func NewZMQReceiver(addr string) (*ZMQReceiver, error) {
	ctx, err := zmq.NewContext()
	if err != nil {
		return nil, fmt.Errorf("transport: zmq context: %w", err)
	}
	socket, err := ctx.NewSocket(zmq.PULL)
	if err != nil {
		return nil, fmt.Errorf("transport: zmq socket: %w", err)
	}
	_ = socket.SetRcvhwm(100000)
	_ = socket.SetRcvbuf(8 << 20)
	if err := socket.Bind(addr); err != nil {
		return nil, fmt.Errorf("transport: zmq bind: %w", err)
	}
	return &ZMQReceiver{ctx: ctx, socket: socket}, nil
}

func (r *ZMQReceiver) Recv(buf []byte) (int, bool, error) {
	b, err := r.socket.RecvBytes(0)
	if err != nil {
		return 0, false, err
	}
	n := copy(buf, b)
	return n, true, nil
}

func (r *ZMQReceiver) Close() error {
	r.socket.Close()
	return r.ctx.Term()
}
