package transport

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSSender publishes each record to a subject instead of writing it to a
// socket or file, supplementing the four senders spec.md §6 names.
// Grounded on backend/cmd/stress-test/main.go's nats.Connect/Publish usage.
type NATSSender struct {
	baseSender
	nc      *nats.Conn
	subject string
}

// NewNATSSender connects to url and prepares to publish on subject.
func NewNATSSender(url, subject string) (*NATSSender, error) {
	nc, err := nats.Connect(url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.Timeout(5*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("transport: nats connect: %w", err)
	}
	return &NATSSender{nc: nc, subject: subject}, nil
}

func (s *NATSSender) Send(b []byte) bool {
	if err := s.nc.Publish(s.subject, b); err != nil {
		return false
	}
	s.sent.Add(1)
	return true
}

func (s *NATSSender) Flush() error { return s.nc.Flush() }
func (s *NATSSender) Close() error {
	s.nc.Close()
	return nil
}

// NATSReceiver subscribes to a subject and hands received payloads back
// through a buffered channel so Recv can stay allocation-free on the
// common case of a ready message.
type NATSReceiver struct {
	nc   *nats.Conn
	sub  *nats.Subscription
	msgs chan *nats.Msg
}

// NewNATSReceiver connects to url and subscribes to subject.
func NewNATSReceiver(url, subject string) (*NATSReceiver, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("transport: nats connect: %w", err)
	}
	msgs := make(chan *nats.Msg, 1024)
	sub, err := nc.ChanSubscribe(subject, msgs)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("transport: nats subscribe: %w", err)
	}
	return &NATSReceiver{nc: nc, sub: sub, msgs: msgs}, nil
}

func (r *NATSReceiver) Recv(buf []byte) (int, bool, error) {
	select {
	case m := <-r.msgs:
		n := copy(buf, m.Data)
		return n, true, nil
	case <-time.After(100 * time.Millisecond):
		return 0, false, nil
	}
}

func (r *NATSReceiver) Close() error {
	_ = r.sub.Unsubscribe()
	r.nc.Close()
	return nil
}
