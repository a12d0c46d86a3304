package pipeline

import (
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BryWillow/beacon/internal/transport"
	"github.com/BryWillow/beacon/internal/wire"
	"github.com/BryWillow/beacon/internal/worker"
)

// fakeReceiver replays a fixed set of packets then reports empty (!ok)
// forever, standing in for a UDP socket in unit tests.
type fakeReceiver struct {
	packets [][]byte
	idx     atomic.Int32
}

func (f *fakeReceiver) Recv(buf []byte) (int, bool, error) {
	i := int(f.idx.Add(1)) - 1
	if i >= len(f.packets) {
		time.Sleep(time.Millisecond)
		return 0, false, nil
	}
	return copy(buf, f.packets[i]), true, nil
}

func (f *fakeReceiver) Close() error { return nil }

// runFakeExchange accepts exactly one connection, echoes an ExecStatusFilled
// report for every order-entry record it reads, and counts how many it saw.
func runFakeExchange(t *testing.T, ln net.Listener, seen *atomic.Int32) {
	t.Helper()
	conn, err := ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	in := make([]byte, wire.OrderEntrySize)
	out := make([]byte, wire.ExecReportSize)
	for {
		total := 0
		for total < len(in) {
			n, err := conn.Read(in[total:])
			total += n
			if err != nil {
				return
			}
		}
		seen.Add(1)

		report := &wire.ExecutionReport{OrderID: 1, ExecQty: 10, ExecPrice: 100, Status: wire.ExecStatusFilled}
		report.Encode(out)
		if _, err := conn.Write(out); err != nil {
			return
		}
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var seen atomic.Int32
	go runFakeExchange(t, ln, &seen)

	addr := ln.Addr().(*net.TCPAddr)
	client, err := transport.NewTCPClient("127.0.0.1", addr.Port)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	packets := make([][]byte, 0, 5)
	for i := 0; i < 5; i++ {
		m := &wire.AddOrder{SequenceNumber: uint64(i), OrderRefNum: uint64(i), Stock: wire.NewSymbol("AAPL"), Shares: 10, Price: 100, Side: wire.SideBuy}
		buf := make([]byte, m.Size())
		m.Encode(buf)
		packets = append(packets, buf)
	}

	var algoCalls atomic.Int32
	algo := func(md wire.MDMessage, execs []*wire.ExecutionReport) *wire.NormalizedOrder {
		algoCalls.Add(1)
		add, ok := md.(*wire.AddOrder)
		if !ok {
			return nil
		}
		return &wire.NormalizedOrder{
			OrderID: add.OrderRefNum, Symbol: add.Stock, Quantity: add.Shares, Price: add.Price,
			Side: add.Side, Protocol: wire.ProtocolOuch,
		}
	}

	p := New(Config{
		MDReceiver:        &fakeReceiver{packets: packets},
		ExecClient:        client,
		Algorithm:         algo,
		MDCore:            worker.NoPinning,
		TradingCore:       worker.NoPinning,
		ExecCore:          worker.NoPinning,
		MDQueueCapacity:   64,
		ExecQueueCapacity: 64,
	})
	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for algoCalls.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if algoCalls.Load() < 5 {
		t.Fatalf("algorithm invoked %d times, want at least 5", algoCalls.Load())
	}

	for seen.Load() < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if seen.Load() < 5 {
		t.Fatalf("exchange saw %d orders, want at least 5", seen.Load())
	}

	for p.Latency().Stats().Count < 5 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if stats := p.Latency().Stats(); stats.Count < 5 {
		t.Fatalf("latency samples = %d, want at least 5", stats.Count)
	}
}

func TestPipelineSkipsSendWhenAlgorithmDeclines(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	var seen atomic.Int32
	go runFakeExchange(t, ln, &seen)

	addr := ln.Addr().(*net.TCPAddr)
	client, err := transport.NewTCPClient("127.0.0.1", addr.Port)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	m := &wire.OrderDelete{SequenceNumber: 1, OrderRefNum: 2}
	buf := make([]byte, m.Size())
	m.Encode(buf)

	p := New(Config{
		MDReceiver:        &fakeReceiver{packets: [][]byte{buf}},
		ExecClient:        client,
		Algorithm:         func(wire.MDMessage, []*wire.ExecutionReport) *wire.NormalizedOrder { return nil },
		MDCore:            worker.NoPinning,
		TradingCore:       worker.NoPinning,
		ExecCore:          worker.NoPinning,
		MDQueueCapacity:   8,
		ExecQueueCapacity: 8,
	})
	p.Start()
	defer p.Stop()

	time.Sleep(50 * time.Millisecond)
	if seen.Load() != 0 {
		t.Fatalf("exchange saw %d orders, want 0 when algorithm declines to trade", seen.Load())
	}
	if p.Latency().Stats().Count != 0 {
		t.Fatalf("latency samples = %d, want 0 when no order is sent", p.Latency().Stats().Count)
	}
}
