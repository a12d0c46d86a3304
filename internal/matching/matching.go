// Package matching implements the matching-engine stub (C11): accept TCP
// clients concurrently, auto-detect the order-entry protocol, and reply
// with a synthetic "filled" execution report. No order book, no partial
// fills, no persistence, per spec.md §4.10.
//
// Grounded on backend/cmd/zmq-exchange/main.go's accept-and-echo server
// shape, adapted from a ZMQ PULL loop to the TCP accept-loop spec.md §4.10
// and §6 specify for the order-entry wire.
package matching

import (
	"context"
	"net"

	"github.com/BryWillow/beacon/internal/protocol"
	"github.com/BryWillow/beacon/internal/telemetry"
	"github.com/BryWillow/beacon/internal/wire"
)

// Engine accepts order-entry TCP connections and echoes back fills.
type Engine struct {
	mode protocol.Mode
	log  telemetry.Logger
}

// NewEngine builds a matching stub that decodes incoming records using
// mode (spec.md §6's default is Auto).
func NewEngine(mode protocol.Mode) *Engine {
	return &Engine{mode: mode, log: telemetry.New("matching")}
}

// Serve accepts connections on ln until ctx is cancelled, handling each
// client on its own goroutine.
func (e *Engine) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		go e.handleClient(conn)
	}
}

func (e *Engine) handleClient(conn net.Conn) {
	defer conn.Close()
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	buf := make([]byte, wire.OrderEntrySize)
	out := make([]byte, wire.ExecReportSize)

	for {
		if _, err := readFull(conn, buf); err != nil {
			return
		}

		order := protocol.Decode(e.mode, buf)
		report := &wire.ExecutionReport{
			OrderID:   uint32(order.OrderID),
			Symbol:    order.Symbol,
			ExecQty:   order.Quantity,
			ExecPrice: order.Price,
			Status:    wire.ExecStatusFilled,
		}
		report.Encode(out)
		e.log.Debug("order filled", "symbol", report.Symbol.String(), "qty", report.ExecQty, "price", wire.DecimalPrice(report.ExecPrice))

		if _, err := conn.Write(out); err != nil {
			e.log.Warn("execution report write failed", "err", err)
			return
		}
	}
}

// readFull reads exactly len(buf) bytes, the way a fixed-size record
// stream must be drained (net.Conn.Read may return short reads).
func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
