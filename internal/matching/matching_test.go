package matching

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BryWillow/beacon/internal/protocol"
	"github.com/BryWillow/beacon/internal/wire"
)

// TestProtocolAutoDetectScenario is S5: feed one OUCH, one Pillar, and one
// CME record over the same connection and expect three correctly
// symbol-matched, status=Filled execution reports.
func TestProtocolAutoDetectScenario(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := NewEngine(protocol.Auto)
	go engine.Serve(ctx, ln)

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	type rec struct {
		buf        []byte
		wantSymbol string
	}
	records := []rec{}

	ouchBuf := make([]byte, wire.OrderEntrySize)
	(&wire.Ouch{ClientOrderID: 1, Symbol: wire.NewSymbol("AAPL"), Shares: 10, Price: 100}).Encode(ouchBuf)
	records = append(records, rec{ouchBuf, "AAPL"})

	pillarBuf := make([]byte, wire.OrderEntrySize)
	(&wire.Pillar{ClientOrderID: 2, Symbol: wire.NewSymbol("IBM"), OrderType: 'L', Shares: 20, Price: 200}).Encode(pillarBuf)
	records = append(records, rec{pillarBuf, "IBM"})

	cmeBuf := make([]byte, wire.OrderEntrySize)
	(&wire.Cme{ClientOrderID: 3, Symbol: wire.NewSymbol("ESZ4"), OrderType: 'L', Quantity: 30, Price: 300}).Encode(cmeBuf)
	records = append(records, rec{cmeBuf, "ESZ4"})

	wantProtocols := []wire.Protocol{wire.ProtocolOuch, wire.ProtocolPillar, wire.ProtocolCme}

	for i, r := range records {
		_, err := conn.Write(r.buf)
		require.NoErrorf(t, err, "write record %d", i)

		resp := make([]byte, wire.ExecReportSize)
		_, err = readFull(conn, resp)
		require.NoErrorf(t, err, "read report %d", i)
		report := wire.DecodeExecutionReport(resp)

		require.Equalf(t, r.wantSymbol, report.Symbol.String(), "record %d symbol", i)
		require.Equalf(t, wire.ExecStatusFilled, report.Status, "record %d status", i)

		decoded := protocol.Decode(protocol.Auto, r.buf)
		require.Equalf(t, wantProtocols[i], decoded.Protocol, "record %d normalized protocol", i)
	}
}
