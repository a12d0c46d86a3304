package strategy

import (
	"testing"
	"time"

	"github.com/BryWillow/beacon/internal/wire"
)

func TestTWAPSlicesOverWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("timing-sensitive scenario skipped in short mode")
	}

	algo := NewTWAP(TWAPConfig{
		Symbol:        wire.NewSymbol("AAPL"),
		Side:          wire.SideBuy,
		TotalShares:   100,
		Window:        4 * time.Millisecond,
		SliceInterval: time.Millisecond,
		MaxSliceSize:  50,
	})

	md := &wire.AddOrder{Stock: wire.NewSymbol("AAPL"), Price: 15000, Shares: 10, Side: wire.SideBuy}

	var sent int
	deadline := time.Now().Add(20 * time.Millisecond)
	for time.Now().Before(deadline) && sent < 4 {
		if order := algo(md, nil); order != nil {
			sent++
			if order.Quantity == 0 {
				t.Fatalf("slice %d: zero quantity", sent)
			}
			if order.Symbol != md.Stock {
				t.Fatalf("slice %d: symbol mismatch", sent)
			}
		}
		time.Sleep(500 * time.Microsecond)
	}

	if sent == 0 {
		t.Fatal("expected at least one slice to be sent")
	}
}

func TestTWAPStopsAfterTotalSharesOutstanding(t *testing.T) {
	algo := NewTWAP(TWAPConfig{
		Symbol:        wire.NewSymbol("AAPL"),
		Side:          wire.SideBuy,
		TotalShares:   10,
		Window:        time.Hour,
		SliceInterval: time.Nanosecond,
		MaxSliceSize:  10,
	})

	md := &wire.AddOrder{Stock: wire.NewSymbol("AAPL"), Price: 15000}

	first := algo(md, nil)
	if first == nil {
		t.Fatal("expected first slice to be sent")
	}
	if first.Quantity != 10 {
		t.Fatalf("expected the whole order in one slice, got %d", first.Quantity)
	}

	if second := algo(md, nil); second != nil {
		t.Fatalf("expected no further slices while %d shares are outstanding, got order for %d", first.Quantity, second.Quantity)
	}
}

func TestTWAPResumesAfterFill(t *testing.T) {
	algo := NewTWAP(TWAPConfig{
		Symbol:        wire.NewSymbol("AAPL"),
		Side:          wire.SideBuy,
		TotalShares:   10,
		Window:        time.Hour,
		SliceInterval: time.Nanosecond,
		MaxSliceSize:  5,
	})

	md := &wire.AddOrder{Stock: wire.NewSymbol("AAPL"), Price: 15000}

	first := algo(md, nil)
	if first == nil || first.Quantity != 5 {
		t.Fatalf("expected first slice of 5, got %+v", first)
	}

	fill := &wire.ExecutionReport{ExecQty: 5, Status: wire.ExecStatusFilled}
	second := algo(md, []*wire.ExecutionReport{fill})
	if second == nil {
		t.Fatal("expected a second slice after the fill freed up outstanding capacity")
	}
	if second.Quantity != 5 {
		t.Fatalf("expected second slice of 5, got %d", second.Quantity)
	}
}
