// Package strategy holds example implementations of pipeline.Algorithm.
// These are reference execution strategies, not the matching/risk
// infrastructure spec.md §1 excludes — a strategy's own in-flight order
// bookkeeping (shares sent, shares filled) is state it needs to decide
// what to send next, distinct from the per-symbol position/PnL risk
// bookkeeping the pipeline itself deliberately does not provide.
package strategy

import (
	"sync/atomic"
	"time"

	"github.com/BryWillow/beacon/internal/wire"
)

// TWAPConfig parameterizes a time-weighted-average-price execution: split
// TotalShares into equal slices sent every SliceInterval over Window,
// grounded on original_source/src/apps/client_algorithm/algo_twap.cpp's
// TWAPConfig/TWAPState.
type TWAPConfig struct {
	Symbol        wire.Symbol
	Side          byte // wire.SideBuy or wire.SideSell
	TotalShares   uint32
	Window        time.Duration
	SliceInterval time.Duration
	MaxSliceSize  uint32
}

// twap tracks in-flight slicing state across calls. sharesOutstanding is
// decremented as fills arrive and incremented as slices are sent, mirroring
// algo_twap.cpp's g_state bookkeeping (there: atomics shared between the
// market-data and trading threads; here: a single trading-core goroutine
// owns this state, so plain fields would do, but the atomics are kept for
// parity with the pinned three-core model other strategies may run under).
type twap struct {
	cfg           TWAPConfig
	sharesPerSlot uint32
	nextOrderID   uint64

	sharesExecuted    atomic.Uint32
	sharesOutstanding atomic.Uint32

	startTime   time.Time
	nextSliceAt time.Time
	started     bool
}

// NewTWAP returns an Algorithm-shaped closure (matching pipeline.Algorithm's
// signature without importing the pipeline package, to avoid a cycle)
// implementing the slicing decision from algo_twap.cpp's priority-3 step:
// drain fills first (priority 1, handled by the caller passing execs),
// then decide whether a new slice is due.
func NewTWAP(cfg TWAPConfig) func(md wire.MDMessage, execs []*wire.ExecutionReport) *wire.NormalizedOrder {
	numSlots := uint32(cfg.Window / cfg.SliceInterval)
	if numSlots == 0 {
		numSlots = 1
	}
	sharesPerSlot := cfg.TotalShares / numSlots
	if sharesPerSlot == 0 {
		sharesPerSlot = 1
	}

	t := &twap{cfg: cfg, sharesPerSlot: sharesPerSlot}

	return func(md wire.MDMessage, execs []*wire.ExecutionReport) *wire.NormalizedOrder {
		// Priority 1: apply fills to outstanding/executed counts.
		for _, exec := range execs {
			if exec.Status != wire.ExecStatusFilled && exec.Status != wire.ExecStatusPartialFill {
				continue
			}
			t.sharesExecuted.Add(exec.ExecQty)
			outstanding := t.sharesOutstanding.Load()
			if exec.ExecQty > outstanding {
				t.sharesOutstanding.Store(0)
			} else {
				t.sharesOutstanding.Add(-exec.ExecQty)
			}
		}

		// Priority 3: time-slice logic. Market data (priority 2) only
		// supplies the current price; it never triggers a send on its own.
		now := time.Now()
		if !t.started {
			t.started = true
			t.startTime = now
			t.nextSliceAt = now
		}
		if now.Before(t.nextSliceAt) || now.After(t.startTime.Add(t.cfg.Window)) {
			return nil
		}
		t.nextSliceAt = t.nextSliceAt.Add(t.cfg.SliceInterval)

		executed := t.sharesExecuted.Load()
		outstanding := t.sharesOutstanding.Load()
		if executed+outstanding >= t.cfg.TotalShares {
			return nil
		}
		remaining := t.cfg.TotalShares - executed - outstanding
		sliceSize := min(remaining, t.sharesPerSlot)
		sliceSize = min(sliceSize, t.cfg.MaxSliceSize)
		if sliceSize == 0 {
			return nil
		}

		price := currentPrice(md)
		if price == 0 {
			return nil
		}

		t.nextOrderID++
		t.sharesOutstanding.Add(sliceSize)
		return &wire.NormalizedOrder{
			OrderID:     t.nextOrderID,
			Symbol:      t.cfg.Symbol,
			Quantity:    sliceSize,
			Price:       price,
			Side:        t.cfg.Side,
			TimeInForce: '3', // IOC, per algo_twap.cpp
			OrderType:   'O',
			Capacity:    'A',
			Protocol:    wire.ProtocolOuch,
		}
	}
}

// currentPrice extracts a quoted price from whichever market-data message
// variant was last popped, falling back to 0 (no trade this tick) when the
// message carries none.
func currentPrice(md wire.MDMessage) uint32 {
	switch m := md.(type) {
	case *wire.AddOrder:
		return m.Price
	case *wire.Trade:
		return m.Price
	default:
		return 0
	}
}
