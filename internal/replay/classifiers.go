package replay

import (
	"math"
	"time"

	"github.com/BryWillow/beacon/internal/wire"
)

// MessagePriority is the importance class a classifier assigns to a
// single message, spec.md §4.6.
type MessagePriority int

const (
	Normal MessagePriority = iota
	Elevated
	Critical
	Emergency
)

func (p MessagePriority) String() string {
	switch p {
	case Normal:
		return "normal"
	case Elevated:
		return "elevated"
	case Critical:
		return "critical"
	case Emergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// Classifier assigns a MessagePriority to a message. Classifiers are
// stateful and, per spec.md §4.6, not shared across threads unless
// explicitly documented.
type Classifier interface {
	Classify(msg wire.MDMessage, state *State) MessagePriority
}

// messageSymbol extracts the symbol field from the market-data variants
// that carry one. Variants without a symbol (OrderExecuted, OrderCancel,
// OrderDelete, ReplaceOrder reference orders by ref-num, not symbol) report
// ok=false.
func messageSymbol(msg wire.MDMessage) (wire.Symbol, bool) {
	switch m := msg.(type) {
	case *wire.AddOrder:
		return m.Stock, true
	case *wire.Trade:
		return m.Stock, true
	case *wire.MarketDepth:
		return m.Stock, true
	default:
		return wire.Symbol{}, false
	}
}

// messagePrice extracts the price field from the market-data variants that
// carry one.
func messagePrice(msg wire.MDMessage) (uint32, bool) {
	switch m := msg.(type) {
	case *wire.AddOrder:
		return m.Price, true
	case *wire.Trade:
		return m.Price, true
	case *wire.MarketDepth:
		return m.Price, true
	default:
		return 0, false
	}
}

// SymbolPriorityClassifier marks a fixed set of symbols Critical; every
// other message (and every message with no symbol field) is Normal.
type SymbolPriorityClassifier struct {
	critical map[string]struct{}
}

func NewSymbolPriorityClassifier(symbols ...string) *SymbolPriorityClassifier {
	c := &SymbolPriorityClassifier{critical: make(map[string]struct{}, len(symbols))}
	for _, s := range symbols {
		c.critical[s] = struct{}{}
	}
	return c
}

func (c *SymbolPriorityClassifier) Classify(msg wire.MDMessage, _ *State) MessagePriority {
	sym, ok := messageSymbol(msg)
	if !ok {
		return Normal
	}
	if _, flagged := c.critical[sym.String()]; flagged {
		return Critical
	}
	return Normal
}

// BurstDetectionClassifier maintains an exponentially smoothed average
// rate and flags Elevated when the instantaneous rate spikes above
// Threshold times that average, spec.md §4.6.
type BurstDetectionClassifier struct {
	Threshold float64
	avgRate   float64
}

func NewBurstDetectionClassifier(threshold float64) *BurstDetectionClassifier {
	return &BurstDetectionClassifier{Threshold: threshold}
}

func (c *BurstDetectionClassifier) Classify(_ wire.MDMessage, state *State) MessagePriority {
	rate := float64(state.CurrentRate(time.Now()))
	c.avgRate = 0.9*c.avgRate + 0.1*rate
	if c.avgRate > 0 && rate > c.Threshold*c.avgRate {
		return Elevated
	}
	return Normal
}

// TimeWindow maps a [StartMs, EndMs) range of elapsed playback time to a
// priority.
type TimeWindow struct {
	StartMs  float64
	EndMs    float64
	Priority MessagePriority
}

// TimeWindowClassifier assigns priority by elapsed playback time, checking
// windows in the order given.
type TimeWindowClassifier struct {
	Windows []TimeWindow
}

func NewTimeWindowClassifier(windows ...TimeWindow) *TimeWindowClassifier {
	return &TimeWindowClassifier{Windows: windows}
}

func (c *TimeWindowClassifier) Classify(_ wire.MDMessage, state *State) MessagePriority {
	t := state.ElapsedMs()
	for _, w := range c.Windows {
		if t >= w.StartMs && t < w.EndMs {
			return w.Priority
		}
	}
	return Normal
}

// PriceMovePctClassifier flags Critical when a symbol's price moves more
// than its threshold (or DefaultThresholdPct if it has none) since the
// last message seen for that symbol.
type PriceMovePctClassifier struct {
	DefaultThresholdPct float64
	PerSymbolPct        map[string]float64

	lastPrice map[string]uint32
}

func NewPriceMovePctClassifier(defaultThresholdPct float64, perSymbolPct map[string]float64) *PriceMovePctClassifier {
	return &PriceMovePctClassifier{
		DefaultThresholdPct: defaultThresholdPct,
		PerSymbolPct:        perSymbolPct,
		lastPrice:           make(map[string]uint32),
	}
}

func (c *PriceMovePctClassifier) Classify(msg wire.MDMessage, _ *State) MessagePriority {
	sym, ok := messageSymbol(msg)
	if !ok {
		return Normal
	}
	price, ok := messagePrice(msg)
	if !ok {
		return Normal
	}

	key := sym.String()
	last, seen := c.lastPrice[key]
	c.lastPrice[key] = price
	if !seen || last == 0 {
		return Normal
	}

	threshold := c.DefaultThresholdPct
	if t, ok := c.PerSymbolPct[key]; ok {
		threshold = t
	}
	pctChange := math.Abs(float64(price)-float64(last)) / float64(last) * 100
	if pctChange > threshold {
		return Critical
	}
	return Normal
}
