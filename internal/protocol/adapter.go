// Package protocol normalizes the three order-entry wire formats into the
// protocol-neutral internal representation, spec.md §4.9.
//
// Grounded on backend/pkg/fix/cpp_codec.go's protocol-tagged message
// concept (the idea of a single byte steering which concrete decoder a
// generic frame gets handed to), generalized here to the OUCH/Pillar/CME
// auto-detect heuristic spec.md §4.9 specifies.
package protocol

import "github.com/BryWillow/beacon/internal/wire"

// Mode selects how the adapter decides which of the three order-entry
// formats a 64-byte record is.
type Mode int

const (
	Auto Mode = iota
	Ouch
	Pillar
	Cme
)

func (m Mode) String() string {
	switch m {
	case Auto:
		return "auto"
	case Ouch:
		return "ouch"
	case Pillar:
		return "pillar"
	case Cme:
		return "cme"
	default:
		return "unknown"
	}
}

// ParseMode parses a CLI token into a Mode, per spec.md §6's
// "matching_engine <port> [auto|ouch|pillar|cme]".
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "", "auto":
		return Auto, true
	case "ouch":
		return Ouch, true
	case "pillar":
		return Pillar, true
	case "cme":
		return Cme, true
	default:
		return 0, false
	}
}

// Adapter default capacity values the wire format itself does not carry,
// spec.md §4.9.
const (
	pillarDefaultCapacity byte = 'A'
	cmeDefaultCapacity    byte = 'P'
)

// Decode maps a 64-byte order-entry record to the normalized internal
// representation, dispatching explicitly or via auto-detect depending on
// mode. No validation is performed beyond the byte-level field mapping.
func Decode(mode Mode, buf []byte) wire.NormalizedOrder {
	switch mode {
	case Ouch:
		return decodeOuch(buf)
	case Pillar:
		return decodePillar(buf)
	case Cme:
		return decodeCme(buf)
	default:
		return Decode(detect(buf), buf)
	}
}

// detect implements spec.md §4.9's definitive auto-detect heuristic:
// examine the shared orderType offset; 'O' means OUCH; otherwise inspect
// symbol bytes 2-3 to distinguish a CME futures symbol (e.g. "ESZ4") from
// Pillar, defaulting to Pillar when neither pattern matches.
func detect(buf []byte) Mode {
	orderType := wire.OrderEntryOrderType(buf)
	if orderType == wire.OuchOrderType {
		return Ouch
	}

	sym := wire.OrderEntrySymbol(buf)
	if len(sym) >= 4 {
		b2, b3 := sym[2], sym[3]
		if b2 >= 'F' && b2 <= 'Z' && b3 >= '0' && b3 <= '9' {
			return Cme
		}
	}
	return Pillar
}

func decodeOuch(buf []byte) wire.NormalizedOrder {
	o := wire.DecodeOuch(buf)
	return wire.NormalizedOrder{
		OrderID:     o.ClientOrderID,
		Symbol:      o.Symbol,
		Quantity:    o.Shares,
		Price:       o.Price,
		Side:        o.Side,
		TimeInForce: o.TimeInForce,
		OrderType:   o.OrderType,
		Capacity:    o.Capacity,
		Protocol:    wire.ProtocolOuch,
	}
}

func decodePillar(buf []byte) wire.NormalizedOrder {
	p := wire.DecodePillar(buf)
	return wire.NormalizedOrder{
		OrderID:     p.ClientOrderID,
		Symbol:      p.Symbol,
		Quantity:    p.Shares,
		Price:       p.Price,
		Side:        p.Side,
		TimeInForce: p.TIF,
		OrderType:   p.OrderType,
		Capacity:    pillarDefaultCapacity,
		Protocol:    wire.ProtocolPillar,
	}
}

func decodeCme(buf []byte) wire.NormalizedOrder {
	c := wire.DecodeCme(buf)
	return wire.NormalizedOrder{
		OrderID:     c.ClientOrderID,
		Symbol:      c.Symbol,
		Quantity:    c.Quantity,
		Price:       c.Price,
		Side:        c.Side,
		TimeInForce: c.TIF,
		OrderType:   c.OrderType,
		Capacity:    cmeDefaultCapacity,
		Protocol:    wire.ProtocolCme,
	}
}

// Encode is the inverse mapping, used by tests (invariant 10: adapter
// idempotence) and by anything that needs to synthesize a wire record from
// a NormalizedOrder (e.g. a load generator targeting a specific protocol).
func Encode(n wire.NormalizedOrder, buf []byte) {
	switch n.Protocol {
	case wire.ProtocolOuch:
		(&wire.Ouch{
			ClientOrderID: n.OrderID, Symbol: n.Symbol, Shares: n.Quantity, Price: n.Price,
			Side: n.Side, TimeInForce: n.TimeInForce, Capacity: n.Capacity,
		}).Encode(buf)
	case wire.ProtocolPillar:
		(&wire.Pillar{
			ClientOrderID: n.OrderID, Symbol: n.Symbol, Shares: n.Quantity, Price: n.Price,
			Side: n.Side, OrderType: n.OrderType, TIF: n.TimeInForce,
		}).Encode(buf)
	case wire.ProtocolCme:
		(&wire.Cme{
			ClientOrderID: n.OrderID, Symbol: n.Symbol, Quantity: n.Quantity, Price: n.Price,
			Side: n.Side, OrderType: n.OrderType, TIF: n.TimeInForce,
		}).Encode(buf)
	}
}
