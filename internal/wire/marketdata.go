package wire

import "encoding/binary"

// Market-data variant tags, spec.md §3.1. The tag is the first byte of
// every record and is how a reader recovers record length while walking a
// capture file or a datagram with no other framing.
const (
	TagAddOrder      byte = 'A'
	TagTrade         byte = 'P'
	TagOrderExecuted byte = 'E'
	TagOrderCancel   byte = 'X'
	TagOrderDelete   byte = 'D'
	TagReplaceOrder  byte = 'U'
	TagMarketDepth   byte = 'R'
)

// Side values shared by AddOrder and Trade.
const (
	SideBuy  byte = 'B'
	SideSell byte = 'S'
)

// MDMessage is the capability every market-data variant implements: a self
// describing tag and the ability to marshal itself onto the wire.
type MDMessage interface {
	Tag() byte
	Encode(buf []byte) int // writes Size() bytes into buf, returns bytes written
	Size() int
}

// marketDataSize maps a tag byte to its fixed total record size, including
// the leading tag byte. Returns (0, false) for an unrecognized tag.
func marketDataSize(tag byte) (int, bool) {
	switch tag {
	case TagAddOrder:
		return 1 + 8 + 8 + 8 + 4 + 4 + 1, true // 34
	case TagTrade:
		return 1 + 8 + 8 + 1 + 4 + 8 + 4, true // 34
	case TagOrderExecuted:
		return 1 + 8 + 4 + 4 + 8, true // 25
	case TagOrderCancel:
		return 1 + 8 + 4 + 4, true // 17
	case TagOrderDelete:
		return 1 + 8 + 4, true // 13
	case TagReplaceOrder:
		return 1 + 8 + 8 + 4 + 4 + 4 + 4, true // 33
	case TagMarketDepth:
		return 1 + 8 + 8 + 1 + 1 + 4 + 4 + 4, true // 31
	default:
		return 0, false
	}
}

// MarketDataSize is the exported lookup used by the feed handler and the
// replayer's capture-file walker (spec.md §4.4, §4.7).
func MarketDataSize(tag byte) (int, bool) { return marketDataSize(tag) }

// --- AddOrder ('A') ---

type AddOrder struct {
	SequenceNumber uint64
	OrderRefNum    uint64
	Stock          Symbol
	Shares         uint32
	Price          uint32
	Side           byte
}

func (m *AddOrder) Tag() byte { return TagAddOrder }
func (m *AddOrder) Size() int { s, _ := marketDataSize(TagAddOrder); return s }

func (m *AddOrder) Encode(buf []byte) int {
	buf[0] = TagAddOrder
	binary.LittleEndian.PutUint64(buf[1:9], m.SequenceNumber)
	binary.LittleEndian.PutUint64(buf[9:17], m.OrderRefNum)
	copy(buf[17:25], m.Stock[:])
	binary.LittleEndian.PutUint32(buf[25:29], m.Shares)
	binary.LittleEndian.PutUint32(buf[29:33], m.Price)
	buf[33] = m.Side
	return m.Size()
}

func decodeAddOrder(buf []byte) *AddOrder {
	m := &AddOrder{
		SequenceNumber: binary.LittleEndian.Uint64(buf[1:9]),
		OrderRefNum:    binary.LittleEndian.Uint64(buf[9:17]),
		Shares:         binary.LittleEndian.Uint32(buf[25:29]),
		Price:          binary.LittleEndian.Uint32(buf[29:33]),
		Side:           buf[33],
	}
	copy(m.Stock[:], buf[17:25])
	return m
}

// --- Trade ('P') ---

type Trade struct {
	SequenceNumber uint64
	OrderRefNum    uint64
	Side           byte
	Shares         uint32
	Stock          Symbol
	Price          uint32
}

func (m *Trade) Tag() byte { return TagTrade }
func (m *Trade) Size() int { s, _ := marketDataSize(TagTrade); return s }

func (m *Trade) Encode(buf []byte) int {
	buf[0] = TagTrade
	binary.LittleEndian.PutUint64(buf[1:9], m.SequenceNumber)
	binary.LittleEndian.PutUint64(buf[9:17], m.OrderRefNum)
	buf[17] = m.Side
	binary.LittleEndian.PutUint32(buf[18:22], m.Shares)
	copy(buf[22:30], m.Stock[:])
	binary.LittleEndian.PutUint32(buf[30:34], m.Price)
	return m.Size()
}

func decodeTrade(buf []byte) *Trade {
	m := &Trade{
		SequenceNumber: binary.LittleEndian.Uint64(buf[1:9]),
		OrderRefNum:    binary.LittleEndian.Uint64(buf[9:17]),
		Side:           buf[17],
		Shares:         binary.LittleEndian.Uint32(buf[18:22]),
		Price:          binary.LittleEndian.Uint32(buf[30:34]),
	}
	copy(m.Stock[:], buf[22:30])
	return m
}

// --- OrderExecuted ('E') ---

type OrderExecuted struct {
	SequenceNumber uint64
	OrderRefNum    uint32
	ExecutedShares uint32
	MatchNumber    uint64
}

func (m *OrderExecuted) Tag() byte { return TagOrderExecuted }
func (m *OrderExecuted) Size() int { s, _ := marketDataSize(TagOrderExecuted); return s }

func (m *OrderExecuted) Encode(buf []byte) int {
	buf[0] = TagOrderExecuted
	binary.LittleEndian.PutUint64(buf[1:9], m.SequenceNumber)
	binary.LittleEndian.PutUint32(buf[9:13], m.OrderRefNum)
	binary.LittleEndian.PutUint32(buf[13:17], m.ExecutedShares)
	binary.LittleEndian.PutUint64(buf[17:25], m.MatchNumber)
	return m.Size()
}

func decodeOrderExecuted(buf []byte) *OrderExecuted {
	return &OrderExecuted{
		SequenceNumber: binary.LittleEndian.Uint64(buf[1:9]),
		OrderRefNum:    binary.LittleEndian.Uint32(buf[9:13]),
		ExecutedShares: binary.LittleEndian.Uint32(buf[13:17]),
		MatchNumber:    binary.LittleEndian.Uint64(buf[17:25]),
	}
}

// --- OrderCancel ('X') ---

type OrderCancel struct {
	SequenceNumber uint64
	OrderRefNum    uint32
	CanceledShares uint32
}

func (m *OrderCancel) Tag() byte { return TagOrderCancel }
func (m *OrderCancel) Size() int { s, _ := marketDataSize(TagOrderCancel); return s }

func (m *OrderCancel) Encode(buf []byte) int {
	buf[0] = TagOrderCancel
	binary.LittleEndian.PutUint64(buf[1:9], m.SequenceNumber)
	binary.LittleEndian.PutUint32(buf[9:13], m.OrderRefNum)
	binary.LittleEndian.PutUint32(buf[13:17], m.CanceledShares)
	return m.Size()
}

func decodeOrderCancel(buf []byte) *OrderCancel {
	return &OrderCancel{
		SequenceNumber: binary.LittleEndian.Uint64(buf[1:9]),
		OrderRefNum:    binary.LittleEndian.Uint32(buf[9:13]),
		CanceledShares: binary.LittleEndian.Uint32(buf[13:17]),
	}
}

// --- OrderDelete ('D') ---

type OrderDelete struct {
	SequenceNumber uint64
	OrderRefNum    uint32
}

func (m *OrderDelete) Tag() byte { return TagOrderDelete }
func (m *OrderDelete) Size() int { s, _ := marketDataSize(TagOrderDelete); return s }

func (m *OrderDelete) Encode(buf []byte) int {
	buf[0] = TagOrderDelete
	binary.LittleEndian.PutUint64(buf[1:9], m.SequenceNumber)
	binary.LittleEndian.PutUint32(buf[9:13], m.OrderRefNum)
	return m.Size()
}

func decodeOrderDelete(buf []byte) *OrderDelete {
	return &OrderDelete{
		SequenceNumber: binary.LittleEndian.Uint64(buf[1:9]),
		OrderRefNum:    binary.LittleEndian.Uint32(buf[9:13]),
	}
}

// --- ReplaceOrder ('U') ---

type ReplaceOrder struct {
	SequenceNumber       uint64
	SourceSequenceNumber uint64
	OriginalOrderRefNum  uint32
	NewOrderRefNum       uint32
	Shares               uint32
	Price                uint32
}

func (m *ReplaceOrder) Tag() byte { return TagReplaceOrder }
func (m *ReplaceOrder) Size() int { s, _ := marketDataSize(TagReplaceOrder); return s }

func (m *ReplaceOrder) Encode(buf []byte) int {
	buf[0] = TagReplaceOrder
	binary.LittleEndian.PutUint64(buf[1:9], m.SequenceNumber)
	binary.LittleEndian.PutUint64(buf[9:17], m.SourceSequenceNumber)
	binary.LittleEndian.PutUint32(buf[17:21], m.OriginalOrderRefNum)
	binary.LittleEndian.PutUint32(buf[21:25], m.NewOrderRefNum)
	binary.LittleEndian.PutUint32(buf[25:29], m.Shares)
	binary.LittleEndian.PutUint32(buf[29:33], m.Price)
	return m.Size()
}

func decodeReplaceOrder(buf []byte) *ReplaceOrder {
	return &ReplaceOrder{
		SequenceNumber:       binary.LittleEndian.Uint64(buf[1:9]),
		SourceSequenceNumber: binary.LittleEndian.Uint64(buf[9:17]),
		OriginalOrderRefNum:  binary.LittleEndian.Uint32(buf[17:21]),
		NewOrderRefNum:       binary.LittleEndian.Uint32(buf[21:25]),
		Shares:               binary.LittleEndian.Uint32(buf[25:29]),
		Price:                binary.LittleEndian.Uint32(buf[29:33]),
	}
}

// --- MarketDepth ('R') ---

const (
	DepthActionAdd    byte = 'A'
	DepthActionDelete byte = 'D'
	DepthActionModify byte = 'M'
)

type MarketDepth struct {
	SequenceNumber uint64
	Stock          Symbol
	UpdateAction   byte
	Side           byte
	Price          uint32
	Shares         uint32
	Position       uint32
}

func (m *MarketDepth) Tag() byte { return TagMarketDepth }
func (m *MarketDepth) Size() int { s, _ := marketDataSize(TagMarketDepth); return s }

func (m *MarketDepth) Encode(buf []byte) int {
	buf[0] = TagMarketDepth
	binary.LittleEndian.PutUint64(buf[1:9], m.SequenceNumber)
	copy(buf[9:17], m.Stock[:])
	buf[17] = m.UpdateAction
	buf[18] = m.Side
	binary.LittleEndian.PutUint32(buf[19:23], m.Price)
	binary.LittleEndian.PutUint32(buf[23:27], m.Shares)
	binary.LittleEndian.PutUint32(buf[27:31], m.Position)
	return m.Size()
}

func decodeMarketDepth(buf []byte) *MarketDepth {
	m := &MarketDepth{
		SequenceNumber: binary.LittleEndian.Uint64(buf[1:9]),
		UpdateAction:   buf[17],
		Side:           buf[18],
		Price:          binary.LittleEndian.Uint32(buf[19:23]),
		Shares:         binary.LittleEndian.Uint32(buf[23:27]),
		Position:       binary.LittleEndian.Uint32(buf[27:31]),
	}
	copy(m.Stock[:], buf[9:17])
	return m
}

// DecodeMarketData decodes a single record of the given tag from buf, which
// must be exactly the record's Size() bytes. Unknown tags are the caller's
// responsibility to detect via MarketDataSize before calling.
func DecodeMarketData(tag byte, buf []byte) MDMessage {
	switch tag {
	case TagAddOrder:
		return decodeAddOrder(buf)
	case TagTrade:
		return decodeTrade(buf)
	case TagOrderExecuted:
		return decodeOrderExecuted(buf)
	case TagOrderCancel:
		return decodeOrderCancel(buf)
	case TagOrderDelete:
		return decodeOrderDelete(buf)
	case TagReplaceOrder:
		return decodeReplaceOrder(buf)
	case TagMarketDepth:
		return decodeMarketDepth(buf)
	default:
		return nil
	}
}
