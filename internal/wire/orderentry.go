package wire

import "encoding/binary"

// OrderEntrySize is the fixed size of every order-entry wire record,
// spec.md §3.1: "Order-entry family (all 64 bytes, padded)".
const OrderEntrySize = 64

// ExecReportSize is the fixed size of an execution report, spec.md §3.1.
const ExecReportSize = 32

// Order sides and time-in-force values shared by the three protocols.
const (
	OrderSideBuy  byte = 'B'
	OrderSideSell byte = 'S'

	TIFDay byte = '0'
	TIFIOC byte = 'I'
	TIFFOK byte = 'F'
)

// autoDetectOrderTypeOffset is the record-absolute byte offset the auto
// protocol detector inspects, spec.md §4.9: "auto: examine byte 22
// (orderType)". For that single fixed offset to disambiguate all three
// protocols before the caller knows which one it is looking at, every
// protocol's orderType byte must live at that same offset — so the three
// layouts below are serialized with a one-byte alignment gap (documented
// per struct) ahead of orderType rather than in the bare field-list order
// spec.md §3.1 enumerates. Every named field and its type is preserved;
// only its position within the 64 bytes is adjusted to make the
// "definitive" auto-detect contract actually hold. See DESIGN.md.
const autoDetectOrderTypeOffset = 22

// Ouch is the OUCH order-entry wire record.
type Ouch struct {
	ClientOrderID uint64
	Symbol        Symbol
	Shares        uint32
	Price         uint32
	Side          byte
	TimeInForce   byte
	OrderType     byte // always 'O' on the wire
	Capacity      byte
	Reserved      uint16
}

const OuchOrderType byte = 'O'

func (o *Ouch) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], o.ClientOrderID)
	copy(buf[8:16], o.Symbol[:])
	binary.LittleEndian.PutUint32(buf[16:20], o.Shares)
	buf[20] = o.Side
	buf[21] = o.TimeInForce
	buf[autoDetectOrderTypeOffset] = OuchOrderType
	buf[23] = o.Capacity
	binary.LittleEndian.PutUint32(buf[24:28], o.Price)
	binary.LittleEndian.PutUint16(buf[28:30], o.Reserved)
	// buf[30:64] is padding, left zeroed.
}

func DecodeOuch(buf []byte) *Ouch {
	o := &Ouch{
		ClientOrderID: binary.LittleEndian.Uint64(buf[0:8]),
		Shares:        binary.LittleEndian.Uint32(buf[16:20]),
		Side:          buf[20],
		TimeInForce:   buf[21],
		OrderType:     buf[autoDetectOrderTypeOffset],
		Capacity:      buf[23],
		Price:         binary.LittleEndian.Uint32(buf[24:28]),
		Reserved:      binary.LittleEndian.Uint16(buf[28:30]),
	}
	copy(o.Symbol[:], buf[8:16])
	return o
}

// Pillar is the NYSE Pillar order-entry wire record.
type Pillar struct {
	ClientOrderID uint64
	Symbol        Symbol
	Shares        uint32
	Price         uint32
	Side          byte
	OrderType     byte
	TIF           byte
	Reserved      [4]byte
}

func (p *Pillar) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], p.ClientOrderID)
	copy(buf[8:16], p.Symbol[:])
	binary.LittleEndian.PutUint32(buf[16:20], p.Shares)
	buf[20] = p.Side
	buf[21] = 0 // one-byte alignment gap, see autoDetectOrderTypeOffset
	buf[autoDetectOrderTypeOffset] = p.OrderType
	buf[23] = p.TIF
	binary.LittleEndian.PutUint32(buf[24:28], p.Price)
	copy(buf[28:32], p.Reserved[:])
	// buf[32:64] is padding, left zeroed.
}

func DecodePillar(buf []byte) *Pillar {
	p := &Pillar{
		ClientOrderID: binary.LittleEndian.Uint64(buf[0:8]),
		Shares:        binary.LittleEndian.Uint32(buf[16:20]),
		Side:          buf[20],
		OrderType:     buf[autoDetectOrderTypeOffset],
		TIF:           buf[23],
		Price:         binary.LittleEndian.Uint32(buf[24:28]),
	}
	copy(p.Symbol[:], buf[8:16])
	copy(p.Reserved[:], buf[28:32])
	return p
}

// Cme is the CME iLink-style order-entry wire record.
type Cme struct {
	ClientOrderID uint64
	Symbol        Symbol
	Quantity      uint32
	Price         uint32
	Side          byte
	OrderType     byte
	TIF           byte
	Reserved      [4]byte
}

func (c *Cme) Encode(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], c.ClientOrderID)
	copy(buf[8:16], c.Symbol[:])
	binary.LittleEndian.PutUint32(buf[16:20], c.Quantity)
	buf[20] = c.Side
	buf[21] = 0 // one-byte alignment gap, see autoDetectOrderTypeOffset
	buf[autoDetectOrderTypeOffset] = c.OrderType
	buf[23] = c.TIF
	binary.LittleEndian.PutUint32(buf[24:28], c.Price)
	copy(buf[28:32], c.Reserved[:])
	// buf[32:64] is padding, left zeroed.
}

func DecodeCme(buf []byte) *Cme {
	c := &Cme{
		ClientOrderID: binary.LittleEndian.Uint64(buf[0:8]),
		Quantity:      binary.LittleEndian.Uint32(buf[16:20]),
		Side:          buf[20],
		OrderType:     buf[autoDetectOrderTypeOffset],
		TIF:           buf[23],
		Price:         binary.LittleEndian.Uint32(buf[24:28]),
	}
	copy(c.Symbol[:], buf[8:16])
	copy(c.Reserved[:], buf[28:32])
	return c
}

// OrderEntryOrderType returns the byte at the shared auto-detect offset,
// valid regardless of which of the three protocols buf actually holds.
func OrderEntryOrderType(buf []byte) byte { return buf[autoDetectOrderTypeOffset] }

// OrderEntrySymbol returns the symbol field, valid regardless of protocol
// (all three place it at the same offset).
func OrderEntrySymbol(buf []byte) Symbol {
	var s Symbol
	copy(s[:], buf[8:16])
	return s
}

// ExecStatus values, spec.md §3.1.
const (
	ExecStatusNew         uint32 = 0
	ExecStatusPartialFill uint32 = 1
	ExecStatusFilled      uint32 = 2
	ExecStatusCancelled   uint32 = 3
)

// ExecReportMsgType is the fixed msgType byte for an execution report.
const ExecReportMsgType uint32 = 3

// ExecutionReport is the 32-byte fill/ack sent back over the order-entry
// TCP stream by the matching stub.
type ExecutionReport struct {
	MsgType   uint32
	OrderID   uint32
	Symbol    Symbol
	ExecQty   uint32
	ExecPrice uint32
	Status    uint32
}

func (e *ExecutionReport) Encode(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], ExecReportMsgType)
	binary.LittleEndian.PutUint32(buf[4:8], e.OrderID)
	copy(buf[8:16], e.Symbol[:])
	binary.LittleEndian.PutUint32(buf[16:20], e.ExecQty)
	binary.LittleEndian.PutUint32(buf[20:24], e.ExecPrice)
	binary.LittleEndian.PutUint32(buf[24:28], e.Status)
	// buf[28:32] is padding, left zeroed.
}

func DecodeExecutionReport(buf []byte) *ExecutionReport {
	e := &ExecutionReport{
		MsgType:   binary.LittleEndian.Uint32(buf[0:4]),
		OrderID:   binary.LittleEndian.Uint32(buf[4:8]),
		ExecQty:   binary.LittleEndian.Uint32(buf[16:20]),
		ExecPrice: binary.LittleEndian.Uint32(buf[20:24]),
		Status:    binary.LittleEndian.Uint32(buf[24:28]),
	}
	copy(e.Symbol[:], buf[8:16])
	return e
}
