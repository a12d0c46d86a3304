// Package feed decodes concatenated market-data records out of a raw
// datagram or capture-file segment into typed variants pushed onto a ring.
//
// Grounded on PrathamDesai07-mtbt_go__main.go's ReceiverCore read loop,
// generalized from its length-prefixed framing to the tag-driven framing
// spec.md §4.4 specifies: there is no length prefix, so the cursor recovers
// each record's size from its leading tag byte via internal/wire's size
// table.
package feed

import (
	"errors"
	"fmt"

	"github.com/BryWillow/beacon/internal/ring"
	"github.com/BryWillow/beacon/internal/wire"
)

// ErrTruncated is returned when the final record in a buffer is cut short.
var ErrTruncated = errors.New("feed: truncated record")

// ErrUnknownTag is returned when a tag byte has no registered size.
var ErrUnknownTag = errors.New("feed: unknown tag")

// ParsePacket walks buf, decoding one market-data record per iteration and
// pushing each onto sink. It returns the number of complete records it
// decoded and pushed, and an error if buf ended mid-record or carried an
// unrecognized tag.
//
// A record that sink.TryPush rejects (ring full) is not retried and does
// not abort the parse — spec.md §4.4: "a false push increments the ring's
// drop counter and is not retried inside the parser." ParsePacket does not
// allocate on the decode path beyond what DecodeMarketData itself needs.
func ParsePacket(buf []byte, sink *ring.Ring[wire.MDMessage]) (int, error) {
	cursor := 0
	decoded := 0
	for cursor < len(buf) {
		tag := buf[cursor]
		size, ok := wire.MarketDataSize(tag)
		if !ok {
			return decoded, fmt.Errorf("%w: %q at offset %d", ErrUnknownTag, tag, cursor)
		}
		if cursor+size > len(buf) {
			return decoded, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, size, cursor, len(buf)-cursor)
		}

		msg := wire.DecodeMarketData(tag, buf[cursor:cursor+size])
		sink.TryPush(msg)
		decoded++
		cursor += size
	}
	return decoded, nil
}
