// Package wire implements the fixed-size, field-order-exact binary record
// layouts for the market-data and order-entry protocols in spec.md §3.1,
// grounded on the POD-style message structs in backend/pkg/lx/types.go and
// the fixed-record contract described (but C++-bridged, not implemented in
// Go) by backend/pkg/fix/cpp_codec.go.
//
// Byte order is native little-endian end-to-end, per spec.md §9's
// resolution of the generator/replayer byte-order open question. Symbol
// fields are 8-byte right-space-padded ASCII and are never byte-swapped.
package wire

import "bytes"

// Symbol is an 8-byte right-space-padded ASCII ticker.
type Symbol [8]byte

// NewSymbol right-pads s with spaces (or truncates) to fit the 8-byte field.
func NewSymbol(s string) Symbol {
	var sym Symbol
	for i := range sym {
		sym[i] = ' '
	}
	copy(sym[:], s)
	return sym
}

// String trims the trailing padding.
func (s Symbol) String() string {
	return string(bytes.TrimRight(s[:], " "))
}
