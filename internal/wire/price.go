package wire

import "github.com/shopspring/decimal"

// PriceScale is the number of wire price ticks per quoted unit (cents per
// dollar), spec.md §3.1's integer price fields.
const PriceScale = 100

// DecimalPrice converts a wire price (integer ticks) into a decimal.Decimal
// for human-readable logging, avoiding the float drift plain division would
// introduce. Grounded on the corpus's pervasive use of shopspring/decimal
// for money.
func DecimalPrice(ticks uint32) decimal.Decimal {
	return decimal.New(int64(ticks), -2)
}
