// Command generator writes a capture file of binary market-data records
// for the replayer (C7) to play back. Symbol/spread randomization is a
// non-goal per spec.md §1 ("symbol/spread random generation"); this tool
// produces a deterministic, seedable sequence of AddOrder/Trade/OrderDelete
// records instead of realistic market simulation.
//
// Grounded on backend/cmd/fix-generator/main.go's flag-driven CLI shape and
// mode switch.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"

	"github.com/BryWillow/beacon/internal/wire"
)

var symbols = []string{"AAPL", "MSFT", "IBM", "ESZ4", "NQZ4"}

func main() {
	var (
		output = flag.String("output", "capture.bin", "output capture file path")
		count  = flag.Int("count", 10000, "number of records to generate")
		seed   = flag.Int64("seed", 1, "PRNG seed, for reproducible captures")
	)
	flag.Parse()

	log.Printf("generator: writing %d records to %s (seed=%d)", *count, *output, *seed)

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("generator: create %s: %v", *output, err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	var seq uint64
	var refNum uint64

	for i := 0; i < *count; i++ {
		seq++
		refNum++
		msg := nextMessage(rng, seq, refNum)

		buf := make([]byte, msg.Size())
		msg.Encode(buf)
		if _, err := f.Write(buf); err != nil {
			log.Fatalf("generator: write record %d: %v", i, err)
		}
	}

	log.Printf("generator: done")
}

// nextMessage cycles through AddOrder, Trade, and OrderDelete so a capture
// exercises the feed handler's (C4) full tag-dispatch path, not just one
// variant.
func nextMessage(rng *rand.Rand, seq, refNum uint64) wire.MDMessage {
	sym := wire.NewSymbol(symbols[rng.Intn(len(symbols))])
	price := uint32(100_00 + rng.Intn(50_00))
	shares := uint32(1 + rng.Intn(500))

	switch seq % 3 {
	case 0:
		side := wire.SideBuy
		if rng.Intn(2) == 1 {
			side = wire.SideSell
		}
		return &wire.AddOrder{SequenceNumber: seq, OrderRefNum: refNum, Stock: sym, Shares: shares, Price: price, Side: side}
	case 1:
		return &wire.Trade{SequenceNumber: seq, OrderRefNum: refNum, Side: wire.SideBuy, Shares: shares, Stock: sym, Price: price}
	default:
		return &wire.OrderDelete{SequenceNumber: seq, OrderRefNum: uint32(refNum)}
	}
}
