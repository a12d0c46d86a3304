// Command algo runs the three-core client pipeline (C13): join the
// market-data multicast group on one core, run trading logic on a second,
// and dispatch/receive order-entry traffic over TCP on a third, per
// spec.md §6:
//
//	algo <mcast_addr> <md_port> <ex_host> <ex_port> <duration_sec>
//
// Trading logic itself is out of scope (spec.md §1). Two example
// strategies are wired in: "mirror" (default), a trivial demonstration
// that echoes every AddOrder at the same price and size, and "twap", a
// time-weighted-average-price slicer grounded on
// original_source/src/apps/client_algorithm/algo_twap.cpp. Neither is a
// real trading strategy; an optional trailing argument selects between
// them without disturbing the five required positional arguments.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BryWillow/beacon/internal/pipeline"
	"github.com/BryWillow/beacon/internal/strategy"
	"github.com/BryWillow/beacon/internal/telemetry"
	"github.com/BryWillow/beacon/internal/transport"
	"github.com/BryWillow/beacon/internal/wire"
)

func main() {
	if len(os.Args) != 6 && len(os.Args) != 7 {
		fmt.Fprintln(os.Stderr, "usage: algo <mcast_addr> <md_port> <ex_host> <ex_port> <duration_sec> [mirror|twap]")
		os.Exit(1)
	}

	mcastAddr := os.Args[1]
	mdPort := mustAtoi(os.Args[2])
	exHost := os.Args[3]
	exPort := mustAtoi(os.Args[4])
	durationSec := mustAtoi(os.Args[5])

	algo := pipeline.Algorithm(mirrorStrategy)
	if len(os.Args) == 7 && os.Args[6] == "twap" {
		algo = strategy.NewTWAP(strategy.TWAPConfig{
			Symbol:        wire.NewSymbol("AAPL"),
			Side:          wire.SideBuy,
			TotalShares:   10000,
			Window:        time.Duration(durationSec) * time.Second,
			SliceInterval: time.Second,
			MaxSliceSize:  500,
		})
	}

	receiver, err := transport.NewUDPMulticastReceiver(mcastAddr, mdPort, 100*time.Millisecond)
	if err != nil {
		log.Fatalf("algo: multicast receiver: %v", err)
	}
	defer receiver.Close()

	execClient, err := transport.NewTCPClient(exHost, exPort)
	if err != nil {
		log.Fatalf("algo: exchange connect: %v", err)
	}
	defer execClient.Close()

	p := pipeline.New(pipeline.Config{
		MDReceiver:        receiver,
		ExecClient:        execClient,
		Algorithm:         algo,
		MDCore:            0,
		TradingCore:       1,
		ExecCore:          2,
		MDQueueCapacity:   1 << 16,
		ExecQueueCapacity: 1 << 12,
	})

	metrics := telemetry.NewMetrics("beacon_algo")
	p.WithMetrics(metrics)

	metricsCtx, metricsCancel := context.WithCancel(context.Background())
	defer metricsCancel()
	go metrics.Serve(metricsCtx, ":9102")

	log.Printf("algo: running for %ds (mcast=%s:%d exchange=%s:%d)", durationSec, mcastAddr, mdPort, exHost, exPort)
	p.Start()
	time.Sleep(time.Duration(durationSec) * time.Second)
	p.Stop()

	stats := p.Latency().Stats()
	log.Printf("algo: tick-to-trade samples=%d min=%dus p50=%dus p95=%dus p99=%dus max=%dus",
		stats.Count, stats.MinUs, stats.MedianUs, stats.P95Us, stats.P99Us, stats.MaxUs)
}

func mirrorStrategy(md wire.MDMessage, _ []*wire.ExecutionReport) *wire.NormalizedOrder {
	add, ok := md.(*wire.AddOrder)
	if !ok {
		return nil
	}
	return &wire.NormalizedOrder{
		OrderID:  add.OrderRefNum,
		Symbol:   add.Stock,
		Quantity: add.Shares,
		Price:    add.Price,
		Side:     add.Side,
		Protocol: wire.ProtocolOuch,
	}
}

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("algo: bad integer argument %q: %v", s, err)
	}
	return n
}
