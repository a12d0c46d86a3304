// Command matching-engine runs the matching stub (C11): accept TCP clients,
// auto-detect the order-entry protocol, and echo a synthetic fill, per
// spec.md §6:
//
//	matching_engine <port> [auto|ouch|pillar|cme]
package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/BryWillow/beacon/internal/matching"
	"github.com/BryWillow/beacon/internal/protocol"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: matching_engine <port> [auto|ouch|pillar|cme]")
		os.Exit(1)
	}

	port, err := strconv.Atoi(os.Args[1])
	if err != nil {
		log.Fatalf("matching_engine: bad port %q: %v", os.Args[1], err)
	}

	modeArg := "auto"
	if len(os.Args) >= 3 {
		modeArg = os.Args[2]
	}
	mode, ok := protocol.ParseMode(modeArg)
	if !ok {
		log.Fatalf("matching_engine: unknown protocol mode %q", modeArg)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		log.Fatalf("matching_engine: listen: %v", err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	log.Printf("matching_engine: listening on :%d, protocol=%s", port, mode)
	engine := matching.NewEngine(mode)
	if err := engine.Serve(ctx, ln); err != nil {
		log.Fatalf("matching_engine: serve: %v", err)
	}
	log.Printf("matching_engine: shut down")
}
