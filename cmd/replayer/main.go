// Command replayer streams a capture file through the rules engine (C5/C6)
// and a pluggable sender (C8), per spec.md §6:
//
//	replayer [--config <file>] <input_file>
//
// Exit codes: 0 normal completion, 1 configuration/load failure,
// 2 prerequisite process not ready (e.g. no exec client connected to a TCP
// sender), 3 malformed input message in the capture.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BryWillow/beacon/internal/config"
	"github.com/BryWillow/beacon/internal/monitor"
	"github.com/BryWillow/beacon/internal/replay"
	"github.com/BryWillow/beacon/internal/replayer"
	"github.com/BryWillow/beacon/internal/telemetry"
	"github.com/BryWillow/beacon/internal/transport"
)

const (
	exitOK               = 0
	exitConfigOrLoad     = 1
	exitPrerequisite     = 2
	exitMalformedCapture = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "optional JSON config file")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: replayer [--config <file>] <input_file>")
		return exitConfigOrLoad
	}
	inputFile := flag.Arg(0)

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Printf("replayer: %v", err)
			return exitConfigOrLoad
		}
		cfg = loaded
	} else {
		cfg = &config.Config{Sender: "console"}
	}

	sender, err := buildSender(cfg)
	if err != nil {
		log.Printf("replayer: %v", err)
		return exitPrerequisite
	}
	defer sender.Close()

	r := replayer.New(sender)
	r.SetLoopForever(cfg.LoopForever)
	for _, rc := range cfg.Rules {
		rule, err := buildRule(rc)
		if err != nil {
			log.Printf("replayer: %v", err)
			return exitConfigOrLoad
		}
		r.AddRule(rule)
	}

	if cfg.MetricsAddr != "" {
		metrics := telemetry.NewMetrics("beacon_replayer")
		r.WithMetrics(metrics)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go metrics.Serve(ctx, cfg.MetricsAddr)
	}

	hub := monitor.NewHub()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	log.Printf("replayer: loading %s", inputFile)
	if err := r.Load(inputFile); err != nil {
		if errors.Is(err, replayer.ErrMalformedCapture) || errors.Is(err, replayer.ErrUnknownTag) {
			log.Printf("replayer: %v", err)
			return exitMalformedCapture
		}
		log.Printf("replayer: %v", err)
		return exitConfigOrLoad
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)
	go reportProgress(ctx, hub, r)

	if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("replayer: %v", err)
		return exitConfigOrLoad
	}

	log.Printf("replayer: sent=%d dropped=%d queued=%d",
		r.State().MessagesSent(), r.State().MessagesDropped(), r.State().MessagesQueued())
	return exitOK
}

func watchSignals(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()
}

func reportProgress(ctx context.Context, hub *monitor.Hub, r *replayer.Replayer) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			hub.Publish(monitor.Snapshot{
				Timestamp:       time.Now().Unix(),
				MessagesSent:    r.State().MessagesSent(),
				MessagesDropped: r.State().MessagesDropped(),
				MessagesQueued:  r.State().MessagesQueued(),
				CurrentRate:     float64(r.State().CurrentRate(time.Now())),
			})
		}
	}
}

func buildSender(cfg *config.Config) (transport.Sender, error) {
	switch cfg.Sender {
	case "", "console":
		return transport.NewConsoleSender(), nil
	case "null":
		return transport.NewNullSender(), nil
	case "file":
		return transport.NewFileSender(cfg.SenderAddr)
	case "udp":
		return transport.NewUDPMulticastSender(cfg.SenderAddr, cfg.SenderPort, 1)
	case "tcp":
		return transport.NewTCPSender(cfg.SenderPort)
	case "nats":
		return transport.NewNATSSender(cfg.SenderAddr, "beacon.replay")
	case "zmq":
		return transport.NewZMQSender(cfg.SenderAddr)
	default:
		return nil, fmt.Errorf("unknown sender mode %q", cfg.Sender)
	}
}

func buildRule(rc config.RuleConfig) (replay.Rule, error) {
	switch rc.Type {
	case "burst":
		return replay.NewBurst(rc.Count, time.Duration(rc.Window)*time.Millisecond), nil
	case "continuous":
		return replay.NewContinuous(float64(rc.Rate)), nil
	case "speed_factor":
		return replay.NewSpeedFactor(rc.Factor), nil
	case "wave":
		return replay.NewWave(rc.PeriodMs, rc.MinRate, rc.MaxRate), nil
	case "rate_limit":
		return replay.NewRateLimit(rc.Rate), nil
	case "packet_loss":
		return replay.NewPacketLoss(rc.Pct), nil
	case "jitter":
		return replay.NewJitter(time.Duration(rc.MaxMs) * time.Millisecond), nil
	default:
		return nil, fmt.Errorf("unknown rule type %q", rc.Type)
	}
}
