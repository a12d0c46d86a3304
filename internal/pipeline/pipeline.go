// Package pipeline wires the three-core client algorithm (C13): an
// MD-receive thread, a trading-logic thread, and an exec-receive thread,
// connected by two SPSC rings.
//
// Grounded on PrathamDesai07-mtbt_go__main.go's OrderbookSystem, which
// wires a receiver core, a matching core, and a reporting core together
// with channel-like queues on dedicated goroutines; generalized here to
// internal/worker's pinned-goroutine model and internal/ring's SPSC queues.
package pipeline

import (
	"runtime"
	"time"

	"github.com/BryWillow/beacon/internal/feed"
	"github.com/BryWillow/beacon/internal/protocol"
	"github.com/BryWillow/beacon/internal/ring"
	"github.com/BryWillow/beacon/internal/telemetry"
	"github.com/BryWillow/beacon/internal/transport"
	"github.com/BryWillow/beacon/internal/wire"
	"github.com/BryWillow/beacon/internal/worker"
)

// execQueueGracePeriod is spec.md §4.12/§7's "a full exec_queue is treated
// as a critical event after a grace period" — logged, never fatal.
const execQueueGracePeriod = 5 * time.Second

// Algorithm is the user's trading logic: given the most recently popped
// market-data message and the exec reports drained since the previous
// tick, it optionally returns an order to send. Position/PnL bookkeeping
// is out of scope (spec.md §1) — Algorithm is where an implementer would
// hook it in.
type Algorithm func(md wire.MDMessage, execs []*wire.ExecutionReport) *wire.NormalizedOrder

// Config wires the pipeline's external collaborators and core assignment.
type Config struct {
	MDReceiver transport.Receiver
	ExecClient *transport.TCPClient
	Algorithm  Algorithm

	MDCore, TradingCore, ExecCore      int // worker.NoPinning to disable pinning
	MDQueueCapacity, ExecQueueCapacity int
}

// Pipeline owns the two rings and the three pinned workers.
type Pipeline struct {
	cfg       Config
	mdQueue   *ring.Ring[wire.MDMessage]
	execQueue *ring.Ring[*wire.ExecutionReport]
	latency   *telemetry.LatencyTracker
	log       telemetry.Logger
	metrics   *telemetry.Metrics
	workers   []*worker.Handle
}

// New builds a Pipeline from cfg. Call Start to spawn the three workers.
func New(cfg Config) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		mdQueue:   ring.New[wire.MDMessage](cfg.MDQueueCapacity),
		execQueue: ring.New[*wire.ExecutionReport](cfg.ExecQueueCapacity),
		latency:   telemetry.NewLatencyTracker(1 << 16),
		log:       telemetry.New("pipeline"),
	}
}

// WithMetrics attaches a Prometheus exporter.
func (p *Pipeline) WithMetrics(m *telemetry.Metrics) *Pipeline {
	p.metrics = m
	return p
}

// Latency exposes the tick-to-trade sampler for offline reporting.
func (p *Pipeline) Latency() *telemetry.LatencyTracker { return p.latency }

// Start spawns the three pinned worker threads.
func (p *Pipeline) Start() {
	p.workers = append(p.workers,
		worker.Spawn("md-receiver", p.cfg.MDCore, p.mdReceiveLoop),
		worker.Spawn("trading-logic", p.cfg.TradingCore, p.tradingLoop),
		worker.Spawn("exec-receiver", p.cfg.ExecCore, p.execReceiveLoop),
	)
}

// Stop signals every worker and blocks until all three have exited.
func (p *Pipeline) Stop() {
	for _, h := range p.workers {
		h.Stop()
	}
}

// mdReceiveLoop is core 0: UDP socket -> mdQueue (drop-tolerant), spec.md
// §4.12.
func (p *Pipeline) mdReceiveLoop(stop *worker.Stop) {
	buf := make([]byte, 64*1024)
	for !stop.Requested() {
		n, ok, err := p.cfg.MDReceiver.Recv(buf)
		if err != nil {
			p.log.Warn("md receive failed", "err", err)
			continue
		}
		if !ok {
			continue // read timeout: loop back around to poll the stop flag
		}
		if _, perr := feed.ParsePacket(buf[:n], p.mdQueue); perr != nil {
			p.log.Warn("md packet parse error", "err", perr)
		}
		if p.metrics != nil {
			p.metrics.RingHighWater.Set(float64(p.mdQueue.HighWaterMark()))
		}
	}
}

// tradingLoop is core 1: drain exec_queue, pop one md_queue entry, run the
// algorithm, optionally send one order. Priority order per spec.md §4.12.
func (p *Pipeline) tradingLoop(stop *worker.Stop) {
	for !stop.Requested() {
		var execs []*wire.ExecutionReport
		var rpt *wire.ExecutionReport
		for p.execQueue.TryPop(&rpt) {
			execs = append(execs, rpt)
		}

		var md wire.MDMessage
		if !p.mdQueue.TryPop(&md) {
			runtime.Gosched() // CPU-pause/yield hint, spec.md §4.12
			continue
		}

		t0 := time.Now()
		order := p.cfg.Algorithm(md, execs)
		if order == nil {
			continue
		}

		buf := make([]byte, wire.OrderEntrySize)
		protocol.Encode(*order, buf)
		p.cfg.ExecClient.Send(buf)
		t1 := time.Now()

		p.latency.Record(t0, t1)
		if p.metrics != nil {
			p.metrics.TickToTrade.Observe(float64(t1.Sub(t0).Microseconds()))
		}
	}
}

// execReceiveLoop is core 2: TCP client -> exec_queue (drop-intolerant: a
// full queue is logged critical after a grace period but the loop keeps
// trying), spec.md §4.12/§7.
func (p *Pipeline) execReceiveLoop(stop *worker.Stop) {
	buf := make([]byte, wire.ExecReportSize)
	var overflowSince time.Time

	for !stop.Requested() {
		n, ok, err := p.cfg.ExecClient.Recv(buf)
		if err != nil {
			p.log.Warn("exec receive failed", "err", err)
			continue
		}
		if !ok || n < wire.ExecReportSize {
			continue
		}

		report := wire.DecodeExecutionReport(buf)
		if !p.execQueue.TryPush(report) {
			if overflowSince.IsZero() {
				overflowSince = time.Now()
			} else if time.Since(overflowSince) > execQueueGracePeriod {
				p.log.Error("exec queue full past grace period, continuing to retry", "since", overflowSince)
			}
			continue
		}
		overflowSince = time.Time{}

		if p.metrics != nil {
			p.metrics.RingHighWater.Set(float64(p.execQueue.HighWaterMark()))
		}
	}
}
