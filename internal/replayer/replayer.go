// Package replayer implements the capture-file player (C7): load a
// capture, walk it record by record through the rules engine, dispatch
// each surviving record via a Sender, and optionally loop forever.
//
// Grounded on backend/cmd/fix-generator/main.go's CLI shape (load a file,
// iterate, report progress) and backend/cmd/zmq-trader/main.go's
// time.Ticker-paced send loop, generalized from a fixed-rate ticker to the
// full priority-ordered rules ladder in internal/replay.
package replayer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BryWillow/beacon/internal/replay"
	"github.com/BryWillow/beacon/internal/telemetry"
	"github.com/BryWillow/beacon/internal/transport"
	"github.com/BryWillow/beacon/internal/wire"
)

// ErrUnknownTag and ErrMalformedCapture mirror the feed handler's packet
// errors at file-load granularity, spec.md §6: "The replayer rejects a
// file iff the trailing bytes cannot be parsed into a complete record or a
// record carries an unknown tag."
var (
	ErrUnknownTag       = errors.New("replayer: unknown tag")
	ErrMalformedCapture = errors.New("replayer: malformed trailing record")
)

// progressInterval is spec.md §4.7's "progress reporting every 10,000
// messages" (design-level, not a hard contract).
const progressInterval = 10000

// Replayer owns a loaded capture, a rules engine, and a sender.
type Replayer struct {
	records     [][]byte
	msgs        []wire.MDMessage
	engine      *replay.Engine
	state       *replay.State
	loopForever bool
	sender      transport.Sender
	log         telemetry.Logger
	metrics     *telemetry.Metrics
}

// New builds a Replayer that will dispatch through sender.
func New(sender transport.Sender) *Replayer {
	return &Replayer{
		engine: replay.NewEngine(),
		state:  replay.NewState(),
		sender: sender,
		log:    telemetry.New("replayer"),
	}
}

// WithMetrics attaches a Prometheus exporter; counters are updated as the
// replay runs.
func (r *Replayer) WithMetrics(m *telemetry.Metrics) *Replayer {
	r.metrics = m
	return r
}

// AddRule inserts rule into the engine's priority ladder.
func (r *Replayer) AddRule(rule replay.Rule) { r.engine.AddRule(rule) }

// SetLoopForever controls whether Run repeats the capture indefinitely.
func (r *Replayer) SetLoopForever(b bool) { r.loopForever = b }

// State exposes the replay counters for the progress reporter / metrics.
func (r *Replayer) State() *replay.State { return r.state }

// Load reads path and splits it into market-data records by walking tag
// bytes, per spec.md §4.7/§6. A record is decoded eagerly (for rule and
// classifier consumption) and its raw bytes are kept for dispatch.
func (r *Replayer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("replayer: read capture: %w", err)
	}

	cursor := 0
	for cursor < len(data) {
		tag := data[cursor]
		size, ok := wire.MarketDataSize(tag)
		if !ok {
			return fmt.Errorf("%w: %q at offset %d", ErrUnknownTag, tag, cursor)
		}
		if cursor+size > len(data) {
			return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrMalformedCapture, size, cursor, len(data)-cursor)
		}

		rec := data[cursor : cursor+size]
		r.records = append(r.records, rec)
		r.msgs = append(r.msgs, wire.DecodeMarketData(tag, rec))
		cursor += size
	}
	return nil
}

// Run evaluates every loaded record through the rules ladder and
// dispatches it, per the algorithm in spec.md §4.7. It returns when the
// capture has played once (loopForever == false) or ctx is cancelled.
func (r *Replayer) Run(ctx context.Context) error {
	r.engine.OnPlaybackStart()
	defer r.engine.OnPlaybackEnd()

	for {
		for i, msg := range r.msgs {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			d := r.engine.Evaluate(i, msg, r.state)
			switch d.Outcome {
			case replay.SendNow:
				r.dispatch(i)
			case replay.Continue, replay.Modified:
				if d.AccumulatedDelay > 0 {
					time.Sleep(d.AccumulatedDelay)
				}
				r.dispatch(i)
			case replay.Drop:
				r.state.RecordDropped()
				if r.metrics != nil {
					r.metrics.MessagesDropped.Inc()
				}
			case replay.Veto:
				r.state.RecordQueued()
				if r.metrics != nil {
					r.metrics.MessagesQueued.Inc()
				}
			}

			if (i+1)%progressInterval == 0 {
				r.log.Info("playback progress",
					"sent", r.state.MessagesSent(), "dropped", r.state.MessagesDropped(),
					"queued", r.state.MessagesQueued(), "rate", r.state.CurrentRate(time.Now()))
			}
		}
		if !r.loopForever {
			break
		}
	}
	return nil
}

func (r *Replayer) dispatch(i int) {
	if r.sender.Send(r.records[i]) {
		r.state.RecordSent(time.Now())
		if r.metrics != nil {
			r.metrics.MessagesSent.Inc()
			r.metrics.CurrentRate.Set(float64(r.state.CurrentRate(time.Now())))
		}
		return
	}
	r.log.Warn("send failed, message not counted as sent", "index", i)
}
