package replay

import (
	"math"
	"math/rand"
	"time"

	"github.com/BryWillow/beacon/internal/wire"
)

// Burst sends immediately until Size messages have been sent in the
// current Interval-long window, then holds the rest of the window's
// traffic until it expires. Priority: Control.
type Burst struct {
	BaseRule
	Size     int
	Interval time.Duration

	windowStart  time.Time
	sentInWindow int
}

func NewBurst(size int, interval time.Duration) *Burst {
	return &Burst{Size: size, Interval: interval}
}

func (*Burst) Priority() Priority { return Control }

func (b *Burst) Apply(_ int, _ wire.MDMessage, _ *State, d Decision) Decision {
	now := time.Now()
	if b.windowStart.IsZero() {
		b.windowStart = now
	}
	elapsed := now.Sub(b.windowStart)
	if elapsed >= b.Interval {
		b.windowStart = now
		b.sentInWindow = 0
		elapsed = 0
	}
	if b.sentInWindow < b.Size {
		b.sentInWindow++
		d.Outcome = SendNow
		d.AccumulatedDelay = 0
		return d
	}
	d.Outcome = Modified
	d.AccumulatedDelay = b.Interval - elapsed
	return d
}

// Continuous adds a fixed per-message delay to hold a steady rate.
// Priority: Control.
type Continuous struct {
	BaseRule
	RatePerSec float64
}

func NewContinuous(ratePerSec float64) *Continuous { return &Continuous{RatePerSec: ratePerSec} }

func (*Continuous) Priority() Priority { return Control }

func (c *Continuous) Apply(_ int, _ wire.MDMessage, _ *State, d Decision) Decision {
	if c.RatePerSec <= 0 {
		return d
	}
	delayUs := 1_000_000.0 / c.RatePerSec
	d.AccumulatedDelay += time.Duration(delayUs * float64(time.Microsecond))
	return d
}

// SpeedFactor scales the accumulated delay by 1/k. Priority: Timing.
type SpeedFactor struct {
	BaseRule
	K float64
}

func NewSpeedFactor(k float64) *SpeedFactor { return &SpeedFactor{K: k} }

func (*SpeedFactor) Priority() Priority { return Timing }

func (s *SpeedFactor) Apply(_ int, _ wire.MDMessage, _ *State, d Decision) Decision {
	if s.K == 0 {
		return d
	}
	d.AccumulatedDelay = time.Duration(float64(d.AccumulatedDelay) / s.K)
	return d
}

// Wave modulates the send rate sinusoidally between MinRate and MaxRate
// over PeriodMs. Priority: Timing.
type Wave struct {
	BaseRule
	PeriodMs       float64
	MinRate        float64
	MaxRate        float64
}

func NewWave(periodMs, minRate, maxRate float64) *Wave {
	return &Wave{PeriodMs: periodMs, MinRate: minRate, MaxRate: maxRate}
}

func (*Wave) Priority() Priority { return Timing }

func (w *Wave) Apply(_ int, _ wire.MDMessage, state *State, d Decision) Decision {
	t := state.ElapsedMs()
	rate := w.MinRate + (w.MaxRate-w.MinRate)*(math.Sin(2*math.Pi*t/w.PeriodMs)+1)/2
	if rate <= 0 {
		return d
	}
	delayUs := 1_000_000.0 / rate
	d.AccumulatedDelay += time.Duration(delayUs * float64(time.Microsecond))
	return d
}

// RateLimit is a hard ceiling: once the trailing-second rate reaches
// MaxRate, every further message in that second is delayed. Priority:
// Safety — it is the never-violated ceiling, evaluated before anything
// else in the ladder.
type RateLimit struct {
	BaseRule
	MaxRate int
}

func NewRateLimit(maxRate int) *RateLimit { return &RateLimit{MaxRate: maxRate} }

func (*RateLimit) Priority() Priority { return Safety }

func (r *RateLimit) Apply(_ int, _ wire.MDMessage, state *State, d Decision) Decision {
	if r.MaxRate <= 0 {
		return d
	}
	if state.CurrentRate(time.Now()) >= r.MaxRate {
		delayUs := 1_000_000.0 / float64(r.MaxRate)
		d.AccumulatedDelay += time.Duration(delayUs * float64(time.Microsecond))
	}
	return d
}

// PacketLoss drops a fraction p of messages that have not already been
// vetoed by a higher-priority rule. Priority: Chaos.
type PacketLoss struct {
	BaseRule
	Rate float64
	rng  *rand.Rand
}

func NewPacketLoss(rate float64) *PacketLoss {
	return &PacketLoss{Rate: rate, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (*PacketLoss) Priority() Priority { return Chaos }

func (p *PacketLoss) Apply(_ int, _ wire.MDMessage, _ *State, d Decision) Decision {
	if d.Outcome == Veto {
		return d
	}
	if p.rng.Float64() < p.Rate {
		d.Outcome = Drop
	}
	return d
}

// Jitter adds a uniform random delay in [0, MaxJitter]. Priority: Chaos.
type Jitter struct {
	BaseRule
	MaxJitter time.Duration
	rng       *rand.Rand
}

func NewJitter(maxJitter time.Duration) *Jitter {
	return &Jitter{MaxJitter: maxJitter, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (*Jitter) Priority() Priority { return Chaos }

func (j *Jitter) Apply(_ int, _ wire.MDMessage, _ *State, d Decision) Decision {
	if j.MaxJitter <= 0 {
		return d
	}
	d.AccumulatedDelay += time.Duration(j.rng.Int63n(int64(j.MaxJitter) + 1))
	return d
}
