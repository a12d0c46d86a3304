package replay

import (
	"time"

	"github.com/BryWillow/beacon/internal/wire"
)

// PriorityAwareRateLimit is RateLimit with classifier-driven bypass:
// Critical/Emergency messages pass through untouched, Elevated messages
// get half the backoff a Normal message would, and Normal messages are
// vetoed once the trailing-second rate reaches MaxRate. Priority: Safety.
type PriorityAwareRateLimit struct {
	BaseRule
	MaxRate    int
	Classifier Classifier
}

func NewPriorityAwareRateLimit(maxRate int, classifier Classifier) *PriorityAwareRateLimit {
	return &PriorityAwareRateLimit{MaxRate: maxRate, Classifier: classifier}
}

func (*PriorityAwareRateLimit) Priority() Priority { return Safety }

func (r *PriorityAwareRateLimit) Apply(_ int, msg wire.MDMessage, state *State, d Decision) Decision {
	pri := r.Classifier.Classify(msg, state)
	if pri == Critical || pri == Emergency {
		return d
	}
	if r.MaxRate <= 0 || state.CurrentRate(time.Now()) < r.MaxRate {
		return d
	}
	if pri == Elevated {
		delayUs := 1_000_000.0 / float64(r.MaxRate) / 2
		d.AccumulatedDelay += time.Duration(delayUs * float64(time.Microsecond))
		return d
	}
	d.Outcome = Veto
	return d
}

// PriorityAwareBurst is Burst with classifier-driven bypass: Critical and
// Emergency messages always SendNow with zero delay regardless of the
// burst window, Elevated messages see half the remaining wait a Normal
// message would, and Normal messages follow standard Burst semantics.
// Priority: Control.
type PriorityAwareBurst struct {
	Burst
	Classifier Classifier
}

func NewPriorityAwareBurst(size int, interval time.Duration, classifier Classifier) *PriorityAwareBurst {
	return &PriorityAwareBurst{Burst: Burst{Size: size, Interval: interval}, Classifier: classifier}
}

func (r *PriorityAwareBurst) Apply(idx int, msg wire.MDMessage, state *State, d Decision) Decision {
	pri := r.Classifier.Classify(msg, state)
	if pri == Critical || pri == Emergency {
		d.Outcome = SendNow
		d.AccumulatedDelay = 0
		return d
	}
	next := r.Burst.Apply(idx, msg, state, d)
	if pri == Elevated && next.Outcome == Modified {
		next.AccumulatedDelay /= 2
	}
	return next
}
