package replay

import (
	"testing"
	"time"

	"github.com/BryWillow/beacon/internal/wire"
)

func msg() wire.MDMessage {
	return &wire.AddOrder{SequenceNumber: 1, Stock: wire.NewSymbol("AAPL"), Price: 100}
}

// stubRule lets tests assert terminal short-circuiting without depending on
// a real rule's timing behavior.
type stubRule struct {
	BaseRule
	priority Priority
	outcome  Outcome
	called   *bool
}

func (s *stubRule) Priority() Priority { return s.priority }
func (s *stubRule) Apply(_ int, _ wire.MDMessage, _ *State, d Decision) Decision {
	if s.called != nil {
		*s.called = true
	}
	d.Outcome = s.outcome
	return d
}

func TestEngineTerminalShortCircuits(t *testing.T) {
	called := false
	engine := NewEngine()
	engine.AddRule(&stubRule{priority: Safety, outcome: Veto})
	engine.AddRule(&stubRule{priority: Control, outcome: SendNow, called: &called})

	state := NewState()
	d := engine.Evaluate(0, msg(), state)

	if d.Outcome != Veto {
		t.Fatalf("outcome = %v, want Veto", d.Outcome)
	}
	if called {
		t.Fatal("lower-priority rule was consulted after a terminal Veto")
	}
}

func TestEnginePriorityOrdering(t *testing.T) {
	var order []Priority
	record := func(p Priority) *stubRule {
		return &stubRule{priority: p, outcome: Continue}
	}
	engine := NewEngine()
	// insert out of priority order; engine must still evaluate Safety first
	for _, r := range []*stubRule{record(Chaos), record(Safety), record(Timing), record(Control)} {
		r := r
		engine.AddRule(&orderTrackingRule{stubRule: *r, order: &order})
	}
	engine.Evaluate(0, msg(), NewState())

	want := []Priority{Safety, Control, Timing, Chaos}
	if len(order) != len(want) {
		t.Fatalf("evaluated %d rules, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("evaluation order[%d] = %v, want %v (full: %v)", i, order[i], want[i], order)
		}
	}
}

type orderTrackingRule struct {
	stubRule
	order *[]Priority
}

func (r *orderTrackingRule) Apply(idx int, m wire.MDMessage, s *State, d Decision) Decision {
	*r.order = append(*r.order, r.priority)
	return r.stubRule.Apply(idx, m, s, d)
}

func TestBurstScenario(t *testing.T) {
	b := NewBurst(5, 100*time.Millisecond)
	state := NewState()

	sendNowCount := 0
	for i := 0; i < 5; i++ {
		d := b.Apply(i, msg(), state, NewDecision())
		if d.Outcome != SendNow || d.AccumulatedDelay != 0 {
			t.Fatalf("message %d: got %v/%v, want SendNow/0", i, d.Outcome, d.AccumulatedDelay)
		}
		sendNowCount++
	}

	d := b.Apply(5, msg(), state, NewDecision())
	if d.Outcome != Modified {
		t.Fatalf("6th message: outcome = %v, want Modified", d.Outcome)
	}
	if d.AccumulatedDelay <= 0 || d.AccumulatedDelay > 100*time.Millisecond {
		t.Fatalf("6th message: delay = %v, want in (0, 100ms]", d.AccumulatedDelay)
	}
}

func TestPacketLossScenario(t *testing.T) {
	p := NewPacketLoss(0.25)
	state := NewState()

	const n = 10000
	dropped := 0
	for i := 0; i < n; i++ {
		d := p.Apply(i, msg(), state, NewDecision())
		if d.Outcome == Drop {
			dropped++
		}
	}
	ratio := float64(dropped) / n
	if ratio < 0.20 || ratio > 0.30 {
		t.Fatalf("drop ratio = %v, want roughly 0.25", ratio)
	}
}

func TestPacketLossSkipsAlreadyVetoed(t *testing.T) {
	p := NewPacketLoss(1.0) // would always drop, if consulted
	state := NewState()
	d := NewDecision()
	d.Outcome = Veto
	got := p.Apply(0, msg(), state, d)
	if got.Outcome != Veto {
		t.Fatalf("outcome = %v, want Veto preserved", got.Outcome)
	}
}

func TestSafetyRateLimitOverridesContinuous(t *testing.T) {
	engine := NewEngine()
	engine.AddRule(NewContinuous(100000))
	engine.AddRule(NewRateLimit(1000))

	state := NewState()
	now := time.Now()
	for i := 0; i < 1000; i++ {
		state.RecordSent(now)
	}
	d := engine.Evaluate(0, msg(), state)
	if d.AccumulatedDelay <= 0 {
		t.Fatal("expected RateLimit to add backoff once the trailing-second rate is saturated")
	}
}

func TestPriorityBypassScenario(t *testing.T) {
	classifier := NewSymbolPriorityClassifier("SPY")
	rule := NewPriorityAwareRateLimit(1000, classifier)
	state := NewState()

	now := time.Now()
	for i := 0; i < 1000; i++ {
		state.RecordSent(now)
	}

	spyMsg := &wire.AddOrder{Stock: wire.NewSymbol("SPY")}
	d := rule.Apply(0, spyMsg, state, NewDecision())
	if d.Outcome == Veto {
		t.Fatal("Critical-classified SPY message was vetoed despite bypass contract")
	}

	other := &wire.AddOrder{Stock: wire.NewSymbol("AAPL")}
	d2 := rule.Apply(0, other, state, NewDecision())
	if d2.Outcome != Veto {
		t.Fatalf("Normal message over the rate limit: outcome = %v, want Veto", d2.Outcome)
	}
}

func TestReplayStateSlidingWindow(t *testing.T) {
	state := NewState()
	base := time.Now()
	state.RecordSent(base)
	state.RecordSent(base.Add(500 * time.Millisecond))

	if r := state.CurrentRate(base.Add(600 * time.Millisecond)); r != 2 {
		t.Fatalf("rate = %d, want 2", r)
	}
	if r := state.CurrentRate(base.Add(1600 * time.Millisecond)); r != 1 {
		t.Fatalf("rate after first entry expires = %d, want 1", r)
	}
	if r := state.CurrentRate(base.Add(2 * time.Second)); r != 0 {
		t.Fatalf("rate after window fully expires = %d, want 0", r)
	}
}

func TestReplayStateCounters(t *testing.T) {
	state := NewState()
	state.RecordSent(time.Now())
	state.RecordDropped()
	state.RecordQueued()

	if state.MessagesSent() != 1 {
		t.Fatalf("sent = %d, want 1", state.MessagesSent())
	}
	if state.MessagesDropped() != 1 {
		t.Fatalf("dropped = %d, want 1", state.MessagesDropped())
	}
	if state.MessagesQueued() != 1 {
		t.Fatalf("queued = %d, want 1", state.MessagesQueued())
	}
}
