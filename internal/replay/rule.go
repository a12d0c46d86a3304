package replay

import (
	"sort"

	"github.com/BryWillow/beacon/internal/wire"
)

// Priority orders the rule ladder, spec.md §4.6. Lower value evaluates
// first.
type Priority int

const (
	Safety Priority = iota
	Control
	Timing
	Chaos
)

// Rule is the capability every rule in the ladder implements.
type Rule interface {
	Priority() Priority
	Initialize()
	OnPlaybackStart()
	OnPlaybackEnd()
	Apply(messageIndex int, msg wire.MDMessage, state *State, decision Decision) Decision
}

// BaseRule supplies no-op lifecycle hooks so concrete rules only need to
// implement Priority and Apply.
type BaseRule struct{}

func (BaseRule) Initialize()     {}
func (BaseRule) OnPlaybackStart() {}
func (BaseRule) OnPlaybackEnd()   {}

// Engine threads a Decision through a priority-sorted rule list, per
// spec.md §4.6: "The engine threads a single Decision through the sorted
// rule list." Rules of equal priority keep insertion order (stable sort).
type Engine struct {
	rules []Rule
}

// NewEngine returns an empty rules engine.
func NewEngine() *Engine { return &Engine{} }

// AddRule inserts r and re-sorts the ladder by priority, stable on ties.
func (e *Engine) AddRule(r Rule) {
	r.Initialize()
	e.rules = append(e.rules, r)
	sort.SliceStable(e.rules, func(i, j int) bool {
		return e.rules[i].Priority() < e.rules[j].Priority()
	})
}

// OnPlaybackStart invokes the hook on every rule, in priority order.
func (e *Engine) OnPlaybackStart() {
	for _, r := range e.rules {
		r.OnPlaybackStart()
	}
}

// OnPlaybackEnd invokes the hook on every rule, in priority order.
func (e *Engine) OnPlaybackEnd() {
	for _, r := range e.rules {
		r.OnPlaybackEnd()
	}
}

// Evaluate runs msg through the ladder and returns the final Decision.
// A Drop or Veto from any rule stops the ladder immediately — a
// higher-priority rule's Veto can never be downgraded by one evaluated
// later, since later rules are never consulted at all.
func (e *Engine) Evaluate(messageIndex int, msg wire.MDMessage, state *State) Decision {
	d := NewDecision()
	for _, r := range e.rules {
		d = r.Apply(messageIndex, msg, state, d)
		if d.Outcome.Terminal() {
			break
		}
	}
	return d
}
