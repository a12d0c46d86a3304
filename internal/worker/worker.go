// Package worker spawns goroutines pinned (best-effort) to a CPU core and
// wires them to a shared cooperative stop flag.
//
// Grounded on codewanderer42820-evm_triarb__pinned_consumer.go's
// runtime.LockOSThread + setAffinity pattern, generalized from a
// ring-specific consumer into a general-purpose pinned worker body, and on
// PrathamDesai07-mtbt_go__main.go's per-component core mapping
// (CoreMapping [5]int) for the "one core per pipeline stage" idea used by
// the three-core client pipeline (C13).
package worker

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/BryWillow/beacon/internal/telemetry"
)

// NoPinning requests that the worker not attempt CPU affinity at all.
const NoPinning = -1

// Stop is a cooperative shutdown flag shared between a worker and whoever
// wants to stop it. Zero value is "run".
type Stop struct {
	flag atomic.Bool
}

// Signal requests that the worker exit at its next loop iteration.
func (s *Stop) Signal() { s.flag.Store(true) }

// Requested reports whether shutdown has been requested.
func (s *Stop) Requested() bool { return s.flag.Load() }

// Handle represents a spawned pinned worker.
type Handle struct {
	stop *Stop
	wg   sync.WaitGroup
}

// Stop signals shutdown and blocks until the worker body returns.
func (h *Handle) Stop() {
	h.stop.Signal()
	h.wg.Wait()
}

// Spawn launches fn on a new goroutine, locked to an OS thread and
// (best-effort) pinned to core. fn receives the shared stop flag and is
// expected to poll it at natural loop boundaries, per spec.md §5.
//
// Failure to pin is logged and non-fatal: the worker still runs
// unpinned, matching the "best-effort OS feature" contract in spec.md §7.
func Spawn(name string, core int, fn func(stop *Stop)) *Handle {
	h := &Handle{stop: &Stop{}}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		if core != NoPinning {
			if err := pinToCore(core); err != nil {
				telemetry.Default().WithField("worker", name).WithField("core", core).
					Warn("cpu affinity unavailable, continuing unpinned", "err", err)
			}
		}
		fn(h.stop)
	}()
	return h
}
