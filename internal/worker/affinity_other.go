//go:build !linux

package worker

import "errors"

// pinToCore is a no-op on platforms without a CPU affinity facility, per
// spec.md §4.2: "on platforms without the facility, the call is a no-op and
// the worker still runs."
func pinToCore(core int) error {
	return errors.New("cpu affinity not supported on this platform")
}
