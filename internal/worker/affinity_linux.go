//go:build linux

package worker

import "golang.org/x/sys/unix"

// pinToCore binds the calling OS thread to a single CPU using the Linux
// scheduler affinity syscall.
func pinToCore(core int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(core)
	return unix.SchedSetaffinity(0, &set)
}
