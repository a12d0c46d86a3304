// Package ring implements the fixed-capacity single-producer/single-consumer
// queue that wires every stage of the pipeline together.
//
// Layout and synchronization follow the SPSC ring in
// codewanderer42820-evm_triarb__ring.go: head and tail cursors live on
// separate cache lines, the producer only ever touches head, the consumer
// only ever touches tail, and all cross-thread visibility is carried by the
// sequence-number handoff rather than a mutex.
package ring

import (
	"sync/atomic"
)

const cacheLinePad = 64 - 8

// Ring is a fixed-capacity SPSC queue of T. Capacity is fixed at
// construction and never grows. A Ring must not be copied after first use.
type Ring[T any] struct {
	_    [cacheLinePad]byte
	head uint64 // consumer-owned read cursor

	_    [cacheLinePad]byte
	tail uint64 // producer-owned write cursor

	_ [cacheLinePad]byte

	mask     uint64
	buf      []T
	dropped  atomic.Uint64
	highWater atomic.Uint64
}

// New constructs a Ring with the given capacity. capacity is rounded up to
// the next power of two so index arithmetic can use a mask instead of a
// modulo, the way the teacher's ring does.
func New[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		panic("ring: capacity must be > 0")
	}
	size := nextPowerOfTwo(capacity + 1)
	return &Ring[T]{
		mask: uint64(size - 1),
		buf:  make([]T, size),
	}
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// TryPush attempts to enqueue an item. It returns false and increments the
// drop counter if the ring is full.
func (r *Ring[T]) TryPush(item T) bool {
	head := atomic.LoadUint64(&r.head) // acquire: observe consumer progress
	tail := r.tail
	used := tail - head
	if used >= r.mask { // mask == len(buf)-1 == usable capacity
		r.dropped.Add(1)
		return false
	}
	r.buf[tail&r.mask] = item
	atomic.StoreUint64(&r.tail, tail+1) // release: publish the new element

	used++
	for {
		cur := r.highWater.Load()
		if used <= cur {
			break
		}
		if r.highWater.CompareAndSwap(cur, used) {
			break
		}
	}
	return true
}

// TryPop attempts to dequeue an item into out. It returns false if the ring
// is empty.
func (r *Ring[T]) TryPop(out *T) bool {
	tail := atomic.LoadUint64(&r.tail) // acquire: observe producer progress
	head := r.head
	if head == tail {
		return false
	}
	*out = r.buf[head&r.mask]
	atomic.StoreUint64(&r.head, head+1) // release: publish consumer progress
	return true
}

// Dropped returns the number of TryPush calls that returned false.
func (r *Ring[T]) Dropped() uint64 { return r.dropped.Load() }

// HighWaterMark returns the largest observed fill level of the ring.
func (r *Ring[T]) HighWaterMark() uint64 { return r.highWater.Load() }

// Capacity returns the usable capacity (N-1 under the one-slot-sentinel
// convention).
func (r *Ring[T]) Capacity() int { return len(r.buf) - 1 }
