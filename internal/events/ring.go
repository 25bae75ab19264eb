package events

import "sync"

// Ring is a fixed-capacity circular buffer that overwrites its oldest
// entry when full. Safe for concurrent use.
type Ring[T any] struct {
	mu   sync.Mutex
	buf  []T
	next int // write position
	full bool
}

// NewRing creates a ring holding up to size values. size must be positive.
func NewRing[T any](size int) *Ring[T] {
	return &Ring[T]{buf: make([]T, size)}
}

// Push appends v, evicting the oldest value if the ring is full.
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = v
	r.next++
	if r.next == len(r.buf) {
		r.next = 0
		r.full = true
	}
}

// Last returns up to n of the most recent values, oldest first.
func (r *Ring[T]) Last(n int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = min(n, r.lenLocked())
	if n <= 0 {
		return nil
	}
	out := make([]T, 0, n)
	start := r.next - n
	if start < 0 {
		out = append(out, r.buf[len(r.buf)+start:]...)
		start = 0
	}
	return append(out, r.buf[start:r.next]...)
}

// Len returns the number of values held.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lenLocked()
}

func (r *Ring[T]) lenLocked() int {
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}
