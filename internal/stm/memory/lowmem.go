package memory

import (
	"go.uber.org/atomic"
)

// LowMemory simulates spurious allocation failures.
//
// Every Nth call to Allocate fails with ErrNoSpace without touching the
// wrapped allocator; all other calls are forwarded. A period of 1 makes every
// allocation fail, 0 disables injection.
type LowMemory struct {
	Allocator

	every    uint64
	calls    atomic.Uint64
	failures atomic.Uint64
}

// NewLowMemory wraps a with a failure every period allocations.
func NewLowMemory(a Allocator, period int) *LowMemory {
	return &LowMemory{
		Allocator: a,
		every:     uint64(max(period, 0)),
	}
}

// Allocate fails on every period-th call, otherwise delegates.
func (l *LowMemory) Allocate(size int) (uintptr, error) {
	n := l.calls.Inc()
	if l.every > 0 && n%l.every == 0 {
		l.failures.Inc()
		return 0, ErrNoSpace
	}
	return l.Allocator.Allocate(size)
}

// Failures returns how many allocations were failed on purpose.
func (l *LowMemory) Failures() uint64 {
	return l.failures.Load()
}
