package goroutine

import (
	"sync"

	"go.uber.org/atomic"

	"github.com/kolkov/simpletm/internal/stm/resource"
)

// CleanupInterval is the number of context allocations between two sweeps
// for contexts of exited goroutines.
const CleanupInterval = 1000

// Registry maps goroutine IDs to their contexts.
type Registry struct {
	// contexts maps int64 goroutine ID to *TxContext.
	contexts sync.Map

	nextID      atomic.Uint64
	allocs      atomic.Uint64
	reclaimed   atomic.Uint64
	logCapacity int
}

// NewRegistry creates a registry whose contexts get logs of logCapacity
// entries.
func NewRegistry(logCapacity int) *Registry {
	return &Registry{logCapacity: logCapacity}
}

// Current returns the calling goroutine's context, allocating it on first
// use.
func (r *Registry) Current() *TxContext {
	gid := CurrentID()
	if v, ok := r.contexts.Load(gid); ok {
		return v.(*TxContext)
	}

	// Only the goroutine itself ever stores under its own ID, so there is
	// no race between Load and Store here.
	ctx := Alloc(resource.Owner(r.nextID.Inc()), gid, r.logCapacity)
	r.contexts.Store(gid, ctx)

	if r.allocs.Inc()%CleanupInterval == 0 {
		go r.Cleanup()
	}
	return ctx
}

// Lookup returns the context of goroutine gid, if one exists.
func (r *Registry) Lookup(gid int64) (*TxContext, bool) {
	v, ok := r.contexts.Load(gid)
	if !ok {
		return nil, false
	}
	return v.(*TxContext), true
}

// Len returns the number of registered contexts.
func (r *Registry) Len() int {
	n := 0
	r.contexts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Allocated returns how many contexts have been created.
func (r *Registry) Allocated() uint64 {
	return r.allocs.Load()
}

// Reclaimed returns how many contexts have been dropped by Cleanup.
func (r *Registry) Reclaimed() uint64 {
	return r.reclaimed.Load()
}

// Cleanup drops the contexts of goroutines that have exited and returns how
// many were dropped.
//
// Goroutine IDs are never reused by the runtime, so a context whose ID is
// missing from the live set can never be looked up again.
func (r *Registry) Cleanup() int {
	// Collect candidates before listing live goroutines: a context
	// registered after the dump must not be mistaken for a dead one.
	var known []int64
	r.contexts.Range(func(k, _ any) bool {
		known = append(known, k.(int64))
		return true
	})

	live := make(map[int64]struct{})
	for _, gid := range liveIDs() {
		live[gid] = struct{}{}
	}

	n := 0
	for _, gid := range known {
		if _, ok := live[gid]; !ok {
			r.contexts.Delete(gid)
			n++
		}
	}
	r.reclaimed.Add(uint64(n))
	return n
}
