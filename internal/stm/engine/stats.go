package engine

import "go.uber.org/atomic"

// Stats is a snapshot of engine counters.
type Stats struct {
	Commits    uint64 // Transactions committed.
	Restarts   uint64 // Attempts rolled back and retried.
	Conflicts  uint64 // Restarts caused by a word owned elsewhere.
	Recoveries uint64 // Transactions ended on the recovery path.
	Aborts     uint64 // Attempts rolled back by a panic.
	Allocs     uint64 // Successful AllocTx calls, committed or not.
	AllocFails uint64 // Failed AllocTx calls.
	Frees      uint64 // FreeTx calls, committed or not.
	Contexts   uint64 // Transaction contexts allocated.
}

type counters struct {
	commits    atomic.Uint64
	restarts   atomic.Uint64
	conflicts  atomic.Uint64
	recoveries atomic.Uint64
	aborts     atomic.Uint64
	allocs     atomic.Uint64
	allocFails atomic.Uint64
	frees      atomic.Uint64
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Commits:    e.stats.commits.Load(),
		Restarts:   e.stats.restarts.Load(),
		Conflicts:  e.stats.conflicts.Load(),
		Recoveries: e.stats.recoveries.Load(),
		Aborts:     e.stats.aborts.Load(),
		Allocs:     e.stats.allocs.Load(),
		AllocFails: e.stats.allocFails.Load(),
		Frees:      e.stats.frees.Load(),
		Contexts:   e.contexts.Allocated(),
	}
}
