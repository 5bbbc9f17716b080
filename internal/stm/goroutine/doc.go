// Package goroutine manages per-goroutine transaction contexts.
//
// Every goroutine that runs a transaction gets its own TxContext, allocated
// lazily on first use and looked up by goroutine ID afterwards. The context
// carries the owner identity stamped into resource words, the undo/redo log,
// the set of words owned by the running attempt and the goroutine's ambient
// errno slot.
//
// # Lifetime
//
// Go has no goroutine-exit hook, so contexts of goroutines that have exited
// are reclaimed by a periodic sweep: every CleanupInterval allocations the
// registry lists live goroutines via runtime.Stack and drops the contexts
// of the rest.
//
// # Thread Safety
//
// Registry methods are safe for concurrent use. A TxContext is only ever
// touched by the goroutine it belongs to and does no locking.
package goroutine
