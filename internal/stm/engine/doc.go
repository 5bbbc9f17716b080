// Package engine implements the transaction control of the word-granular
// transactional memory.
//
// An Engine ties together the pieces a transaction runs against: the
// address space, the raw allocator, the resource directory arbitrating
// access to it and the registry of per-goroutine contexts.
//
// # Transactions
//
// Engine.Atomically runs a function inside a transaction:
//
//	err := eng.Atomically(func(tx *engine.Tx) error {
//	    v := tx.LoadInt64(counter)
//	    tx.StoreInt64(counter, v+1)
//	    return nil
//	})
//
// Every load and store acquires the resource words it touches. If another
// transaction owns one of them the attempt is rolled back and the function
// runs again from the top, until an attempt commits. Code inside the
// function must therefore be safe to re-execute: side effects other than
// transactional memory access have to be registered in the undo/redo log
// (see Tx.AppendToLog), as Tx.AllocTx and Tx.FreeTx do.
//
// # Outcomes
//
//   - commit: the function returns nil. Buffered writes are published and
//     logged commit actions run in order.
//   - restart: a conflict or an explicit Tx.Restart. Writes are reverted,
//     logged undo actions run in reverse and the function runs again.
//   - recover: Tx.Recover, a failed Tx.AllocTx or a non-nil error from the
//     function. The attempt is rolled back like a restart but not retried;
//     Atomically returns a *RecoveryError carrying the errno code.
//
// A panic from the function rolls the attempt back and propagates.
//
// # Protocol Violations
//
// Nested transactions, overflowing the undo/redo log, two aliasing words in
// one transaction and access outside the address space are reported with
// the logger's Fatal, which terminates the process.
package engine
