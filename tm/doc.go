// Package tm provides a word-granular software transactional memory runtime.
//
// Goroutines wrap sequences of reads and writes to a shared address space in
// transactions. A transaction either commits atomically or, after running
// into data owned by another transaction, is rolled back and retried from
// scratch. No cooperation from the allocator or the operating system is
// needed: the runtime tracks ownership per 8-byte word and buffers writes
// until commit.
//
// # Quick Start
//
//	func main() {
//		if err := tm.Init(tm.NewDefaultConfig()); err != nil {
//			log.Fatal(err)
//		}
//		defer tm.Fini()
//
//		counter, _ := tm.Alloc(8)
//		err := tm.Atomically(func(tx *tm.Tx) error {
//			tx.StoreInt64(counter, tx.LoadInt64(counter)+1)
//			return nil
//		})
//		...
//	}
//
// # API Overview
//
//   - Lifecycle: [Init], [Fini]
//   - Transactions: [Atomically] and the [Tx] methods (Load/Store,
//     Privatize, AllocTx/FreeTx, AppendToLog, Restart, Recover)
//   - Error state: [Errno], [SetErrno], [RecoveryErrno], [RecoveryError]
//   - Raw memory: [Alloc], [Free], [Memory]
//   - Diagnostics: [GetStats], [GetInfo], [Version]
//
// # Restart and Recovery
//
// A transaction function may run many times. Anything it does besides
// transactional loads and stores must be registered with Tx.AppendToLog so
// it can be undone on restart, or deferred to commit. Tx.AllocTx and
// Tx.FreeTx do this for memory blocks.
//
// When a transaction cannot succeed at all (for example an allocation
// fails) it takes the recovery path: the attempt is rolled back like a
// restart but not retried, and Atomically returns a *RecoveryError with an
// errno code.
//
// # Configuration
//
// The runtime reads a TOML file (see [LoadConfig]):
//
//	directory-capacity     = 1024
//	log-capacity           = 256
//	arena-size             = "8 KiB"
//	arena-base             = 65536
//	restart-warn-threshold = 10000
//	log-level              = "info"
//	require-version        = "v0.1.0"
//
// LOG_LEVEL in the environment overrides log-level.
package tm
