// Package memory implements the address space and allocator that the
// transaction engine runs on.
//
// # Overview
//
// The engine never dereferences Go pointers. Every transactional access is
// expressed as a byte range [addr, addr+n) in a Space. Arena is the concrete
// Space: a contiguous region with a virtual base address, mmap-backed on
// Unix and slice-backed elsewhere. Address 0 is never inside an arena, so it
// can stand for a nil pointer in data structures stored in the arena.
//
// # Allocation
//
// Allocator is the collaborator contract used by the transactional
// allocation wrappers:
//
//	Allocate(size) -> addr | error
//	Release(addr)
//
// Both calls are thread-safe and NOT transactional. Heap is a first-fit
// allocator over an Arena with out-of-band metadata, so allocation never
// writes allocator bookkeeping into words a transaction might own.
// LowMemory wraps any Allocator and fails every Nth call with ENOMEM, which
// is how the recovery path is exercised.
//
// # Errors
//
// Errno maps allocator errors onto the errno code reported by a recovered
// transaction (ENOMEM unless the error carries its own syscall.Errno).
//
// # Thread Safety
//
// Arena performs no synchronization; the resource directory serializes
// transactional access to its bytes. Heap and LowMemory are safe for
// concurrent use.
package memory
