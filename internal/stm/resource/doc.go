// Package resource implements the resource directory for word-granular
// transactional memory.
//
// The directory is the unit of concurrency control. Every access a
// transaction makes is routed through the Word covering the 8-byte aligned
// address range it touches. A Word is owned by at most one transaction at a
// time; a second transaction asking for it gets ErrConflict immediately and
// is expected to restart.
//
// # Layout
//
// The directory is a fixed, power-of-two array of Words. An address maps to
// slot (base >> 3) & (capacity - 1). There is no chaining: two bases that
// map to the same slot share one Word, so they can never be owned by two
// transactions at once (false conflicts are allowed), and one transaction
// touching both is a protocol violation reported through the logger's
// Fatal path.
//
// # Buffering
//
// A Word buffers up to eight bytes. In write-back mode (the default) the
// buffer holds pending writes and the dirty mask says which bytes are
// pending; memory is only touched at commit. In write-through mode the
// owner writes memory directly and the buffer holds the pre-image of every
// byte marked dirty, so an abort can put it back.
//
// # Thread Safety
//
// Acquire and Release are safe for concurrent use. The byte operations on
// Word (ReadAt, WriteAt, Privatize) may only be called by the current owner;
// the ownership hand-off through the Word mutex orders them against other
// owners.
package resource
