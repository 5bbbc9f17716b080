package goroutine

import (
	"syscall"

	"github.com/kolkov/simpletm/internal/stm/resource"
	"github.com/kolkov/simpletm/internal/stm/txlog"
)

// TxContext is the transaction state of a single goroutine.
type TxContext struct {
	// ID is stamped into every resource word this context owns.
	// It is unique for the lifetime of the registry and never NoOwner.
	ID resource.Owner

	// GID is the goroutine the context belongs to.
	GID int64

	// Log holds compensating actions for the running attempt.
	Log *txlog.Log

	owned []*resource.Word

	errno         syscall.Errno
	savedErrno    syscall.Errno
	errnoSaved    bool
	recoveryErrno syscall.Errno

	active  bool
	attempt int
}

// Alloc creates a context for goroutine gid with a log of logCapacity
// entries.
func Alloc(id resource.Owner, gid int64, logCapacity int) *TxContext {
	return &TxContext{
		ID:  id,
		GID: gid,
		Log: txlog.New(logCapacity),
	}
}

// Begin marks the context as running a transaction. It returns false when
// a transaction is already running, which callers treat as a nesting
// violation.
func (c *TxContext) Begin() bool {
	if c.active {
		return false
	}
	c.active = true
	c.attempt = 0
	c.errnoSaved = false
	return true
}

// End marks the context idle. The log and owned words are cleared even when
// the last attempt did not settle.
func (c *TxContext) End() {
	c.active = false
	c.owned = c.owned[:0]
	c.Log.Reset()
	c.errnoSaved = false
}

// Active reports whether a transaction is running.
func (c *TxContext) Active() bool {
	return c.active
}

// NextAttempt advances the attempt counter after a restart.
func (c *TxContext) NextAttempt() int {
	c.attempt++
	return c.attempt
}

// Attempt returns the zero-based attempt number of the running transaction.
func (c *TxContext) Attempt() int {
	return c.attempt
}

// Track records a word claimed by the running attempt.
func (c *TxContext) Track(w *resource.Word) {
	c.owned = append(c.owned, w)
}

// Owned returns the words claimed by the running attempt.
func (c *TxContext) Owned() []*resource.Word {
	return c.owned
}

// Forget clears the owned set once its words have been released.
func (c *TxContext) Forget() {
	clear(c.owned)
	c.owned = c.owned[:0]
}

// Errno returns the ambient errno.
func (c *TxContext) Errno() syscall.Errno {
	return c.errno
}

// SetErrno sets the ambient errno.
func (c *TxContext) SetErrno(code syscall.Errno) {
	c.errno = code
}

// SaveErrno snapshots the ambient errno. Only the first call of an attempt
// takes effect.
func (c *TxContext) SaveErrno() {
	if c.errnoSaved {
		return
	}
	c.savedErrno = c.errno
	c.errnoSaved = true
}

// RestoreErrno puts back the snapshot taken by SaveErrno, if any, and
// clears it.
func (c *TxContext) RestoreErrno() {
	if !c.errnoSaved {
		return
	}
	c.errno = c.savedErrno
	c.errnoSaved = false
}

// DropSavedErrno forgets the snapshot without restoring it.
func (c *TxContext) DropSavedErrno() {
	c.errnoSaved = false
}

// RecoveryErrno returns the code of the last recovered transaction.
func (c *TxContext) RecoveryErrno() syscall.Errno {
	return c.recoveryErrno
}

// SetRecoveryErrno records the code of a recovered transaction.
func (c *TxContext) SetRecoveryErrno(code syscall.Errno) {
	c.recoveryErrno = code
}
