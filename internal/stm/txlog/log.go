// Package txlog implements the per-transaction undo/redo log.
//
// The log records compensating actions for side effects that are not plain
// memory writes, such as allocation. Each entry carries an action to run
// when the transaction commits, an action to run when it is rolled back,
// and a word-sized payload handed to whichever one fires.
package txlog

import (
	"github.com/pkg/errors"
)

// DefaultCapacity is the number of entries a log holds when none is given.
const DefaultCapacity = 256

// ErrLogFull is returned by Append when the log is at capacity.
var ErrLogFull = errors.New("txlog: log is full")

// Action is a compensating action. It receives the entry payload.
type Action func(payload uintptr)

// Entry is one log record. Apply and Undo may each be nil.
type Entry struct {
	Apply   Action
	Undo    Action
	Payload uintptr
}

// Log is a bounded, ordered list of entries.
//
// A Log belongs to one transaction context and is not safe for concurrent
// use.
type Log struct {
	entries []Entry
}

// New creates an empty log holding at most capacity entries.
// A non-positive capacity selects DefaultCapacity.
func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{entries: make([]Entry, 0, capacity)}
}

// Append records an entry at the tail.
func (l *Log) Append(apply, undo Action, payload uintptr) error {
	if len(l.entries) == cap(l.entries) {
		return errors.Wrapf(ErrLogFull, "capacity %d", cap(l.entries))
	}
	l.entries = append(l.entries, Entry{Apply: apply, Undo: undo, Payload: payload})
	return nil
}

// Apply runs every non-nil Apply action in log order.
func (l *Log) Apply() {
	for _, e := range l.entries {
		if e.Apply != nil {
			e.Apply(e.Payload)
		}
	}
}

// Undo runs every non-nil Undo action in reverse log order.
func (l *Log) Undo() {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if e := l.entries[i]; e.Undo != nil {
			e.Undo(e.Payload)
		}
	}
}

// Reset empties the log, keeping its capacity.
func (l *Log) Reset() {
	clear(l.entries)
	l.entries = l.entries[:0]
}

// Len returns the number of entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Cap returns the maximum number of entries.
func (l *Log) Cap() int {
	return cap(l.entries)
}
