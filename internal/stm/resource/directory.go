package resource

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kolkov/simpletm/internal/stm/memory"
)

// DefaultCapacity is the number of words in a directory when none is given.
const DefaultCapacity = 1024

var (
	// ErrConflict is returned by Acquire when another transaction owns the
	// word. The caller must restart.
	ErrConflict = errors.New("resource: word owned by another transaction")

	// ErrAliased is returned after the Fatal report when a transaction asks
	// for two bases sharing one slot. It is only observable when the
	// logger's fatal hook does not terminate.
	ErrAliased = errors.New("resource: base aliases a word already owned by the caller")
)

// Directory is a fixed-capacity table of resource words.
type Directory struct {
	words []Word
	mask  uintptr
	space memory.Space
	lg    *zap.Logger
}

// New creates a directory of capacity words over space.
//
// Capacity must be a positive power of two. A nil logger is replaced with a
// no-op logger.
func New(capacity int, space memory.Space, lg *zap.Logger) (*Directory, error) {
	if capacity <= 0 || capacity&(capacity-1) != 0 {
		return nil, errors.Errorf("resource: capacity %d is not a positive power of two", capacity)
	}
	if space == nil {
		return nil, errors.New("resource: nil memory space")
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &Directory{
		words: make([]Word, capacity),
		mask:  uintptr(capacity - 1),
		space: space,
		lg:    lg,
	}, nil
}

// Capacity returns the number of words.
func (d *Directory) Capacity() int {
	return len(d.words)
}

// Space returns the memory the directory reconciles buffers against.
func (d *Directory) Space() memory.Space {
	return d.space
}

// Slot returns the index of the word covering base.
func (d *Directory) Slot(base uintptr) int {
	return int((base >> 3) & d.mask)
}

// Acquire claims the word covering the aligned address base for owner.
//
// Outcomes:
//   - free word: claimed, stamped with base, returned with claimed == true
//   - owned by owner with the same base: returned with claimed == false
//   - owned by owner with a different base: Fatal (aliasing)
//   - owned by anyone else: ErrConflict, whatever base it covers
//
// The word mutex is held only for the check-and-claim; Acquire never waits
// for another owner.
func (d *Directory) Acquire(base uintptr, owner Owner) (w *Word, claimed bool, err error) {
	if owner == NoOwner {
		return nil, false, errors.New("resource: acquire without an owner")
	}
	w = &d.words[d.Slot(base)]

	w.mu.Lock()
	switch w.owner {
	case NoOwner:
		w.owner = owner
		w.base = base
		w.mode = WriteBack
		w.dirty = 0
		w.mu.Unlock()
		return w, true, nil
	case owner:
		held := w.base
		w.mu.Unlock()
		if held != base {
			d.lg.Fatal("resource word aliased within one transaction",
				zap.Uint64("owner", uint64(owner)),
				zap.Int("slot", d.Slot(base)),
				zap.Uintptr("held-base", held),
				zap.Uintptr("requested-base", base),
				zap.Int("capacity", len(d.words)),
			)
			return nil, false, errors.Wrapf(ErrAliased, "base %#x vs %#x", held, base)
		}
		return w, false, nil
	default:
		w.mu.Unlock()
		return nil, false, ErrConflict
	}
}

// Release gives up owner's claim on w, reconciling its buffer with memory.
//
// With commit, pending write-back bytes are published; without it, the
// write-through pre-image is restored. Either way the word ends up free,
// clean and in write-back mode. Releasing a word the caller does not own is
// a no-op, so Release is idempotent.
func (d *Directory) Release(w *Word, owner Owner, commit bool) {
	if w == nil || owner == NoOwner {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.owner != owner {
		return
	}
	w.reconcile(d.space, commit)
	w.reset()
}

// Owner returns the owner of the word covering base, or NoOwner when the
// word is free or currently covers a different base.
func (d *Directory) Owner(base uintptr) Owner {
	w := &d.words[d.Slot(base)]
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.owner == NoOwner || w.base != base {
		return NoOwner
	}
	return w.owner
}

// OwnedCount returns how many words are currently owned.
func (d *Directory) OwnedCount() int {
	n := 0
	for i := range d.words {
		w := &d.words[i]
		w.mu.Lock()
		if w.owner != NoOwner {
			n++
		}
		w.mu.Unlock()
	}
	return n
}
