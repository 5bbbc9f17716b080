package resource

import (
	"sync"

	"github.com/kolkov/simpletm/internal/stm/memory"
)

// WordSize is the number of bytes covered by one resource word.
const WordSize = 8

// Owner identifies a transaction context. The zero value means "no owner".
type Owner uint64

// NoOwner marks a Word that is free to be acquired.
const NoOwner Owner = 0

// Mode selects how a Word reconciles its buffer with memory.
type Mode uint8

const (
	// WriteBack buffers writes locally and publishes them on commit.
	WriteBack Mode = iota

	// WriteThrough writes memory directly and keeps a pre-image for abort.
	WriteThrough
)

func (m Mode) String() string {
	switch m {
	case WriteBack:
		return "write-back"
	case WriteThrough:
		return "write-through"
	default:
		return "unknown"
	}
}

// Word is one directory entry.
//
// The fields below mu are written by the owner without holding mu; the
// mutex only guards ownership transitions (see Directory.Acquire and
// Directory.Release).
type Word struct {
	mu sync.Mutex

	owner Owner
	base  uintptr
	mode  Mode
	dirty uint8 // bit i set: buf[i] is meaningful
	buf   [WordSize]byte
}

// Base returns the aligned address the word currently covers.
func (w *Word) Base() uintptr {
	return w.base
}

// Mode returns the current buffering mode.
func (w *Word) Mode() Mode {
	return w.mode
}

// Dirty returns the dirty mask.
func (w *Word) Dirty() uint8 {
	return w.dirty
}

// ReadAt fills dst with the transaction's view of the bytes starting at
// offset off inside the word.
//
// In write-back mode a dirty byte comes from the buffer; everything else
// comes from memory.
func (w *Word) ReadAt(space memory.Space, dst []byte, off int) {
	for i := range dst {
		bit := uint8(1) << (off + i)
		if w.mode == WriteBack && w.dirty&bit != 0 {
			dst[i] = w.buf[off+i]
		} else {
			dst[i] = space.LoadByte(w.base + uintptr(off+i))
		}
	}
}

// WriteAt stores src at offset off inside the word.
//
// In write-back mode the bytes land in the buffer. In write-through mode
// memory is written directly, after snapshotting every byte not yet covered
// by the pre-image.
func (w *Word) WriteAt(space memory.Space, src []byte, off int) {
	for i, v := range src {
		bit := uint8(1) << (off + i)
		addr := w.base + uintptr(off+i)
		if w.mode == WriteBack {
			w.buf[off+i] = v
			w.dirty |= bit
			continue
		}
		if w.dirty&bit == 0 {
			w.buf[off+i] = space.LoadByte(addr)
			w.dirty |= bit
		}
		space.StoreByte(addr, v)
	}
}

// Privatize prepares bytes [off, off+n) of the word for direct access.
//
// A write-back word holding pending writes is converted first: memory gets
// the pending values and the buffer gets the old memory contents, so the
// direct view shows the transaction's own writes and an abort still
// restores the pre-transaction state. With forStore, every byte in range
// not already covered is snapshotted and the word ends up in write-through
// mode.
func (w *Word) Privatize(space memory.Space, off, n int, forStore bool) {
	if w.mode == WriteBack && w.dirty != 0 {
		for i := 0; i < WordSize; i++ {
			if w.dirty&(1<<i) == 0 {
				continue
			}
			addr := w.base + uintptr(i)
			old := space.LoadByte(addr)
			space.StoreByte(addr, w.buf[i])
			w.buf[i] = old
		}
		w.mode = WriteThrough
	}
	if !forStore {
		return
	}
	for i := off; i < off+n; i++ {
		bit := uint8(1) << i
		if w.dirty&bit == 0 {
			w.buf[i] = space.LoadByte(w.base + uintptr(i))
			w.dirty |= bit
		}
	}
	w.mode = WriteThrough
}

// reconcile publishes or discards the buffer. Caller holds w.mu.
func (w *Word) reconcile(space memory.Space, commit bool) {
	if w.dirty == 0 || commit != (w.mode == WriteBack) {
		return
	}
	// Write-back commit publishes pending writes; write-through abort
	// restores the pre-image. Both copy dirty bytes to memory.
	for i := 0; i < WordSize; i++ {
		if w.dirty&(1<<i) != 0 {
			space.StoreByte(w.base+uintptr(i), w.buf[i])
		}
	}
}

func (w *Word) reset() {
	w.owner = NoOwner
	w.mode = WriteBack
	w.dirty = 0
}
