package engine

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kolkov/simpletm/internal/stm/resource"
)

// acquire returns the word covering base, owned by this transaction.
// A conflict restarts the attempt.
func (t *Tx) acquire(base uintptr) *resource.Word {
	w, claimed, err := t.e.dir.Acquire(base, t.ctx.ID)
	if err != nil {
		if errors.Cause(err) == resource.ErrConflict {
			t.e.stats.conflicts.Inc()
			txEvents.WithLabelValues(eventConflict).Inc()
			panic(restartSignal{})
		}
		panic(err)
	}
	if claimed {
		t.ctx.Track(w)
	}
	return w
}

// walk calls fn for every word overlapping [addr, addr+n), with the offset
// inside the word and the matching [lo, hi) range of the caller's buffer.
func (t *Tx) walk(addr uintptr, n int, fn func(w *resource.Word, off, lo, hi int)) {
	t.check()
	if n == 0 {
		return
	}
	if n < 0 || !t.e.space.Contains(addr, n) {
		t.e.violation(ViolationFault, t.ctx, "transactional access outside the address space",
			zap.Uintptr("addr", addr), zap.Int("size", n))
		panic(errors.Errorf("engine: access [%#x, +%d) outside the address space", addr, n))
	}

	done := 0
	for done < n {
		cur := addr + uintptr(done)
		base := cur &^ (resource.WordSize - 1)
		off := int(cur - base)
		chunk := min(resource.WordSize-off, n-done)
		fn(t.acquire(base), off, done, done+chunk)
		done += chunk
	}
}

// LoadInto reads len(dst) bytes at addr into dst.
func (t *Tx) LoadInto(addr uintptr, dst []byte) {
	space := t.e.space
	t.walk(addr, len(dst), func(w *resource.Word, off, lo, hi int) {
		w.ReadAt(space, dst[lo:hi], off)
	})
}

// Load reads n bytes at addr.
func (t *Tx) Load(addr uintptr, n int) []byte {
	if n < 0 {
		// Reported as a fault by walk.
		t.walk(addr, n, nil)
	}
	dst := make([]byte, n)
	t.LoadInto(addr, dst)
	return dst
}

// Store writes src at addr. The write becomes visible to other
// transactions when this one commits.
func (t *Tx) Store(addr uintptr, src []byte) {
	space := t.e.space
	t.walk(addr, len(src), func(w *resource.Word, off, lo, hi int) {
		w.WriteAt(space, src[lo:hi], off)
	})
}

// LoadInt32 reads a little-endian int32.
func (t *Tx) LoadInt32(addr uintptr) int32 {
	var b [4]byte
	t.LoadInto(addr, b[:])
	return int32(binary.LittleEndian.Uint32(b[:]))
}

// StoreInt32 writes a little-endian int32.
func (t *Tx) StoreInt32(addr uintptr, v int32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	t.Store(addr, b[:])
}

// LoadInt64 reads a little-endian int64.
func (t *Tx) LoadInt64(addr uintptr) int64 {
	return int64(t.LoadUint64(addr))
}

// StoreInt64 writes a little-endian int64.
func (t *Tx) StoreInt64(addr uintptr, v int64) {
	t.StoreUint64(addr, uint64(v))
}

// LoadUint64 reads a little-endian uint64.
func (t *Tx) LoadUint64(addr uintptr) uint64 {
	var b [8]byte
	t.LoadInto(addr, b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// StoreUint64 writes a little-endian uint64.
func (t *Tx) StoreUint64(addr uintptr, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	t.Store(addr, b[:])
}

// LoadUintptr reads a pointer-sized address. Addresses are always stored
// in 8 bytes.
func (t *Tx) LoadUintptr(addr uintptr) uintptr {
	return uintptr(t.LoadUint64(addr))
}

// StoreUintptr writes an address in 8 bytes.
func (t *Tx) StoreUintptr(addr uintptr, v uintptr) {
	t.StoreUint64(addr, uint64(v))
}
