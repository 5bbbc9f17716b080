package engine

import "github.com/kolkov/simpletm/internal/stm/resource"

// Privatize acquires [addr, addr+n) for direct access and returns a slice
// aliasing that memory.
//
// With forLoad the slice shows the transaction's own earlier stores. With
// forStore the covered words switch to write-through: writes through the
// slice (or later Stores) hit memory immediately and are reverted if the
// transaction rolls back. Without forStore the caller must not write
// through the slice. The slice is only valid until the transaction ends.
func (t *Tx) Privatize(addr uintptr, n int, forLoad, forStore bool) []byte {
	space := t.e.space
	t.walk(addr, n, func(w *resource.Word, off, lo, hi int) {
		if forLoad || forStore {
			w.Privatize(space, off, hi-lo, forStore)
		}
	})
	if n == 0 {
		return nil
	}
	return space.Slice(addr, n)
}
