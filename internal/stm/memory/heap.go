package memory

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Granularity is the allocation unit. Every block starts on a word boundary
// and spans whole words, so two blocks never share a resource word.
const Granularity = 8

// span is a contiguous range of arena addresses.
type span struct {
	addr uintptr
	size uintptr
}

func (s span) end() uintptr {
	return s.addr + s.size
}

// Heap is a first-fit allocator over an Arena.
//
// Bookkeeping is kept out of band (a sorted free list plus a map of live
// blocks) so that the allocator never writes into arena words, except to
// zero a block it hands out.
//
// Thread Safety: all methods are safe for concurrent use.
type Heap struct {
	mu    sync.Mutex
	arena *Arena

	// free is sorted by address; adjacent spans are always coalesced.
	free []span

	// live maps block address to block size.
	live map[uintptr]uintptr

	inUse uintptr
}

// NewHeap creates an allocator that owns the whole arena.
func NewHeap(a *Arena) *Heap {
	h := &Heap{
		arena: a,
		live:  make(map[uintptr]uintptr),
	}
	if size := uintptr(a.Size()) &^ (Granularity - 1); size > 0 {
		h.free = append(h.free, span{addr: a.Base(), size: size})
	}
	return h
}

// Allocate returns a zeroed block of at least size bytes.
//
// A zero-sized request still returns a unique block of one word, matching
// malloc(0) returning a distinct pointer.
func (h *Heap) Allocate(size int) (uintptr, error) {
	if size < 0 {
		return 0, errors.Wrapf(ErrBadSize, "size %d", size)
	}
	need := roundUp(uintptr(max(size, 1)))

	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.free {
		s := &h.free[i]
		if s.size < need {
			continue
		}
		addr := s.addr
		if s.size == need {
			h.free = append(h.free[:i], h.free[i+1:]...)
		} else {
			s.addr += need
			s.size -= need
		}
		h.live[addr] = need
		h.inUse += need
		clear(h.arena.Slice(addr, int(need)))
		return addr, nil
	}

	return 0, errors.Wrapf(ErrNoSpace, "size %d (in use %d of %d)", size, h.inUse, h.arena.Size())
}

// Release returns a block to the free list, coalescing with its neighbours.
//
// Releasing 0 is a no-op. Releasing an address that is not a live block is a
// programming error and panics with ErrBadPointer.
func (h *Heap) Release(addr uintptr) {
	if addr == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	size, ok := h.live[addr]
	if !ok {
		panic(errors.Wrapf(ErrBadPointer, "addr %#x", addr))
	}
	delete(h.live, addr)
	h.inUse -= size

	s := span{addr: addr, size: size}
	i := sort.Search(len(h.free), func(i int) bool { return h.free[i].addr > addr })

	// Merge with the following span.
	if i < len(h.free) && s.end() == h.free[i].addr {
		s.size += h.free[i].size
		h.free = append(h.free[:i], h.free[i+1:]...)
	}
	// Merge with the preceding span.
	if i > 0 && h.free[i-1].end() == s.addr {
		h.free[i-1].size += s.size
		return
	}

	h.free = append(h.free, span{})
	copy(h.free[i+1:], h.free[i:])
	h.free[i] = s
}

// SizeOf returns the size of the live block at addr, or 0.
func (h *Heap) SizeOf(addr uintptr) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int(h.live[addr])
}

// Live returns the number of live blocks.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// InUse returns the number of bytes held by live blocks.
func (h *Heap) InUse() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return int(h.inUse)
}

// Available returns the number of free bytes, regardless of fragmentation.
func (h *Heap) Available() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	var n uintptr
	for _, s := range h.free {
		n += s.size
	}
	return int(n)
}

func roundUp(n uintptr) uintptr {
	return (n + Granularity - 1) &^ (Granularity - 1)
}
