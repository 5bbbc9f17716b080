package memory

import (
	"github.com/pkg/errors"
)

// DefaultBase is the virtual address of the first arena byte.
//
// It is non-zero so that 0 can represent a nil pointer, and 8-byte aligned
// so that resource words line up with arena words.
const DefaultBase uintptr = 0x10000

// Space is the byte-addressed memory capability the engine operates on.
type Space interface {
	// LoadByte reads the byte at addr.
	LoadByte(addr uintptr) byte

	// StoreByte writes the byte at addr.
	StoreByte(addr uintptr, v byte)

	// Slice returns a direct view of [addr, addr+n). Writes through the
	// returned slice land in memory immediately.
	Slice(addr uintptr, n int) []byte

	// Contains reports whether [addr, addr+n) lies inside the space.
	Contains(addr uintptr, n int) bool
}

// Allocator is the raw, non-transactional allocator underneath the
// transactional allocation wrappers. Implementations must be thread-safe.
type Allocator interface {
	// Allocate returns the address of a fresh block of at least size bytes.
	Allocate(size int) (uintptr, error)

	// Release returns a block obtained from Allocate. Releasing 0 is a no-op.
	Release(addr uintptr)
}

// Arena is a contiguous simulated address space starting at a virtual base.
//
// Arena does no locking. Concurrent access to the same bytes must be
// serialized by the caller (the resource directory does this for
// transactional access).
type Arena struct {
	base uintptr
	data []byte
	// mapped is true when data came from mapRegion and must be unmapped.
	mapped bool
}

// NewArena creates an arena of size bytes whose first byte lives at base.
//
// The region is zero-filled. On Unix it is an anonymous private mapping;
// on other platforms it is a Go slice.
func NewArena(base uintptr, size int) (*Arena, error) {
	if size <= 0 {
		return nil, errors.Errorf("memory: arena size must be positive, got %d", size)
	}
	if base == 0 || base%8 != 0 {
		return nil, errors.Errorf("memory: arena base %#x must be non-zero and 8-byte aligned", base)
	}
	if base+uintptr(size) < base {
		return nil, errors.Errorf("memory: arena [%#x, +%d) overflows the address space", base, size)
	}

	data, mapped, err := mapRegion(size)
	if err != nil {
		return nil, err
	}

	return &Arena{
		base:   base,
		data:   data,
		mapped: mapped,
	}, nil
}

// Base returns the address of the first arena byte.
func (a *Arena) Base() uintptr {
	return a.base
}

// Size returns the arena size in bytes.
func (a *Arena) Size() int {
	return len(a.data)
}

// End returns the first address past the arena.
func (a *Arena) End() uintptr {
	return a.base + uintptr(len(a.data))
}

// Contains reports whether [addr, addr+n) lies inside the arena.
func (a *Arena) Contains(addr uintptr, n int) bool {
	if n < 0 || addr < a.base {
		return false
	}
	off := addr - a.base
	return off <= uintptr(len(a.data)) && uintptr(n) <= uintptr(len(a.data))-off
}

// LoadByte reads the byte at addr. It panics with ErrFault outside the arena.
func (a *Arena) LoadByte(addr uintptr) byte {
	return a.data[a.index(addr, 1)]
}

// StoreByte writes the byte at addr. It panics with ErrFault outside the arena.
func (a *Arena) StoreByte(addr uintptr, v byte) {
	a.data[a.index(addr, 1)] = v
}

// Slice returns a direct view of [addr, addr+n) with capacity clipped to n.
func (a *Arena) Slice(addr uintptr, n int) []byte {
	i := a.index(addr, n)
	return a.data[i : i+n : i+n]
}

// Close releases the backing region. The arena must not be used afterwards.
func (a *Arena) Close() error {
	if a.data == nil {
		return nil
	}
	data := a.data
	a.data = nil
	if !a.mapped {
		return nil
	}
	return errors.Wrap(unmapRegion(data), "memory: unmap arena")
}

// index converts addr into an offset, panicking on out-of-range access the
// same way a wild pointer dereference would fault.
func (a *Arena) index(addr uintptr, n int) int {
	if !a.Contains(addr, n) {
		panic(errors.Wrapf(ErrFault, "addr %#x len %d (arena [%#x, %#x))", addr, n, a.base, a.End()))
	}
	return int(addr - a.base)
}
