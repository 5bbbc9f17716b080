package memory

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestArena(t *testing.T, size int) *Arena {
	t.Helper()
	a, err := NewArena(DefaultBase, size)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, a.Close()) })
	return a
}

// TestArena_Bounds verifies address translation at both ends of the arena.
func TestArena_Bounds(t *testing.T) {
	a := newTestArena(t, 64)

	assert.Equal(t, DefaultBase, a.Base())
	assert.Equal(t, DefaultBase+64, a.End())
	assert.Equal(t, 64, a.Size())

	assert.True(t, a.Contains(DefaultBase, 64))
	assert.True(t, a.Contains(DefaultBase+63, 1))
	assert.True(t, a.Contains(DefaultBase+64, 0))
	assert.False(t, a.Contains(DefaultBase+63, 2))
	assert.False(t, a.Contains(DefaultBase-1, 1))
	assert.False(t, a.Contains(0, 1))
	assert.False(t, a.Contains(DefaultBase, -1))
}

// TestArena_LoadStore verifies byte access and direct slices share storage.
func TestArena_LoadStore(t *testing.T) {
	a := newTestArena(t, 32)

	assert.Equal(t, byte(0), a.LoadByte(DefaultBase+5), "arena must start zeroed")

	a.StoreByte(DefaultBase+5, 0xAB)
	assert.Equal(t, byte(0xAB), a.LoadByte(DefaultBase+5))

	view := a.Slice(DefaultBase+4, 4)
	assert.Equal(t, []byte{0, 0xAB, 0, 0}, view)
	assert.Equal(t, 4, cap(view), "capacity must be clipped")

	view[0] = 0x11
	assert.Equal(t, byte(0x11), a.LoadByte(DefaultBase+4))
}

// TestArena_Fault verifies out-of-range access panics with ErrFault.
func TestArena_Fault(t *testing.T) {
	a := newTestArena(t, 16)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.Equal(t, ErrFault, errors.Cause(err))
	}()
	a.LoadByte(DefaultBase + 16)
}

// TestNewArena_Invalid verifies argument validation.
func TestNewArena_Invalid(t *testing.T) {
	_, err := NewArena(DefaultBase, 0)
	assert.Error(t, err)

	_, err = NewArena(0, 64)
	assert.Error(t, err)

	_, err = NewArena(DefaultBase+3, 64)
	assert.Error(t, err)
}
