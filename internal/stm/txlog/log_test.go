package txlog

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls []string
}

func (r *recorder) action(name string) Action {
	return func(payload uintptr) {
		r.calls = append(r.calls, name+":"+string(rune('0'+payload)))
	}
}

// TestLog_ApplyOrder verifies commit actions run first to last.
func TestLog_ApplyOrder(t *testing.T) {
	var r recorder
	l := New(4)

	require.NoError(t, l.Append(r.action("a"), r.action("u"), 1))
	require.NoError(t, l.Append(nil, r.action("u"), 2))
	require.NoError(t, l.Append(r.action("a"), nil, 3))

	l.Apply()
	assert.Equal(t, []string{"a:1", "a:3"}, r.calls)
}

// TestLog_UndoOrder verifies rollback actions run last to first.
func TestLog_UndoOrder(t *testing.T) {
	var r recorder
	l := New(4)

	require.NoError(t, l.Append(r.action("a"), r.action("u"), 1))
	require.NoError(t, l.Append(nil, r.action("u"), 2))
	require.NoError(t, l.Append(r.action("a"), nil, 3))

	l.Undo()
	assert.Equal(t, []string{"u:2", "u:1"}, r.calls)
}

// TestLog_Full verifies the capacity bound and Reset.
func TestLog_Full(t *testing.T) {
	l := New(2)
	assert.Equal(t, 2, l.Cap())

	require.NoError(t, l.Append(nil, nil, 0))
	require.NoError(t, l.Append(nil, nil, 0))

	err := l.Append(nil, nil, 0)
	assert.Equal(t, ErrLogFull, errors.Cause(err))
	assert.Equal(t, 2, l.Len())

	l.Reset()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 2, l.Cap())
	assert.NoError(t, l.Append(nil, nil, 0))
}

// TestNew_DefaultCapacity verifies the fallback capacity.
func TestNew_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Cap())
	assert.Equal(t, DefaultCapacity, New(-1).Cap())
}
