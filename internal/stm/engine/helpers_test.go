package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"

	"github.com/kolkov/simpletm/internal/stm/config"
	"github.com/kolkov/simpletm/internal/stm/memory"
)

// panicOnFatal turns Fatal reports into panics so tests can observe them.
var panicOnFatal = zap.WithFatalHook(zapcore.WriteThenPanic)

func newTestEngine(t *testing.T, modify func(c *config.Config), opts ...Option) *Engine {
	t.Helper()
	cfg := config.NewTestConfig()
	if modify != nil {
		modify(cfg)
	}
	lg := zaptest.NewLogger(t, zaptest.Level(zapcore.InfoLevel), zaptest.WrapOptions(panicOnFatal))

	e, err := New(cfg, append([]Option{WithLogger(lg)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, e.Close()) })
	return e
}

// newLowMemoryEngine returns an engine whose allocator fails every period-th
// allocation, plus the heap underneath for leak checks.
func newLowMemoryEngine(t *testing.T, period int) (*Engine, *memory.Heap) {
	t.Helper()
	a, err := memory.NewArena(memory.DefaultBase, 4096)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	h := memory.NewHeap(a)
	e := newTestEngine(t, nil, WithSpace(a), WithAllocator(memory.NewLowMemory(h, period)))
	return e, h
}

// cell allocates size bytes outside transactional control.
func cell(t *testing.T, e *Engine, size int) uintptr {
	t.Helper()
	p, err := e.Allocator().Allocate(size)
	require.NoError(t, err)
	return p
}

func heapOf(t *testing.T, e *Engine) *memory.Heap {
	t.Helper()
	h, ok := e.Allocator().(*memory.Heap)
	require.True(t, ok)
	return h
}
