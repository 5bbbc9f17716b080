package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kolkov/simpletm/internal/stm/config"
	"github.com/kolkov/simpletm/internal/stm/goroutine"
	"github.com/kolkov/simpletm/internal/stm/memory"
	"github.com/kolkov/simpletm/internal/stm/resource"
)

// Engine runs transactions over one address space.
type Engine struct {
	lg  *zap.Logger
	cfg *config.Config

	space    memory.Space
	alloc    memory.Allocator
	arena    *memory.Arena // non-nil when the engine created the space
	dir      *resource.Directory
	contexts *goroutine.Registry

	// release is the log action that frees a block through alloc.
	release func(addr uintptr)

	stats counters
}

// Option customizes an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Protocol violations go to its Fatal level.
func WithLogger(lg *zap.Logger) Option {
	return func(e *Engine) { e.lg = lg }
}

// WithSpace runs the engine over an existing address space instead of a
// fresh arena. An allocator must be given too unless space is an
// *memory.Arena.
func WithSpace(space memory.Space) Option {
	return func(e *Engine) { e.space = space }
}

// WithAllocator sets the raw allocator behind AllocTx and FreeTx.
func WithAllocator(a memory.Allocator) Option {
	return func(e *Engine) { e.alloc = a }
}

// New creates an engine. Without WithSpace it maps an arena sized and
// placed by cfg; without WithAllocator it puts a memory.Heap on it.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	if e.lg == nil {
		e.lg = zap.NewNop()
	}
	if err := cfg.Validate(e.lg); err != nil {
		return nil, err
	}

	if e.space == nil {
		size, err := cfg.ArenaBytes()
		if err != nil {
			return nil, err
		}
		a, err := memory.NewArena(uintptr(cfg.ArenaBase), size)
		if err != nil {
			return nil, errors.Wrap(err, "engine: create arena")
		}
		e.space, e.arena = a, a
	}
	if e.alloc == nil {
		a, ok := e.space.(*memory.Arena)
		if !ok {
			e.closeArena()
			return nil, errors.New("engine: custom space needs an allocator")
		}
		e.alloc = memory.NewHeap(a)
	}

	dir, err := resource.New(cfg.DirectoryCapacity, e.space, e.lg)
	if err != nil {
		e.closeArena()
		return nil, err
	}
	e.dir = dir
	e.contexts = goroutine.NewRegistry(cfg.LogCapacity)
	e.release = e.alloc.Release

	e.lg.Debug("engine created",
		zap.Int("directory-capacity", dir.Capacity()),
		zap.Int("log-capacity", cfg.LogCapacity),
		zap.String("arena-size", cfg.ArenaSize),
	)
	return e, nil
}

// Close releases the arena if the engine created it. Transactions must not
// run concurrently with or after Close.
func (e *Engine) Close() error {
	if n := e.dir.OwnedCount(); n != 0 {
		e.lg.Warn("closing engine with owned resource words", zap.Int("owned", n))
	}
	return e.closeArena()
}

func (e *Engine) closeArena() error {
	if e.arena == nil {
		return nil
	}
	err := e.arena.Close()
	e.arena = nil
	return err
}

// Space returns the address space transactions operate on.
func (e *Engine) Space() memory.Space {
	return e.space
}

// Allocator returns the raw allocator. Blocks taken from it directly are
// outside transactional control.
func (e *Engine) Allocator() memory.Allocator {
	return e.alloc
}

// Directory returns the resource directory.
func (e *Engine) Directory() *resource.Directory {
	return e.dir
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zap.Logger {
	return e.lg
}
