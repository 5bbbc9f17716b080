// Package api holds the process-wide default engine behind the public tm
// package.
//
// The default engine is created by Init, or lazily with the default
// configuration on first use, and torn down by Fini. Init and Fini are not
// meant to race with running transactions; call them at program start and
// exit.
package api

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/kolkov/simpletm/internal/stm/config"
	"github.com/kolkov/simpletm/internal/stm/engine"
)

var (
	mu  sync.Mutex
	eng *engine.Engine
)

// ErrNotInitialized is returned by Fini when there is no engine to close.
var ErrNotInitialized = errors.New("api: runtime not initialized")

// Init replaces the default engine with a fresh one built from cfg.
// A previous engine is closed first.
func Init(cfg *config.Config, lg *zap.Logger, opts ...engine.Option) error {
	if lg == nil {
		lg = zap.NewNop()
	}
	e, err := engine.New(cfg, append([]engine.Option{engine.WithLogger(lg)}, opts...)...)
	if err != nil {
		return err
	}

	mu.Lock()
	old := eng
	eng = e
	mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			lg.Warn("closing previous engine", zap.Error(err))
		}
	}
	return nil
}

// Default returns the default engine, creating one from the default
// configuration if Init was never called.
func Default() *engine.Engine {
	mu.Lock()
	defer mu.Unlock()
	if eng == nil {
		e, err := engine.New(config.NewDefaultConfig())
		if err != nil {
			// The default configuration always validates; failing here
			// means the arena could not be mapped.
			panic(errors.Wrap(err, "api: create default engine"))
		}
		eng = e
	}
	return eng
}

// Fini closes the default engine and logs a summary of its counters.
func Fini() error {
	mu.Lock()
	e := eng
	eng = nil
	mu.Unlock()

	if e == nil {
		return ErrNotInitialized
	}
	s := e.Stats()
	e.Logger().Info("transactional memory runtime finished",
		zap.Uint64("commits", s.Commits),
		zap.Uint64("restarts", s.Restarts),
		zap.Uint64("conflicts", s.Conflicts),
		zap.Uint64("recoveries", s.Recoveries),
		zap.Uint64("aborts", s.Aborts),
		zap.Uint64("contexts", s.Contexts),
	)
	_ = e.Logger().Sync()
	return e.Close()
}

// Reset replaces the default engine with one built from the test
// configuration. Tests only.
func Reset() {
	if err := Init(config.NewTestConfig(), nil); err != nil {
		panic(err)
	}
}
