package tm

import (
	"syscall"

	"github.com/kolkov/simpletm/internal/stm/api"
	"github.com/kolkov/simpletm/internal/stm/config"
	"github.com/kolkov/simpletm/internal/stm/engine"
	"github.com/kolkov/simpletm/internal/stm/memory"
	"github.com/kolkov/simpletm/internal/stm/resource"
	"github.com/kolkov/simpletm/internal/stm/txlog"
)

type (
	// Tx is the handle passed to a transaction function.
	Tx = engine.Tx

	// RecoveryError is returned by Atomically for a recovered transaction.
	RecoveryError = engine.RecoveryError

	// Stats is a snapshot of runtime counters.
	Stats = engine.Stats

	// Config is the runtime configuration.
	Config = config.Config

	// Action is a compensating action for Tx.AppendToLog.
	Action = txlog.Action

	// Space is the byte-addressed memory transactions operate on.
	Space = memory.Space
)

// NewDefaultConfig returns the default configuration.
func NewDefaultConfig() *Config {
	return config.NewDefaultConfig()
}

// LoadConfig reads a TOML configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// Init starts the runtime with cfg, replacing any running instance.
//
// The configuration is validated and checked against Version. Logging
// follows cfg.LogLevel.
func Init(cfg *Config) error {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.CheckVersion(Version); err != nil {
		return err
	}
	lg, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	return api.Init(cfg, lg)
}

// Fini stops the runtime and logs a summary.
func Fini() error {
	return api.Fini()
}

// Atomically runs fn as a transaction, retrying it until an attempt commits
// or recovers. It returns nil on commit and a *RecoveryError on recovery.
func Atomically(fn func(tx *Tx) error) error {
	return api.Default().Atomically(fn)
}

// Errno returns the calling goroutine's ambient errno.
func Errno() syscall.Errno {
	return api.Default().Errno()
}

// SetErrno sets the calling goroutine's ambient errno.
func SetErrno(code syscall.Errno) {
	api.Default().SetErrno(code)
}

// RecoveryErrno returns the code of the calling goroutine's last recovered
// transaction.
func RecoveryErrno() syscall.Errno {
	return api.Default().RecoveryErrno()
}

// Alloc allocates size bytes outside of any transaction.
func Alloc(size int) (uintptr, error) {
	return api.Default().Allocator().Allocate(size)
}

// Free releases a block outside of any transaction.
func Free(addr uintptr) {
	api.Default().Allocator().Release(addr)
}

// Memory returns the address space. Accessing it directly bypasses
// transactional control.
func Memory() Space {
	return api.Default().Space()
}

// GetStats returns the runtime counters.
func GetStats() Stats {
	return api.Default().Stats()
}

// GetInfo returns information about the running runtime.
//
// Example:
//
//	info := tm.GetInfo()
//	fmt.Printf("simpletm %s, %d words\n", info.Version, info.DirectoryCapacity)
func GetInfo() Info {
	e := api.Default()
	info := Info{
		Version:           Version,
		Granularity:       resource.WordSize,
		DirectoryCapacity: e.Directory().Capacity(),
	}
	if a, ok := e.Space().(*memory.Arena); ok {
		info.ArenaSize = a.Size()
	}
	return info
}
