// Package config holds the runtime configuration of the transactional
// memory engine.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/mod/semver"

	"github.com/kolkov/simpletm/internal/stm/memory"
	"github.com/kolkov/simpletm/internal/stm/resource"
	"github.com/kolkov/simpletm/internal/stm/txlog"
)

type Config struct {
	// Number of resource words. Must be a power of two. Addresses more than
	// DirectoryCapacity*8 bytes apart share a word.
	DirectoryCapacity int `toml:"directory-capacity"`

	// Maximum undo/redo entries per transaction attempt.
	LogCapacity int `toml:"log-capacity"`

	// Size of the simulated address space, e.g. "8 KiB" or "1MB".
	ArenaSize string `toml:"arena-size"`

	// Virtual address of the first arena byte.
	ArenaBase uint64 `toml:"arena-base"`

	// Attempt count at which a transaction that keeps restarting is
	// reported. 0 disables the warning.
	RestartWarnThreshold int `toml:"restart-warn-threshold"`

	LogLevel string `toml:"log-level"`

	// Minimum runtime version this configuration was written for.
	RequireVersion string `toml:"require-version"`
}

func getLogLevel() (logLevel string) {
	logLevel = "info"
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		logLevel = l
	}
	return
}

func NewDefaultConfig() *Config {
	return &Config{
		DirectoryCapacity:    resource.DefaultCapacity,
		LogCapacity:          txlog.DefaultCapacity,
		ArenaSize:            "8 KiB",
		ArenaBase:            uint64(memory.DefaultBase),
		RestartWarnThreshold: 10000,
		LogLevel:             getLogLevel(),
	}
}

func NewTestConfig() *Config {
	return &Config{
		DirectoryCapacity:    resource.DefaultCapacity,
		LogCapacity:          16,
		ArenaSize:            "4 KiB",
		ArenaBase:            uint64(memory.DefaultBase),
		RestartWarnThreshold: 100000,
		LogLevel:             getLogLevel(),
	}
}

// Load reads a TOML file on top of the defaults. Keys absent from the file
// keep their default values. LOG_LEVEL, when set, wins over the file.
func Load(path string) (*Config, error) {
	c := NewDefaultConfig()
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, errors.Wrapf(err, "config: decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.Errorf("config: unknown keys in %s: %v", path, undecoded)
	}
	if l := os.Getenv("LOG_LEVEL"); len(l) != 0 {
		c.LogLevel = l
	}
	return c, nil
}

// ArenaBytes returns the parsed arena size.
func (c *Config) ArenaBytes() (int, error) {
	n, err := humanize.ParseBytes(c.ArenaSize)
	if err != nil {
		return 0, errors.Wrapf(err, "config: arena-size %q", c.ArenaSize)
	}
	if n < resource.WordSize || n > 1<<40 {
		return 0, errors.Errorf("config: arena-size %s out of range", c.ArenaSize)
	}
	return int(n), nil
}

// Validate checks the configuration. lg receives warnings about settings
// that are legal but likely unintended; it may be nil.
func (c *Config) Validate(lg *zap.Logger) error {
	if lg == nil {
		lg = zap.NewNop()
	}
	if c.DirectoryCapacity <= 0 || c.DirectoryCapacity&(c.DirectoryCapacity-1) != 0 {
		return errors.Errorf("config: directory-capacity %d must be a positive power of two", c.DirectoryCapacity)
	}
	if c.LogCapacity <= 0 {
		return errors.Errorf("config: log-capacity %d must be positive", c.LogCapacity)
	}
	if c.ArenaBase == 0 || c.ArenaBase%resource.WordSize != 0 {
		return errors.Errorf("config: arena-base %#x must be non-zero and %d-byte aligned", c.ArenaBase, resource.WordSize)
	}
	if c.RestartWarnThreshold < 0 {
		return errors.Errorf("config: restart-warn-threshold %d must not be negative", c.RestartWarnThreshold)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return errors.Wrapf(err, "config: log-level %q", c.LogLevel)
	}
	if c.RequireVersion != "" && !semver.IsValid(canonical(c.RequireVersion)) {
		return errors.Errorf("config: require-version %q is not a semantic version", c.RequireVersion)
	}

	size, err := c.ArenaBytes()
	if err != nil {
		return err
	}
	if covered := c.DirectoryCapacity * resource.WordSize; covered < size {
		lg.Warn("directory smaller than arena, distinct addresses may alias",
			zap.String("directory-covers", humanize.IBytes(uint64(covered))),
			zap.String("arena-size", humanize.IBytes(uint64(size))),
		)
	}
	return nil
}

// CheckVersion reports an error when the running version is older than
// RequireVersion. Versions may be given with or without the leading "v".
func (c *Config) CheckVersion(running string) error {
	if c.RequireVersion == "" {
		return nil
	}
	have := canonical(running)
	if !semver.IsValid(have) {
		return errors.Errorf("config: running version %q is not a semantic version", running)
	}
	if semver.Compare(have, canonical(c.RequireVersion)) < 0 {
		return errors.Errorf("config: requires version %s, running %s", c.RequireVersion, have)
	}
	return nil
}

func canonical(v string) string {
	if v != "" && v[0] != 'v' {
		v = "v" + v
	}
	return v
}
