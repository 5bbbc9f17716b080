package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simpletm.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigValid(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate(nil))
	require.NoError(t, NewTestConfig().Validate(nil))

	n, err := NewDefaultConfig().ArenaBytes()
	require.NoError(t, err)
	assert.Equal(t, 8192, n)
}

func TestLoad(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	path := writeConfig(t, `
directory-capacity = 256
arena-size = "1 MiB"
restart-warn-threshold = 50
log-level = "debug"
require-version = "v0.1.0"
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 256, c.DirectoryCapacity)
	assert.Equal(t, 50, c.RestartWarnThreshold)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, 256, c.LogCapacity, "unset keys keep defaults")

	n, err := c.ArenaBytes()
	require.NoError(t, err)
	assert.Equal(t, 1<<20, n)
}

func TestLoad_EnvOverridesLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	c, err := Load(writeConfig(t, `log-level = "debug"`))
	require.NoError(t, err)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `directory-capacity = "lots"`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `no-such-key = 1`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"capacity not power of two", func(c *Config) { c.DirectoryCapacity = 1000 }},
		{"zero capacity", func(c *Config) { c.DirectoryCapacity = 0 }},
		{"zero log capacity", func(c *Config) { c.LogCapacity = 0 }},
		{"bad arena size", func(c *Config) { c.ArenaSize = "huge" }},
		{"arena smaller than a word", func(c *Config) { c.ArenaSize = "4B" }},
		{"zero base", func(c *Config) { c.ArenaBase = 0 }},
		{"unaligned base", func(c *Config) { c.ArenaBase = 0x10004 }},
		{"negative threshold", func(c *Config) { c.RestartWarnThreshold = -1 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad version", func(c *Config) { c.RequireVersion = "one" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTestConfig()
			tt.modify(c)
			assert.Error(t, c.Validate(nil))
		})
	}
}

func TestValidate_WarnsOnAliasing(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := NewTestConfig()
	c.DirectoryCapacity = 16
	c.ArenaSize = "1 KiB"

	require.NoError(t, c.Validate(zap.New(core)))
	assert.Equal(t, 1, logs.FilterMessageSnippet("alias").Len())
}

func TestCheckVersion(t *testing.T) {
	c := NewTestConfig()
	assert.NoError(t, c.CheckVersion("0.1.0"), "no requirement")

	c.RequireVersion = "v0.2.0"
	assert.NoError(t, c.CheckVersion("0.2.0"))
	assert.NoError(t, c.CheckVersion("v1.0.0"))
	assert.Error(t, c.CheckVersion("0.1.9"))
	assert.Error(t, c.CheckVersion("garbage"))

	c.RequireVersion = "0.1.0"
	assert.NoError(t, c.Validate(nil))
	assert.NoError(t, c.CheckVersion("0.1.0"))
}

func TestNewLogger(t *testing.T) {
	lg, err := NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, lg.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger("loud")
	assert.Error(t, err)
}
