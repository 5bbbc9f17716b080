package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNth(t *testing.T) {
	assert.Equal(t, int32(0), nth(0))
	assert.Equal(t, nth(3), nth(3))
	assert.NotEqual(t, nth(1), nth(2))
}

func TestRunDemo(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer

	res, err := runDemo(context.Background(), runOptions{
		duration: 300 * time.Millisecond,
		rate:     200,
	}, &out)
	require.NoError(t, err)

	assert.Zero(t, res.Mismatches)
	assert.Positive(t, res.Produced)
	assert.Positive(t, res.Consumed)
	assert.LessOrEqual(t, res.Consumed, res.Produced)
	assert.Contains(t, out.String(), "Loaded i0=")
	assert.Contains(t, out.String(), "transactions committed")
}

func TestRunDemo_LowMemory(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	var out bytes.Buffer

	res, err := runDemo(context.Background(), runOptions{
		duration: 300 * time.Millisecond,
		rate:     200,
		lowMem:   2,
	}, &out)
	require.NoError(t, err)

	assert.Zero(t, res.Mismatches)
	assert.Positive(t, res.Recovered)
	assert.Equal(t, uint64(res.Recovered), res.Stats.Recoveries)
}

func TestRunDemo_Config(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	path := filepath.Join(t.TempDir(), "demo.toml")
	require.NoError(t, os.WriteFile(path, []byte("directory-capacity = 64\narena-size = \"2 KiB\"\n"), 0o600))

	var out bytes.Buffer
	_, err := runDemo(context.Background(), runOptions{
		configPath: path,
		duration:   50 * time.Millisecond,
		rate:       100,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "arena 2.0 KiB, 64 words")
}

func TestRunDemo_BadRate(t *testing.T) {
	_, err := runDemo(context.Background(), runOptions{rate: 0}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "simpletm version "))
}
