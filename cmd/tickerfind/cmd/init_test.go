package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickfin/tickerfind/internal/config"
)

func TestInitCmd_CreatesConfig(t *testing.T) {
	// Given: an empty directory
	dir := t.TempDir()

	// When: running init
	cmd := newInitCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()

	// Then: a parseable .tickerfind.yaml is written
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Created")

	path := filepath.Join(dir, ".tickerfind.yaml")
	require.FileExists(t, path)

	cfg, err := config.Load(dir)
	require.NoError(t, err, "Generated template should load cleanly")
	assert.Equal(t, config.DefaultMinQueryLen, cfg.Search.MinQueryLen)
	assert.Equal(t, config.DefaultAddr, cfg.Server.Addr)
}

func TestInitCmd_PreservesExisting(t *testing.T) {
	// Given: a directory with a config already in place
	dir := t.TempDir()
	path := filepath.Join(dir, ".tickerfind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	// When: running init without --force
	cmd := newInitCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{dir})

	err := cmd.Execute()

	// Then: the existing file is untouched
	require.NoError(t, err)
	assert.Contains(t, out.String(), "preserved")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestInitCmd_ForceOverwrites(t *testing.T) {
	// Given: a directory with a stale config
	dir := t.TempDir()
	path := filepath.Join(dir, ".tickerfind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	// When: running init with --force
	cmd := newInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{dir, "--force"})

	err := cmd.Execute()

	// Then: the template replaces the old file
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "quiet_period")
}
