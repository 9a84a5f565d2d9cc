package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	t.Setenv(EnvPath, "")
	t.Setenv(EnvDebug, "")
	dir := t.TempDir()
	path := filepath.Join(dir, "quill.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
search_paths:
  - lib
  - /opt/quill
debug: true
prompt: "> "
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	want := []string{filepath.Join(dir, "lib"), "/opt/quill"}
	if diff := cmp.Diff(want, cfg.SearchPaths); diff != "" {
		t.Errorf("search paths (-want +got):\n%s", diff)
	}
	assert.True(t, cfg.Debug)
	assert.Equal(t, "> ", cfg.Prompt)
	assert.Equal(t, ".ql", cfg.Extension, "unset fields keep their defaults")
	assert.Equal(t, path, cfg.Path)
}

func TestLoadMissingDefaultFile(t *testing.T) {
	t.Setenv(EnvPath, "")
	t.Setenv(EnvDebug, "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, "quill> ", cfg.Prompt)
	assert.False(t, cfg.Debug)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist, "an explicit path must exist")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("colour: red\n"), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "colour"), "unknown keys are rejected: %v", err)
}

func TestEnvOverrides(t *testing.T) {
	sep := string(os.PathListSeparator)
	cfg := &Config{SearchPaths: []string{"/from/file"}, Debug: true}
	env := map[string]string{
		EnvPath:  "/a" + sep + sep + "/b",
		EnvDebug: "off",
	}
	cfg.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, []string{"/a", "/b", "/from/file"}, cfg.SearchPaths)
	assert.False(t, cfg.Debug)

	env[EnvDebug] = "1"
	cfg.applyEnv(func(k string) string { return env[k] })
	assert.True(t, cfg.Debug)
}
