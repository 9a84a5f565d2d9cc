package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestResolveRelativeToImporter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "app", "util.ql"), "export x := 1")
	importer := filepath.Join(dir, "app", "main.ql")

	r := NewFileResolver(nil, nil)
	canonical, source, err := r.Resolve("util", importer)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app", "util.ql"), canonical)
	assert.Equal(t, "export x := 1", source)

	again, _, err := r.Resolve("./util.ql", importer)
	require.NoError(t, err)
	assert.Equal(t, canonical, again, "explicit extension resolves to the same module")
}

func TestResolveSearchPaths(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib")
	writeFile(t, filepath.Join(lib, "strings.ql"), "export s := 1")

	r := NewFileResolver([]string{filepath.Join(dir, "missing"), lib}, nil)
	canonical, _, err := r.Resolve("strings", filepath.Join(dir, "src", "main.ql"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(lib, "strings.ql"), canonical)
}

func TestResolveAbsolute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abs.ql")
	writeFile(t, path, "")

	canonical, _, err := NewFileResolver(nil, nil).Resolve(filepath.Join(dir, "abs"), "")
	require.NoError(t, err)
	assert.Equal(t, path, canonical)
}

func TestResolveNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "pkg.ql"), 0o755))

	r := NewFileResolver([]string{dir}, nil)
	_, _, err := r.Resolve("definitely-not-a-module-xyz", filepath.Join(dir, "main.ql"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = r.Resolve("pkg", filepath.Join(dir, "main.ql"))
	assert.ErrorIs(t, err, ErrNotFound, "directories are not modules")
}
