package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill-lang/internal/config"
	"quill-lang/internal/logging"
	"quill-lang/internal/module"
	"quill-lang/internal/runtime"
)

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv(config.EnvPath, "")
	t.Setenv(config.EnvDebug, "")
	t.Chdir(t.TempDir())

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "lib/greet.ql", "export function greet(name)\n  return \"hi \" + name\nend\n")
	main := writeScript(t, dir, "main.ql", "import { greet } from \"./lib/greet\"\nPrintln(greet(\"quill\"))\n")

	stdout, _, err := execute(t, "run", main)
	require.NoError(t, err)
	assert.Equal(t, "hi quill\n", stdout)
}

func TestRunCommandSearchPathFromConfig(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "vendor/mathx.ql", "export twice := (n) => n * 2\n")
	cfg := writeScript(t, dir, "quill.yaml", "search_paths:\n  - vendor\n")
	main := writeScript(t, dir, "src/main.ql", "import { twice } from \"mathx\"\nPrintln(twice(21))\n")

	stdout, _, err := execute(t, "--config", cfg, "run", main)
	require.NoError(t, err)
	assert.Equal(t, "42\n", stdout)
}

func TestRunCommandRuntimeError(t *testing.T) {
	main := writeScript(t, t.TempDir(), "bad.ql", "Println(\"ok\")\nx := 1 / 0\n")

	stdout, stderr, err := execute(t, "run", main)
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "ok\n", stdout)
	assert.Contains(t, stderr, "division by zero")
}

func TestRunCommandSyntaxError(t *testing.T) {
	main := writeScript(t, t.TempDir(), "bad.ql", "x := (1 +\n")

	_, stderr, err := execute(t, "run", main)
	assert.ErrorIs(t, err, errReported)
	assert.NotEmpty(t, stderr)
}

func TestRunCommandMissingFile(t *testing.T) {
	_, stderr, err := execute(t, "run", filepath.Join(t.TempDir(), "missing.ql"))
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, stderr, "missing.ql")
}

func TestTokensCommand(t *testing.T) {
	path := writeScript(t, t.TempDir(), "t.ql", "x := 1\n")

	stdout, _, err := execute(t, "tokens", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, []string{"IDENT", "x", "1:1"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{":=", ":=", "1:3"}, strings.Fields(lines[1]))
	assert.Equal(t, "EOF", strings.Fields(lines[4])[0])
}

func TestTokensCommandJSON(t *testing.T) {
	path := writeScript(t, t.TempDir(), "t.ql", "Println(1)")

	stdout, _, err := execute(t, "tokens", "--json", path)
	require.NoError(t, err)

	var got struct {
		Tokens      []tokenJSON      `json:"tokens"`
		Diagnostics []map[string]any `json:"diagnostics"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	require.NotEmpty(t, got.Tokens)
	assert.Equal(t, tokenJSON{Kind: "IDENT", Lexeme: "Println", Line: 1, Column: 1}, got.Tokens[0])
	assert.Empty(t, got.Diagnostics)
}

func TestParseCommand(t *testing.T) {
	dir := t.TempDir()
	ok := writeScript(t, dir, "ok.ql", "x := 1\n")

	stdout, _, err := execute(t, "parse", ok)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "Program", got["ast"].(map[string]any)["kind"])

	bad := writeScript(t, dir, "bad.ql", "if x\n")
	stdout, _, err = execute(t, "parse", bad)
	assert.ErrorIs(t, err, errReported)
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.NotEmpty(t, got["diagnostics"])
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"x := 1\n", false},
		{"function f(a)\n", true},
		{"function f(a)\n  return a\nend\n", false},
		{"if x > 1\n  Println(x)\nelse\n", true},
		{"nums := [1, 2,\n", true},
		{"y := 1 +\n", true},
		{"x := )\n", false},
		{"class P\n  constructor(x)\n  end\n", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, incomplete(tt.src), "%q", tt.src)
	}
}

func TestSessionKeepsBindings(t *testing.T) {
	var out bytes.Buffer
	s := newSession(&out, logging.Discard(), module.NewFileResolver(nil, nil))

	v, err := s.eval("count = 2\n")
	require.NoError(t, err)
	assert.Nil(t, v, "declarations are not echoed")

	v, err = s.eval("count * 21\n")
	require.NoError(t, err)
	assert.Equal(t, runtime.NumberVal(42), v)

	v, err = s.eval("Println(\"side effect\")\n")
	require.NoError(t, err)
	assert.Nil(t, v, "null results are not echoed")
	assert.Equal(t, "side effect\n", out.String())

	_, err = s.eval("count = \"two\"\n")
	assert.ErrorIs(t, err, runtime.ErrTypeMismatch)

	v, err = s.eval("\"still \" + count\n")
	require.NoError(t, err)
	assert.Equal(t, `"still 2"`, runtime.Inspect(v))
}

// syncBuffer is written by the watch loop while the test polls it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchRerunsOnChange(t *testing.T) {
	path := writeScript(t, t.TempDir(), "w.ql", "Println(\"first\")\n")
	a := &app{cfg: config.Default(), logger: logging.Discard()}

	ctx, cancel := context.WithCancel(context.Background())
	var stdout, stderr syncBuffer
	done := make(chan error, 1)
	go func() { done <- a.watch(ctx, path, &stdout, &stderr) }()

	require.Eventually(t, func() bool { return stdout.String() == "first\n" }, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return strings.Contains(stderr.String(), "watching") }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(path, []byte("Println(\"second\")\n"), 0o644))
	require.Eventually(t, func() bool { return strings.HasSuffix(stdout.String(), "second\n") }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}
