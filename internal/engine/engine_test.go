package engine

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quill-lang/internal/diag"
	"quill-lang/internal/logging"
	"quill-lang/internal/module"
	"quill-lang/internal/runtime"
)

func TestRun(t *testing.T) {
	var out bytes.Buffer
	v, err := Run("x := 2\nPrintln(x * 21)\nx + 1", WithOutput(&out))
	require.NoError(t, err)
	assert.Equal(t, "42\n", out.String())
	assert.Equal(t, runtime.NumberVal(3), v)
}

func TestRunSyntaxError(t *testing.T) {
	_, err := Run("x := (1 +", WithOutput(&bytes.Buffer{}))
	require.Error(t, err)
	var synErr *diag.SyntaxError
	require.True(t, errors.As(err, &synErr), "got %T", err)
	assert.Equal(t, 1, synErr.Line())

	_, err = Run(`s := "unterminated`, WithOutput(&bytes.Buffer{}))
	assert.True(t, errors.As(err, &synErr), "lexer errors are syntax errors too")
}

func TestRunRuntimeError(t *testing.T) {
	_, err := Run("Println(1)\nx := 1 / 0", WithOutput(&bytes.Buffer{}))
	assert.ErrorIs(t, err, runtime.ErrDivisionByZero)
}

func TestRunsAreIsolated(t *testing.T) {
	var out bytes.Buffer
	_, err := Run("shared := 1", WithOutput(&out))
	require.NoError(t, err)
	_, err = Run("Println(shared)", WithOutput(&out))
	assert.ErrorIs(t, err, runtime.ErrUndefinedVariable)
}

func TestRunDebug(t *testing.T) {
	var out bytes.Buffer
	res, err := RunDebug("name := \"quill\"\nPrintln(name)\nn := 3", WithOutput(&out))
	require.NoError(t, err)

	_, err = uuid.Parse(res.RunID)
	assert.NoError(t, err, "run id is a uuid")
	assert.Equal(t, "quill\n", res.Output)
	assert.Equal(t, "quill\n", out.String(), "output still reaches the writer")
	assert.NotEmpty(t, res.Tokens)
	assert.Equal(t, "Program", res.AST["kind"])

	want := map[string]runtime.Value{
		"name": runtime.StringVal("quill"),
		"n":    runtime.NumberVal(3),
	}
	if diff := cmp.Diff(want, res.Globals); diff != "" {
		t.Errorf("globals (-want +got):\n%s", diff)
	}
}

func TestRunDebugPartialResult(t *testing.T) {
	res, err := RunDebug("a := 1\nPrintln(\"before\")\nb := a / 0", WithOutput(&bytes.Buffer{}))
	assert.ErrorIs(t, err, runtime.ErrDivisionByZero)
	require.NotNil(t, res)
	assert.Equal(t, "before\n", res.Output)
	assert.Contains(t, res.Globals, "a")
	assert.NotContains(t, res.Globals, "b")
}

func TestRunDebugLogsRunID(t *testing.T) {
	var logs bytes.Buffer
	res, err := RunDebug("1", WithOutput(&bytes.Buffer{}), WithLogger(logging.New(true, &logs)))
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "run_id="+res.RunID)
	assert.Contains(t, logs.String(), "msg=\"run finished\"")
}

func TestRunFileWithImports(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}
	write("lib/geometry.ql", "export function area(w, h)\n  return w * h\nend\n")
	main := write("main.ql", "import { area } from \"./lib/geometry\"\nPrintln(area(3, 4))\n")

	var out bytes.Buffer
	_, err := RunFile(main, WithOutput(&out), WithResolver(module.NewFileResolver(nil, nil)))
	require.NoError(t, err)
	assert.Equal(t, "12\n", out.String())
}

func TestRunFileMissing(t *testing.T) {
	_, err := RunFile(filepath.Join(t.TempDir(), "nope.ql"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
