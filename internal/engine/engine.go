// Package engine wires the lexer, parser and interpreter into one call.
package engine

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"quill-lang/internal/ast"
	"quill-lang/internal/diag"
	"quill-lang/internal/lexer"
	"quill-lang/internal/parser"
	"quill-lang/internal/runtime"
	"quill-lang/internal/token"
)

type options struct {
	output   io.Writer
	logger   *slog.Logger
	filename string
	resolver runtime.Resolver
}

// Option configures a run.
type Option func(*options)

// WithOutput sends program output to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.output = w }
}

// WithLogger enables debug tracing through logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithFilename names the source for diagnostics and relative imports.
func WithFilename(name string) Option {
	return func(o *options) { o.filename = name }
}

// WithResolver enables import statements.
func WithResolver(r runtime.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

func buildOptions(opts []Option) *options {
	o := &options{
		output:   os.Stdout,
		logger:   slog.New(slog.DiscardHandler),
		filename: "<input>",
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// DebugResult is everything RunDebug observed about one run.
type DebugResult struct {
	RunID   string
	Tokens  []token.Token
	AST     map[string]interface{}
	Globals map[string]runtime.Value
	Output  string
	Value   runtime.Value
}

// Run executes src and returns the value of its last statement.
func Run(src string, opts ...Option) (runtime.Value, error) {
	o := buildOptions(opts)
	_, prog, err := compile(src, o)
	if err != nil {
		return nil, err
	}
	value, _, err := execute(prog, o)
	return value, err
}

// RunFile reads path and runs it with path as the filename.
func RunFile(path string, opts ...Option) (runtime.Value, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return Run(string(src), append(opts, WithFilename(path))...)
}

// RunDebug runs src like Run and also returns the tokens, the AST, the
// top-level bindings and the captured output. On a runtime error the partial
// result is returned together with the error.
func RunDebug(src string, opts ...Option) (*DebugResult, error) {
	o := buildOptions(opts)
	var captured bytes.Buffer
	o.output = io.MultiWriter(o.output, &captured)

	tokens, prog, err := compile(src, o)
	if err != nil {
		return nil, err
	}
	res := &DebugResult{
		Tokens: tokens,
		AST:    ast.NodeToMap(prog),
	}
	value, interp, err := execute(prog, o)
	res.RunID = interp.runID
	res.Globals = interp.Env().Snapshot()
	res.Output = captured.String()
	res.Value = value
	return res, err
}

func compile(src string, o *options) ([]token.Token, *ast.Program, error) {
	tokens, diags := lexer.New(src, o.filename).Tokenize()
	if err := diag.NewSyntaxError(diags); err != nil {
		return nil, nil, err
	}
	prog, diags := parser.New(tokens).WithLogger(o.logger).ParseProgram()
	if err := diag.NewSyntaxError(diags); err != nil {
		return nil, nil, err
	}
	return tokens, prog, nil
}

type run struct {
	*runtime.Interpreter
	runID string
}

func execute(prog *ast.Program, o *options) (runtime.Value, *run, error) {
	id := uuid.NewString()
	logger := o.logger.With("run_id", id)

	ropts := []runtime.Option{
		runtime.WithLogger(logger),
		runtime.WithFilename(o.filename),
	}
	if o.resolver != nil {
		ropts = append(ropts, runtime.WithResolver(o.resolver))
	}
	r := &run{Interpreter: runtime.NewInterpreter(o.output, ropts...), runID: id}

	start := time.Now()
	logger.Debug("run start", "file", o.filename, "statements", len(prog.Body))
	value, err := r.Run(prog)
	if err != nil {
		logger.Debug("run failed", "error", err, "elapsed", time.Since(start))
		return nil, r, err
	}
	logger.Debug("run finished", "elapsed", time.Since(start))
	return value, r, nil
}
