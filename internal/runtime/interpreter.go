package runtime

import (
	"bufio"
	"io"
	"log/slog"

	"quill-lang/internal/ast"
)

// ============================================================
// Control flow signals
// ============================================================

// ExecSignal represents a control flow signal from statement execution.
type ExecSignal int

const (
	SigNone     ExecSignal = iota
	SigReturn              // return from function
	SigBreak               // break from loop
	SigContinue            // continue in loop
)

// ExecResult carries a control flow signal and a value: the returned value
// for SigReturn, or the statement's own value for SigNone.
type ExecResult struct {
	Signal ExecSignal
	Value  Value
}

var resultNone = ExecResult{Signal: SigNone}

const maxCallDepth = 10000

// ============================================================
// Interpreter
// ============================================================

// Interpreter walks the AST and executes it.
type Interpreter struct {
	global   *Environment
	env      *Environment
	out      *bufio.Writer
	logger   *slog.Logger
	filename string
	builtins map[string]*BuiltinVal
	loader   *moduleLoader
	exports  map[string]Value
	depth    int
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithFilename names the program being run; imports resolve relative to it.
func WithFilename(name string) Option {
	return func(i *Interpreter) { i.filename = name }
}

// WithResolver enables import statements.
func WithResolver(r Resolver) Option {
	return func(i *Interpreter) { i.loader = newModuleLoader(r) }
}

// NewInterpreter creates an interpreter writing program output to output.
func NewInterpreter(output io.Writer, opts ...Option) *Interpreter {
	global := NewEnvironment(nil)
	i := &Interpreter{
		global:  global,
		env:     global,
		out:     bufio.NewWriter(output),
		logger:  slog.New(slog.DiscardHandler),
		exports: make(map[string]Value),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.builtins = newBuiltins(i)
	return i
}

// Run executes a program and returns the value of its last statement, or
// the value of a top-level return.
func (i *Interpreter) Run(prog *ast.Program) (Value, error) {
	defer i.out.Flush()

	var last Value = NullVal{}
	for _, stmt := range prog.Body {
		result, err := i.execStmt(stmt)
		if err != nil {
			return nil, err
		}
		switch result.Signal {
		case SigReturn:
			return result.Value, nil
		case SigBreak:
			return nil, runtimeErr(ErrControlFlow, stmt.GetSpan(), "break outside of loop")
		case SigContinue:
			return nil, runtimeErr(ErrControlFlow, stmt.GetSpan(), "continue outside of loop")
		}
		if result.Value != nil {
			last = result.Value
		} else {
			last = NullVal{}
		}
	}
	return last, nil
}

// Env returns the global environment (useful for REPL).
func (i *Interpreter) Env() *Environment {
	return i.global
}

// Exports returns the names this program exported.
func (i *Interpreter) Exports() map[string]Value {
	return i.exports
}

// lookupBuiltin returns a native function not shadowed by user bindings.
func (i *Interpreter) lookupBuiltin(name string) (*BuiltinVal, bool) {
	b, ok := i.builtins[name]
	return b, ok
}

func (i *Interpreter) write(s string) {
	i.out.WriteString(s)
	i.out.Flush()
}
