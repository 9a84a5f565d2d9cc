package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"

	"quill-lang/internal/ast"
	"quill-lang/internal/diag"
	"quill-lang/internal/lexer"
	"quill-lang/internal/parser"
	"quill-lang/internal/runtime"
	"quill-lang/internal/token"
)

const replFilename = "<repl>"

// session keeps one interpreter alive across REPL inputs so bindings persist.
type session struct {
	interp *runtime.Interpreter
	logger *slog.Logger
}

func newSession(out io.Writer, logger *slog.Logger, resolver runtime.Resolver) *session {
	return &session{
		interp: runtime.NewInterpreter(out,
			runtime.WithLogger(logger),
			runtime.WithFilename(replFilename),
			runtime.WithResolver(resolver),
		),
		logger: logger,
	}
}

// incomplete reports whether source stops in the middle of a construct:
// an open block waiting for end, an unclosed bracket or a dangling operator.
func incomplete(source string) bool {
	tokens, lexDiags := lexer.New(source, replFilename).Tokenize()
	if diag.HasErrors(lexDiags) {
		return false
	}
	_, diags := parser.New(tokens).ParseProgram()

	// Errors reported on the trailing newlines or EOF mean the parser ran
	// out of input.
	tail := len(tokens) - 1
	for tail > 0 && tokens[tail-1].Kind == token.NEWLINE {
		tail--
	}
	end := tokens[tail].Span.Start.Offset
	for _, d := range diags {
		if d.Severity == diag.Error && d.Span.Start.Offset >= end {
			return true
		}
	}
	return false
}

// eval runs one complete input. When the input ends in a bare expression its
// non-null value is returned for echoing.
func (s *session) eval(source string) (runtime.Value, error) {
	tokens, diags := lexer.New(source, replFilename).Tokenize()
	if err := diag.NewSyntaxError(diags); err != nil {
		return nil, err
	}
	prog, diags := parser.New(tokens).WithLogger(s.logger).ParseProgram()
	if err := diag.NewSyntaxError(diags); err != nil {
		return nil, err
	}
	value, err := s.interp.Run(prog)
	if err != nil {
		return nil, err
	}
	if len(prog.Body) == 0 {
		return nil, nil
	}
	if _, ok := prog.Body[len(prog.Body)-1].(*ast.ExprStmt); !ok {
		return nil, nil
	}
	if _, isNull := value.(runtime.NullVal); isNull || value == nil {
		return nil, nil
	}
	return value, nil
}

func (a *app) repl() error {
	prompt := colorGreen + a.cfg.Prompt + colorReset
	cont := colorGray + strings.Repeat(".", max(len(strings.TrimRight(a.cfg.Prompt, " ")), 3)) + " " + colorReset

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       a.cfg.HistoryFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("readline init failed: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%s%squill REPL%s %s(type 'exit' or Ctrl+D to quit)%s\n\n",
		colorBold, colorCyan, colorReset, colorGray, colorReset)

	s := newSession(rl.Stdout(), a.logger, a.resolver())
	var accumulated strings.Builder

	for {
		if accumulated.Len() > 0 {
			rl.SetPrompt(cont)
		} else {
			rl.SetPrompt(prompt)
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if accumulated.Len() > 0 {
					accumulated.Reset()
					continue
				}
				fmt.Fprintf(rl.Stdout(), "%s(use 'exit' or Ctrl+D to quit)%s\n", colorGray, colorReset)
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(rl.Stdout())
			}
			return nil
		}

		if accumulated.Len() == 0 && strings.TrimSpace(line) == "exit" {
			return nil
		}

		accumulated.WriteString(line)
		accumulated.WriteString("\n")
		source := accumulated.String()
		if strings.TrimSpace(source) == "" {
			accumulated.Reset()
			continue
		}
		if incomplete(source) {
			continue
		}
		accumulated.Reset()

		value, err := s.eval(source)
		if err != nil {
			printErrorColored(rl.Stderr(), err)
			continue
		}
		if value != nil {
			fmt.Fprintf(rl.Stdout(), "%s%s%s\n", colorCyan, runtime.Inspect(value), colorReset)
		}
	}
}

// printErrorColored prints errors in red for REPL display.
func printErrorColored(w io.Writer, err error) {
	var synErr *diag.SyntaxError
	if errors.As(err, &synErr) {
		for _, d := range synErr.Diagnostics {
			fmt.Fprintf(w, "%s%s%s\n", colorRed, d.String(), colorReset)
		}
		return
	}
	fmt.Fprintf(w, "%serror: %s%s\n", colorRed, err, colorReset)
}
