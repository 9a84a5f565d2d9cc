package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"quill-lang/internal/diag"
	"quill-lang/internal/token"
)

// ---- ANSI colors ----

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
	colorBold  = "\033[1m"
)

// ---- output helpers ----

func printJSON(w io.Writer, v interface{}) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "error: JSON encoding failed: %v\n", err)
	}
}

func printDiagsText(w io.Writer, diags []diag.Diagnostic) {
	for _, d := range diags {
		fmt.Fprintln(w, d.String())
	}
}

// printError prints syntax errors one diagnostic per line and anything else
// as a single line.
func printError(w io.Writer, err error) {
	var synErr *diag.SyntaxError
	if errors.As(err, &synErr) {
		printDiagsText(w, synErr.Diagnostics)
		return
	}
	fmt.Fprintln(w, err)
}

func diagsToSlice(diags []diag.Diagnostic) []map[string]interface{} {
	result := make([]map[string]interface{}, len(diags))
	for i, d := range diags {
		result[i] = map[string]interface{}{
			"code":     d.Code,
			"severity": d.Severity.String(),
			"message":  d.Message,
			"line":     d.Span.Start.Line,
			"column":   d.Span.Start.Column,
			"offset":   d.Span.Start.Offset,
		}
		if d.Hint != "" {
			result[i]["hint"] = d.Hint
		}
	}
	return result
}

// ---- token output ----

func printTokensText(w io.Writer, tokens []token.Token) {
	for _, tok := range tokens {
		lexeme := tok.Lexeme
		if tok.Kind == token.NEWLINE {
			lexeme = "\\n"
		}
		fmt.Fprintf(w, "%-12s %-20s %d:%d\n", tok.Kind, lexeme, tok.Span.Start.Line, tok.Span.Start.Column)
	}
}

type tokenJSON struct {
	Kind   string `json:"kind"`
	Lexeme string `json:"lexeme"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
	Offset int    `json:"offset"`
}

func printTokensJSON(w io.Writer, tokens []token.Token, diags []diag.Diagnostic) {
	toks := make([]tokenJSON, 0, len(tokens))
	for _, tok := range tokens {
		toks = append(toks, tokenJSON{
			Kind:   tok.Kind.String(),
			Lexeme: tok.Lexeme,
			Line:   tok.Span.Start.Line,
			Column: tok.Span.Start.Column,
			Offset: tok.Span.Start.Offset,
		})
	}
	printJSON(w, map[string]interface{}{
		"tokens":      toks,
		"diagnostics": diagsToSlice(diags),
	})
}
