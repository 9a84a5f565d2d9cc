// Package diag provides diagnostics for the lexer and parser, and the
// SyntaxError that wraps them.
package diag

import (
	"fmt"
	"strings"

	"quill-lang/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	default:
		return "unknown"
	}
}

// Diagnostic is a single positioned message.
type Diagnostic struct {
	Code     string    `json:"code"` // E1xxx lexer, E2xxx parser
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	Span     span.Span `json:"span"`
	Hint     string    `json:"hint,omitempty"`
}

func (d Diagnostic) String() string {
	loc := fmt.Sprintf("%d:%d", d.Span.Start.Line, d.Span.Start.Column)
	msg := fmt.Sprintf("[%s] %s at %s: %s", d.Code, d.Severity, loc, d.Message)
	if d.Hint != "" {
		msg += " (hint: " + d.Hint + ")"
	}
	return msg
}

// Errorf creates an error diagnostic at the given span.
func Errorf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(code string, s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Code:     code,
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// HasErrors reports whether any diagnostic is an error.
func HasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// SyntaxError is returned when source text cannot be tokenized or parsed.
type SyntaxError struct {
	Diagnostics []Diagnostic
}

// NewSyntaxError keeps only error-severity diagnostics; it returns nil when
// there are none.
func NewSyntaxError(diags []Diagnostic) *SyntaxError {
	var errs []Diagnostic
	for _, d := range diags {
		if d.Severity == Error {
			errs = append(errs, d)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &SyntaxError{Diagnostics: errs}
}

// Line is the 1-based line of the first diagnostic.
func (e *SyntaxError) Line() int { return e.Diagnostics[0].Span.Start.Line }

// Column is the 1-based column of the first diagnostic.
func (e *SyntaxError) Column() int { return e.Diagnostics[0].Span.Start.Column }

func (e *SyntaxError) Error() string {
	if len(e.Diagnostics) == 1 {
		return "syntax error: " + e.Diagnostics[0].String()
	}
	parts := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		parts[i] = d.String()
	}
	return fmt.Sprintf("syntax error (%d problems):\n  %s", len(parts), strings.Join(parts, "\n  "))
}
