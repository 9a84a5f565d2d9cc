// Package span provides source positions and ranges shared by the lexer,
// parser, and runtime diagnostics.
package span

import "fmt"

// Position is a point in source text.
type Position struct {
	Offset int `json:"offset"` // byte offset
	Line   int `json:"line"`   // 1-based
	Column int `json:"column"` // 1-based
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid reports whether the position was set by the lexer.
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Span is the half-open range [Start, End) of a token or node.
type Span struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

func (s Span) String() string {
	return fmt.Sprintf("%s..%s", s.Start, s.End)
}

// Join returns the smallest span covering both s and other.
func (s Span) Join(other Span) Span {
	out := s
	if other.Start.Offset < out.Start.Offset {
		out.Start = other.Start
	}
	if other.End.Offset > out.End.Offset {
		out.End = other.End
	}
	return out
}
