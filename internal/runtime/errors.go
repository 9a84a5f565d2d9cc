package runtime

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"quill-lang/internal/span"
)

// Error kinds. Every runtime failure wraps exactly one of these, so callers
// can classify it with errors.Is.
var (
	ErrUndefinedVariable        = errors.New("undefined variable")
	ErrConstantReassignment     = errors.New("constant reassignment")
	ErrTypeMismatch             = errors.New("type mismatch")
	ErrIncompatibleOperandTypes = errors.New("incompatible operand types")
	ErrNotCallable              = errors.New("not callable")
	ErrDivisionByZero           = errors.New("division by zero")
	ErrMissingExport            = errors.New("missing export")
	ErrArgumentCount            = errors.New("wrong number of arguments")
	ErrAccess                   = errors.New("member not accessible")
	ErrUnknownMember            = errors.New("unknown member")
	ErrIndexOutOfRange          = errors.New("index out of range")
	ErrImportCycle              = errors.New("import cycle")
	ErrModuleLoad               = errors.New("module load failed")
	ErrCallDepth                = errors.New("maximum call depth exceeded")
	ErrControlFlow              = errors.New("misplaced control flow")
)

// RuntimeError is a positioned failure raised while evaluating a program.
type RuntimeError struct {
	Kind    error // one of the Err* kinds
	Message string
	Span    span.Span
	Hint    string
	Cause   error // underlying failure, e.g. a module I/O error
}

func (e *RuntimeError) Error() string {
	msg := e.Message
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	if !e.Span.Start.IsValid() {
		return "runtime error: " + msg
	}
	return fmt.Sprintf("runtime error at %d:%d: %s", e.Span.Start.Line, e.Span.Start.Column, msg)
}

func (e *RuntimeError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// noSpan marks errors raised by builtins; callValue positions them at the
// call site.
var noSpan span.Span

func runtimeErr(kind error, s span.Span, format string, args ...interface{}) *RuntimeError {
	return &RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Span: s}
}

// positioned attaches a span to err unless it already carries one.
func positioned(s span.Span, err error) error {
	if err == nil {
		return nil
	}
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) {
		if !rtErr.Span.Start.IsValid() {
			rtErr.Span = s
		}
		return err
	}
	return &RuntimeError{Message: err.Error(), Span: s, Cause: err}
}

// suggest returns the closest candidate to name, or "".
func suggest(name string, candidates []string) string {
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	// no subsequence match: fall back to the nearest typo
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(strings.ToLower(name), strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func withSuggestion(err *RuntimeError, name string, candidates []string) *RuntimeError {
	if match := suggest(name, candidates); match != "" && match != name {
		err.Hint = fmt.Sprintf("did you mean '%s'?", match)
	}
	return err
}
