package runtime

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"quill-lang/internal/ast"
	"quill-lang/internal/diag"
	"quill-lang/internal/lexer"
	"quill-lang/internal/parser"
)

// Resolver maps an import path to a canonical module name and its source.
// importer is the canonical name of the importing module, or the filename the
// main program was run with.
type Resolver interface {
	Resolve(spec, importer string) (canonical, source string, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(spec, importer string) (string, string, error)

func (f ResolverFunc) Resolve(spec, importer string) (string, string, error) {
	return f(spec, importer)
}

// moduleLoader is shared by an interpreter and every module it imports.
type moduleLoader struct {
	resolver Resolver
	cache    map[string]map[string]Value // canonical name -> exports
	stack    []string                    // modules currently being loaded
}

func newModuleLoader(r Resolver) *moduleLoader {
	return &moduleLoader{resolver: r, cache: make(map[string]map[string]Value)}
}

func (i *Interpreter) execImport(s *ast.Import) (ExecResult, error) {
	if i.loader == nil {
		return resultNone, runtimeErr(ErrModuleLoad, s.GetSpan(), "cannot import %q: no module resolver configured", s.Path)
	}

	exports, err := i.loadModule(s)
	if err != nil {
		return resultNone, err
	}

	for _, name := range s.Names {
		val, ok := exports[name]
		if !ok {
			names := make([]string, 0, len(exports))
			for n := range exports {
				names = append(names, n)
			}
			err := runtimeErr(ErrMissingExport, s.GetSpan(), "module %q does not export '%s'", s.Path, name)
			return resultNone, withSuggestion(err, name, names)
		}
		i.env.Define(name, val, true)
	}
	return resultNone, nil
}

// loadModule resolves, runs and caches the module named by an import.
// A module already on the loading stack is an import cycle.
func (i *Interpreter) loadModule(s *ast.Import) (map[string]Value, error) {
	l := i.loader
	canonical, source, err := l.resolver.Resolve(s.Path, i.filename)
	if err != nil {
		return nil, &RuntimeError{
			Kind:    ErrModuleLoad,
			Message: fmt.Sprintf("cannot resolve module %q", s.Path),
			Span:    s.GetSpan(),
			Cause:   err,
		}
	}

	chain := l.stack
	if len(chain) == 0 && i.filename != "" {
		chain = []string{i.filename}
	}
	for idx, name := range chain {
		if name == canonical {
			return nil, runtimeErr(ErrImportCycle, s.GetSpan(), "import cycle detected: %s", cyclePath(chain[idx:], canonical))
		}
	}

	if exports, ok := l.cache[canonical]; ok {
		i.logger.Debug("module cache hit", "module", canonical)
		return exports, nil
	}
	i.logger.Debug("loading module", "module", canonical, "importer", i.filename)

	tokens, lexDiags := lexer.New(source, canonical).Tokenize()
	if diag.HasErrors(lexDiags) {
		return nil, moduleSyntaxErr(s, canonical, diag.NewSyntaxError(lexDiags))
	}
	prog, parseDiags := parser.New(tokens).WithLogger(i.logger).ParseProgram()
	if diag.HasErrors(parseDiags) {
		return nil, moduleSyntaxErr(s, canonical, diag.NewSyntaxError(parseDiags))
	}

	prev := l.stack
	l.stack = append(append([]string{}, chain...), canonical)
	defer func() { l.stack = prev }()

	child := &Interpreter{
		out:      i.out,
		logger:   i.logger,
		filename: canonical,
		loader:   l,
		exports:  make(map[string]Value),
	}
	child.global = NewEnvironment(nil)
	child.env = child.global
	child.builtins = newBuiltins(child)

	if _, err := child.Run(prog); err != nil {
		if errors.Is(err, ErrImportCycle) {
			return nil, err
		}
		return nil, fmt.Errorf("module %s: %w", canonical, err)
	}

	l.cache[canonical] = child.exports
	return child.exports, nil
}

// cyclePath renders "a -> b -> a" using short module names.
func cyclePath(stack []string, again string) string {
	names := make([]string, 0, len(stack)+1)
	for _, name := range append(append([]string{}, stack...), again) {
		names = append(names, displayName(name))
	}
	return strings.Join(names, " -> ")
}

// displayName shortens a canonical module path to its base name without
// extension.
func displayName(canonical string) string {
	base := filepath.Base(canonical)
	if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
		return name
	}
	return base
}

func moduleSyntaxErr(s *ast.Import, canonical string, err error) error {
	return &RuntimeError{
		Kind:    ErrModuleLoad,
		Message: fmt.Sprintf("module %s has syntax errors", canonical),
		Span:    s.GetSpan(),
		Cause:   err,
	}
}
