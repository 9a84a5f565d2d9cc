// Package module locates quill modules on disk for import statements.
package module

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// DefaultExt is appended to import paths that have no extension.
const DefaultExt = ".ql"

// ErrNotFound reports that no search root holds the requested module.
var ErrNotFound = errors.New("module not found")

// FileResolver resolves import paths against the importing file's directory,
// the working directory, then each search path in order.
type FileResolver struct {
	SearchPaths []string
	Ext         string
	logger      *slog.Logger
}

// NewFileResolver creates a resolver with extra search roots.
func NewFileResolver(searchPaths []string, logger *slog.Logger) *FileResolver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileResolver{SearchPaths: searchPaths, Ext: DefaultExt, logger: logger}
}

// Resolve returns the absolute path of the module and its source text.
func (r *FileResolver) Resolve(spec, importer string) (string, string, error) {
	path, err := r.locate(spec, importer)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read module %s: %w", path, err)
	}
	r.logger.Debug("module resolved", "spec", spec, "path", path)
	return path, string(data), nil
}

func (r *FileResolver) locate(spec, importer string) (string, error) {
	if filepath.IsAbs(spec) {
		if p, ok := r.try("", spec); ok {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s", ErrNotFound, spec)
	}

	var bases []string
	if importer != "" {
		bases = append(bases, filepath.Dir(importer))
	}
	if cwd, err := os.Getwd(); err == nil {
		bases = append(bases, cwd)
	}
	bases = append(bases, r.SearchPaths...)

	for _, base := range bases {
		if base == "" {
			continue
		}
		if p, ok := r.try(base, spec); ok {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s (searched %d locations)", ErrNotFound, spec, len(bases))
}

// try checks base/spec, preferring the extension-suffixed file.
func (r *FileResolver) try(base, spec string) (string, bool) {
	var candidates []string
	if filepath.Ext(spec) == "" && r.Ext != "" {
		candidates = append(candidates, filepath.Join(base, spec)+r.Ext)
	}
	candidates = append(candidates, filepath.Join(base, spec))

	for _, c := range candidates {
		fi, err := os.Stat(c)
		if err != nil || fi.IsDir() {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			continue
		}
		return filepath.Clean(abs), true
	}
	return "", false
}
