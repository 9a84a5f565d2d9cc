// Package config loads quill.yaml and environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "quill.yaml"

// Environment variables that override the file.
const (
	EnvPath  = "QUILL_PATH"
	EnvDebug = "QUILL_DEBUG"
)

// Config holds interpreter and CLI settings.
type Config struct {
	SearchPaths []string `yaml:"search_paths"`
	Debug       bool     `yaml:"debug"`
	HistoryFile string   `yaml:"history_file"`
	Prompt      string   `yaml:"prompt"`
	Extension   string   `yaml:"extension"`

	// Path is the file the configuration was read from, if any.
	Path string `yaml:"-"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	history := ""
	if home, err := os.UserHomeDir(); err == nil {
		history = filepath.Join(home, ".quill_history")
	}
	return &Config{
		HistoryFile: history,
		Prompt:      "quill> ",
		Extension:   ".ql",
	}
}

// Load reads the configuration at path. An empty path means quill.yaml in the
// working directory, which may be absent. Environment overrides are applied
// last.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = FileName
	}

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := decode(file, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if abs, err := filepath.Abs(path); err == nil {
			cfg.Path = abs
		}
		cfg.resolvePaths()
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no file: defaults
	default:
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}

	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// resolvePaths makes relative search paths relative to the config file.
func (c *Config) resolvePaths() {
	if c.Path == "" {
		return
	}
	base := filepath.Dir(c.Path)
	for i, p := range c.SearchPaths {
		if !filepath.IsAbs(p) {
			c.SearchPaths[i] = filepath.Join(base, p)
		}
	}
}

// applyEnv prepends QUILL_PATH entries and honors QUILL_DEBUG.
func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvPath); v != "" {
		var paths []string
		for _, p := range filepath.SplitList(v) {
			if p != "" {
				paths = append(paths, p)
			}
		}
		c.SearchPaths = append(paths, c.SearchPaths...)
	}
	switch strings.ToLower(strings.TrimSpace(getenv(EnvDebug))) {
	case "":
	case "0", "false", "no", "off":
		c.Debug = false
	default:
		c.Debug = true
	}
}
