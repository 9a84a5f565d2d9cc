package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"quill-lang/internal/ast"
	"quill-lang/internal/config"
	"quill-lang/internal/engine"
	"quill-lang/internal/lexer"
	"quill-lang/internal/logging"
	"quill-lang/internal/module"
	"quill-lang/internal/parser"
)

// errReported means the failure was already printed.
var errReported = errors.New("reported")

// app carries the settings every subcommand shares.
type app struct {
	configPath string
	debug      bool

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "quill",
		Short:         "Run and inspect quill programs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to quill.yaml (default ./quill.yaml if present)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug tracing on stderr")

	root.AddCommand(a.tokensCmd(), a.parseCmd(), a.runCmd(), a.replCmd())
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.debug {
		cfg.Debug = true
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Debug, os.Stderr)
	if cfg.Path != "" {
		a.logger.Debug("config loaded", "path", cfg.Path, "search_paths", len(cfg.SearchPaths))
	}
	return nil
}

func (a *app) resolver() *module.FileResolver {
	r := module.NewFileResolver(a.cfg.SearchPaths, a.logger)
	r.Ext = a.cfg.Extension
	return r
}

// ---- tokens command ----

func (a *app) tokensCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Print the token stream of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readFile(args[0])
			if err != nil {
				return err
			}
			tokens, diags := lexer.New(source, args[0]).Tokenize()
			if asJSON {
				printTokensJSON(cmd.OutOrStdout(), tokens, diags)
			} else {
				printTokensText(cmd.OutOrStdout(), tokens)
				printDiagsText(cmd.ErrOrStderr(), diags)
			}
			if len(diags) > 0 {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

// ---- parse command ----

func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the syntax tree of a file as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readFile(args[0])
			if err != nil {
				return err
			}
			tokens, lexDiags := lexer.New(source, args[0]).Tokenize()
			prog, parseDiags := parser.New(tokens).WithLogger(a.logger).ParseProgram()
			allDiags := append(lexDiags, parseDiags...)

			printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"ast":         ast.NodeToMap(prog),
				"diagnostics": diagsToSlice(allDiags),
			})
			if len(allDiags) > 0 {
				return errReported
			}
			return nil
		},
	}
}

// ---- run command ----

func (a *app) runCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Execute a quill program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if watch {
				return a.watch(cmd.Context(), args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
			}
			_, err := engine.RunFile(args[0],
				engine.WithOutput(cmd.OutOrStdout()),
				engine.WithLogger(a.logger),
				engine.WithResolver(a.resolver()),
			)
			if err != nil {
				printError(cmd.ErrOrStderr(), err)
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rerun the program whenever the file changes")
	return cmd
}

// ---- repl command ----

func (a *app) replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.repl()
		},
	}
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(data), nil
}
