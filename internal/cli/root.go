// Package cli wires the layername commands.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dgallion1/layername/internal/config"
	"github.com/dgallion1/layername/internal/llm"
	"github.com/dgallion1/layername/internal/pipeline"
	"github.com/spf13/cobra"
)

// openCompleter is replaced in tests.
var openCompleter pipeline.CompleterFactory = llm.Open

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "layername",
		Short: "Rename design layers with a language model",
		Long: `layername asks a language model for descriptive names for the layers of a
design document and writes them back.

Quick Start:
  layername serve                          Start the HTTP API
  layername rename screen.svg -o out.json  Rename one document from the shell
  layername settings set api_key sk-...    Remember a provider key`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newRenameCmd())
	root.AddCommand(newSettingsCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, nil))
}
