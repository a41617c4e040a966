// Package cmd provides the CLI commands for TickerFind.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quickfin/tickerfind/internal/logging"
	"github.com/quickfin/tickerfind/pkg/version"
)

var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the tickerfind CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tickerfind",
		Short: "Type-ahead security search with ticker auto-fill",
		Long: `TickerFind indexes a security catalog and serves debounced
type-ahead suggestions: search by company name, pick a match, and the
ticker symbol is filled in for you.

Run 'tickerfind index' to build the index, 'tickerfind serve' to start
the search API, and 'tickerfind form' for the interactive form.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("tickerfind version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.tickerfind/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFormCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// startLogging enables file logging; debug mode lowers the level.
func startLogging(_ *cobra.Command, _ []string) error {
	cfg := logging.DefaultConfig()
	cfg.WriteToStderr = false
	if debugMode {
		cfg.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(cfg)
	if err != nil {
		// Logging failures must not block the CLI
		slog.Warn("logging_setup_failed", slog.String("error", err.Error()))
		return nil
	}

	slog.SetDefault(logger)
	loggingCleanup = cleanup
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}
