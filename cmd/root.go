// =============================================================================
// Tax Hall Analytics - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (hallstat)
//   ├── analyzeCmd (hallstat analyze FILE)
//   ├── reportCmd  (hallstat report FILE)
//   ├── processCmd (hallstat process)
//   ├── watchCmd   (hallstat watch)
//   └── versionCmd (hallstat version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading the configuration before any subcommand runs
//   3. Installing the structured logger
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/config"
	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// appConfig is the loaded configuration, set by PersistentPreRunE.
var appConfig *config.MainConfig

// logger is the application logger, set by PersistentPreRunE.
var logger = slog.Default()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hallstat",
	Short: "Tax Hall Analytics - Aggregate tax service hall ledgers",
	Long: `hallstat ingests the monthly work ledger of a tax service hall (an Excel
workbook or CSV export), recognises its header row, normalises every visit
record and aggregates them into the statistics behind the hall dashboard.

Key Features:
  - Header row detection within the first 20 rows, with configurable aliases
  - Tolerant parsing: blank cells and text durations never reject a row
  - Summary export as JSON, YAML, XML or a multi-sheet XLSX workbook
  - Optional management report written by an LLM from the summary only
  - Batch processing and drop-directory watching

Example Usage:
  hallstat analyze 台账.xlsx                 # Export the summary as JSON
  hallstat analyze 台账.xlsx --format xlsx   # Export as a workbook
  hallstat report 台账.xlsx                  # Print the management report
  hallstat process                           # Analyse every ledger in watch.dir
  hallstat watch                             # Analyse ledgers as they arrive`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		appConfig = cfg

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger = newLogger(cmd.ErrOrStderr(), level, cfg.LogFormat)
		slog.SetDefault(logger)
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// newLogger builds the slog logger. Logs go to w (stderr) so that stdout
// carries only command output.
func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
