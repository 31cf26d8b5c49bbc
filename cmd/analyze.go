// =============================================================================
// Tax Hall Analytics - Analyze Command
// =============================================================================
//
// This file defines the 'analyze' command, which runs the ingestion pipeline
// on a single ledger and writes the summary export.
//
// COMMAND USAGE:
//   hallstat analyze FILE [flags]
//
// FLAGS:
//   --format : json, yaml, xml or xlsx (default from config)
//   --out    : Output directory (default from config)
//   --issues : Print the row-level irregularities
//   --report : Also generate the management report
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/tax-hall-analytics/internal/converter"
	"github.com/ginjaninja78/tax-hall-analytics/internal/export"
	"github.com/ginjaninja78/tax-hall-analytics/internal/report"
	"github.com/ginjaninja78/tax-hall-analytics/internal/validation"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	analyzeFormat string
	analyzeOut    string
	analyzeIssues bool
	analyzeReport bool
)

// =============================================================================
// ANALYZE COMMAND DEFINITION
// =============================================================================

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Analyse one ledger and export its summary",
	Long: `The analyze command reads one ledger (.xlsx, or .csv), detects its header
row, normalises the records and writes the aggregate summary to the output
directory.

A ledger without any valid record is not an error: an empty summary is
written and a notice is printed. Only an unreadable file fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "Output format: json, yaml, xml or xlsx")
	analyzeCmd.Flags().StringVarP(&analyzeOut, "out", "o", "", "Output directory")
	analyzeCmd.Flags().BoolVar(&analyzeIssues, "issues", false, "Print row-level irregularities")
	analyzeCmd.Flags().BoolVar(&analyzeReport, "report", false, "Generate the management report")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runAnalyze(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	format, err := export.ParseFormat(firstNonEmpty(analyzeFormat, appConfig.OutputFormat))
	if err != nil {
		return err
	}
	outDir := firstNonEmpty(analyzeOut, appConfig.OutputDir)

	// Fail on missing credentials before doing any work.
	var gen *report.Anthropic
	if analyzeReport {
		if gen, err = newGenerator(); err != nil {
			return err
		}
	}

	conv, err := newConverter()
	if err != nil {
		return err
	}

	a, err := analyzeFile(conv, path)
	if err != nil {
		if errors.Is(err, converter.ErrDecode) {
			fmt.Fprintln(cmd.ErrOrStderr(), "The file could not be read as a spreadsheet. Check that it is an .xlsx workbook or a CSV export.")
		}
		return err
	}

	printOverview(out, a)

	if analyzeIssues {
		fmt.Fprintln(out)
		fmt.Fprint(out, validation.FormatIssues(a.Issues))
	}

	outPath, err := writeExport(a, path, format, outDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Summary written:  %s\n", outPath)

	if gen != nil {
		reportPath, err := writeReport(cmd.Context(), gen, a, path, outDir)
		if err != nil {
			// The export is already on disk; a failed report only gets a notice.
			fmt.Fprintln(out)
			fmt.Fprintln(out, report.FailureNotice(err))
			return nil
		}
		fmt.Fprintf(out, "Report written:   %s\n", reportPath)
		printUsage(out, gen.LastUsage())
	}

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
