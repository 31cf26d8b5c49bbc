package cmd

import (
	"fmt"

	"github.com/ginjaninja78/tax-hall-analytics/internal/report"
	"github.com/spf13/cobra"
)

var reportSave bool

// reportCmd prints the management report for one ledger.
var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Generate the management report for one ledger",
	Long: `The report command analyses one ledger and asks the configured model for a
management report. Only the aggregate summary is sent, never individual
records. The API key is read from llm.api_key or ANTHROPIC_API_KEY.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := newGenerator()
		if err != nil {
			return err
		}
		conv, err := newConverter()
		if err != nil {
			return err
		}

		a, err := analyzeFile(conv, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if reportSave {
			path, err := writeReport(cmd.Context(), gen, a, args[0], appConfig.OutputDir)
			if err != nil {
				fmt.Fprintln(out, report.FailureNotice(err))
				return err
			}
			fmt.Fprintf(out, "Report written: %s\n", path)
			printUsage(out, gen.LastUsage())
			return nil
		}

		text, err := gen.Generate(cmd.Context(), a.Summary)
		if err != nil {
			fmt.Fprintln(out, report.FailureNotice(err))
			return err
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().BoolVar(&reportSave, "save", false, "Write the report to the output directory instead of stdout")
}
