package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ginjaninja78/tax-hall-analytics/internal/export"
	"github.com/ginjaninja78/tax-hall-analytics/internal/report"
	"github.com/ginjaninja78/tax-hall-analytics/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchDir    string
	watchReport bool
)

// watchCmd analyses ledgers as they are dropped into a directory.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Analyse ledgers as they arrive in a directory",
	Long: `The watch command monitors a directory and analyses every ledger that is
created or replaced in it, writing the summary export to the output
directory.

When a newer ledger arrives while an older one is still being handled
(typically while its report is being generated), the older run is
cancelled: only the latest upload produces a report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := firstNonEmpty(watchDir, appConfig.Watch.Dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create watch directory: %w", err)
		}

		format, err := export.ParseFormat(appConfig.OutputFormat)
		if err != nil {
			return err
		}
		conv, err := newConverter()
		if err != nil {
			return err
		}

		var gen report.Generator
		if watchReport || appConfig.Watch.Report {
			g, err := newGenerator()
			if err != nil {
				return err
			}
			gen = g
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := watch.New(watch.Config{
			Dir:        dir,
			Extensions: appConfig.Watch.Extensions,
			Logger:     logger,
		}, func(ctx context.Context, path string) error {
			a, err := analyzeFile(conv, path)
			if err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			outPath, err := writeExport(a, path, format, appConfig.OutputDir)
			if err != nil {
				return err
			}
			logger.Info("summary written", slog.String("path", outPath), slog.Int("records", a.Summary.TotalRecords))

			if gen == nil || a.Empty() {
				return nil
			}
			reportPath, err := writeReport(ctx, gen, a, path, appConfig.OutputDir)
			if err != nil {
				return err
			}
			logger.Info("report written", slog.String("path", reportPath))
			return nil
		})

		fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", dir)
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchDir, "dir", "", "Directory to watch (default watch.dir)")
	watchCmd.Flags().BoolVar(&watchReport, "report", false, "Generate a report for every ledger")
}
