// =============================================================================
// Tax Hall Analytics - Process Command
// =============================================================================
//
// This file defines the 'process' command, the batch mode of the CLI.
//
// COMMAND USAGE:
//   hallstat process [flags]
//
// FLAGS:
//   --dry-run : Analyse without writing exports or archiving
//   --dir     : Input directory (default watch.dir)
//
// PROCESSING PIPELINE:
//   1. Discover ledgers in the input directory
//   2. For each ledger (concurrently):
//      a. Decode and normalise the records
//      b. Aggregate the summary
//      c. Write the export
//      d. Archive the ledger
//   3. Write the processing summary log
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/ginjaninja78/tax-hall-analytics/internal/converter"
	"github.com/ginjaninja78/tax-hall-analytics/internal/export"
	"github.com/ginjaninja78/tax-hall-analytics/internal/validation"
	"github.com/ginjaninja78/tax-hall-analytics/pkg/utils"
	"github.com/spf13/cobra"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun analyses without writing output files.
var dryRun bool

// processDir overrides the input directory.
var processDir string

// =============================================================================
// PROCESS COMMAND DEFINITION
// =============================================================================

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Analyse every ledger in the input directory",
	Long: `The process command scans the input directory for ledgers and analyses
them concurrently. Each ledger is processed independently: an unreadable
file does not affect the others.

On success:
  - The summary export is placed in the output directory
  - The ledger is moved to archive_dir, when configured

On error:
  - The ledger remains in the input directory
  - The failure is listed in the processing summary log`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess(cmd)
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Analyse without writing exports or archiving")
	processCmd.Flags().StringVar(&processDir, "dir", "", "Input directory (default watch.dir)")
}

// fileResult is the outcome of one ledger.
type fileResult struct {
	path     string
	analysis *converter.Analysis
	output   string
	archive  string
	elapsed  time.Duration
	err      error
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	summary := utils.ProcessingSummary{StartTime: time.Now()}

	format, err := export.ParseFormat(appConfig.OutputFormat)
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(firstNonEmpty(processDir, appConfig.Watch.Dir), appConfig.OutputDir, appConfig.ArchiveDir)
	fm.UseTimestampSubdirs = appConfig.ArchiveDated
	if dryRun {
		fm.ArchiveDir = ""
	} else if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: DISCOVER INPUT FILES
	// =========================================================================

	inputFiles, err := fm.DiscoverInputFiles(appConfig.Watch.Extensions)
	if err != nil {
		return fmt.Errorf("failed to discover input files: %w", err)
	}
	if len(inputFiles) == 0 {
		fmt.Fprintf(out, "No ledgers found in %s.\n", fm.InputDir)
		return nil
	}
	logger.Info("batch started", slog.String("dir", fm.InputDir), slog.Int("files", len(inputFiles)), slog.Bool("dry_run", dryRun))

	conv, err := newConverter()
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: PROCESS FILES CONCURRENTLY
	// =========================================================================

	var wg sync.WaitGroup
	results := make(chan fileResult, len(inputFiles))

	for _, file := range inputFiles {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			results <- processFile(conv, fm, path, format)
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 3: COLLECT RESULTS
	// =========================================================================

	for result := range results {
		summary.TotalFiles++
		name := filepath.Base(result.path)

		if result.err != nil {
			summary.FailedFiles++
			summary.FailedFilesList = append(summary.FailedFilesList, utils.FailedFileInfo{
				InputFile:    result.path,
				ErrorMessage: result.err.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", name, result.err)
			continue
		}

		a := result.analysis
		warnings, _ := validation.CountBySeverity(a.Issues)
		summary.SuccessfulFiles++
		summary.TotalRecords += a.Summary.TotalRecords
		summary.Warnings += warnings
		if a.Empty() {
			summary.EmptyFiles++
		}
		summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
			InputFile:   result.path,
			OutputFile:  result.output,
			ArchivePath: result.archive,
			Records:     a.Summary.TotalRecords,
			Warnings:    warnings,
			ProcessTime: result.elapsed,
		})

		switch {
		case dryRun:
			fmt.Fprintf(out, "  ✓ %s: %d record(s)\n", name, a.Summary.TotalRecords)
		case a.Empty():
			fmt.Fprintf(out, "  ○ %s -> %s (no valid records)\n", name, filepath.Base(result.output))
		default:
			fmt.Fprintf(out, "  ✓ %s -> %s\n", name, filepath.Base(result.output))
		}
	}

	// =========================================================================
	// STEP 4: PRINT AND WRITE SUMMARY
	// =========================================================================

	summary.EndTime = time.Now()
	fmt.Fprintln(out, "\n=== Processing Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", summary.TotalFiles)
	fmt.Fprintf(out, "Successful:      %d\n", summary.SuccessfulFiles)
	fmt.Fprintf(out, "Without data:    %d\n", summary.EmptyFiles)
	fmt.Fprintf(out, "Errors:          %d\n", summary.FailedFiles)
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(summary.StartTime))

	if !dryRun {
		logPath, err := utils.WriteSummaryLog(summary, fm.OutputDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Summary log:     %s\n", logPath)
	}

	logger.Info("batch finished",
		slog.Int("files", summary.TotalFiles),
		slog.Int("failed", summary.FailedFiles),
		slog.Duration("elapsed", summary.EndTime.Sub(summary.StartTime)),
	)
	return nil
}

// processFile runs one ledger through the pipeline.
func processFile(conv *converter.Converter, fm *utils.FileManager, path string, format export.Format) fileResult {
	start := time.Now()
	result := fileResult{path: path}

	a, err := analyzeFile(conv, path)
	if err != nil {
		result.err = err
		return result
	}
	result.analysis = a

	if !dryRun {
		if result.output, err = writeExport(a, path, format, fm.OutputDir); err != nil {
			result.err = err
			return result
		}
		if result.archive, err = fm.ArchiveInputFile(path); err != nil {
			logger.Warn("archive failed", slog.String("path", path), slog.Any("error", err))
			result.archive = ""
		}
	}

	result.elapsed = time.Since(start)
	return result
}
