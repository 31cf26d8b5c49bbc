package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ginjaninja78/tax-hall-analytics/internal/converter"
	"github.com/ginjaninja78/tax-hall-analytics/internal/csvparser"
	"github.com/ginjaninja78/tax-hall-analytics/internal/export"
	"github.com/ginjaninja78/tax-hall-analytics/internal/report"
	"github.com/ginjaninja78/tax-hall-analytics/internal/validation"
	"github.com/ginjaninja78/tax-hall-analytics/pkg/utils"
)

// newConverter builds a converter from the loaded configuration.
func newConverter() (*converter.Converter, error) {
	headers, err := appConfig.HeaderTable()
	if err != nil {
		return nil, err
	}
	labels, err := appConfig.Labels()
	if err != nil {
		return nil, err
	}
	return converter.New(converter.Options{
		Headers: headers,
		Labels:  labels,
		CSV:     csvparser.Settings{Delimiter: appConfig.CSVDelimiter},
		Logger:  logger,
	}), nil
}

// newGenerator builds the report generator from the loaded configuration.
func newGenerator() (*report.Anthropic, error) {
	return report.NewAnthropic(report.AnthropicConfig{
		APIKey:    appConfig.LLM.APIKey,
		Model:     appConfig.LLM.Model,
		MaxTokens: appConfig.LLM.MaxTokens,
		BaseURL:   appConfig.LLM.BaseURL,
		Logger:    logger,
	})
}

// analyzeFile reads a ledger from disk and runs the pipeline on it.
func analyzeFile(conv *converter.Converter, path string) (*converter.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	a, err := conv.Run(data, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to analyse %s: %w", filepath.Base(path), err)
	}
	return a, nil
}

// writeExport writes the analysis to outDir and returns the file path.
func writeExport(a *converter.Analysis, inputPath string, format export.Format, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	name := utils.GenerateOutputFileName(appConfig.OutputNameFormat, map[string]string{
		"original": utils.OriginalName(inputPath),
		"uuid":     a.ID.String(),
	}, format.Extension())
	outPath := filepath.Join(outDir, name)

	file, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if err := export.Write(file, a, format); err != nil {
		file.Close()
		os.Remove(outPath)
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close output file: %w", err)
	}
	return outPath, nil
}

// writeReport generates the report for a and saves it next to the exports.
func writeReport(ctx context.Context, gen report.Generator, a *converter.Analysis, inputPath, outDir string) (string, error) {
	text, err := gen.Generate(ctx, a.Summary)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := utils.GenerateOutputFileName(appConfig.OutputNameFormat, map[string]string{
		"original": utils.OriginalName(inputPath) + "_report",
		"uuid":     a.ID.String(),
	}, ".md")
	outPath := filepath.Join(outDir, name)
	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return outPath, nil
}

// printOverview prints the headline figures of an analysis.
func printOverview(w io.Writer, a *converter.Analysis) {
	fmt.Fprintf(w, "Source:           %s (%s", a.Source, a.Format)
	if a.Sheet != "" {
		fmt.Fprintf(w, ", sheet %s", a.Sheet)
	}
	fmt.Fprintf(w, ")\n")
	fmt.Fprintf(w, "Header row:       %d", a.HeaderRow+1)
	if !a.HeaderFound {
		fmt.Fprintf(w, " (assumed)")
	}
	fmt.Fprintln(w)

	for _, d := range a.Diagnostics {
		fmt.Fprintf(w, "Note:             %s\n", d)
	}

	if a.Empty() {
		fmt.Fprintln(w, report.NoDataMessage)
		return
	}

	s := a.Summary
	fmt.Fprintf(w, "Total records:    %d\n", s.TotalRecords)
	fmt.Fprintf(w, "Success rate:     %.2f%%\n", s.SuccessRate)
	fmt.Fprintf(w, "Guidance rate:    %.2f%%\n", s.GuidanceRate)
	fmt.Fprintf(w, "Avg long visit:   %.1f min\n", s.AvgDurationLong)
	if len(s.TopBusinessTypes) > 0 {
		fmt.Fprintf(w, "Top business:     %s (%d)\n", s.TopBusinessTypes[0].Name, s.TopBusinessTypes[0].Count)
	}

	warnings, infos := validation.CountBySeverity(a.Issues)
	if warnings+infos > 0 {
		fmt.Fprintf(w, "Irregularities:   %d warning(s), %d note(s)\n", warnings, infos)
	}
}

// printUsage prints the token usage of the last report call.
func printUsage(w io.Writer, u report.Usage) {
	fmt.Fprintf(w, "Report tokens:    %d in / %d out\n", u.InputTokens, u.OutputTokens)
}
