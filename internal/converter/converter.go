// =============================================================================
// Tax Hall Analytics - Converter Module
// =============================================================================
//
// This module contains the ingestion pipeline for one uploaded ledger, from
// raw bytes to the aggregate summary.
//
// PIPELINE:
//   1. Decode the bytes into a raw grid (xlsx first sheet, or CSV)
//   2. Detect the header row within the first 20 rows
//   3. Extract raw rows below the header
//   4. Inspect raw rows for irregularities (diagnostics only)
//   5. Fill defaults to produce canonical records
//   6. Apply the configured label rules
//   7. Aggregate the records into a Summary
//
// ERROR POLICY:
//   Only step 1 can fail, with ErrDecode. A missing header row falls back to
//   row 1 and is recorded as a diagnostic. Zero valid rows is a valid
//   result: Analysis.Empty() reports it.
//
// =============================================================================

package converter

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/tax-hall-analytics/internal/analysis"
	"github.com/ginjaninja78/tax-hall-analytics/internal/csvparser"
	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/ginjaninja78/tax-hall-analytics/internal/validation"
	"github.com/ginjaninja78/tax-hall-analytics/internal/xlsxparser"
	"github.com/google/uuid"
)

// ErrDecode is returned when the uploaded bytes cannot be read as a
// spreadsheet at all.
var ErrDecode = errors.New("could not read file as a spreadsheet")

// Format names an input encoding.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var zipMagic = []byte("PK\x03\x04")

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// Parsed is the Record Normalizer's output for one file.
type Parsed struct {
	// Format is the decoded input format.
	Format Format

	// Sheet is the sheet name for xlsx input, empty for CSV.
	Sheet string

	// HeaderRow is the 0-based index of the header row used.
	HeaderRow int

	// HeaderFound is false when no row qualified and row 0 was assumed.
	HeaderFound bool

	// Records are the canonical records in sheet order. Never nil.
	Records []types.Record

	// Issues are the recovered row-level irregularities.
	Issues []validation.Issue

	// Diagnostics are sheet-level notes such as a missing header row.
	Diagnostics []string
}

// Analysis is the full result for one upload. ID identifies this result so
// callers can discard a stale one when a newer upload has superseded it.
type Analysis struct {
	ID          uuid.UUID          `json:"id" yaml:"id"`
	Source      string             `json:"source" yaml:"source"`
	Format      Format             `json:"format" yaml:"format"`
	Sheet       string             `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	HeaderRow   int                `json:"headerRow" yaml:"headerRow"`
	HeaderFound bool               `json:"headerFound" yaml:"headerFound"`
	CreatedAt   time.Time          `json:"createdAt" yaml:"createdAt"`
	Summary     types.Summary      `json:"summary" yaml:"summary"`
	Diagnostics []string           `json:"diagnostics" yaml:"diagnostics"`
	Issues      []validation.Issue `json:"issues,omitempty" yaml:"issues,omitempty"`

	// Records stay in memory for the caller but are never serialised:
	// exports and the report generator see only the Summary.
	Records []types.Record `json:"-" yaml:"-"`
}

// Empty reports whether no valid rows were recognised.
func (a *Analysis) Empty() bool {
	return a.Summary.TotalRecords == 0
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Options configures a Converter.
type Options struct {
	// Headers is the header token table. Nil means the built-in table.
	Headers xlsxparser.HeaderTable

	// CSV controls CSV decoding.
	CSV csvparser.Settings

	// Labels rewrites category labels before aggregation. Nil applies
	// nothing.
	Labels *Transformer

	// Logger receives diagnostics. Nil means slog.Default().
	Logger *slog.Logger
}

// Converter runs the ingestion pipeline. It holds no per-upload state and
// can be reused.
type Converter struct {
	headers xlsxparser.HeaderTable
	csv     csvparser.Settings
	labels  *Transformer
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a new Converter instance.
func New(opts Options) *Converter {
	headers := opts.Headers
	if headers == nil {
		headers = xlsxparser.DefaultHeaderTable()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{
		headers: headers,
		csv:     opts.CSV,
		labels:  opts.Labels,
		logger:  logger,
		now:     time.Now,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// Parse decodes and normalises one file.
//
// PARAMETERS:
//   - data: The raw file bytes.
//   - source: The file name, used for format detection and logs. May be empty.
//
// RETURNS:
//   - The parsed records and diagnostics.
//   - An error wrapping ErrDecode if the bytes are unreadable.
func (c *Converter) Parse(data []byte, source string) (*Parsed, error) {
	format := DetectFormat(data, source)

	var (
		grid  types.Grid
		sheet string
		err   error
	)
	switch format {
	case FormatCSV:
		grid, err = csvparser.Decode(data, c.csv)
	default:
		grid, sheet, err = xlsxparser.Decode(data)
	}
	if err != nil {
		c.logger.Error("decode failed", slog.String("source", source), slog.String("format", string(format)), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	parsed := &Parsed{
		Format:      format,
		Sheet:       sheet,
		Diagnostics: []string{},
	}

	headerRow, found := c.headers.DetectHeader(grid)
	parsed.HeaderRow = headerRow
	parsed.HeaderFound = found
	if !found {
		msg := fmt.Sprintf("header row not found in first %d rows, assuming row 1", xlsxparser.ScanWindow)
		parsed.Diagnostics = append(parsed.Diagnostics, msg)
		c.logger.Warn("header row not detected", slog.String("source", source), slog.Int("scan_window", xlsxparser.ScanWindow))
	} else {
		c.logger.Debug("header row detected", slog.String("source", source), slog.Int("row", headerRow+1))
	}

	raws, cols := xlsxparser.Extract(grid, headerRow, c.headers)
	parsed.Issues = validation.Inspect(raws, cols)
	parsed.Records = Normalize(raws)
	if n := c.labels.Apply(parsed.Records); n > 0 {
		c.logger.Debug("labels rewritten", slog.String("source", source), slog.Int("count", n))
	}

	warnings, infos := validation.CountBySeverity(parsed.Issues)
	c.logger.Info("ledger parsed",
		slog.String("source", source),
		slog.String("format", string(format)),
		slog.Int("rows", len(raws)),
		slog.Int("records", len(parsed.Records)),
		slog.Int("warnings", warnings),
		slog.Int("infos", infos),
	)

	return parsed, nil
}

// Run executes the whole pipeline for one upload.
//
// PARAMETERS:
//   - data: The raw file bytes.
//   - source: The file name. May be empty.
//
// RETURNS:
//   - The analysis, including an empty Summary when no rows were recognised.
//   - An error wrapping ErrDecode if the bytes are unreadable.
func (c *Converter) Run(data []byte, source string) (*Analysis, error) {
	parsed, err := c.Parse(data, source)
	if err != nil {
		return nil, err
	}

	return &Analysis{
		ID:          uuid.New(),
		Source:      source,
		Format:      parsed.Format,
		Sheet:       parsed.Sheet,
		HeaderRow:   parsed.HeaderRow,
		HeaderFound: parsed.HeaderFound,
		CreatedAt:   c.now(),
		Summary:     analysis.Summarize(parsed.Records),
		Diagnostics: parsed.Diagnostics,
		Issues:      parsed.Issues,
		Records:     parsed.Records,
	}, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// DetectFormat picks the decoder: a .csv file name selects CSV, everything
// else (including unnamed uploads) is treated as a workbook so that corrupt
// binaries fail as decode errors instead of parsing as garbage CSV.
func DetectFormat(data []byte, source string) Format {
	if bytes.HasPrefix(data, zipMagic) {
		return FormatXLSX
	}
	if strings.EqualFold(filepath.Ext(source), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}
