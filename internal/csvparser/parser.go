// =============================================================================
// Tax Hall Analytics - CSV Parser Module
// =============================================================================
//
// Some halls export the monthly ledger as CSV instead of xlsx. This module
// decodes such an export into the same raw Grid the workbook parser
// produces, so header detection and field coercion behave identically.
//
// FEATURES:
//   - UTF-8 (with or without BOM) and GB18030/GBK input
//   - Configurable delimiter (comma, tab, pipe, semicolon)
//   - Ragged rows and lazy quotes tolerated
//
// Every CSV cell is text; numeric durations are recovered by the converter.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Settings controls how a CSV export is read.
type Settings struct {
	// Delimiter is the field separator. Accepts a single character or one of
	// "tab", "pipe", "semicolon". Empty means comma.
	Delimiter string
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Decode reads a CSV export into a Grid.
//
// PARAMETERS:
//   - data: The raw file bytes.
//   - settings: Delimiter configuration.
//
// RETURNS:
//   - The cell grid.
//   - An error if the bytes are not parseable CSV.
func Decode(data []byte, settings Settings) (types.Grid, error) {
	var reader io.Reader
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		reader = bytes.NewReader(data[len(utf8BOM):])
	case utf8.Valid(data):
		reader = bytes.NewReader(data)
	default:
		// Excel on Chinese-locale Windows saves CSV in GBK; GB18030 is a
		// superset of it.
		reader = transform.NewReader(bytes.NewReader(data), simplifiedchinese.GB18030.NewDecoder())
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	rows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return types.Grid(rows), nil
}

// Delimiter resolves a delimiter setting to the field separator. It
// rejects anything encoding/csv cannot split on: more than one character,
// quotes, line breaks, NUL and invalid runes.
func Delimiter(setting string) (rune, error) {
	switch setting {
	case "":
		return ',', nil
	case "\\t", "\t", "tab", "TAB":
		return '\t', nil
	case "|", "pipe", "PIPE":
		return '|', nil
	case ";", "semicolon":
		return ';', nil
	}

	r, size := utf8.DecodeRuneInString(setting)
	if size != len(setting) {
		return 0, fmt.Errorf("delimiter %q must be a single character", setting)
	}
	switch {
	case r == utf8.RuneError, !utf8.ValidRune(r):
		return 0, fmt.Errorf("delimiter %q is not valid UTF-8", setting)
	case r == 0, r == '"', r == '\r', r == '\n':
		return 0, fmt.Errorf("delimiter %q cannot separate CSV fields", setting)
	}
	return r, nil
}

// configureReader configures the CSV reader based on the settings. An
// unusable delimiter falls back to comma.
func configureReader(reader *csv.Reader, settings Settings) {
	if comma, err := Delimiter(settings.Delimiter); err == nil {
		reader.Comma = comma
	} else {
		reader.Comma = ','
	}

	// Ledgers are hand-edited: rows differ in length and quotes are sloppy.
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
}
