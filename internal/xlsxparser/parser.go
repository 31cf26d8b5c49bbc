// =============================================================================
// Tax Hall Analytics - Workbook Parser
// =============================================================================
//
// This module decodes an uploaded workbook into a raw Grid and extracts
// candidate rows below the detected header row.
//
// PARSING STEPS:
//   1. Open the workbook from memory (no temp files are written)
//   2. Read the first sheet only, as raw cell text
//   3. Detect the header row (see headers.go)
//   4. Resolve header cells to fields
//   5. Turn every non-blank row below the header into a RawRecord
//
// Only step 1 and 2 can fail, and only when the bytes are not a readable
// workbook. Everything after that degrades instead of failing.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// DECODING
// =============================================================================

// Decode reads the first sheet of an xlsx workbook into a Grid.
//
// PARAMETERS:
//   - data: The raw workbook bytes as received from the upload.
//
// RETURNS:
//   - The cell grid of the first sheet.
//   - The name of that sheet.
//   - An error if the bytes are not a readable workbook.
func Decode(data []byte) (types.Grid, string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", fmt.Errorf("workbook has no sheets")
	}
	sheetName := sheets[0]

	// RawCellValue keeps numbers as stored rather than as displayed, so a
	// duration formatted "0.0" still reads as 25 and not "25.0".
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, "", fmt.Errorf("failed to read rows: %w", err)
	}

	return types.Grid(rows), sheetName, nil
}

// =============================================================================
// RAW RECORDS
// =============================================================================

// RawRecord is one candidate row with every field optional. A nil field
// means the column is missing or the cell is blank.
type RawRecord struct {
	// Row is the 1-based sheet row number, for diagnostics.
	Row int

	ID                   *string
	SubjectType          *string
	TaxAuthority         *string
	BusinessType         *string
	BusinessTypeFallback *string
	Operator             *string
	SuccessStatus        *string
	Duration             *string
	VisitReason          *string
	Guided               *string
	Remarks              *string
}

// Extract turns the rows below headerRow into raw records. Fully blank
// rows are skipped.
//
// PARAMETERS:
//   - grid: The decoded sheet.
//   - headerRow: The 0-based header row index.
//   - table: The header token table used to resolve columns.
//
// RETURNS:
//   - The raw records in sheet order.
//   - The resolved columns, so callers can report missing ones.
func Extract(grid types.Grid, headerRow int, table HeaderTable) ([]RawRecord, Columns) {
	if headerRow < 0 || headerRow >= len(grid) {
		return []RawRecord{}, Columns{}
	}

	cols := table.ResolveColumns(grid[headerRow])
	records := make([]RawRecord, 0, len(grid)-headerRow-1)

	for i := headerRow + 1; i < len(grid); i++ {
		if isRowEmpty(grid[i]) {
			continue
		}

		get := func(field Field) *string {
			col, ok := cols[field]
			if !ok {
				return nil
			}
			value := grid.Cell(i, col)
			if strings.TrimSpace(value) == "" {
				return nil
			}
			return &value
		}

		records = append(records, RawRecord{
			Row:                  i + 1,
			ID:                   get(FieldID),
			SubjectType:          get(FieldSubjectType),
			TaxAuthority:         get(FieldTaxAuthority),
			BusinessType:         get(FieldBusinessType),
			BusinessTypeFallback: get(FieldBusinessTypeFallback),
			Operator:             get(FieldOperator),
			SuccessStatus:        get(FieldSuccessStatus),
			Duration:             get(FieldDuration),
			VisitReason:          get(FieldVisitReason),
			Guided:               get(FieldGuided),
			Remarks:              get(FieldRemarks),
		})
	}

	return records, cols
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
