package converter

import (
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/ginjaninja78/tax-hall-analytics/internal/xlsxparser"
)

// Normalize applies the default rules to raw rows. Rows without a
// sequence number are dropped; every other irregularity is absorbed.
//
// PARAMETERS:
//   - raws: Raw rows in sheet order.
//
// RETURNS:
//   - Canonical records in the same order. Never nil.
func Normalize(raws []xlsxparser.RawRecord) []types.Record {
	records := make([]types.Record, 0, len(raws))
	for _, raw := range raws {
		if raw.ID == nil {
			continue
		}
		records = append(records, NormalizeRecord(raw, len(records)))
	}
	return records
}

// NormalizeRecord fills every field of one raw row. It is total: any
// RawRecord, including the zero value, yields a complete Record.
//
// PARAMETERS:
//   - raw: The raw row.
//   - index: Position among the kept rows; index+1 is the fallback id.
func NormalizeRecord(raw xlsxparser.RawRecord, index int) types.Record {
	id := index + 1
	if raw.ID != nil {
		if n, ok := xlsxparser.ParseID(*raw.ID); ok && n != 0 {
			id = n
		}
	}

	duration, _ := xlsxparser.ParseDuration(raw.Duration)

	businessType := orDefault(raw.BusinessType, "")
	if businessType == "" {
		businessType = orDefault(raw.BusinessTypeFallback, types.OtherType)
	}

	return types.Record{
		ID:            id,
		SubjectType:   orDefault(raw.SubjectType, types.Unknown),
		TaxAuthority:  orDefault(raw.TaxAuthority, types.Unknown),
		BusinessType:  businessType,
		Operator:      orDefault(raw.Operator, types.Unknown),
		SuccessStatus: parseYesNo(raw.SuccessStatus),
		Duration:      duration,
		VisitReason:   orDefault(raw.VisitReason, types.RoutineVisit),
		Guided:        parseYesNo(raw.Guided),
		Remarks:       orDefault(raw.Remarks, ""),
	}
}

// orDefault returns the cell text, or def when the cell is missing or blank.
// Non-blank text is kept as written.
func orDefault(cell *string, def string) string {
	if cell == nil || strings.TrimSpace(*cell) == "" {
		return def
	}
	return *cell
}

// parseYesNo treats a missing cell as the negative literal.
func parseYesNo(cell *string) types.YesNo {
	if cell == nil {
		return types.No
	}
	return types.ParseYesNo(*cell)
}
