// =============================================================================
// Tax Hall Analytics - Row Inspection
// =============================================================================
//
// This module inspects raw ledger rows and reports irregularities that the
// converter will absorb through its default rules. Nothing here rejects data
// or stops processing: the output is a list of diagnostics for the operator
// who maintains the ledger.
//
// ISSUE KINDS:
//   - missing_column  : a recognised column is absent from the header row
//   - missing_id      : the row has no sequence number and is dropped
//   - duration_text   : a duration was read out of free text ("25分钟")
//   - duration_nan    : duration text holds no number and counts as 0
//   - yes_no_text     : a 是/否 column holds other text and counts as 否
//   - blank_category  : a category cell is blank and gets a placeholder
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/ginjaninja78/tax-hall-analytics/internal/xlsxparser"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Issue kinds.
const (
	KindMissingColumn = "missing_column"
	KindMissingID     = "missing_id"
	KindDurationText  = "duration_text"
	KindDurationNaN   = "duration_nan"
	KindYesNoText     = "yes_no_text"
	KindBlankCategory = "blank_category"
)

// Issue is a single recovered irregularity.
type Issue struct {
	// Severity is "warning" when data was lost or guessed, "info" otherwise.
	Severity string `json:"severity" yaml:"severity"`

	// Kind is one of the Kind* constants.
	Kind string `json:"kind" yaml:"kind"`

	// Row is the 1-based sheet row; 0 for sheet-level issues.
	Row int `json:"row" yaml:"row"`

	// Field is the affected field name.
	Field string `json:"field" yaml:"field"`

	// Value is the offending cell text, if any.
	Value string `json:"value,omitempty" yaml:"value,omitempty"`

	// Message is a human-readable description.
	Message string `json:"message" yaml:"message"`
}

// String formats the issue for logs and CLI output.
func (i Issue) String() string {
	if i.Row > 0 {
		return fmt.Sprintf("[%s] row %d, field '%s': %s", strings.ToUpper(i.Severity), i.Row, i.Field, i.Message)
	}
	return fmt.Sprintf("[%s] field '%s': %s", strings.ToUpper(i.Severity), i.Field, i.Message)
}

// =============================================================================
// INSPECTION
// =============================================================================

// categoryFields are checked for blank cells.
var categoryFields = []xlsxparser.Field{
	xlsxparser.FieldSubjectType,
	xlsxparser.FieldTaxAuthority,
	xlsxparser.FieldOperator,
	xlsxparser.FieldVisitReason,
}

// Inspect reports irregularities in the raw rows. Missing columns are
// reported once; per-row issues are skipped for columns that are missing
// entirely, since every row would repeat the same message.
//
// PARAMETERS:
//   - records: Raw rows as extracted below the header.
//   - cols: The resolved header columns.
//
// RETURNS:
//   - Issues in sheet order, sheet-level issues first.
func Inspect(records []xlsxparser.RawRecord, cols xlsxparser.Columns) []Issue {
	issues := make([]Issue, 0)

	for _, field := range []xlsxparser.Field{
		xlsxparser.FieldID,
		xlsxparser.FieldSubjectType,
		xlsxparser.FieldTaxAuthority,
		xlsxparser.FieldOperator,
		xlsxparser.FieldSuccessStatus,
		xlsxparser.FieldDuration,
		xlsxparser.FieldVisitReason,
		xlsxparser.FieldGuided,
	} {
		if _, ok := cols[field]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Kind:     KindMissingColumn,
				Field:    string(field),
				Message:  "column not found in header row",
			})
		}
	}
	_, hasPrimary := cols[xlsxparser.FieldBusinessType]
	_, hasFallback := cols[xlsxparser.FieldBusinessTypeFallback]
	if !hasPrimary && !hasFallback {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Kind:     KindMissingColumn,
			Field:    string(xlsxparser.FieldBusinessType),
			Message:  "column not found in header row",
		})
	}

	for _, rec := range records {
		issues = append(issues, InspectRecord(rec, cols)...)
	}

	return issues
}

// InspectRecord reports irregularities of a single raw row.
func InspectRecord(rec xlsxparser.RawRecord, cols xlsxparser.Columns) []Issue {
	var issues []Issue

	if rec.ID == nil {
		return append(issues, Issue{
			Severity: SeverityWarning,
			Kind:     KindMissingID,
			Row:      rec.Row,
			Field:    string(xlsxparser.FieldID),
			Message:  "row has no sequence number and is skipped",
		})
	}

	switch _, kind := xlsxparser.ParseDuration(rec.Duration); kind {
	case xlsxparser.DurationText:
		issues = append(issues, Issue{
			Severity: SeverityInfo,
			Kind:     KindDurationText,
			Row:      rec.Row,
			Field:    string(xlsxparser.FieldDuration),
			Value:    *rec.Duration,
			Message:  "duration read from text",
		})
	case xlsxparser.DurationUnparsed:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Kind:     KindDurationNaN,
			Row:      rec.Row,
			Field:    string(xlsxparser.FieldDuration),
			Value:    *rec.Duration,
			Message:  "duration text has no number, counted as 0",
		})
	}

	yesNo := []struct {
		field xlsxparser.Field
		cell  *string
	}{
		{xlsxparser.FieldSuccessStatus, rec.SuccessStatus},
		{xlsxparser.FieldGuided, rec.Guided},
	}
	for _, yn := range yesNo {
		if yn.cell == nil {
			continue
		}
		text := strings.TrimSpace(*yn.cell)
		if text != string(types.Yes) && text != string(types.No) {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Kind:     KindYesNoText,
				Row:      rec.Row,
				Field:    string(yn.field),
				Value:    *yn.cell,
				Message:  fmt.Sprintf("expected %s or %s, counted as %s", types.Yes, types.No, types.No),
			})
		}
	}

	for _, field := range categoryFields {
		if _, ok := cols[field]; !ok {
			continue
		}
		if categoryCell(rec, field) == nil {
			issues = append(issues, Issue{
				Severity: SeverityInfo,
				Kind:     KindBlankCategory,
				Row:      rec.Row,
				Field:    string(field),
				Message:  "blank cell replaced by placeholder",
			})
		}
	}

	return issues
}

func categoryCell(rec xlsxparser.RawRecord, field xlsxparser.Field) *string {
	switch field {
	case xlsxparser.FieldSubjectType:
		return rec.SubjectType
	case xlsxparser.FieldTaxAuthority:
		return rec.TaxAuthority
	case xlsxparser.FieldOperator:
		return rec.Operator
	case xlsxparser.FieldVisitReason:
		return rec.VisitReason
	}
	return nil
}

// =============================================================================
// FORMATTING
// =============================================================================

// FormatIssues formats issues for display or logging.
func FormatIssues(issues []Issue) string {
	if len(issues) == 0 {
		return "No irregularities found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d irregularit(ies):\n\n", len(issues)))
	for i, issue := range issues {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue.String()))
	}
	return builder.String()
}

// CountBySeverity tallies issues per severity.
func CountBySeverity(issues []Issue) (warnings, infos int) {
	for _, issue := range issues {
		if issue.Severity == SeverityWarning {
			warnings++
		} else {
			infos++
		}
	}
	return warnings, infos
}
