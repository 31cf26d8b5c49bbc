// =============================================================================
// Tax Hall Analytics - Header Token Table
// =============================================================================
//
// Ledgers exported from different offices spell their column headers slightly
// differently ("业务类型1", "业务类型 1", "业务类型"), and are often preceded by
// banner or blank rows. Columns are therefore recognised by substring tokens
// rather than by exact header text.
//
// MATCHING RULE:
//   Both the header cell and the token are normalised (full-width folded to
//   narrow, whitespace removed, Unicode case-folded). A cell matches a field
//   when the normalised cell contains any of the field's normalised tokens.
//   The business-type fallback is the exception: it only takes a column whose
//   normalised header equals a token, so "业务类型2" is never read as "业务类型".
//
// HEADER ROW RULE:
//   Within the first ScanWindow rows, the first row that has an id cell AND
//   (an operator cell OR a business-type cell) is the header row.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// ScanWindow is the number of leading rows searched for the header row.
// Header banners deeper than this are not supported.
const ScanWindow = 20

// =============================================================================
// FIELDS
// =============================================================================

// Field identifies a ledger column understood by the normaliser.
type Field string

const (
	FieldID                   Field = "id"
	FieldSubjectType          Field = "subjectType"
	FieldTaxAuthority         Field = "taxAuthority"
	FieldBusinessType         Field = "businessType"
	FieldBusinessTypeFallback Field = "businessTypeFallback"
	FieldOperator             Field = "operator"
	FieldSuccessStatus        Field = "successStatus"
	FieldDuration             Field = "duration"
	FieldVisitReason          Field = "visitReason"
	FieldGuided               Field = "guided"
	FieldRemarks              Field = "remarks"
)

// allFields fixes the resolution order so column assignment is deterministic.
var allFields = []Field{
	FieldID,
	FieldSubjectType,
	FieldTaxAuthority,
	FieldBusinessType,
	FieldBusinessTypeFallback,
	FieldOperator,
	FieldSuccessStatus,
	FieldDuration,
	FieldVisitReason,
	FieldGuided,
	FieldRemarks,
}

// =============================================================================
// TOKEN TABLE
// =============================================================================

// HeaderTable maps each field to the substrings that identify its column.
type HeaderTable map[Field][]string

// DefaultHeaderTable returns the built-in token table.
func DefaultHeaderTable() HeaderTable {
	return HeaderTable{
		FieldID:                   {"序号"},
		FieldSubjectType:          {"课征主体"},
		FieldTaxAuthority:         {"主管税务机关"},
		FieldBusinessType:         {"业务类型1"},
		FieldBusinessTypeFallback: {"业务类型"},
		FieldOperator:             {"受理人"},
		FieldSuccessStatus:        {"是否办成"},
		FieldDuration:             {"办理时长"},
		FieldVisitReason:          {"进厅原因"},
		FieldGuided:               {"是否引导"},
		FieldRemarks:              {"备注"},
	}
}

// WithAliases returns a copy of the table with extra tokens appended.
// Keys of aliases are field names as declared by the Field constants.
//
// RETURNS:
//   - The extended table.
//   - An error naming the first unknown field (in sorted order).
func (t HeaderTable) WithAliases(aliases map[string][]string) (HeaderTable, error) {
	out := make(HeaderTable, len(t))
	for field, tokens := range t {
		out[field] = append([]string(nil), tokens...)
	}

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		field := Field(name)
		if !isKnownField(field) {
			return nil, fmt.Errorf("unknown header field %q", name)
		}
		for _, token := range aliases[name] {
			if NormalizeHeader(token) == "" {
				continue
			}
			out[field] = append(out[field], token)
		}
	}
	return out, nil
}

// exactFields are resolved by whole-header equality instead of substring.
var exactFields = map[Field]bool{
	FieldBusinessTypeFallback: true,
}

// Matches reports whether a header cell belongs to the given field.
func (t HeaderTable) Matches(field Field, cell string) bool {
	if exactFields[field] {
		return t.match(field, cell, func(cell, token string) bool { return cell == token })
	}
	return t.contains(field, cell)
}

// contains reports whether the normalised cell contains one of the field's
// tokens.
func (t HeaderTable) contains(field Field, cell string) bool {
	return t.match(field, cell, strings.Contains)
}

func (t HeaderTable) match(field Field, cell string, fn func(cell, token string) bool) bool {
	normalized := NormalizeHeader(cell)
	if normalized == "" {
		return false
	}
	for _, token := range t[field] {
		tok := NormalizeHeader(token)
		if tok != "" && fn(normalized, tok) {
			return true
		}
	}
	return false
}

func isKnownField(f Field) bool {
	for _, known := range allFields {
		if known == f {
			return true
		}
	}
	return false
}

// NormalizeHeader folds a header cell into its comparable form.
func NormalizeHeader(s string) string {
	s = width.Fold.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return cases.Fold().String(s)
}

// =============================================================================
// HEADER ROW DETECTION
// =============================================================================

// IsHeaderRow applies the header predicate to one row.
func (t HeaderTable) IsHeaderRow(row []string) bool {
	var hasID, hasOperator, hasBusiness bool
	for _, cell := range row {
		if t.Matches(FieldID, cell) {
			hasID = true
		}
		if t.Matches(FieldOperator, cell) {
			hasOperator = true
		}
		// Any business-type header qualifies the row, including "业务类型2".
		if t.Matches(FieldBusinessType, cell) || t.contains(FieldBusinessTypeFallback, cell) {
			hasBusiness = true
		}
	}
	return hasID && (hasOperator || hasBusiness)
}

// DetectHeader finds the header row within the scan window.
//
// RETURNS:
//   - The 0-based index of the header row; 0 when none qualifies.
//   - Whether a qualifying row was found.
func (t HeaderTable) DetectHeader(rows [][]string) (int, bool) {
	limit := len(rows)
	if limit > ScanWindow {
		limit = ScanWindow
	}
	for i := 0; i < limit; i++ {
		if t.IsHeaderRow(rows[i]) {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// COLUMN RESOLUTION
// =============================================================================

// Columns maps each field to its 0-based column index in the header row.
// Fields without a matching column are absent.
type Columns map[Field]int

// ResolveColumns assigns header cells to fields. The first matching cell
// wins, and a cell is never assigned to two fields, which keeps the
// business-type fallback from claiming the primary column.
func (t HeaderTable) ResolveColumns(header []string) Columns {
	cols := make(Columns)
	taken := make(map[int]bool)
	for _, field := range allFields {
		for i, cell := range header {
			if taken[i] || !t.Matches(field, cell) {
				continue
			}
			cols[field] = i
			taken[i] = true
			break
		}
	}
	return cols
}
