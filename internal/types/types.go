// =============================================================================
// Tax Hall Analytics - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser / csvparser (Grid)
//   - converter              (Record, YesNo)
//   - analysis               (Summary)
//   - report / export        (Summary)
//
// =============================================================================

package types

import "strings"

// =============================================================================
// RAW GRID
// =============================================================================

// Grid is the raw cell matrix of the first sheet of a workbook.
// Each row is a slice of cell text; rows may have different lengths and
// trailing empty cells are not guaranteed to be present.
type Grid [][]string

// Cell returns the cell at (row, col), or "" when it lies outside the grid.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// =============================================================================
// TWO-VALUED DOMAIN
// =============================================================================

// YesNo is the closed two-valued domain used for completion and guidance
// status. Only Yes and No are valid values.
type YesNo string

const (
	// Yes is the positive literal as written in the ledger.
	Yes YesNo = "是"

	// No is the negative literal. Absence in the ledger means No.
	No YesNo = "否"
)

// ParseYesNo trims the text and compares it against the positive literal.
// Anything else, including blank text, is No.
func ParseYesNo(s string) YesNo {
	if strings.TrimSpace(s) == string(Yes) {
		return Yes
	}
	return No
}

// Bool reports whether v is Yes.
func (v YesNo) Bool() bool { return v == Yes }

func (v YesNo) String() string { return string(v) }

// =============================================================================
// CANONICAL RECORD
// =============================================================================

// Sentinel values substituted for blank fields.
const (
	Unknown      = "未知"
	OtherType    = "其他"
	RoutineVisit = "常规办理"
)

// Record is one normalised service-counter transaction. Every field is
// populated; Duration is never negative.
type Record struct {
	ID            int     `json:"id" yaml:"id"`
	SubjectType   string  `json:"subjectType" yaml:"subjectType"`
	TaxAuthority  string  `json:"taxAuthority" yaml:"taxAuthority"`
	BusinessType  string  `json:"businessType" yaml:"businessType"`
	Operator      string  `json:"operator" yaml:"operator"`
	SuccessStatus YesNo   `json:"successStatus" yaml:"successStatus"`
	Duration      float64 `json:"duration" yaml:"duration"`
	VisitReason   string  `json:"visitReason" yaml:"visitReason"`
	Guided        YesNo   `json:"guided" yaml:"guided"`
	Remarks       string  `json:"remarks" yaml:"remarks"`
}

// =============================================================================
// AGGREGATE SUMMARY
// =============================================================================

// NameCount is one entry of a frequency ranking.
type NameCount struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

// NameValue is a distribution entry. It carries the same data as NameCount
// but keeps the field name the chart layer expects.
type NameValue struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

// OperatorStat is the workload of one operator.
type OperatorStat struct {
	Name        string  `json:"name" yaml:"name"`
	Count       int     `json:"count" yaml:"count"`
	SuccessRate float64 `json:"successRate" yaml:"successRate"`
}

// SubjectBusiness is the business-type ranking confined to one subject type.
type SubjectBusiness struct {
	Subject string      `json:"subject" yaml:"subject"`
	Data    []NameCount `json:"data" yaml:"data"`
}

// Summary is the aggregate computed from a full record set. It is built once
// and must be treated as read-only by consumers. A Summary with
// TotalRecords == 0 is the valid "no data" state.
type Summary struct {
	TotalRecords      int               `json:"totalRecords" yaml:"totalRecords"`
	SuccessRate       float64           `json:"successRate" yaml:"successRate"`
	AvgDurationLong   float64           `json:"avgDurationLong" yaml:"avgDurationLong"`
	TopBusinessTypes  []NameCount       `json:"topBusinessTypes" yaml:"topBusinessTypes"`
	TopReasons        []NameCount       `json:"topReasons" yaml:"topReasons"`
	GuidanceRate      float64           `json:"guidanceRate" yaml:"guidanceRate"`
	OperatorStats     []OperatorStat    `json:"operatorStats" yaml:"operatorStats"`
	SubjectTypeDist   []NameValue       `json:"subjectTypeDist" yaml:"subjectTypeDist"`
	TaxAuthorityDist  []NameValue       `json:"taxAuthorityDist" yaml:"taxAuthorityDist"`
	BusinessBySubject []SubjectBusiness `json:"businessBySubject" yaml:"businessBySubject"`
}

// EmptySummary returns the identity summary: zero scalars and empty,
// non-nil lists so serialised output shows [] rather than null.
func EmptySummary() Summary {
	return Summary{
		TopBusinessTypes:  []NameCount{},
		TopReasons:        []NameCount{},
		OperatorStats:     []OperatorStat{},
		SubjectTypeDist:   []NameValue{},
		TaxAuthorityDist:  []NameValue{},
		BusinessBySubject: []SubjectBusiness{},
	}
}
