// =============================================================================
// Tax Hall Analytics - Label Transformation Engine
// =============================================================================
//
// Hall staff type category labels by hand, so the same business often shows
// up under several spellings ("社保缴费", "社保费缴纳 ", "社保费缴纳（个人）").
// Label rules rewrite category fields of the canonical records before
// aggregation so that those spellings count as one label.
//
// TRANSFORMATION TYPES:
//   - trim                 : Remove leading and trailing whitespace
//   - normalize_whitespace : Collapse runs of whitespace to a single space
//   - fold_width           : Fold full-width letters and digits to half-width
//   - replace              : Replace substring Old with Value
//   - regex_replace        : Replace matches of Pattern with Value
//   - lookup               : Replace the whole label using LookupTable
//   - lookup_with_default  : As lookup, Value for labels not in the table
//
// A rule that produces a blank label restores the field's default label.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/ginjaninja78/tax-hall-analytics/internal/xlsxparser"
	"golang.org/x/text/width"
)

// =============================================================================
// RULE DEFINITIONS
// =============================================================================

// LabelRule lists the actions applied to one category field.
type LabelRule struct {
	// Field is a field name as declared by the xlsxparser Field constants,
	// e.g. "businessType".
	Field string `yaml:"field"`

	// Actions are applied in order.
	Actions []LabelAction `yaml:"actions"`
}

// LabelAction is a single transformation.
type LabelAction struct {
	Type        string            `yaml:"type"`
	Old         string            `yaml:"old,omitempty"`
	Pattern     string            `yaml:"pattern,omitempty"`
	Value       string            `yaml:"value,omitempty"`
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// labelField binds a category field to its record accessor and default.
type labelField struct {
	get func(*types.Record) *string
	def string
}

var labelFields = map[xlsxparser.Field]labelField{
	xlsxparser.FieldSubjectType:  {func(r *types.Record) *string { return &r.SubjectType }, types.Unknown},
	xlsxparser.FieldTaxAuthority: {func(r *types.Record) *string { return &r.TaxAuthority }, types.Unknown},
	xlsxparser.FieldBusinessType: {func(r *types.Record) *string { return &r.BusinessType }, types.OtherType},
	xlsxparser.FieldOperator:     {func(r *types.Record) *string { return &r.Operator }, types.Unknown},
	xlsxparser.FieldVisitReason:  {func(r *types.Record) *string { return &r.VisitReason }, types.RoutineVisit},
	xlsxparser.FieldRemarks:      {func(r *types.Record) *string { return &r.Remarks }, ""},
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// compiledAction is a validated LabelAction.
type compiledAction struct {
	LabelAction
	re *regexp.Regexp
}

type compiledRule struct {
	field   labelField
	actions []compiledAction
}

// Transformer applies label rules to canonical records. The zero value and
// a nil *Transformer apply nothing.
type Transformer struct {
	rules []compiledRule
}

// NewTransformer validates the rules and compiles their patterns.
//
// RETURNS:
//   - The transformer.
//   - An error naming the first unknown field, unknown action type or
//     invalid pattern.
func NewTransformer(rules []LabelRule) (*Transformer, error) {
	t := &Transformer{}
	for i, rule := range rules {
		field, ok := labelFields[xlsxparser.Field(rule.Field)]
		if !ok {
			return nil, fmt.Errorf("label rule %d: field %q cannot be rewritten", i+1, rule.Field)
		}

		compiled := compiledRule{field: field}
		for _, action := range rule.Actions {
			ca := compiledAction{LabelAction: action}
			switch action.Type {
			case "trim", "normalize_whitespace", "fold_width", "lookup", "lookup_with_default":
			case "replace":
				if action.Old == "" {
					return nil, fmt.Errorf("label rule %d: replace needs old", i+1)
				}
			case "regex_replace":
				re, err := regexp.Compile(action.Pattern)
				if err != nil {
					return nil, fmt.Errorf("label rule %d: invalid pattern: %w", i+1, err)
				}
				ca.re = re
			default:
				return nil, fmt.Errorf("label rule %d: unknown action %q", i+1, action.Type)
			}
			compiled.actions = append(compiled.actions, ca)
		}
		t.rules = append(t.rules, compiled)
	}
	return t, nil
}

// Apply rewrites the records in place and returns how many labels changed.
func (t *Transformer) Apply(records []types.Record) int {
	if t == nil || len(t.rules) == 0 {
		return 0
	}

	changed := 0
	for i := range records {
		for _, rule := range t.rules {
			label := rule.field.get(&records[i])
			before := *label

			value := before
			for _, action := range rule.actions {
				value = action.apply(value)
			}
			if strings.TrimSpace(value) == "" {
				value = rule.field.def
			}

			if value != before {
				*label = value
				changed++
			}
		}
	}
	return changed
}

// apply runs one action on a label.
func (a compiledAction) apply(value string) string {
	switch a.Type {
	case "trim":
		return strings.TrimSpace(value)
	case "normalize_whitespace":
		return strings.TrimSpace(whitespaceRun.ReplaceAllString(value, " "))
	case "fold_width":
		return width.Fold.String(value)
	case "replace":
		return strings.ReplaceAll(value, a.Old, a.Value)
	case "regex_replace":
		return a.re.ReplaceAllString(value, a.Value)
	case "lookup":
		if replacement, ok := a.LookupTable[strings.TrimSpace(value)]; ok {
			return replacement
		}
		return value
	case "lookup_with_default":
		if replacement, ok := a.LookupTable[strings.TrimSpace(value)]; ok {
			return replacement
		}
		return a.Value
	}
	return value
}
