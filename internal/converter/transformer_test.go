package converter

import (
	"testing"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformerActions(t *testing.T) {
	tests := []struct {
		name   string
		action LabelAction
		in     string
		want   string
	}{
		{"trim", LabelAction{Type: "trim"}, "  社保费缴纳 ", "社保费缴纳"},
		{"normalize whitespace", LabelAction{Type: "normalize_whitespace"}, " 社保  费\t缴纳 ", "社保 费 缴纳"},
		{"fold width", LabelAction{Type: "fold_width"}, "ＣＡ证书", "CA证书"},
		{"replace", LabelAction{Type: "replace", Old: "（个人）", Value: ""}, "社保费缴纳（个人）", "社保费缴纳"},
		{"regex replace", LabelAction{Type: "regex_replace", Pattern: `\d+号窗口`, Value: "窗口"}, "3号窗口", "窗口"},
		{"lookup hit", LabelAction{Type: "lookup", LookupTable: map[string]string{"社保缴费": "社保费缴纳"}}, "社保缴费", "社保费缴纳"},
		{"lookup miss", LabelAction{Type: "lookup", LookupTable: map[string]string{"社保缴费": "社保费缴纳"}}, "发票领用", "发票领用"},
		{"lookup default", LabelAction{Type: "lookup_with_default", LookupTable: map[string]string{"A": "甲"}, Value: "其他业务"}, "B", "其他业务"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTransformer([]LabelRule{{Field: "businessType", Actions: []LabelAction{tt.action}}})
			require.NoError(t, err)

			records := []types.Record{{BusinessType: tt.in}}
			tr.Apply(records)
			assert.Equal(t, tt.want, records[0].BusinessType)
		})
	}
}

func TestTransformerBlankRestoresDefault(t *testing.T) {
	tr, err := NewTransformer([]LabelRule{
		{Field: "visitReason", Actions: []LabelAction{{Type: "replace", Old: "无", Value: ""}}},
		{Field: "operator", Actions: []LabelAction{{Type: "lookup_with_default", Value: " "}}},
	})
	require.NoError(t, err)

	records := []types.Record{{VisitReason: "无", Operator: "张三"}}
	changed := tr.Apply(records)

	assert.Equal(t, 2, changed)
	assert.Equal(t, types.RoutineVisit, records[0].VisitReason)
	assert.Equal(t, types.Unknown, records[0].Operator)
}

func TestTransformerChainsActions(t *testing.T) {
	tr, err := NewTransformer([]LabelRule{{
		Field: "subjectType",
		Actions: []LabelAction{
			{Type: "trim"},
			{Type: "lookup", LookupTable: map[string]string{"个体户": "个体工商户"}},
		},
	}})
	require.NoError(t, err)

	records := []types.Record{{SubjectType: " 个体户 "}, {SubjectType: "单位"}}
	assert.Equal(t, 1, tr.Apply(records))
	assert.Equal(t, "个体工商户", records[0].SubjectType)
	assert.Equal(t, "单位", records[1].SubjectType)
}

func TestTransformerNoRules(t *testing.T) {
	records := []types.Record{{BusinessType: " x "}}

	var nilTransformer *Transformer
	assert.Equal(t, 0, nilTransformer.Apply(records))

	tr, err := NewTransformer(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, tr.Apply(records))
	assert.Equal(t, " x ", records[0].BusinessType)
}

func TestNewTransformerErrors(t *testing.T) {
	tests := []struct {
		name string
		rule LabelRule
	}{
		{"unknown field", LabelRule{Field: "window", Actions: []LabelAction{{Type: "trim"}}}},
		{"non-category field", LabelRule{Field: "duration", Actions: []LabelAction{{Type: "trim"}}}},
		{"unknown action", LabelRule{Field: "operator", Actions: []LabelAction{{Type: "uppercase"}}}},
		{"replace without old", LabelRule{Field: "operator", Actions: []LabelAction{{Type: "replace"}}}},
		{"bad pattern", LabelRule{Field: "operator", Actions: []LabelAction{{Type: "regex_replace", Pattern: "("}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransformer([]LabelRule{tt.rule})
			assert.Error(t, err)
		})
	}
}
