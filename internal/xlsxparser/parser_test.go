package xlsxparser

import (
	"testing"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"月度工作台账"},
		{},
		{"序号", "受理人", "办理时长"},
		{1, "张三", 25},
		{2, "李四", 12.5},
	})

	grid, sheet, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Sheet1", sheet)
	require.Len(t, grid, 5)
	assert.Equal(t, "月度工作台账", grid.Cell(0, 0))
	assert.Empty(t, grid[1])
	assert.Equal(t, "25", grid.Cell(3, 2))
	assert.Equal(t, "12.5", grid.Cell(4, 2))
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("序号,受理人\n1,张三\n")},
		{"empty", nil},
		{"truncated zip", []byte("PK\x03\x04garbage")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestExtract(t *testing.T) {
	grid := types.Grid{
		{"月度工作台账"},
		{"序号", "课征主体登记类型", "业务类型", "受理人", "办理时长"},
		{"1", "个人", "社保费缴纳", "张三", "25"},
		{},
		{"", "  ", "", "", ""},
		{"2", "", "  ", "李四"},
		{"", "单位", "发票领用", "王五", "5"},
	}

	records, cols := Extract(grid, 1, DefaultHeaderTable())
	require.Len(t, records, 3)

	assert.Equal(t, 3, cols[FieldOperator])
	assert.Equal(t, 2, cols[FieldBusinessTypeFallback])

	first := records[0]
	assert.Equal(t, 3, first.Row)
	require.NotNil(t, first.ID)
	assert.Equal(t, "1", *first.ID)
	require.NotNil(t, first.Duration)
	assert.Equal(t, "25", *first.Duration)
	assert.Nil(t, first.BusinessType)
	require.NotNil(t, first.BusinessTypeFallback)
	assert.Equal(t, "社保费缴纳", *first.BusinessTypeFallback)
	assert.Nil(t, first.Remarks)

	// Whitespace-only and short rows read as absent cells.
	second := records[1]
	assert.Equal(t, 6, second.Row)
	assert.Nil(t, second.SubjectType)
	assert.Nil(t, second.BusinessTypeFallback)
	assert.Nil(t, second.Duration)

	// A row without a sequence number is still extracted; dropping it is
	// the normaliser's decision.
	assert.Nil(t, records[2].ID)
	assert.Equal(t, 7, records[2].Row)
}

func TestExtractOutOfRange(t *testing.T) {
	grid := types.Grid{{"序号", "受理人"}}

	records, cols := Extract(grid, 5, DefaultHeaderTable())
	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Empty(t, cols)

	records, _ = Extract(grid, 0, DefaultHeaderTable())
	assert.Empty(t, records)
}
