package converter

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/ginjaninja78/tax-hall-analytics/internal/xlsxparser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
)

var ledgerHeader = []interface{}{
	"序号", "课征主体登记类型", "主管税务机关", "业务类型1", "受理人",
	"是否办成", "办理时长（超20分钟业务）", "进厅原因", "是否引导", "备注",
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i := range rows {
		if len(rows[i]) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	return New(Options{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
}

func TestRunWithBanner(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"XX区税务局办税服务厅月度工作台账"},
		{},
		ledgerHeader,
		{1, "个人", "第一税务所", "社保费缴纳", "张三", "是", 25, "不会操作", "是", ""},
		{2, "单位", "第二税务所", "发票领用", "李四", "否", "30分钟", "", "否", "资料不全"},
		{3, "", "", "", "", "", "", "", "", ""},
		{"", "个人", "第一税务所", "社保费缴纳", "张三", "是", 5, "咨询", "是", ""},
	})

	a, err := newTestConverter(t).Run(data, "台账.xlsx")
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, a.Format)
	assert.Equal(t, "Sheet1", a.Sheet)
	assert.Equal(t, 2, a.HeaderRow)
	assert.True(t, a.HeaderFound)
	assert.Empty(t, a.Diagnostics)
	assert.False(t, a.Empty())

	require.Len(t, a.Records, 3)
	assert.Equal(t, types.Record{
		ID: 1, SubjectType: "个人", TaxAuthority: "第一税务所", BusinessType: "社保费缴纳",
		Operator: "张三", SuccessStatus: types.Yes, Duration: 25, VisitReason: "不会操作",
		Guided: types.Yes, Remarks: "",
	}, a.Records[0])

	second := a.Records[1]
	assert.Equal(t, 30.0, second.Duration)
	assert.Equal(t, types.RoutineVisit, second.VisitReason)
	assert.Equal(t, "资料不全", second.Remarks)

	third := a.Records[2]
	assert.Equal(t, 3, third.ID)
	assert.Equal(t, types.Unknown, third.SubjectType)
	assert.Equal(t, types.Unknown, third.TaxAuthority)
	assert.Equal(t, types.OtherType, third.BusinessType)
	assert.Equal(t, types.Unknown, third.Operator)
	assert.Equal(t, types.No, third.SuccessStatus)
	assert.Equal(t, 0.0, third.Duration)

	s := a.Summary
	assert.Equal(t, 3, s.TotalRecords)
	assert.InDelta(t, 100.0/3, s.SuccessRate, 1e-9)
	assert.InDelta(t, 27.5, s.AvgDurationLong, 1e-9)
	assert.Equal(t, a.Summary.TopBusinessTypes[0], types.NameCount{Name: "社保费缴纳", Count: 1})
}

func TestRunDecodeError(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		source string
	}{
		{"random bytes", []byte{0x00, 0x01, 0x02, 0xff}, "ledger.xlsx"},
		{"broken zip", []byte("PK\x03\x04broken"), "ledger.xlsx"},
		{"no name", []byte("plain text"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newTestConverter(t).Run(tt.data, tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			assert.Nil(t, a)
		})
	}
}

func TestRunNoDataRows(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{ledgerHeader})

	a, err := newTestConverter(t).Run(data, "empty.xlsx")
	require.NoError(t, err)
	assert.True(t, a.Empty())
	assert.Equal(t, types.EmptySummary(), a.Summary)
	assert.NotNil(t, a.Records)
	assert.Empty(t, a.Records)
}

func TestRunHeaderNotFound(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"姓名", "金额"},
		{"张三", 100},
	})

	a, err := newTestConverter(t).Run(data, "other.xlsx")
	require.NoError(t, err)
	assert.False(t, a.HeaderFound)
	assert.Equal(t, 0, a.HeaderRow)
	require.Len(t, a.Diagnostics, 1)
	assert.Contains(t, a.Diagnostics[0], "header row not found")
	assert.True(t, a.Empty())
}

func TestRunIsDeterministic(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		ledgerHeader,
		{1, "个人", "一所", "社保费缴纳", "张三", "是", 25, "咨询", "是", ""},
		{2, "单位", "二所", "发票领用", "李四", "否", 10, "办理", "否", ""},
		{3, "个人", "一所", "发票领用", "张三", "是", 0, "咨询", "否", ""},
	})
	conv := newTestConverter(t)

	first, err := conv.Run(data, "a.xlsx")
	require.NoError(t, err)
	second, err := conv.Run(data, "a.xlsx")
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Records, second.Records)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRunCSV(t *testing.T) {
	csv := "序号,课征主体登记类型,业务类型,受理人,是否办成,办理时长\n" +
		"1,个人,社保费缴纳,张三,是,25分钟\n" +
		"2,单位,发票领用,李四,否,\n"

	t.Run("utf-8", func(t *testing.T) {
		a, err := newTestConverter(t).Run([]byte(csv), "ledger.csv")
		require.NoError(t, err)
		assert.Equal(t, FormatCSV, a.Format)
		assert.Empty(t, a.Sheet)
		assert.Equal(t, 2, a.Summary.TotalRecords)
		assert.Equal(t, 25.0, a.Summary.AvgDurationLong)
		assert.Equal(t, "社保费缴纳", a.Records[0].BusinessType)
	})

	t.Run("gb18030", func(t *testing.T) {
		encoded, err := simplifiedchinese.GB18030.NewEncoder().String(csv)
		require.NoError(t, err)

		a, err := newTestConverter(t).Run([]byte(encoded), "LEDGER.CSV")
		require.NoError(t, err)
		assert.Equal(t, "张三", a.Records[0].Operator)
	})
}

func TestRunWithAliases(t *testing.T) {
	headers, err := xlsxparser.DefaultHeaderTable().WithAliases(map[string][]string{"operator": {"经办人"}})
	require.NoError(t, err)

	data := buildWorkbook(t, [][]interface{}{
		{"序号", "经办人"},
		{1, "王五"},
	})

	a, err := New(Options{Headers: headers}).Run(data, "alias.xlsx")
	require.NoError(t, err)
	assert.True(t, a.HeaderFound)
	assert.Equal(t, "王五", a.Records[0].Operator)
}

func TestRunSecondaryBusinessColumnIgnored(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		{"序号", "业务类型1", "业务类型2", "受理人"},
		{1, "", "发票代开", "张三"},
		{2, "社保费缴纳", "发票代开", "李四"},
	})

	a, err := newTestConverter(t).Run(data, "two-business.xlsx")
	require.NoError(t, err)
	require.Len(t, a.Records, 2)
	assert.Equal(t, types.OtherType, a.Records[0].BusinessType)
	assert.Equal(t, "社保费缴纳", a.Records[1].BusinessType)
}

func TestRunIssues(t *testing.T) {
	data := buildWorkbook(t, [][]interface{}{
		ledgerHeader,
		{1, "个人", "一所", "社保费缴纳", "张三", "Y", "半小时", "咨询", "是", ""},
		{"", "个人", "一所", "社保费缴纳", "张三", "是", 5, "咨询", "是", ""},
	})

	a, err := newTestConverter(t).Run(data, "issues.xlsx")
	require.NoError(t, err)

	var got []string
	for _, issue := range a.Issues {
		got = append(got, issue.Kind)
	}
	assert.Equal(t, []string{"duration_nan", "yes_no_text", "missing_id"}, got)
	assert.Equal(t, 1, a.Summary.TotalRecords)
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatXLSX, DetectFormat([]byte("PK\x03\x04rest"), "ledger.csv"))
	assert.Equal(t, FormatCSV, DetectFormat([]byte("序号,受理人"), "ledger.csv"))
	assert.Equal(t, FormatCSV, DetectFormat([]byte("序号,受理人"), "ledger.CSV"))
	assert.Equal(t, FormatXLSX, DetectFormat([]byte("序号,受理人"), "ledger"))
	assert.Equal(t, FormatXLSX, DetectFormat(nil, ""))
}
