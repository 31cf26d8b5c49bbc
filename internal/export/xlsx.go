package export

import (
	"fmt"
	"io"

	"github.com/ginjaninja78/tax-hall-analytics/internal/converter"
	"github.com/ginjaninja78/tax-hall-analytics/internal/types"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetOverview     = "概览"
	SheetBusiness     = "业务类型"
	SheetReasons      = "进厅原因"
	SheetOperators    = "受理人"
	SheetSubjects     = "主体类型"
	SheetAuthorities  = "税务机关"
	SheetCrossSubject = "主体业务"
)

// WriteWorkbook writes the summary as an xlsx workbook, one sheet per list.
func WriteWorkbook(w io.Writer, a *converter.Analysis) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	s := a.Summary
	sheets := []struct {
		name    string
		headers []string
		rows    [][]interface{}
	}{
		{SheetOverview, []string{"指标", "数值"}, [][]interface{}{
			{"分析编号", a.ID.String()},
			{"来源文件", a.Source},
			{"总业务量", s.TotalRecords},
			{"业务办成率(%)", s.SuccessRate},
			{"征纳互动引导率(%)", s.GuidanceRate},
			{"长耗时业务平均时长(分钟)", s.AvgDurationLong},
		}},
		{SheetBusiness, []string{"业务类型", "笔数"}, countRows(s.TopBusinessTypes)},
		{SheetReasons, []string{"进厅原因", "笔数"}, countRows(s.TopReasons)},
		{SheetOperators, []string{"受理人", "笔数", "办成率(%)"}, operatorRows(s.OperatorStats)},
		{SheetSubjects, []string{"课征主体登记类型", "笔数"}, valueRows(s.SubjectTypeDist)},
		{SheetAuthorities, []string{"主管税务机关", "笔数"}, valueRows(s.TaxAuthorityDist)},
		{SheetCrossSubject, []string{"课征主体登记类型", "业务类型", "笔数"}, crossRows(s.BusinessBySubject)},
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}

		for col, header := range sheet.headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			f.SetCellValue(sheet.name, cell, header)
			f.SetCellStyle(sheet.name, cell, cell, headerStyle)
		}
		for r, row := range sheet.rows {
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row: %w", err)
			}
		}

		last, _ := excelize.ColumnNumberToName(len(sheet.headers))
		f.SetColWidth(sheet.name, "A", last, 20)
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func countRows(items []types.NameCount) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, []interface{}{it.Name, it.Count})
	}
	return rows
}

func valueRows(items []types.NameValue) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, []interface{}{it.Name, it.Value})
	}
	return rows
}

func operatorRows(items []types.OperatorStat) [][]interface{} {
	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, []interface{}{it.Name, it.Count, it.SuccessRate})
	}
	return rows
}

func crossRows(items []types.SubjectBusiness) [][]interface{} {
	rows := make([][]interface{}, 0)
	for _, sb := range items {
		for _, it := range sb.Data {
			rows = append(rows, []interface{}{sb.Subject, it.Name, it.Count})
		}
	}
	return rows
}
