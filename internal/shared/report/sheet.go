package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Table 单工作表导出定义
type Table struct {
	Sheet   string
	Headers []string
	Widths  []float64
	Rows    [][]interface{}
	Summary string // 底部汇总说明，可为空
}

// BuildWorkbook 按表定义生成xlsx
func BuildWorkbook(t Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", t.Sheet); err != nil {
		return nil, err
	}

	// 表头样式: 加粗
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#E2EFDA"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range t.Headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(t.Sheet, cell, h)
		f.SetCellStyle(t.Sheet, cell, cell, headerStyle)
	}

	for r, values := range t.Rows {
		for c, v := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(t.Sheet, cell, v)
		}
	}

	if t.Summary != "" {
		summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		cell := fmt.Sprintf("A%d", len(t.Rows)+2)
		f.SetCellValue(t.Sheet, cell, t.Summary)
		f.SetCellStyle(t.Sheet, cell, cell, summaryStyle)
	}

	for i, w := range t.Widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(t.Sheet, col, col, w)
	}
	return f, nil
}
