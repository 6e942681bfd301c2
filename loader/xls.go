package loader

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/shakinm/xlsReader/xls"
	"github.com/shakinm/xlsReader/xls/structure"

	"github.com/studykit/corpus/schema"
)

// loadXLS loads a legacy .xls workbook, one page per sheet.
func (l *Loader) loadXLS(ctx context.Context, path string) (*Result, error) {
	data, err := l.download(ctx, path)
	if err != nil {
		return nil, err
	}
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	result := &Result{FileType: schema.FileTypeSpreadsheet, PagesTotal: workbook.GetNumberSheets()}
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		sheet, err := workbook.GetSheet(i)
		if err != nil || sheet == nil {
			warning := fmt.Sprintf("sheet %d: unreadable", i+1)
			l.warnf("%s: %s", path, warning)
			result.Warnings = append(result.Warnings, warning)
			result.PagesSkipped++
			continue
		}
		var rows [][]string
		for _, row := range sheet.GetRows() {
			rows = append(rows, xlsRowValues(row.GetCols()))
		}
		text := sheetText(sheet.GetName(), rows)
		if text == "" {
			continue
		}
		result.Pages = append(result.Pages, RawPage{Text: text, Page: i + 1, Source: path})
	}
	return result, nil
}

func xlsRowValues(cols []structure.CellData) []string {
	out := make([]string, 0, len(cols))
	for _, col := range cols {
		val := col.GetString()
		if val == "" {
			if num := col.GetFloat64(); num != 0 {
				val = strconv.FormatFloat(num, 'f', -1, 64)
			} else if in := col.GetInt64(); in != 0 {
				val = strconv.FormatInt(in, 10)
			}
		}
		out = append(out, val)
	}
	return out
}
