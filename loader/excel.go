package loader

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/studykit/corpus/schema"
)

// loadExcel loads an .xlsx workbook, one page per sheet. Rows become
// tab-separated lines so tabular notes stay line-oriented for chunking.
func (l *Loader) loadExcel(ctx context.Context, path string) (*Result, error) {
	data, err := l.download(ctx, path)
	if err != nil {
		return nil, err
	}
	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer func() { _ = workbook.Close() }()

	sheets := workbook.GetSheetList()
	result := &Result{FileType: schema.FileTypeSpreadsheet, PagesTotal: len(sheets)}
	for i, sheet := range sheets {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			warning := fmt.Sprintf("sheet %q: %v", sheet, err)
			l.warnf("%s: %s", path, warning)
			result.Warnings = append(result.Warnings, warning)
			result.PagesSkipped++
			continue
		}
		text := sheetText(sheet, rows)
		if text == "" {
			continue
		}
		result.Pages = append(result.Pages, RawPage{Text: text, Page: i + 1, Source: path})
	}
	return result, nil
}

func sheetText(name string, rows [][]string) string {
	var buf strings.Builder
	for _, row := range rows {
		line := strings.TrimSpace(strings.Join(row, "\t"))
		if line == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	if buf.Len() == 0 {
		return ""
	}
	return "Sheet: " + name + "\n" + buf.String()
}
