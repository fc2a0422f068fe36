package helpers

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/pulse/table"
)

// ParseXLSX reads one worksheet of an .xlsx workbook into a Table.
// An empty sheet name selects the first sheet. Rows are streamed, so large
// workbooks are not materialised cell-by-cell in excelize's model.
func ParseXLSX(r io.Reader, sheet string) (table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return table.Table{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return table.Table{}, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return table.Table{}, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	defer rows.Close()

	var headers []string
	var data [][]any
	for rows.Next() {
		cols, err := rows.Columns()
		if err != nil {
			return table.Table{}, fmt.Errorf("failed to read row in sheet %q: %w", sheet, err)
		}
		if headers == nil {
			if isBlankRow(cols) {
				continue // leading blank rows before the header
			}
			headers = dedupeHeaders(cols)
			continue
		}
		if isBlankRow(cols) {
			continue
		}
		cells := make([]any, len(cols))
		for i, v := range cols {
			cells[i] = v
		}
		data = append(data, cells)
	}
	if err := rows.Error(); err != nil {
		return table.Table{}, fmt.Errorf("failed to iterate sheet %q: %w", sheet, err)
	}
	if headers == nil {
		return table.Table{}, ErrNoHeader
	}
	return table.New(headers, data), nil
}
