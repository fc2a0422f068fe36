package helpers

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spektr-org/pulse/table"
)

// ============================================================================
// CSV HELPER — Parses CSV data into a table.Table
// ============================================================================
// Consumer reads the CSV from wherever it lives (file, upload, S3).
// Cells stay strings; schema/ and engine/ interpret them later.
// ============================================================================

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("no header row")

// ParseCSV parses CSV bytes into a Table. The first row is the header.
// A UTF-8 BOM is stripped; ragged rows are padded or truncated to the
// header width; malformed rows are skipped.
func ParseCSV(data []byte) (table.Table, error) {
	return ReadCSV(bytes.NewReader(data))
}

// ReadCSV is ParseCSV over a reader.
func ReadCSV(r io.Reader) (table.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	// Read header
	headers, err := reader.Read()
	if err == io.EOF {
		return table.Table{}, ErrNoHeader
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	headers = dedupeHeaders(headers)

	// Read rows
	var rows [][]any
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // skip malformed rows
		}
		if isBlankRow(row) {
			continue
		}
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		rows = append(rows, cells)
	}

	return table.New(headers, rows), nil
}

// dedupeHeaders names blank headers and suffixes repeats so every column
// has a unique key: ["a", "", "a"] → ["a", "column_2", "a_2"].
func dedupeHeaders(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int)
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("column_%d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s_%d", h, n)
		}
		out[i] = h
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
