// Package table holds the in-memory tabular dataset every analysis reads from.
//
// A Table is a plain value: ordered column names plus rows keyed by column
// name. Loaders in helpers/ build one; schema/ and engine/ only read it.
package table

import "strings"

// Row is one record: column name → raw cell value.
// Values are string, float64, int variants, time.Time or nil.
type Row map[string]any

// Table is an ordered set of columns and the rows that carry them.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// New builds a Table from a header and positional rows.
// Short rows are padded with nil; extra cells are dropped.
func New(columns []string, rows [][]any) Table {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = strings.TrimSpace(c)
	}
	t := Table{Columns: cols, Rows: make([]Row, 0, len(rows))}
	for _, r := range rows {
		row := make(Row, len(cols))
		for i, c := range cols {
			if i < len(r) {
				row[c] = r[i]
			} else {
				row[c] = nil
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// IsEmpty reports whether the table has no columns or no rows.
func (t Table) IsEmpty() bool { return len(t.Columns) == 0 || len(t.Rows) == 0 }

// Value returns the raw cell at row i, column col (nil when out of range).
func (t Table) Value(i int, col string) any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	return t.Rows[i][col]
}

// ColumnIndex returns the declaration index of col, or -1.
func (t Table) ColumnIndex(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Select returns a table holding the rows at indices, in that order.
// Rows are shared with t, not copied.
func (t Table) Select(indices []int) Table {
	out := Table{Columns: t.Columns, Rows: make([]Row, 0, len(indices))}
	for _, i := range indices {
		if i >= 0 && i < len(t.Rows) {
			out.Rows = append(out.Rows, t.Rows[i])
		}
	}
	return out
}

// NonNullValues returns up to limit non-null values of col in row order.
// limit <= 0 means the whole column.
func (t Table) NonNullValues(col string, limit int) []any {
	var out []any
	for _, r := range t.Rows {
		v := r[col]
		if IsNull(v) {
			continue
		}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// NullCount counts null cells in col.
func (t Table) NullCount(col string) int {
	n := 0
	for _, r := range t.Rows {
		if IsNull(r[col]) {
			n++
		}
	}
	return n
}
