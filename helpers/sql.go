package helpers

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spektr-org/pulse/table"
)

// LoadSQL runs query on any database/sql handle and collects the result set
// into a Table. The driver is chosen by the caller's sql.Open; the CLI
// registers MySQL.
func LoadSQL(ctx context.Context, db *sql.DB, query string, args ...any) (table.Table, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return table.Table{}, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return table.Table{}, fmt.Errorf("failed to read result columns: %w", err)
	}

	var data [][]any
	for rows.Next() {
		cells := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return table.Table{}, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range cells {
			cells[i] = sqlValue(v)
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return table.New(dedupeHeaders(cols), data), nil
}

// sqlValue normalises driver values. MySQL hands text and DECIMAL columns
// back as []byte.
func sqlValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
