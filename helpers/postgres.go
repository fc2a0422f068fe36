package helpers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/spektr-org/pulse/table"
)

// PgQuerier is satisfied by *pgx.Conn, *pgxpool.Pool and pgx.Tx.
type PgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// ConnectPostgres opens a single pgx connection.
func ConnectPostgres(ctx context.Context, dsn string) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return conn, nil
}

// LoadPostgres runs query and collects the result set into a Table.
func LoadPostgres(ctx context.Context, q PgQuerier, query string, args ...any) (table.Table, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return table.Table{}, fmt.Errorf("query failed: %w", err)
	}
	return collectPgRows(rows)
}

func collectPgRows(rows pgx.Rows) (table.Table, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, fd := range fields {
		cols[i] = fd.Name
	}

	var data [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return table.Table{}, fmt.Errorf("failed to decode row: %w", err)
		}
		cells := make([]any, len(vals))
		for i, v := range vals {
			cells[i] = pgValue(v)
		}
		data = append(data, cells)
	}
	if err := rows.Err(); err != nil {
		return table.Table{}, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return table.New(dedupeHeaders(cols), data), nil
}

// pgValue maps pgx-decoded values onto the cell types table/ understands.
func pgValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Date:
		if !x.Valid {
			return nil
		}
		return x.Time
	case pgtype.Timestamp:
		if !x.Valid {
			return nil
		}
		return x.Time
	case pgtype.Timestamptz:
		if !x.Valid {
			return nil
		}
		return x.Time
	case []byte:
		return string(x)
	}
	return v
}
