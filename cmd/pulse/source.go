package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/spf13/cobra"

	"github.com/spektr-org/pulse/config"
	"github.com/spektr-org/pulse/helpers"
	"github.com/spektr-org/pulse/table"
)

// sourceFlags selects where the table comes from.
type sourceFlags struct {
	file       string
	sheet      string
	source     string
	dsn        string
	query      string
	database   string
	collection string
	limit      int64
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.file, "file", "", "Path to a .csv or .xlsx file")
	fs.StringVar(&f.sheet, "sheet", "", "Worksheet name for .xlsx (default: first sheet)")
	fs.StringVar(&f.source, "source", "", "Source type: file, postgres, mysql, mongo (default: file)")
	fs.StringVar(&f.dsn, "dsn", "", "Connection string (overrides config)")
	fs.StringVar(&f.query, "query", "", "SQL query for postgres/mysql")
	fs.StringVar(&f.database, "db", "", "Mongo database name")
	fs.StringVar(&f.collection, "collection", "", "Mongo collection name")
	fs.Int64Var(&f.limit, "limit", 0, "Max Mongo documents to read (0 = all)")
}

// name labels the table in reports.
func (f *sourceFlags) name() string {
	switch f.kind() {
	case "file", "csv", "xlsx":
		return filepath.Base(f.file)
	case "mongo", "mongodb":
		return f.database + "." + f.collection
	default:
		return f.kind() + " query"
	}
}

func (f *sourceFlags) kind() string {
	if f.source == "" {
		return "file"
	}
	return strings.ToLower(f.source)
}

// loadTable resolves the flags into a Table.
func loadTable(ctx context.Context, f *sourceFlags, cfg *config.Config) (table.Table, error) {
	switch f.kind() {
	case "file", "csv", "xlsx":
		if f.file == "" {
			return table.Table{}, fmt.Errorf("--file is required")
		}
		return helpers.LoadFile(f.file, f.sheet)

	case "postgres", "pg":
		dsn := firstNonEmpty(f.dsn, cfg.Sources.Postgres)
		if dsn == "" || f.query == "" {
			return table.Table{}, fmt.Errorf("--source postgres needs --dsn (or PULSE_POSTGRES_DSN) and --query")
		}
		conn, err := helpers.ConnectPostgres(ctx, dsn)
		if err != nil {
			return table.Table{}, err
		}
		defer conn.Close(ctx)
		log.Printf("🐘 Pulse: querying postgres")
		return helpers.LoadPostgres(ctx, conn, f.query)

	case "mysql":
		dsn := firstNonEmpty(f.dsn, cfg.Sources.MySQL)
		if dsn == "" || f.query == "" {
			return table.Table{}, fmt.Errorf("--source mysql needs --dsn (or PULSE_MYSQL_DSN) and --query")
		}
		db, err := sql.Open("mysql", dsn)
		if err != nil {
			return table.Table{}, fmt.Errorf("failed to open mysql: %w", err)
		}
		defer db.Close()
		log.Printf("🐬 Pulse: querying mysql")
		return helpers.LoadSQL(ctx, db, f.query)

	case "mongo", "mongodb":
		uri := firstNonEmpty(f.dsn, cfg.Sources.Mongo)
		if uri == "" || f.database == "" || f.collection == "" {
			return table.Table{}, fmt.Errorf("--source mongo needs --dsn (or PULSE_MONGO_URI), --db and --collection")
		}
		client, err := helpers.ConnectMongo(ctx, uri)
		if err != nil {
			return table.Table{}, err
		}
		defer client.Disconnect(ctx)
		log.Printf("🍃 Pulse: reading %s.%s", f.database, f.collection)
		return helpers.LoadMongo(ctx, client.Database(f.database).Collection(f.collection), nil, f.limit)

	default:
		return table.Table{}, fmt.Errorf("unknown --source %q", f.source)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
