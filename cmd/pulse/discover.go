package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pulse/config"
	"github.com/spektr-org/pulse/engine"
	"github.com/spektr-org/pulse/schema"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Print detected column roles and canonical field bindings",
	Args:  cobra.NoArgs,
	RunE:  runDiscover,
}

var discoverFlags struct {
	src    sourceFlags
	format string
	out    string
}

func init() {
	discoverFlags.src.register(discoverCmd)
	f := discoverCmd.Flags()
	f.StringVarP(&discoverFlags.format, "format", "f", "pretty", "Output format: json, pretty, text, csv")
	f.StringVarP(&discoverFlags.out, "out", "o", "", "Write output to file instead of stdout")

	rootCmd.AddCommand(discoverCmd)
}

type discoverOutput struct {
	Source  string                    `json:"source"`
	Rows    int                       `json:"rows"`
	Columns []schema.ColumnDescriptor `json:"columns"`
	Schema  schema.NormalizedSchema   `json:"schema"`
	Missing []schema.Field            `json:"missing,omitempty"`
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	t, err := loadTable(ctx, &discoverFlags.src, cfg)
	if err != nil {
		return err
	}
	if t.IsEmpty() {
		return fmt.Errorf("%w: %s", engine.ErrEmptyTable, discoverFlags.src.name())
	}

	descs := schema.Classify(t, schema.DiscoverOptions{SampleSize: cfg.Engine.SampleSize})
	norm := schema.Normalize(descs)
	log.Printf("🔍 Discovered %d columns, %d fields bound", len(descs), len(norm.Bindings))

	w, closeFn, err := openOutput(cmd, discoverFlags.out)
	if err != nil {
		return err
	}
	defer closeFn()

	switch discoverFlags.format {
	case "csv":
		return writeTableCSV(w, engine.BuildColumnTable(descs, norm))
	case "text":
		return writeTableText(w, engine.BuildColumnTable(descs, norm))
	case "json", "pretty":
		return writeJSON(w, discoverOutput{
			Source:  discoverFlags.src.name(),
			Rows:    t.Len(),
			Columns: descs,
			Schema:  norm,
			Missing: norm.Missing(schema.CanonicalFields...),
		}, discoverFlags.format)
	default:
		return fmt.Errorf("unknown --format %q", discoverFlags.format)
	}
}
