package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pulse/config"
	"github.com/spektr-org/pulse/engine"
	"github.com/spektr-org/pulse/narrator"
	"github.com/spektr-org/pulse/notify"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compute KPIs, alerts, churn risk and insights for a table",
	Long: `Analyze a sales table and print the result.

Formats:
  json      Full JSON output (default)
  pretty    Pretty-printed JSON
  text      Insights plus the selected table, aligned
  csv       The selected table as CSV (ready for Sheets/Excel)
  markdown  Report with KPIs, alerts, churn and recommendations

Use --filter field=value[,value] (repeatable) to analyze one segment, e.g.
--filter product=Widget --filter customer=Acme,Beta. Use --chart to print a
chart description (revenue, products, churn) as JSON instead.`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var analyzeFlags struct {
	src       sourceFlags
	format    string
	out       string
	table     string
	limit     int
	asOf      string
	filters   []string
	chart     string
	summarize bool
	notify    bool
}

func init() {
	analyzeFlags.src.register(analyzeCmd)
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.format, "format", "f", "json", "Output format: json, pretty, text, csv, markdown")
	f.StringVarP(&analyzeFlags.out, "out", "o", "", "Write output to file instead of stdout")
	f.StringVar(&analyzeFlags.table, "table", "kpis", "Table for text/csv output: kpis, alerts, churn, columns, stats, correlation")
	f.IntVar(&analyzeFlags.limit, "churn-limit", 20, "Max churn rows in text/csv/markdown output (0 = all)")
	f.StringVar(&analyzeFlags.asOf, "as-of", "", "Reference date for churn recency (YYYY-MM-DD, default: latest date in data)")
	f.StringArrayVar(&analyzeFlags.filters, "filter", nil, "Restrict to rows where field matches, e.g. product=Widget,Gadget (repeatable)")
	f.StringVar(&analyzeFlags.chart, "chart", "", "Print a chart config instead: revenue, products, churn")
	f.BoolVar(&analyzeFlags.summarize, "summarize", false, "Add an AI executive summary (needs GEMINI_API_KEY)")
	f.BoolVar(&analyzeFlags.notify, "notify", false, "Post alerts to Slack (needs PULSE_SLACK_WEBHOOK)")

	rootCmd.AddCommand(analyzeCmd)
}

// cliOutput is the json/pretty document.
type cliOutput struct {
	Source   string           `json:"source"`
	Summary  string           `json:"summary,omitempty"`
	Analysis *engine.Analysis `json:"analysis"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	opts := []engine.Option{engine.WithConfig(cfg.Engine)}
	if analyzeFlags.asOf != "" {
		asOf, err := time.Parse("2006-01-02", analyzeFlags.asOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of %q: %w", analyzeFlags.asOf, err)
		}
		opts = append(opts, engine.WithAsOf(asOf))
	}
	for _, raw := range analyzeFlags.filters {
		field, values, err := engine.ParseFilter(raw)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithFilter(field, values...))
	}

	// ── Load ──────────────────────────────────────────────────────────────
	t, err := loadTable(ctx, &analyzeFlags.src, cfg)
	if err != nil {
		return err
	}
	log.Printf("📊 Loaded %d rows × %d columns from %s", t.Len(), len(t.Columns), analyzeFlags.src.name())

	// ── Analyze ───────────────────────────────────────────────────────────
	a, err := engine.Analyze(t, opts...)
	if err != nil {
		return err
	}

	// ── Collaborators ─────────────────────────────────────────────────────
	var summary string
	if analyzeFlags.summarize {
		if cfg.Narrator.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required for --summarize")
		}
		n := narrator.NewGemini(narrator.Config{
			APIKey:    cfg.Narrator.APIKey,
			Model:     cfg.Narrator.Model,
			Endpoint:  cfg.Narrator.Endpoint,
			Timeout:   cfg.Narrator.Timeout,
			MaxTokens: cfg.Narrator.MaxTokens,
		})
		summary, err = n.Summarize(ctx, a)
		if err != nil {
			log.Printf("⚠️ Summary failed (continuing without it): %v", err)
		}
	}

	if analyzeFlags.notify {
		slack := notify.NewSlack(cfg.Notify.SlackWebhook)
		if !slack.Enabled() {
			return fmt.Errorf("PULSE_SLACK_WEBHOOK required for --notify")
		}
		if err := slack.Notify(ctx, a); err != nil {
			log.Printf("⚠️ Slack notification failed: %v", err)
		}
	}

	// ── Render ────────────────────────────────────────────────────────────
	w, closeFn, err := openOutput(cmd, analyzeFlags.out)
	if err != nil {
		return err
	}
	defer closeFn()

	if analyzeFlags.chart != "" {
		chart := engine.BuildChart(a, analyzeFlags.chart)
		if chart == nil {
			return fmt.Errorf("no %q chart for this data (charts: %s)", analyzeFlags.chart, strings.Join(engine.ChartNames, ", "))
		}
		return writeJSON(w, chart, "pretty")
	}

	switch analyzeFlags.format {
	case "csv":
		td, err := selectTable(a, analyzeFlags.table, analyzeFlags.limit)
		if err != nil {
			return err
		}
		if err := writeTableCSV(w, td); err != nil {
			return err
		}
	case "text":
		td, err := selectTable(a, analyzeFlags.table, analyzeFlags.limit)
		if err != nil {
			return err
		}
		if err := writeText(w, a, td, summary); err != nil {
			return err
		}
	case "markdown", "md":
		if _, err := fmt.Fprint(w, renderMarkdown(analyzeFlags.src.name(), a, summary, analyzeFlags.limit)); err != nil {
			return err
		}
	case "json", "pretty":
		out := cliOutput{Source: analyzeFlags.src.name(), Summary: summary, Analysis: a}
		if err := writeJSON(w, out, analyzeFlags.format); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown --format %q", analyzeFlags.format)
	}

	if analyzeFlags.out != "" {
		log.Printf("📄 Output written to %s", analyzeFlags.out)
	}
	return nil
}

// selectTable picks one of the render-ready tables by name.
func selectTable(a *engine.Analysis, name string, churnLimit int) (*engine.TableData, error) {
	if name == "" {
		name = "kpis"
	}
	td := engine.BuildTable(a, name, churnLimit)
	if td == nil {
		return nil, fmt.Errorf("unknown --table %q (%s)", name, strings.Join(engine.TableNames, ", "))
	}
	return td, nil
}
