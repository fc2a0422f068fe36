package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spektr-org/pulse/engine"
)

// ============================================================================
// OUTPUT WRITERS
// ============================================================================

// openOutput returns the command's stdout, or a created file when path is set.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}

// ============================================================================
// JSON OUTPUT
// ============================================================================

func writeJSON(w io.Writer, v interface{}, format string) error {
	var out []byte
	var err error

	if format == "pretty" {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// ============================================================================
// CSV OUTPUT — Sheets-ready tables
// ============================================================================

func writeTableCSV(w io.Writer, td *engine.TableData) error {
	cw := csv.NewWriter(w)

	if td == nil || len(td.Columns) == 0 {
		cw.Write([]string{"Result", "No data"})
		cw.Flush()
		return cw.Error()
	}

	cw.Write(tableHeaders(td))
	for _, row := range td.Rows {
		cw.Write(row)
	}
	if td.Summary != nil {
		cw.Write(summaryRow(td))
	}
	cw.Flush()
	return cw.Error()
}

// ============================================================================
// TEXT OUTPUT
// ============================================================================

// writeText prints the headline, insights, notes and one aligned table.
func writeText(w io.Writer, a *engine.Analysis, td *engine.TableData, summary string) error {
	fmt.Fprintln(w, headline(engine.BuildGrowthText(a)))
	fmt.Fprintln(w)
	if summary != "" {
		fmt.Fprintf(w, "%s\n\n", summary)
	}
	for _, in := range a.Insights {
		fmt.Fprintf(w, "%s %s\n", levelIcon(in.Level), in.Message)
	}
	for _, n := range a.Notes {
		fmt.Fprintf(w, "ℹ️  %s\n", n)
	}
	fmt.Fprintln(w)
	return writeTableText(w, td)
}

func writeTableText(w io.Writer, td *engine.TableData) error {
	if td == nil {
		_, err := fmt.Fprintln(w, "No result.")
		return err
	}
	if td.Title != "" {
		fmt.Fprintf(w, "%s\n", td.Title)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeaders(td), "\t"))
	for _, row := range td.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if td.Summary != nil {
		fmt.Fprintln(tw, strings.Join(summaryRow(td), "\t"))
	}
	return tw.Flush()
}

// headline renders "💰 Revenue $2,800.00 · Jan-2024 – Mar-2024 · ↓ 40.0%".
func headline(td *engine.TextData) string {
	line := fmt.Sprintf("💰 Revenue %s · %s", td.Value, td.Period)
	if td.Growth != nil {
		line += " · " + td.Growth.Display
	}
	return line
}

func levelIcon(level string) string {
	switch level {
	case engine.LevelAlert:
		return "🔴"
	case engine.LevelWarning:
		return "🟠"
	case engine.LevelAction:
		return "👉"
	case engine.LevelSuccess:
		return "🟢"
	default:
		return "✅"
	}
}

// ============================================================================
// MARKDOWN OUTPUT
// ============================================================================

func renderMarkdown(source string, a *engine.Analysis, summary string, churnLimit int) string {
	var b strings.Builder
	k := a.KPIs
	cur := a.Config.Currency
	money := func(v float64) string { return engine.FormatCurrency(v, cur) }
	count := func(v float64) string { return engine.FormatInt(int(v)) }

	fmt.Fprintf(&b, "# Pulse Report: %s", source)
	if k.PeriodFrom != nil && k.PeriodTo != nil {
		fmt.Fprintf(&b, " (%s → %s)", k.PeriodFrom.Format("2006-01-02"), k.PeriodTo.Format("2006-01-02"))
	}
	b.WriteString("\n\n")

	if g := engine.BuildGrowthText(a).Growth; g != nil {
		fmt.Fprintf(&b, "_Trend %s → %s: %s_\n\n", g.EarliestPeriod, g.LatestPeriod, g.Display)
	}
	fmt.Fprintf(&b, "- **Revenue:** %s\n- **Orders:** %s\n- **AOV:** %s\n- **Unique Customers:** %s\n- **Growth (MoM):** %s\n- **Data Quality:** %.0f/100\n\n",
		k.TotalRevenue.Format(money), k.OrderCount.Format(count), k.AvgOrderValue.Format(money),
		k.UniqueCustomers.Format(count), k.GrowthPct.Format(engine.FormatPct), k.DataQuality.Score)

	if len(k.TopCustomers) > 0 {
		b.WriteString("## Top Customers\n")
		for _, s := range k.TopCustomers {
			fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", s.Name, money(s.Revenue), s.SharePct)
		}
		b.WriteString("\n")
	}
	if len(k.TopProducts) > 0 {
		b.WriteString("## Top Products\n")
		for _, s := range k.TopProducts {
			fmt.Fprintf(&b, "- %s: %s (%.1f%%)\n", s.Name, money(s.Revenue), s.SharePct)
		}
		b.WriteString("\n")
	}
	if len(a.Alerts) > 0 {
		b.WriteString("## Alerts\n")
		for _, al := range a.Alerts {
			fmt.Fprintf(&b, "- **%s** %s\n", al.Severity, al.Message)
		}
		b.WriteString("\n")
	}
	if len(a.Churn) > 0 {
		writeMarkdownTable(&b, engine.BuildChurnTable(a, churnLimit))
	}
	if c := a.Concentration; c != nil {
		fmt.Fprintf(&b, "## Product Concentration\n- Top share: %.1f%%\n- HHI: %.3f (%s)\n", c.TopSharePct, c.HHI, c.Band)
		for _, d := range c.Dependencies {
			fmt.Fprintf(&b, "- Dependency: %s at %.1f%%\n", d.Name, d.SharePct)
		}
		b.WriteString("\n")
	}
	if len(a.Insights) > 0 {
		b.WriteString("## Recommendations\n")
		for _, in := range a.Insights {
			fmt.Fprintf(&b, "- %s %s\n", levelIcon(in.Level), in.Message)
		}
		b.WriteString("\n")
	}
	if ds := a.Dataset; ds != nil {
		b.WriteString("## Dataset\n")
		for _, line := range ds.Overview {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}
	if len(a.Notes) > 0 {
		b.WriteString("## Notes\n")
		for _, n := range a.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
		b.WriteString("\n")
	}
	if summary != "" {
		fmt.Fprintf(&b, "## Executive Summary (AI)\n%s\n", summary)
	}
	return b.String()
}

func writeMarkdownTable(b *strings.Builder, td *engine.TableData) {
	fmt.Fprintf(b, "## %s\n", td.Title)
	headers := tableHeaders(td)
	fmt.Fprintf(b, "| %s |\n", strings.Join(headers, " | "))
	seps := make([]string, len(headers))
	for i, c := range td.Columns {
		seps[i] = "---"
		if c.Align == "right" {
			seps[i] = "---:"
		}
	}
	fmt.Fprintf(b, "|%s|\n", strings.Join(seps, "|"))
	for _, row := range td.Rows {
		fmt.Fprintf(b, "| %s |\n", strings.Join(row, " | "))
	}
	b.WriteString("\n")
}

// ============================================================================
// HELPERS
// ============================================================================

func tableHeaders(td *engine.TableData) []string {
	headers := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		headers[i] = c.Label
	}
	return headers
}

// summaryRow lays the summary values out under their column keys.
func summaryRow(td *engine.TableData) []string {
	row := make([]string, len(td.Columns))
	for i, c := range td.Columns {
		row[i] = td.Summary.Values[c.Key]
	}
	if len(row) > 0 && row[0] == "" {
		row[0] = td.Summary.Label
	}
	return row
}
