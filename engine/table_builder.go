package engine

import (
	"fmt"
	"strconv"

	"github.com/spektr-org/pulse/schema"
)

// ============================================================================
// TABLE BUILDER — Produces render-ready TableData from an Analysis
// ============================================================================
// Used by the CLI text/csv outputs and anything else that wants rows of
// strings instead of typed structs.
// ============================================================================

// BuildKPITable lists the headline metrics.
func BuildKPITable(a *Analysis) *TableData {
	k := a.KPIs
	money := func(v float64) string { return FormatCurrency(v, a.Config.Currency) }
	count := func(v float64) string { return FormatInt(int(v)) }

	rows := [][]string{
		{"Total Revenue", k.TotalRevenue.Format(money)},
		{"Orders", k.OrderCount.Format(count)},
		{"Unique Customers", k.UniqueCustomers.Format(count)},
		{"Avg Order Value", k.AvgOrderValue.Format(money)},
		{"Growth (MoM)", k.GrowthPct.Format(FormatPct)},
		{"Data Quality", fmt.Sprintf("%.0f/100", k.DataQuality.Score)},
	}
	return &TableData{
		Title: "Key Metrics",
		Columns: []Column{
			{Key: "metric", Label: "Metric", Type: "text", Align: "left"},
			{Key: "value", Label: "Value", Type: "text", Align: "right"},
		},
		Rows: rows,
	}
}

// BuildAlertTable lists alerts in chronological order.
func BuildAlertTable(a *Analysis) *TableData {
	rows := make([][]string, 0, len(a.Alerts))
	for _, al := range a.Alerts {
		rows = append(rows, []string{
			string(al.Kind),
			al.StartLabel,
			al.EndLabel,
			fmt.Sprintf("%.1f", al.DeclinePct),
			string(al.Severity),
			al.Message,
		})
	}
	return &TableData{
		Title: "Revenue Alerts",
		Columns: []Column{
			{Key: "kind", Label: "Kind", Type: "text", Align: "left"},
			{Key: "from", Label: "From", Type: "text", Align: "left"},
			{Key: "to", Label: "To", Type: "text", Align: "left"},
			{Key: "decline_pct", Label: "Decline %", Type: "percent", Align: "right"},
			{Key: "severity", Label: "Severity", Type: "text", Align: "left"},
			{Key: "message", Label: "Message", Type: "text", Align: "left"},
		},
		Rows: rows,
	}
}

// BuildChurnTable lists the riskiest customers. limit <= 0 keeps all.
func BuildChurnTable(a *Analysis, limit int) *TableData {
	records := a.Churn
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	rows := make([][]string, 0, len(records))
	tiers := map[RiskTier]int{}
	for _, r := range a.Churn {
		tiers[r.RiskTier]++
	}
	for _, r := range records {
		rows = append(rows, []string{
			r.CustomerID,
			r.LastPurchase.Format("2006-01-02"),
			strconv.Itoa(r.DaysInactive),
			strconv.Itoa(r.Orders),
			FormatCurrency(r.Revenue, a.Config.Currency),
			fmt.Sprintf("%.1f", r.RecencyScore),
			fmt.Sprintf("%.1f", r.FrequencyScore),
			fmt.Sprintf("%.1f", r.MonetaryScore),
			fmt.Sprintf("%.1f", r.TotalScore),
			string(r.RiskTier),
		})
	}

	return &TableData{
		Title: "Churn Risk",
		Columns: []Column{
			{Key: "customer", Label: "Customer", Type: "text", Align: "left"},
			{Key: "last_purchase", Label: "Last Purchase", Type: "text", Align: "left"},
			{Key: "days_inactive", Label: "Days Inactive", Type: "number", Align: "right"},
			{Key: "orders", Label: "Orders", Type: "number", Align: "right"},
			{Key: "revenue", Label: "Revenue", Type: "currency", Align: "right"},
			{Key: "recency", Label: "Recency", Type: "number", Align: "right"},
			{Key: "frequency", Label: "Frequency", Type: "number", Align: "right"},
			{Key: "monetary", Label: "Monetary", Type: "number", Align: "right"},
			{Key: "score", Label: "Score", Type: "number", Align: "right"},
			{Key: "tier", Label: "Tier", Type: "text", Align: "left"},
		},
		Rows: rows,
		Summary: &Summary{
			Label: fmt.Sprintf("%d customers scored", len(a.Churn)),
			Values: map[string]string{
				"high":   strconv.Itoa(tiers[RiskHigh]),
				"medium": strconv.Itoa(tiers[RiskMedium]),
				"low":    strconv.Itoa(tiers[RiskLow]),
			},
		},
	}
}

// BuildColumnTable lists the classified columns and the fields they bind.
func BuildColumnTable(descs []schema.ColumnDescriptor, s schema.NormalizedSchema) *TableData {
	boundTo := make(map[int]string)
	for f, b := range s.Bindings {
		boundTo[b.Index] = string(f)
	}

	rows := make([][]string, 0, len(descs))
	for _, d := range descs {
		rows = append(rows, []string{
			d.Name,
			string(d.Role),
			fmt.Sprintf("%.2f", d.Confidence),
			string(d.Source),
			boundTo[d.Index],
		})
	}
	return &TableData{
		Title: "Columns",
		Columns: []Column{
			{Key: "column", Label: "Column", Type: "text", Align: "left"},
			{Key: "role", Label: "Role", Type: "text", Align: "left"},
			{Key: "confidence", Label: "Confidence", Type: "number", Align: "right"},
			{Key: "source", Label: "Source", Type: "text", Align: "left"},
			{Key: "field", Label: "Field", Type: "text", Align: "left"},
		},
		Rows: rows,
	}
}

// BuildStatsTable is describe() for the numeric columns.
func BuildStatsTable(a *Analysis) *TableData {
	td := &TableData{
		Title: "Statistical Summary",
		Columns: []Column{
			{Key: "column", Label: "Column", Type: "text", Align: "left"},
			{Key: "count", Label: "Count", Type: "number", Align: "right"},
			{Key: "missing", Label: "Missing", Type: "number", Align: "right"},
			{Key: "mean", Label: "Mean", Type: "number", Align: "right"},
			{Key: "std", Label: "Std", Type: "number", Align: "right"},
			{Key: "min", Label: "Min", Type: "number", Align: "right"},
			{Key: "p25", Label: "25%", Type: "number", Align: "right"},
			{Key: "median", Label: "50%", Type: "number", Align: "right"},
			{Key: "p75", Label: "75%", Type: "number", Align: "right"},
			{Key: "max", Label: "Max", Type: "number", Align: "right"},
		},
		Rows: [][]string{},
	}
	if a.Dataset == nil {
		return td
	}
	f := func(v float64) string { return fmt.Sprintf("%.2f", v) }
	for _, ns := range a.Dataset.Numeric {
		td.Rows = append(td.Rows, []string{
			ns.Column,
			strconv.Itoa(ns.Count),
			strconv.Itoa(ns.Missing),
			f(ns.Mean), f(ns.StdDev), f(ns.Min), f(ns.P25), f(ns.Median), f(ns.P75), f(ns.Max),
		})
	}
	return td
}

// BuildCorrelationTable renders the correlation matrix; undefined cells
// are blank.
func BuildCorrelationTable(a *Analysis) *TableData {
	td := &TableData{
		Title:   "Correlation Matrix",
		Columns: []Column{{Key: "column", Label: "Column", Type: "text", Align: "left"}},
		Rows:    [][]string{},
	}
	if a.Dataset == nil || a.Dataset.Correlation == nil {
		return td
	}
	c := a.Dataset.Correlation
	for i, name := range c.Columns {
		td.Columns = append(td.Columns, Column{Key: name, Label: name, Type: "number", Align: "right"})
		row := []string{name}
		for j := range c.Columns {
			cell := ""
			if r, ok := c.At(i, j); ok {
				cell = fmt.Sprintf("%.2f", r)
			}
			row = append(row, cell)
		}
		td.Rows = append(td.Rows, row)
	}
	return td
}

// ============================================================================
// DISPATCH
// ============================================================================

// TableNames lists the tables BuildTable understands.
var TableNames = []string{"kpis", "alerts", "churn", "columns", "stats", "correlation"}

// BuildTable returns the named table, or nil for an unknown name.
// limit caps the churn rows (<= 0 keeps all).
func BuildTable(a *Analysis, name string, limit int) *TableData {
	switch name {
	case "kpis":
		return BuildKPITable(a)
	case "alerts":
		return BuildAlertTable(a)
	case "churn":
		return BuildChurnTable(a, limit)
	case "columns":
		return BuildColumnTable(a.Columns, a.Schema)
	case "stats":
		return BuildStatsTable(a)
	case "correlation":
		return BuildCorrelationTable(a)
	}
	return nil
}
