package engine

// ============================================================================
// CHART BUILDER — Produces ChartConfig from a finished Analysis
// ============================================================================
// Charts are descriptions only; rendering is left to the front end.
// ============================================================================

// Default color palette for chart series.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// riskColors keeps tiers the same color in every chart.
var riskColors = map[RiskTier]string{
	RiskHigh:   "#EF4444",
	RiskMedium: "#F59E0B",
	RiskLow:    "#10B981",
}

// ChartNames lists the charts BuildChart understands.
var ChartNames = []string{"revenue", "products", "churn"}

// BuildChart returns the named chart, or nil when the analysis has no data
// for it or the name is unknown.
func BuildChart(a *Analysis, name string) *ChartConfig {
	switch name {
	case "revenue":
		return BuildRevenueChart(a)
	case "products":
		return BuildProductChart(a)
	case "churn":
		return BuildChurnChart(a)
	}
	return nil
}

// BuildRevenueChart plots monthly revenue, gap months included. Months that
// close a decline alert carry its severity as Flag.
func BuildRevenueChart(a *Analysis) *ChartConfig {
	months := a.KPIs.MonthlyRevenue
	if len(months) == 0 {
		return nil
	}

	flags := make(map[string]Severity)
	for _, al := range a.Alerts {
		if al.Kind != AlertDecline {
			continue
		}
		if prev, ok := flags[al.EndLabel]; !ok || prev != SeverityHigh {
			flags[al.EndLabel] = al.Severity
		}
	}

	points := make([]ChartPoint, 0, len(months))
	for _, m := range months {
		points = append(points, ChartPoint{
			Label: m.Label,
			Value: RoundTo2(m.Revenue),
			Flag:  string(flags[m.Label]),
		})
	}

	series := []ChartSeries{{Name: "Revenue", Data: points}}
	return &ChartConfig{
		ChartType:  "line",
		Title:      "Monthly Revenue",
		XAxis:      "Month",
		YAxis:      "Revenue",
		Series:     series,
		Colors:     assignColors(len(series)),
		ShowLegend: false,
		ShowGrid:   true,
	}
}

// BuildProductChart is a pie of product revenue shares. Products beyond
// TopN are folded into "Other".
func BuildProductChart(a *Analysis) *ChartConfig {
	c := a.Concentration
	if c == nil || len(c.Products) == 0 {
		return nil
	}

	limit := a.Config.TopN
	if limit <= 0 || limit > len(c.Products) {
		limit = len(c.Products)
	}
	points := make([]ChartPoint, 0, limit+1)
	for _, p := range c.Products[:limit] {
		points = append(points, ChartPoint{Label: p.Name, Value: p.SharePct})
	}
	if rest := c.Products[limit:]; len(rest) > 0 {
		var other float64
		for _, p := range rest {
			other += p.SharePct
		}
		points = append(points, ChartPoint{Label: "Other", Value: RoundTo2(other)})
	}

	return &ChartConfig{
		ChartType:  "pie",
		Title:      "Revenue Share by Product",
		Series:     []ChartSeries{{Name: "Share %", Data: points}},
		Colors:     assignColors(len(points)),
		ShowLegend: true,
		ShowGrid:   false,
	}
}

// BuildChurnChart counts scored customers per risk tier.
func BuildChurnChart(a *Analysis) *ChartConfig {
	if len(a.Churn) == 0 {
		return nil
	}

	counts := make(map[RiskTier]int)
	for _, r := range a.Churn {
		counts[r.RiskTier]++
	}

	tiers := []RiskTier{RiskHigh, RiskMedium, RiskLow}
	points := make([]ChartPoint, 0, len(tiers))
	colors := make([]string, 0, len(tiers))
	for _, t := range tiers {
		points = append(points, ChartPoint{Label: string(t), Value: float64(counts[t])})
		colors = append(colors, riskColors[t])
	}

	return &ChartConfig{
		ChartType:  "bar",
		Title:      "Customers by Churn Risk",
		XAxis:      "Risk Tier",
		YAxis:      "Customers",
		Series:     []ChartSeries{{Name: "Customers", Data: points}},
		Colors:     colors,
		ShowLegend: false,
		ShowGrid:   true,
	}
}

func assignColors(count int) []string {
	colors := make([]string, count)
	for i := 0; i < count; i++ {
		colors[i] = defaultColors[i%len(defaultColors)]
	}
	return colors
}
