package engine

import (
	"fmt"
	"math"
)

// ============================================================================
// TEXT BUILDER — One-line revenue headline for an Analysis
// ============================================================================

// changeDeadband is the % change treated as flat.
const changeDeadband = 0.5

// BuildGrowthText summarises total revenue and its change from the first to
// the last month of the data.
func BuildGrowthText(a *Analysis) *TextData {
	k := a.KPIs
	unit := a.Config.Currency

	td := &TextData{
		Value:  k.TotalRevenue.Format(func(v float64) string { return FormatCurrency(v, unit) }),
		Unit:   unit,
		Period: DerivePeriod(k),
		Count:  a.RowCount,
	}
	if k.TotalRevenue.Available {
		td.RawValue = k.TotalRevenue.Value
	}

	months := k.MonthlyRevenue
	if !k.TotalRevenue.Available || len(months) == 0 {
		return td
	}

	earliest := months[0]
	latest := months[len(months)-1]
	g := &GrowthData{
		EarliestValue:  earliest.Revenue,
		LatestValue:    latest.Revenue,
		EarliestPeriod: earliest.Label,
		LatestPeriod:   latest.Label,
		ChangeAmount:   RoundTo2(latest.Revenue - earliest.Revenue),
	}
	td.Growth = g

	// Need at least 2 distinct months
	if len(months) < 2 {
		g.Direction = "insufficient data"
		g.Display = "→ Not enough months"
		return td
	}
	if earliest.Revenue != 0 {
		g.ChangePercent = RoundTo2(g.ChangeAmount / earliest.Revenue * 100)
	}

	switch {
	case g.ChangePercent > changeDeadband:
		g.Direction = "increased"
		g.Display = fmt.Sprintf("↑ %.1f%%", g.ChangePercent)
	case g.ChangePercent < -changeDeadband:
		g.Direction = "decreased"
		g.Display = fmt.Sprintf("↓ %.1f%%", math.Abs(g.ChangePercent))
	default:
		g.Direction = "unchanged"
		g.Display = "→ No change"
	}
	return td
}

// ============================================================================
// PERIOD HELPER
// ============================================================================

// DerivePeriod builds a human-readable period from the monthly buckets:
// "Jan-2024 – Mar-2024", a single month, or "All time" without dates.
func DerivePeriod(k KPISnapshot) string {
	months := k.MonthlyRevenue
	switch len(months) {
	case 0:
		return "All time"
	case 1:
		return months[0].Label
	}
	return fmt.Sprintf("%s – %s", months[0].Label, months[len(months)-1].Label)
}
