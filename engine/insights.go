package engine

import (
	"fmt"
	"strings"
)

// ============================================================================
// INSIGHTS — plain-language findings from a finished Analysis
// ============================================================================

const (
	insightDeclinePct = -10 // growth below this is called out
	insightGrowthPct  = 20  // growth above this is celebrated
	recentSalesDays   = 30
	minQualityScore   = 70
	maxNamedCustomers = 3
)

// GenerateInsights turns metrics, alerts and churn into recommendation lines.
// Always returns at least one insight.
func GenerateInsights(a *Analysis, cfg *Config) []Insight {
	var out []Insight
	add := func(level, format string, args ...any) {
		out = append(out, Insight{Level: level, Message: fmt.Sprintf(format, args...)})
	}
	k := a.KPIs

	// ── Growth ────────────────────────────────────────────────────────────
	if g := k.GrowthPct; g.Available {
		switch {
		case g.Value < insightDeclinePct:
			add(LevelAlert, "Revenue declined %.1f%% in %s vs %s. Review pricing, stock levels and recent campaigns.",
				-g.Value, k.CurrentMonth, k.PreviousMonth)
		case g.Value > insightGrowthPct:
			add(LevelSuccess, "Excellent growth: revenue up %.1f%% in %s vs %s.",
				g.Value, k.CurrentMonth, k.PreviousMonth)
		}
	}

	// ── Alerts ────────────────────────────────────────────────────────────
	high := 0
	for _, al := range a.Alerts {
		if al.Kind == AlertTrend {
			add(LevelWarning, "%s.", al.Message)
		}
		if al.Severity == SeverityHigh {
			high++
		}
	}
	if high > 0 {
		add(LevelAlert, "%d month(s) with a revenue drop above %.0f%%.", high, cfg.HighSeverityThreshold)
	}

	// ── Product dependency ────────────────────────────────────────────────
	if c := a.Concentration; c != nil {
		for _, d := range c.Dependencies {
			add(LevelWarning, "Product dependency risk: %q drives %.1f%% of revenue (%s).",
				d.Name, d.SharePct, FormatCurrency(d.Revenue, cfg.Currency))
		}
	}

	// ── Churn ─────────────────────────────────────────────────────────────
	var atRisk []string
	inactive := 0
	for _, r := range a.Churn {
		if r.RiskTier == RiskHigh {
			atRisk = append(atRisk, r.CustomerID)
		}
		if r.DaysInactive >= cfg.InactivityCeilingDays {
			inactive++
		}
	}
	if len(atRisk) > 0 {
		named := atRisk
		if len(named) > maxNamedCustomers {
			named = named[:maxNamedCustomers]
		}
		add(LevelWarning, "%d customer(s) at high churn risk, led by %s. Reach out with a win-back offer.",
			len(atRisk), strings.Join(named, ", "))
	}
	if inactive > 0 {
		add(LevelAction, "%d customer(s) have not purchased in %d+ days.", inactive, cfg.InactivityCeilingDays)
	}

	// ── Recency of sales ──────────────────────────────────────────────────
	if !cfg.AsOf.IsZero() && k.PeriodTo != nil {
		if cfg.AsOf.Sub(*k.PeriodTo).Hours() > recentSalesDays*24 {
			add(LevelWarning, "No sales recorded in the %d days before %s (last sale %s).",
				recentSalesDays, cfg.AsOf.Format("2006-01-02"), k.PeriodTo.Format("2006-01-02"))
		}
	}

	// ── Data quality ──────────────────────────────────────────────────────
	if k.DataQuality.Score < minQualityScore {
		add(LevelWarning, "Data quality score is %.0f/100; results may be unreliable.", k.DataQuality.Score)
	}

	if len(out) == 0 {
		add(LevelOK, "All key metrics look normal.")
	}
	return out
}
