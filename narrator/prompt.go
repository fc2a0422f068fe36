package narrator

import (
	"fmt"
	"strings"

	"github.com/spektr-org/pulse/engine"
)

// ============================================================================
// PROMPT BUILDER — metrics-only executive summary prompt
// ============================================================================
// Everything in the prompt is already computed. The model only writes prose:
// it must not invent numbers. Total data sent: a few hundred bytes.
// ============================================================================

const maxPromptChurn = 5

// BuildPrompt renders the analysis as a compact briefing for the model.
func BuildPrompt(a *engine.Analysis) string {
	var b strings.Builder
	cur := a.Config.Currency
	money := func(v float64) string { return engine.FormatCurrency(v, cur) }
	count := func(v float64) string { return engine.FormatInt(int(v)) }
	k := a.KPIs

	b.WriteString(`You write concise executive summaries of business performance.
Summarize the figures below in at most 4 sentences. Name 1-2 risks and 1-2 concrete next steps.
Use only the numbers given. Do not compute new figures.

`)

	// ── Period ────────────────────────────────────────────────────────────
	if k.PeriodFrom != nil && k.PeriodTo != nil {
		fmt.Fprintf(&b, "PERIOD: %s to %s\n", k.PeriodFrom.Format("2006-01-02"), k.PeriodTo.Format("2006-01-02"))
	}

	// ── KPIs ──────────────────────────────────────────────────────────────
	b.WriteString("KPIS:\n")
	fmt.Fprintf(&b, "- Revenue: %s\n", k.TotalRevenue.Format(money))
	fmt.Fprintf(&b, "- Orders: %s\n", k.OrderCount.Format(count))
	fmt.Fprintf(&b, "- Unique customers: %s\n", k.UniqueCustomers.Format(count))
	fmt.Fprintf(&b, "- Average order value: %s\n", k.AvgOrderValue.Format(money))
	fmt.Fprintf(&b, "- Month-over-month growth: %s", k.GrowthPct.Format(engine.FormatPct))
	if k.GrowthPct.Available {
		fmt.Fprintf(&b, " (%s vs %s)", k.CurrentMonth, k.PreviousMonth)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Data quality: %.0f/100\n", k.DataQuality.Score)

	if len(k.TopProducts) > 0 {
		fmt.Fprintf(&b, "- Top products: %s\n", joinShares(k.TopProducts))
	}
	if len(k.TopCustomers) > 0 {
		fmt.Fprintf(&b, "- Top customers: %s\n", joinShares(k.TopCustomers))
	}

	// ── Alerts ────────────────────────────────────────────────────────────
	if len(a.Alerts) > 0 {
		b.WriteString("\nALERTS:\n")
		for _, al := range a.Alerts {
			fmt.Fprintf(&b, "- [%s] %s\n", al.Severity, al.Message)
		}
	}

	// ── Churn ─────────────────────────────────────────────────────────────
	if len(a.Churn) > 0 {
		tiers := map[engine.RiskTier]int{}
		for _, r := range a.Churn {
			tiers[r.RiskTier]++
		}
		fmt.Fprintf(&b, "\nCHURN RISK: %d high, %d medium, %d low\n",
			tiers[engine.RiskHigh], tiers[engine.RiskMedium], tiers[engine.RiskLow])
		for i, r := range a.Churn {
			if i >= maxPromptChurn || r.RiskTier != engine.RiskHigh {
				break
			}
			fmt.Fprintf(&b, "- %s: score %.0f, %d days inactive\n", r.CustomerID, r.TotalScore, r.DaysInactive)
		}
	}

	// ── Concentration ─────────────────────────────────────────────────────
	if c := a.Concentration; c != nil && len(c.Dependencies) > 0 {
		b.WriteString("\nPRODUCT DEPENDENCY:\n")
		for _, d := range c.Dependencies {
			fmt.Fprintf(&b, "- %s: %.1f%% of revenue\n", d.Name, d.SharePct)
		}
	}

	b.WriteString("\nRespond with plain text only.\n")
	return b.String()
}

func joinShares(shares []engine.Share) string {
	parts := make([]string, len(shares))
	for i, s := range shares {
		parts[i] = fmt.Sprintf("%s (%.1f%%)", s.Name, s.SharePct)
	}
	return strings.Join(parts, ", ")
}
