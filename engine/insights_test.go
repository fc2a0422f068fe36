package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// INSIGHT TESTS
// ============================================================================

func messagesAt(insights []Insight, level string) []string {
	var out []string
	for _, in := range insights {
		if in.Level == level {
			out = append(out, in.Message)
		}
	}
	return out
}

func TestInsightsAllNormal(t *testing.T) {
	cfg := applyOptions(nil)
	a := &Analysis{KPIs: KPISnapshot{DataQuality: DataQuality{Score: 100}}}

	insights := GenerateInsights(a, cfg)
	require.Len(t, insights, 1)
	assert.Equal(t, LevelOK, insights[0].Level)
	assert.Equal(t, "All key metrics look normal.", insights[0].Message)
}

func TestInsightsGrowth(t *testing.T) {
	cfg := applyOptions(nil)
	a := &Analysis{KPIs: KPISnapshot{
		GrowthPct:     available(35),
		CurrentMonth:  "Mar-2024",
		PreviousMonth: "Feb-2024",
		DataQuality:   DataQuality{Score: 100},
	}}

	success := messagesAt(GenerateInsights(a, cfg), LevelSuccess)
	require.Len(t, success, 1)
	assert.Contains(t, success[0], "35.0%")

	a.KPIs.GrowthPct = available(-12.5)
	alerts := messagesAt(GenerateInsights(a, cfg), LevelAlert)
	require.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "12.5%")

	// Moderate growth is unremarkable.
	a.KPIs.GrowthPct = available(5)
	assert.Equal(t, LevelOK, GenerateInsights(a, cfg)[0].Level)
}

func TestInsightsChurnAndInactivity(t *testing.T) {
	cfg := applyOptions(nil)
	a := &Analysis{
		KPIs: KPISnapshot{DataQuality: DataQuality{Score: 100}},
		Churn: []ChurnRecord{
			{CustomerID: "A", RiskTier: RiskHigh, DaysInactive: 90},
			{CustomerID: "B", RiskTier: RiskHigh, DaysInactive: 75},
			{CustomerID: "C", RiskTier: RiskHigh, DaysInactive: 61},
			{CustomerID: "D", RiskTier: RiskHigh, DaysInactive: 60},
			{CustomerID: "E", RiskTier: RiskLow, DaysInactive: 3},
		},
	}
	insights := GenerateInsights(a, cfg)

	warnings := messagesAt(insights, LevelWarning)
	require.Len(t, warnings, 1)
	assert.True(t, strings.HasPrefix(warnings[0], "4 customer(s) at high churn risk, led by A, B, C."))

	actions := messagesAt(insights, LevelAction)
	require.Len(t, actions, 1)
	assert.Equal(t, "4 customer(s) have not purchased in 60+ days.", actions[0])
}

func TestInsightsNoRecentSales(t *testing.T) {
	last := date(2024, 3, 1)
	a := &Analysis{KPIs: KPISnapshot{PeriodTo: &last, DataQuality: DataQuality{Score: 100}}}

	cfg := applyOptions([]Option{WithAsOf(last.Add(45 * 24 * time.Hour))})
	warnings := messagesAt(GenerateInsights(a, cfg), LevelWarning)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "No sales recorded")

	cfg = applyOptions([]Option{WithAsOf(last.Add(10 * 24 * time.Hour))})
	assert.Empty(t, messagesAt(GenerateInsights(a, cfg), LevelWarning))

	// Without an explicit reference date the data is its own "now".
	assert.Empty(t, messagesAt(GenerateInsights(a, applyOptions(nil)), LevelWarning))
}

func TestInsightsDependencyAndQuality(t *testing.T) {
	cfg := applyOptions(nil)
	a := &Analysis{
		KPIs: KPISnapshot{DataQuality: DataQuality{Score: 55}},
		Concentration: &Concentration{
			Dependencies: []Share{{Name: "Widget", Revenue: 600, SharePct: 60}},
		},
	}
	warnings := messagesAt(GenerateInsights(a, cfg), LevelWarning)
	require.Len(t, warnings, 2)
	assert.Equal(t, `Product dependency risk: "Widget" drives 60.0% of revenue ($600.00).`, warnings[0])
	assert.Contains(t, warnings[1], "55/100")
}

func TestInsightsTrendAlertsAreWarnings(t *testing.T) {
	cfg := applyOptions(nil)
	a := &Analysis{
		KPIs: KPISnapshot{DataQuality: DataQuality{Score: 100}},
		Alerts: []Alert{
			{Kind: AlertDecline, Severity: SeverityHigh, Message: "drop"},
			{Kind: AlertTrend, Severity: SeverityMedium, Message: "Revenue declined 3 months in a row"},
		},
	}
	insights := GenerateInsights(a, cfg)

	warnings := messagesAt(insights, LevelWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, "Revenue declined 3 months in a row.", warnings[0])

	alerts := messagesAt(insights, LevelAlert)
	require.Len(t, alerts, 1)
	assert.Equal(t, "1 month(s) with a revenue drop above 25%.", alerts[0])
}
