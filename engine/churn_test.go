package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/pulse/table"
)

// ============================================================================
// CHURN ENGINE TESTS
// ============================================================================

// churnTable has three customers with order counts 1, 5, 9 (median 5) and
// revenues 50, 700, 750 (mean 500).
func churnTable() table.Table {
	rows := [][]any{
		{date(2024, 4, 1), "Lost Ltd", 50.0},
	}
	for d := 0; d < 5; d++ {
		rows = append(rows, []any{date(2024, 6, 16+d), "Steady Co", 140.0})
	}
	for d := 0; d < 8; d++ {
		rows = append(rows, []any{date(2024, 6, 1+d), "Loyal Inc", 75.0})
	}
	rows = append(rows, []any{date(2024, 6, 28), "Loyal Inc", 150.0})
	return table.New([]string{"date", "customer", "revenue"}, rows)
}

var churnAsOf = date(2024, 6, 30)

func TestChurnScenario(t *testing.T) {
	a, err := Analyze(churnTable(), WithAsOf(churnAsOf))
	require.NoError(t, err)
	require.Len(t, a.Churn, 3)

	lost := a.Churn[0]
	assert.Equal(t, "Lost Ltd", lost.CustomerID)
	assert.Equal(t, 90, lost.DaysInactive)
	assert.Equal(t, 1, lost.Orders)
	assert.InDelta(t, 40, lost.RecencyScore, 1e-9)
	assert.InDelta(t, 30, lost.FrequencyScore, 1e-9)
	assert.InDelta(t, 27, lost.MonetaryScore, 1e-9)
	assert.InDelta(t, 97, lost.TotalScore, 1e-9)
	assert.Equal(t, RiskHigh, lost.RiskTier)

	for _, r := range a.Churn {
		assert.GreaterOrEqual(t, r.TotalScore, 0.0)
		assert.LessOrEqual(t, r.TotalScore, 100.0)
	}
	for i := 1; i < len(a.Churn); i++ {
		assert.GreaterOrEqual(t, a.Churn[i-1].TotalScore, a.Churn[i].TotalScore)
	}
}

func TestChurnSteadyCustomerIsLowRisk(t *testing.T) {
	a, err := Analyze(churnTable(), WithAsOf(churnAsOf))
	require.NoError(t, err)

	var steady *ChurnRecord
	for i := range a.Churn {
		if a.Churn[i].CustomerID == "Steady Co" {
			steady = &a.Churn[i]
		}
	}
	require.NotNil(t, steady)
	assert.Equal(t, 10, steady.DaysInactive)
	assert.Equal(t, 5, steady.Orders)
	assert.Equal(t, 0.0, steady.FrequencyScore)
	assert.Equal(t, 0.0, steady.MonetaryScore)
	assert.InDelta(t, 6.67, steady.TotalScore, 1e-9)
	assert.Equal(t, RiskLow, steady.RiskTier)
}

func TestChurnDefaultsToLatestDate(t *testing.T) {
	a, err := Analyze(churnTable())
	require.NoError(t, err)

	// Latest purchase is Jun 28, so Lost Ltd is 88 days out: still capped.
	lost := a.Churn[0]
	assert.Equal(t, "Lost Ltd", lost.CustomerID)
	assert.Equal(t, 88, lost.DaysInactive)
	assert.InDelta(t, 40, lost.RecencyScore, 1e-9)
}

func TestTierCutoffsInclusive(t *testing.T) {
	cfg := applyOptions(nil)
	assert.Equal(t, RiskHigh, tierFor(70, cfg))
	assert.Equal(t, RiskMedium, tierFor(69.99, cfg))
	assert.Equal(t, RiskMedium, tierFor(40, cfg))
	assert.Equal(t, RiskLow, tierFor(39.99, cfg))
	assert.Equal(t, RiskLow, tierFor(0, cfg))
	assert.Equal(t, RiskHigh, tierFor(100, cfg))

	cfg = applyOptions([]Option{WithRiskCutoffs(80, 50)})
	assert.Equal(t, RiskMedium, tierFor(70, cfg))
	assert.Equal(t, RiskHigh, tierFor(80, cfg))
}

func TestSubScoreCurves(t *testing.T) {
	assert.Equal(t, 0.0, recencyScore(0, 60))
	assert.InDelta(t, 20, recencyScore(30, 60), 1e-9)
	assert.Equal(t, 40.0, recencyScore(365, 60))

	assert.Equal(t, 0.0, frequencyScore(5, 5))
	assert.Equal(t, 0.0, frequencyScore(1, 1), "median of one order cannot rank frequency")
	assert.InDelta(t, 15, frequencyScore(3, 5), 1e-9)
	assert.Equal(t, 30.0, frequencyScore(1, 5))

	assert.Equal(t, 0.0, monetaryScore(600, 500))
	assert.Equal(t, 30.0, monetaryScore(0, 500))
	assert.Equal(t, 0.0, monetaryScore(10, 0))
}

func TestChurnSkipsCustomersWithoutDates(t *testing.T) {
	tbl := table.New([]string{"date", "customer", "revenue"}, [][]any{
		{date(2024, 1, 1), "Acme", 10.0},
		{date(2024, 1, 5), "Acme", 10.0},
		{date(2024, 2, 1), "Beta", 10.0},
		{date(2024, 2, 2), "Beta", 10.0},
		{date(2024, 2, 3), "Gamma", 10.0},
		{nil, "Ghost", 10.0},
	})
	a, err := Analyze(tbl)
	require.NoError(t, err)

	ids := make([]string, len(a.Churn))
	for i, r := range a.Churn {
		ids[i] = r.CustomerID
	}
	assert.ElementsMatch(t, []string{"Acme", "Beta", "Gamma"}, ids)
}

func TestChurnOrderIsDeterministic(t *testing.T) {
	tbl := table.New([]string{"date", "customer", "revenue"}, [][]any{
		{date(2024, 1, 1), "Zed", 10.0},
		{date(2024, 1, 1), "Amy", 10.0},
		{date(2024, 1, 1), "Moe", 10.0},
	})
	a, err := Analyze(tbl, WithAsOf(date(2024, 1, 1).Add(24*time.Hour)))
	require.NoError(t, err)
	require.Len(t, a.Churn, 3)
	assert.Equal(t, "Amy", a.Churn[0].CustomerID)
	assert.Equal(t, "Moe", a.Churn[1].CustomerID)
	assert.Equal(t, "Zed", a.Churn[2].CustomerID)
}
