package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// ALERT ENGINE TESTS
// ============================================================================

func alertsFor(t *testing.T, data string, opts ...Option) []Alert {
	t.Helper()
	a, err := Analyze(csvTable(data), opts...)
	require.NoError(t, err)
	return a.Alerts
}

func TestNoAlertsForNonDecreasingRevenue(t *testing.T) {
	alerts := alertsFor(t, `date,revenue
2024-01-15,100
2024-02-15,100
2024-03-15,200
2024-04-15,300
2024-05-15,300`)
	assert.Empty(t, alerts)
}

func TestDeclineSeverity(t *testing.T) {
	// Jan→Feb -20% (Medium), Feb→Mar -30% (High, above 25%)
	alerts := alertsFor(t, `date,revenue
2024-01-15,1000
2024-02-15,800
2024-03-15,560`)

	require.Len(t, alerts, 2)
	assert.Equal(t, SeverityMedium, alerts[0].Severity)
	assert.InDelta(t, 20, alerts[0].DeclinePct, 1e-9)
	assert.Equal(t, SeverityHigh, alerts[1].Severity)
	assert.InDelta(t, 30, alerts[1].DeclinePct, 1e-9)
	assert.True(t, alerts[0].PeriodEnd.Before(alerts[1].PeriodEnd))
}

func TestDeclineAtThresholdDoesNotAlert(t *testing.T) {
	// A 5% drop stays under the alert threshold; exactly 25% alerts but
	// is not above the High cutoff.
	alerts := alertsFor(t, `date,revenue
2024-01-15,1000
2024-02-15,950
2024-03-15,712.5`)

	require.Len(t, alerts, 1)
	assert.Equal(t, "Mar-2024", alerts[0].EndLabel)
	assert.Equal(t, SeverityMedium, alerts[0].Severity)
}

func TestGapMonthCountsAsZero(t *testing.T) {
	alerts := alertsFor(t, `date,revenue
2024-01-15,1000
2024-03-15,1000`)

	require.Len(t, alerts, 1)
	assert.Equal(t, "Jan-2024", alerts[0].StartLabel)
	assert.Equal(t, "Feb-2024", alerts[0].EndLabel)
	assert.Equal(t, SeverityHigh, alerts[0].Severity)
	assert.InDelta(t, 100, alerts[0].DeclinePct, 1e-9)
}

func TestTrendAlert(t *testing.T) {
	// Three declining pairs: -5%, -15.8%, -12.5%
	alerts := alertsFor(t, `date,revenue
2024-01-15,1000
2024-02-15,950
2024-03-15,800
2024-04-15,700
2024-05-15,900`)

	require.Len(t, alerts, 3)

	assert.Equal(t, AlertDecline, alerts[0].Kind)
	assert.Equal(t, "Mar-2024", alerts[0].EndLabel)
	assert.Equal(t, AlertDecline, alerts[1].Kind)
	assert.Equal(t, "Apr-2024", alerts[1].EndLabel)

	trend := alerts[2]
	assert.Equal(t, AlertTrend, trend.Kind)
	assert.Equal(t, SeverityMedium, trend.Severity)
	assert.Equal(t, "Jan-2024", trend.StartLabel)
	assert.Equal(t, "Apr-2024", trend.EndLabel)
	assert.InDelta(t, 30, trend.DeclinePct, 1e-9)
	assert.Equal(t, "Revenue declined 3 months in a row (Jan-2024 → Apr-2024), down 30.0% overall", trend.Message)
}

func TestTrendMonthsOption(t *testing.T) {
	data := `date,revenue
2024-01-15,1000
2024-02-15,950
2024-03-15,900`

	assert.Empty(t, alertsFor(t, data))

	alerts := alertsFor(t, data, WithTrendMonths(2))
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertTrend, alerts[0].Kind)
}

func TestAlertsNeedDateAndRevenue(t *testing.T) {
	alerts := alertsFor(t, `customer,revenue
Acme,1000
Beta,10`)
	assert.Nil(t, alerts)
}
