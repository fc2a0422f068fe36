package engine

import (
	"fmt"
	"sort"

	"github.com/spektr-org/pulse/schema"
)

// ============================================================================
// ALERT ENGINE — month-over-month revenue declines
// ============================================================================
// Revenue is bucketed into consecutive calendar months (gaps count as zero).
// Every adjacent pair is checked on its own; a run of declining months also
// raises a trend alert, so both kinds can fire for the same period.
// ============================================================================

// DetectAlerts flags revenue drops between consecutive months.
// Needs both a date and a revenue field; returns nil otherwise.
func DetectAlerts(view FieldView, cfg *Config) []Alert {
	if !view.Has(schema.FieldDate) || !view.Has(schema.FieldRevenue) {
		return nil
	}
	months := FillMonths(MonthlyRevenue(view))
	if len(months) < 2 {
		return nil
	}

	var alerts []Alert
	runStart, runLen := 0, 0

	flush := func(end int) {
		if runLen >= cfg.TrendMonths {
			alerts = append(alerts, trendAlert(months[runStart], months[end], runLen, cfg))
		}
		runLen = 0
	}

	for i := 1; i < len(months); i++ {
		prev, curr := months[i-1], months[i]
		if prev.Revenue <= 0 {
			flush(i - 1)
			continue
		}
		decline := (prev.Revenue - curr.Revenue) / prev.Revenue * 100

		if decline > cfg.DeclineThreshold {
			alerts = append(alerts, declineAlert(prev, curr, decline, cfg))
		}

		if decline > 0 {
			if runLen == 0 {
				runStart = i - 1
			}
			runLen++
		} else {
			flush(i - 1)
		}
	}
	flush(len(months) - 1)

	sort.SliceStable(alerts, func(i, j int) bool {
		if !alerts[i].PeriodEnd.Equal(alerts[j].PeriodEnd) {
			return alerts[i].PeriodEnd.Before(alerts[j].PeriodEnd)
		}
		return alerts[i].Kind == AlertDecline && alerts[j].Kind == AlertTrend
	})
	return alerts
}

func declineAlert(prev, curr MonthBucket, decline float64, cfg *Config) Alert {
	severity := SeverityMedium
	if decline > cfg.HighSeverityThreshold {
		severity = SeverityHigh
	}
	return Alert{
		Kind:            AlertDecline,
		PeriodStart:     prev.Month,
		PeriodEnd:       curr.Month,
		StartLabel:      prev.Label,
		EndLabel:        curr.Label,
		DeclinePct:      RoundTo2(decline),
		PreviousRevenue: prev.Revenue,
		CurrentRevenue:  curr.Revenue,
		Severity:        severity,
		Message: fmt.Sprintf("Revenue dropped %.1f%% from %s to %s (%s → %s)",
			decline, prev.Label, curr.Label,
			FormatCurrency(prev.Revenue, cfg.Currency), FormatCurrency(curr.Revenue, cfg.Currency)),
	}
}

func trendAlert(first, last MonthBucket, months int, cfg *Config) Alert {
	decline := 0.0
	if first.Revenue > 0 {
		decline = (first.Revenue - last.Revenue) / first.Revenue * 100
	}
	return Alert{
		Kind:            AlertTrend,
		PeriodStart:     first.Month,
		PeriodEnd:       last.Month,
		StartLabel:      first.Label,
		EndLabel:        last.Label,
		DeclinePct:      RoundTo2(decline),
		PreviousRevenue: first.Revenue,
		CurrentRevenue:  last.Revenue,
		Severity:        SeverityMedium,
		Message: fmt.Sprintf("Revenue declined %d months in a row (%s → %s), down %.1f%% overall",
			months, first.Label, last.Label, decline),
	}
}
