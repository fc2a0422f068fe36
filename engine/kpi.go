package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/spektr-org/pulse/schema"
	"github.com/spektr-org/pulse/table"
)

// ============================================================================
// KPI ENGINE — headline metrics + data quality
// ============================================================================

// ComputeKPIs derives the headline metrics of a dataset.
// Revenue metrics are unavailable, never zero, when no revenue column is bound.
func ComputeKPIs(view *TableView, cfg *Config) KPISnapshot {
	var k KPISnapshot

	orders := orderCount(view)
	k.OrderCount = available(float64(orders))

	if view.Has(schema.FieldCustomer) {
		k.UniqueCustomers = available(float64(DistinctCount(view, schema.FieldCustomer)))
	} else {
		k.UniqueCustomers = unavailable("no customer column detected")
	}

	if from, to, ok := DateRange(view); ok {
		k.PeriodFrom, k.PeriodTo = &from, &to
	}

	if !view.Has(schema.FieldRevenue) {
		reason := "no revenue column detected"
		k.TotalRevenue = unavailable(reason)
		k.AvgOrderValue = unavailable(reason)
		k.GrowthPct = unavailable(reason)
		k.DataQuality = AssessQuality(view)
		return k
	}

	total, _ := SumNumber(view, schema.FieldRevenue)
	k.TotalRevenue = available(total)

	aov := 0.0
	if orders > 0 {
		aov = total / float64(orders)
	}
	k.AvgOrderValue = available(aov)

	if view.Has(schema.FieldDate) {
		months := MonthlyRevenue(view)
		k.GrowthPct = growth(months)
		if n := len(months); n >= 2 {
			k.CurrentMonth, k.PreviousMonth = months[n-1].Label, months[n-2].Label
		}
		k.MonthlyRevenue = FillMonths(months)
	} else {
		k.GrowthPct = unavailable("no date column detected")
	}

	if view.Has(schema.FieldCustomer) {
		k.TopCustomers = RevenueShares(view, schema.FieldCustomer, cfg.TopN)
	}
	if view.Has(schema.FieldProduct) {
		k.TopProducts = RevenueShares(view, schema.FieldProduct, cfg.TopN)
	}

	k.DataQuality = AssessQuality(view)
	return k
}

// growth compares the latest observed month against the one before it.
func growth(months []MonthBucket) Metric {
	n := len(months)
	if n < 2 {
		return unavailable("fewer than two months of data")
	}
	prev, curr := months[n-2].Revenue, months[n-1].Revenue
	if prev == 0 {
		return unavailable(fmt.Sprintf("no revenue in %s", months[n-2].Label))
	}
	return available((curr - prev) / prev * 100)
}

// ============================================================================
// DATA QUALITY
// ============================================================================

// Penalty caps per issue class; they sum to 100.
const (
	maxMissingFieldPenalty = 30
	perMissingFieldPenalty = 10
	maxNullPenalty         = 30
	maxInvalidPenalty      = 20
	maxDuplicatePenalty    = 20
)

// requiredFields are the fields every engine needs between them.
var requiredFields = []schema.Field{schema.FieldDate, schema.FieldCustomer, schema.FieldRevenue}

// AssessQuality scores a dataset 0–100 by subtracting capped penalties for
// missing required fields, null cells, unparseable dates or revenue, and
// duplicate order ids (duplicate rows when no id column exists).
func AssessQuality(view *TableView) DataQuality {
	var dq DataQuality
	t := view.Table()
	rows := t.Len()

	// 1. Missing required fields
	missing := view.Schema().Missing(requiredFields...)
	if len(missing) > 0 {
		penalty := math.Min(maxMissingFieldPenalty, float64(perMissingFieldPenalty*len(missing)))
		names := make([]string, len(missing))
		for i, f := range missing {
			names[i] = string(f)
		}
		dq.Issues = append(dq.Issues, QualityIssue{
			Kind:    IssueMissingField,
			Count:   len(missing),
			Penalty: penalty,
			Message: "no column found for: " + strings.Join(names, ", "),
		})
	}

	if rows == 0 || len(t.Columns) == 0 {
		dq.Score = scoreFrom(dq.Issues)
		return dq
	}

	// 2. Null cells across the whole table
	nulls := 0
	worstCol, worstNulls := "", 0
	for _, col := range t.Columns {
		n := t.NullCount(col)
		nulls += n
		if n > worstNulls {
			worstCol, worstNulls = col, n
		}
	}
	if nulls > 0 {
		ratio := float64(nulls) / float64(rows*len(t.Columns))
		dq.Issues = append(dq.Issues, QualityIssue{
			Kind:    IssueNullValues,
			Column:  worstCol,
			Count:   nulls,
			Penalty: RoundTo2(math.Min(maxNullPenalty, ratio*100)),
			Message: fmt.Sprintf("%d empty cells (%.1f%%), most in %q", nulls, ratio*100, worstCol),
		})
	}

	// 3. Unparseable dates and missing / non-numeric revenue
	badDates, badRevenue := 0, 0
	for i := 0; i < rows; i++ {
		if view.Has(schema.FieldDate) && !table.IsNull(view.Raw(i, schema.FieldDate)) {
			if _, ok := view.Time(i, schema.FieldDate); !ok {
				badDates++
			}
		}
		if view.Has(schema.FieldRevenue) {
			if _, ok := view.Number(i, schema.FieldRevenue); !ok {
				badRevenue++
			}
		}
	}
	if invalid := badDates + badRevenue; invalid > 0 {
		ratio := math.Min(1, float64(invalid)/float64(rows))
		dq.Issues = append(dq.Issues, QualityIssue{
			Kind:    IssueInvalidValues,
			Count:   invalid,
			Penalty: RoundTo2(math.Min(maxInvalidPenalty, ratio*100)),
			Message: fmt.Sprintf("%d unparseable dates, %d missing or non-numeric revenue values", badDates, badRevenue),
		})
	}

	// 4. Duplicates
	if dup, base, what := duplicates(view); dup > 0 {
		ratio := float64(dup) / float64(base)
		dq.Issues = append(dq.Issues, QualityIssue{
			Kind:    IssueDuplicates,
			Count:   dup,
			Penalty: RoundTo2(math.Min(maxDuplicatePenalty, ratio*100)),
			Message: fmt.Sprintf("%d duplicate %s", dup, what),
		})
	}

	dq.Score = scoreFrom(dq.Issues)
	return dq
}

// duplicates counts repeated order ids, or repeated whole rows when the
// dataset has no id column.
func duplicates(view *TableView) (dup, base int, what string) {
	seen := make(map[string]struct{})
	if view.Has(schema.FieldOrderID) {
		for i := 0; i < view.Len(); i++ {
			id := view.Text(i, schema.FieldOrderID)
			if id == "" {
				continue
			}
			base++
			if _, ok := seen[id]; ok {
				dup++
				continue
			}
			seen[id] = struct{}{}
		}
		return dup, base, "order ids"
	}

	t := view.Table()
	parts := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, col := range t.Columns {
			parts[j] = table.Text(row[col])
		}
		sig := strings.Join(parts, "\x1f")
		base++
		if _, ok := seen[sig]; ok {
			dup++
			continue
		}
		seen[sig] = struct{}{}
	}
	return dup, base, "rows"
}

func scoreFrom(issues []QualityIssue) float64 {
	score := 100.0
	for _, is := range issues {
		score -= is.Penalty
	}
	return math.Round(clamp(score, 0, 100)*10) / 10
}
