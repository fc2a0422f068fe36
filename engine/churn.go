package engine

import (
	"log"
	"math"
	"sort"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/spektr-org/pulse/schema"
)

// ============================================================================
// CHURN SCORING — recency / frequency / monetary risk per customer
// ============================================================================
// total = recency (0–40) + frequency (0–30) + monetary (0–30)
//
//   recency   days since last purchase, linear up to the inactivity ceiling
//   frequency orders below the median order count, linear down to 1 order
//   monetary  revenue below the mean customer revenue, linear down to 0
//
// Recency is measured against the latest date in the data (or Config.AsOf),
// never the wall clock, so the same table always scores the same.
// ============================================================================

const (
	maxRecencyScore   = 40
	maxFrequencyScore = 30
	maxMonetaryScore  = 30
)

type customerStats struct {
	id      string
	last    time.Time
	orders  int
	revenue float64
}

// ScoreChurn ranks customers by churn risk, highest first (ties by id).
// Needs customer, date and revenue fields; returns nil otherwise.
func ScoreChurn(view FieldView, cfg *Config) []ChurnRecord {
	if !view.Has(schema.FieldCustomer) || !view.Has(schema.FieldDate) || !view.Has(schema.FieldRevenue) {
		return nil
	}

	ref := cfg.AsOf
	if ref.IsZero() {
		_, to, ok := DateRange(view)
		if !ok {
			return nil
		}
		ref = to
	}

	customers := collectCustomers(view)
	if len(customers) == 0 {
		return nil
	}

	counts := make([]float64, len(customers))
	revenues := make([]float64, len(customers))
	for i, c := range customers {
		counts[i] = float64(c.orders)
		revenues[i] = c.revenue
	}
	median, err := stats.Median(counts)
	if err != nil {
		log.Printf("⚠️ Pulse: churn median failed: %v", err)
		return nil
	}
	mean, err := stats.Mean(revenues)
	if err != nil {
		log.Printf("⚠️ Pulse: churn mean failed: %v", err)
		return nil
	}

	records := make([]ChurnRecord, 0, len(customers))
	for _, c := range customers {
		days := int(math.Floor(ref.Sub(c.last).Hours() / 24))
		if days < 0 {
			days = 0
		}
		r := ChurnRecord{
			CustomerID:     c.id,
			LastPurchase:   c.last,
			DaysInactive:   days,
			Orders:         c.orders,
			Revenue:        c.revenue,
			RecencyScore:   RoundTo2(recencyScore(days, cfg.InactivityCeilingDays)),
			FrequencyScore: RoundTo2(frequencyScore(c.orders, median)),
			MonetaryScore:  RoundTo2(monetaryScore(c.revenue, mean)),
		}
		r.TotalScore = RoundTo2(r.RecencyScore + r.FrequencyScore + r.MonetaryScore)
		r.RiskTier = tierFor(r.TotalScore, cfg)
		records = append(records, r)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].TotalScore != records[j].TotalScore {
			return records[i].TotalScore > records[j].TotalScore
		}
		return records[i].CustomerID < records[j].CustomerID
	})
	return records
}

// collectCustomers aggregates per-customer activity. Customers without a
// single parseable purchase date are left out.
func collectCustomers(view FieldView) []customerStats {
	var out []customerStats
	for _, g := range GroupBy(view, schema.FieldCustomer) {
		c := customerStats{id: g.Key, orders: orderCount(g.View)}
		for i := 0; i < g.View.Len(); i++ {
			if t, ok := g.View.Time(i, schema.FieldDate); ok && t.After(c.last) {
				c.last = t
			}
			if rev, ok := g.View.Number(i, schema.FieldRevenue); ok {
				c.revenue += rev
			}
		}
		if c.last.IsZero() {
			continue
		}
		out = append(out, c)
	}
	return out
}

func recencyScore(days, ceiling int) float64 {
	return clamp(float64(days)/float64(ceiling)*maxRecencyScore, 0, maxRecencyScore)
}

// frequencyScore is 0 at or above the median and max at a single order.
func frequencyScore(orders int, median float64) float64 {
	o := float64(orders)
	if o >= median || median <= 1 {
		return 0
	}
	return clamp(maxFrequencyScore*(median-o)/(median-1), 0, maxFrequencyScore)
}

// monetaryScore is 0 at or above the mean and max at zero revenue.
func monetaryScore(revenue, mean float64) float64 {
	if mean <= 0 {
		return 0
	}
	return clamp(maxMonetaryScore*(1-revenue/mean), 0, maxMonetaryScore)
}

func tierFor(score float64, cfg *Config) RiskTier {
	switch {
	case score >= cfg.HighRiskCutoff:
		return RiskHigh
	case score >= cfg.MediumRiskCutoff:
		return RiskMedium
	default:
		return RiskLow
	}
}
