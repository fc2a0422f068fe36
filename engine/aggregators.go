package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/spektr-org/pulse/schema"
)

// ============================================================================
// AGGREGATORS — Grouping, monthly bucketing, and formatting via FieldView
// ============================================================================
// All functions operate on FieldView. Grouping produces SubViews (index lists
// into the parent view).
// ============================================================================

// Group is one distinct value of a field and the rows carrying it.
type Group struct {
	Key  string
	View FieldView
}

// GroupBy splits a view by the text value of field, skipping empty values.
// Groups come back sorted by key.
func GroupBy(view FieldView, field schema.Field) []Group {
	indexMap := make(map[string][]int)
	for i := 0; i < view.Len(); i++ {
		key := view.Text(i, field)
		if key == "" {
			continue
		}
		indexMap[key] = append(indexMap[key], i)
	}

	groups := make([]Group, 0, len(indexMap))
	for key, indices := range indexMap {
		groups = append(groups, Group{Key: key, View: newSubView(view, indices)})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	return groups
}

// SumNumber totals a numeric field. Missing or non-numeric cells count as 0
// and are reported in invalid.
func SumNumber(view FieldView, field schema.Field) (sum float64, invalid int) {
	for i := 0; i < view.Len(); i++ {
		v, ok := view.Number(i, field)
		if !ok {
			invalid++
			continue
		}
		sum += v
	}
	return sum, invalid
}

// DistinctCount counts distinct non-empty text values of a field.
func DistinctCount(view FieldView, field schema.Field) int {
	seen := make(map[string]struct{})
	for i := 0; i < view.Len(); i++ {
		if s := view.Text(i, field); s != "" {
			seen[s] = struct{}{}
		}
	}
	return len(seen)
}

// orderCount counts orders in a view: distinct order ids when the view has
// them, rows otherwise.
func orderCount(view FieldView) int {
	if view.Has(schema.FieldOrderID) {
		if n := DistinctCount(view, schema.FieldOrderID); n > 0 {
			return n
		}
	}
	return view.Len()
}

// DateRange returns the earliest and latest parseable dates.
func DateRange(view FieldView) (from, to time.Time, ok bool) {
	for i := 0; i < view.Len(); i++ {
		t, valid := view.Time(i, schema.FieldDate)
		if !valid {
			continue
		}
		if !ok || t.Before(from) {
			from = t
		}
		if !ok || t.After(to) {
			to = t
		}
		ok = true
	}
	return from, to, ok
}

// ============================================================================
// MONTHLY BUCKETS
// ============================================================================

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthLabel formats a month as "Jan-2026".
func MonthLabel(t time.Time) string { return t.Format("Jan-2006") }

// MonthlyRevenue buckets revenue by calendar month, for months that appear
// in the data, oldest first. Rows without a parseable date are skipped;
// non-numeric revenue counts as 0.
func MonthlyRevenue(view FieldView) []MonthBucket {
	byMonth := make(map[time.Time]*MonthBucket)
	for i := 0; i < view.Len(); i++ {
		t, ok := view.Time(i, schema.FieldDate)
		if !ok {
			continue
		}
		m := monthStart(t)
		b, exists := byMonth[m]
		if !exists {
			b = &MonthBucket{Month: m, Label: MonthLabel(m)}
			byMonth[m] = b
		}
		if rev, ok := view.Number(i, schema.FieldRevenue); ok {
			b.Revenue += rev
		}
		b.Orders++
	}

	out := make([]MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out
}

// FillMonths returns consecutive calendar months from the first bucket to
// the last, inserting zero-revenue months for gaps.
func FillMonths(buckets []MonthBucket) []MonthBucket {
	if len(buckets) < 2 {
		return buckets
	}
	byMonth := make(map[time.Time]MonthBucket, len(buckets))
	for _, b := range buckets {
		byMonth[b.Month] = b
	}
	last := buckets[len(buckets)-1].Month
	var out []MonthBucket
	for m := buckets[0].Month; !m.After(last); m = m.AddDate(0, 1, 0) {
		if b, ok := byMonth[m]; ok {
			out = append(out, b)
		} else {
			out = append(out, MonthBucket{Month: m, Label: MonthLabel(m)})
		}
	}
	return out
}

// ============================================================================
// LEADERBOARDS
// ============================================================================

// RevenueShares ranks the values of field by revenue, highest first
// (ties by name). limit <= 0 keeps all.
func RevenueShares(view FieldView, field schema.Field, limit int) []Share {
	groups := GroupBy(view, field)
	if len(groups) == 0 {
		return nil
	}
	total, _ := SumNumber(view, schema.FieldRevenue)

	shares := make([]Share, 0, len(groups))
	for _, g := range groups {
		rev, _ := SumNumber(g.View, schema.FieldRevenue)
		s := Share{Name: g.Key, Revenue: rev, Orders: orderCount(g.View)}
		if total > 0 {
			s.SharePct = RoundTo2(rev / total * 100)
		}
		shares = append(shares, s)
	}
	sort.SliceStable(shares, func(i, j int) bool {
		if shares[i].Revenue != shares[j].Revenue {
			return shares[i].Revenue > shares[j].Revenue
		}
		return shares[i].Name < shares[j].Name
	})
	if limit > 0 && len(shares) > limit {
		shares = shares[:limit]
	}
	return shares
}

// ============================================================================
// FORMATTING
// ============================================================================

// FormatCurrency formats an amount with a currency prefix and comma separators.
// Symbols attach directly ("$1,234.50"); codes get a space ("SGD 1,234.50").
func FormatCurrency(amount float64, currency string) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	cents := int64(math.Round(amount * 100))
	intStr := FormatInt(int(cents / 100))
	result := fmt.Sprintf("%s.%02d", intStr, cents%100)

	switch {
	case currency == "":
	case isAlpha(currency):
		result = currency + " " + result
	default:
		result = currency + result
	}
	if negative {
		result = "-" + result
	}
	return result
}

func isAlpha(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z')
	}) < 0
}

// FormatCompact abbreviates large numbers: 1234567 → "1.2M", 4500 → "4.5K".
func FormatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatInt formats an integer with comma separators.
func FormatInt(n int) string {
	if n < 0 {
		return "-" + FormatInt(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s,%03d", FormatInt(n/1000), n%1000)
}

// FormatPct formats a percentage with one decimal and a sign.
func FormatPct(v float64) string { return fmt.Sprintf("%+.1f%%", v) }

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
