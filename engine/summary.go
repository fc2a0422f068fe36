package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/spektr-org/pulse/schema"
	"github.com/spektr-org/pulse/table"
)

// ============================================================================
// DATASET SUMMARY — describe() and corr() over the numeric columns
// ============================================================================
// Independent of field bindings: every number-kind column except identifiers
// is profiled, so it works even when no revenue column was found.
// ============================================================================

const (
	maxOverviewColumns = 3 // numeric columns quoted in the overview
	maxMissingListed   = 3
)

// DatasetSummary profiles the table an analysis ran on.
type DatasetSummary struct {
	Rows            int              `json:"rows"`
	Columns         int              `json:"columns"`
	NumericColumns  int              `json:"numericColumns"`
	DateColumns     int              `json:"dateColumns"`
	CategoryColumns int              `json:"categoryColumns"`
	Missing         []MissingCount   `json:"missing,omitempty"`
	Numeric         []NumericSummary `json:"numeric"`
	Correlation     *Correlation     `json:"correlation,omitempty"`
	Overview        []string         `json:"overview"`
}

// MissingCount is the number of null cells in one column.
type MissingCount struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

// NumericSummary is the describe() row of one numeric column.
// Count is numeric cells; Invalid is non-null cells that did not parse.
type NumericSummary struct {
	Column  string      `json:"column"`
	Role    schema.Role `json:"role"`
	Count   int         `json:"count"`
	Missing int         `json:"missing"`
	Invalid int         `json:"invalid"`
	Mean    float64     `json:"mean"`
	StdDev  float64     `json:"std"`
	Min     float64     `json:"min"`
	P25     float64     `json:"p25"`
	Median  float64     `json:"median"`
	P75     float64     `json:"p75"`
	Max     float64     `json:"max"`
}

// Correlation is a symmetric Pearson matrix over Columns. A nil cell means
// undefined: fewer than two paired rows or a constant column.
type Correlation struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// At returns the coefficient for columns i and j.
func (c *Correlation) At(i, j int) (float64, bool) {
	if v := c.Values[i][j]; v != nil {
		return *v, true
	}
	return 0, false
}

// SummarizeDataset profiles t using the classified descriptors.
func SummarizeDataset(t table.Table, descs []schema.ColumnDescriptor) *DatasetSummary {
	s := &DatasetSummary{Rows: t.Len(), Columns: len(t.Columns)}

	var numeric []schema.ColumnDescriptor
	for _, d := range descs {
		switch {
		case d.Role == schema.RoleDate:
			s.DateColumns++
		case d.Role == schema.RoleCategory || d.Role == schema.RoleCustomer || d.Role == schema.RoleProduct:
			s.CategoryColumns++
		case d.Kind == string(table.KindNumber) && d.Role != schema.RoleIdentifier:
			numeric = append(numeric, d)
		}
		if n := nullCount(t, d.Name); n > 0 {
			s.Missing = append(s.Missing, MissingCount{Column: d.Name, Count: n})
		}
	}
	s.NumericColumns = len(numeric)
	sort.SliceStable(s.Missing, func(i, j int) bool { return s.Missing[i].Count > s.Missing[j].Count })

	// Cells parsed once, aligned by row; ok[c][i] marks a usable number.
	values := make([][]float64, len(numeric))
	ok := make([][]bool, len(numeric))
	for c, d := range numeric {
		values[c], ok[c] = numericCells(t, d.Name)
		s.Numeric = append(s.Numeric, describe(d, values[c], ok[c]))
	}
	if len(numeric) > 1 {
		s.Correlation = correlate(numeric, values, ok)
	}

	s.Overview = overview(s)
	return s
}

// ── describe ──────────────────────────────────────────────────────────────

func describe(d schema.ColumnDescriptor, values []float64, ok []bool) NumericSummary {
	ns := NumericSummary{Column: d.Name, Role: d.Role}
	var xs stats.Float64Data
	for i, v := range values {
		switch {
		case ok[i]:
			xs = append(xs, v)
		case math.IsNaN(v):
			ns.Missing++
		default:
			ns.Invalid++
		}
	}
	ns.Count = len(xs)
	if ns.Count == 0 {
		return ns
	}

	mean, _ := xs.Mean()
	lo, _ := xs.Min()
	hi, _ := xs.Max()
	median, _ := xs.Median()
	ns.Mean, ns.Min, ns.Max, ns.Median = RoundTo2(mean), lo, hi, RoundTo2(median)
	if ns.Count > 1 {
		sd, _ := xs.StandardDeviationSample()
		ns.StdDev = RoundTo2(sd)
	}
	ns.P25 = RoundTo2(percentile(xs, 25, lo))
	ns.P75 = RoundTo2(percentile(xs, 75, lo))
	return ns
}

// percentile falls back to the minimum where the sample is too small for
// the requested rank.
func percentile(xs stats.Float64Data, pct, fallback float64) float64 {
	p, err := stats.Percentile(xs, pct)
	if err != nil || math.IsNaN(p) {
		return fallback
	}
	return p
}

// ── corr ──────────────────────────────────────────────────────────────────

func correlate(cols []schema.ColumnDescriptor, values [][]float64, ok [][]bool) *Correlation {
	c := &Correlation{Values: make([][]*float64, len(cols))}
	for i, d := range cols {
		c.Columns = append(c.Columns, d.Name)
		c.Values[i] = make([]*float64, len(cols))
	}
	for i := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(values[i], ok[i], values[j], ok[j])
			c.Values[i][j], c.Values[j][i] = r, r
		}
	}
	return c
}

// pearson correlates the rows where both columns hold a number.
func pearson(x []float64, xok []bool, y []float64, yok []bool) *float64 {
	var xs, ys stats.Float64Data
	for i := range x {
		if xok[i] && yok[i] {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	if len(xs) < 2 {
		return nil
	}
	sx, _ := stats.StandardDeviationPopulation(xs)
	sy, _ := stats.StandardDeviationPopulation(ys)
	if sx == 0 || sy == 0 {
		return nil
	}
	r, err := stats.Correlation(xs, ys)
	if err != nil || math.IsNaN(r) {
		return nil
	}
	r = math.Round(r*10000) / 10000
	return &r
}

// ── helpers ───────────────────────────────────────────────────────────────

// numericCells parses a column by row. Nulls come back as NaN with ok=false;
// unparseable cells as 0 with ok=false.
func numericCells(t table.Table, col string) ([]float64, []bool) {
	values := make([]float64, t.Len())
	ok := make([]bool, t.Len())
	for i := range t.Rows {
		v := t.Value(i, col)
		if table.IsNull(v) {
			values[i] = math.NaN()
			continue
		}
		values[i], ok[i] = table.Number(v)
	}
	return values, ok
}

func nullCount(t table.Table, col string) int {
	n := 0
	for i := range t.Rows {
		if table.IsNull(t.Value(i, col)) {
			n++
		}
	}
	return n
}

func overview(s *DatasetSummary) []string {
	lines := []string{
		fmt.Sprintf("%s rows × %d columns", FormatInt(s.Rows), s.Columns),
		fmt.Sprintf("%d numeric, %d date, %d categorical column(s)", s.NumericColumns, s.DateColumns, s.CategoryColumns),
	}
	if len(s.Missing) > 0 {
		parts := make([]string, 0, maxMissingListed)
		for _, m := range s.Missing {
			if len(parts) == maxMissingListed {
				break
			}
			parts = append(parts, fmt.Sprintf("%s (%d)", m.Column, m.Count))
		}
		lines = append(lines, "Missing values: "+strings.Join(parts, ", "))
	}
	for i, ns := range s.Numeric {
		if i == maxOverviewColumns {
			break
		}
		if ns.Count == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: mean %.2f, std %.2f", ns.Column, ns.Mean, ns.StdDev))
	}
	return lines
}
