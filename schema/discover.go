package schema

import (
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/spektr-org/pulse/table"
)

// ============================================================================
// AUTO-DISCOVERY — Column role classification
// ============================================================================
// Inspects a table and tags every column with a semantic Role.
// No AI needed. Deterministic: same table → same descriptors.
//
// Classification pipeline per column:
//   1. Sample the first N non-null values → count value kinds (date, number, text)
//   2. Header keywords → candidate roles, checked against the value kind
//   3. No compatible name match → infer the role from value patterns
//   4. All-null column → Unknown, confidence 0
// ============================================================================

// DiscoverOptions controls discovery behavior.
type DiscoverOptions struct {
	SampleSize int // Max non-null values inspected per column (0 = whole column). Default: 1000
}

// MinSampleSize is the floor applied to a positive SampleSize.
const MinSampleSize = 30

// DefaultDiscoverOptions returns sensible defaults.
func DefaultDiscoverOptions() DiscoverOptions {
	return DiscoverOptions{
		SampleSize: 1000,
	}
}

// Classification thresholds.
const (
	dateRatioThreshold    = 0.8 // share of dates for a Date column
	repetitionThreshold   = 0.5 // unique ratio below which text repeats enough to group on
	identifierUniqueRatio = 0.95
	minRowsForIdentifier  = 10
	identifierSpanFactor  = 2 // sequential ids span at most this × their count
	minCodeDigits         = 6 // fixed-width integer codes at least this long
	minValueConfidence    = 0.5
	valueConfidenceSpan   = 0.4
	maxSamples            = 10
)

// Classify assigns a role and confidence to every column of t, in column order.
func Classify(t table.Table, opts ...DiscoverOptions) []ColumnDescriptor {
	opt := DefaultDiscoverOptions()
	if len(opts) > 0 {
		opt = opts[0]
	}
	limit := opt.SampleSize
	if limit > 0 && limit < MinSampleSize {
		limit = MinSampleSize
	}

	out := make([]ColumnDescriptor, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = analyzeColumn(t, col, i, limit)
	}

	log.Printf("🔍 Pulse: classified %d columns over %d rows", len(out), t.Len())
	return out
}

// ============================================================================
// COLUMN ANALYSIS
// ============================================================================

type columnAnalysis struct {
	values  []any
	unique  map[string]bool
	dates   int
	numbers int
	texts   int

	currency    bool // any text cell carried a currency sign
	integral    bool // every numeric value is a whole number
	maxDecimals int
	negative    bool
	codeLike    int // text values that look like codes (no spaces, has a digit)

	min, max             float64 // numeric range
	minDigits, maxDigits int     // digit counts of numeric cells as written
}

func (a *columnAnalysis) total() int { return len(a.values) }

func (a *columnAnalysis) ratio(n int) float64 {
	if a.total() == 0 {
		return 0
	}
	return float64(n) / float64(a.total())
}

func (a *columnAnalysis) uniqueRatio() float64 { return a.ratio(len(a.unique)) }

// idLike reports whether unique integers read as keys rather than amounts:
// a dense run (1001, 1002, ...) or fixed-width codes.
func (a *columnAnalysis) idLike() bool {
	if a.numbers == 0 {
		return false
	}
	span := a.max - a.min + 1
	if span <= identifierSpanFactor*float64(len(a.unique)) {
		return true
	}
	return a.minDigits == a.maxDigits && a.minDigits >= minCodeDigits
}

// kind returns the majority value kind. Ties favour date, then number.
func (a *columnAnalysis) kind() table.Kind {
	switch {
	case a.total() == 0:
		return table.KindNull
	case a.dates >= a.numbers && a.dates >= a.texts:
		return table.KindDate
	case a.numbers >= a.texts:
		return table.KindNumber
	default:
		return table.KindText
	}
}

// analyzeColumn inspects sampled values in a column and classifies it.
func analyzeColumn(t table.Table, header string, index, limit int) ColumnDescriptor {
	d := ColumnDescriptor{
		Name:        header,
		Key:         toSnakeCase(header),
		DisplayName: toDisplayName(header),
		Index:       index,
		Nulls:       t.NullCount(header),
	}
	d.NonNull = t.Len() - d.Nulls

	a := sampleColumn(t.NonNullValues(header, limit))
	d.Kind = string(a.kind())
	d.Unique = len(a.unique)
	d.Samples = collectSamples(a.unique, maxSamples)

	if a.total() == 0 {
		d.Role, d.Confidence, d.Source = RoleUnknown, 0, SourceNone
		return d
	}

	if role, conf, ok := classifyByName(header, a); ok {
		d.Role, d.Confidence, d.Source = role, conf, SourceName
		return d
	}

	role, conf := classifyByValues(header, a)
	d.Role, d.Confidence = role, conf
	d.Source = SourceValues
	if role == RoleUnknown {
		d.Source = SourceNone
	}
	return d
}

func sampleColumn(values []any) *columnAnalysis {
	a := &columnAnalysis{
		values:   values,
		unique:   make(map[string]bool),
		integral: true,
	}
	for _, v := range values {
		a.unique[table.Text(v)] = true
		switch table.KindOf(v) {
		case table.KindDate:
			a.dates++
		case table.KindNumber:
			a.numbers++
			f, _ := table.Number(v)
			a.trackRange(f, digitCount(table.Text(v)))
			if f != math.Trunc(f) {
				a.integral = false
			}
			if f < 0 {
				a.negative = true
			}
			if dec := decimals(v, f); dec > a.maxDecimals {
				a.maxDecimals = dec
			}
			if table.HasCurrencySymbol(v) {
				a.currency = true
			}
		default:
			a.texts++
			if looksLikeCode(table.Text(v)) {
				a.codeLike++
			}
		}
	}
	return a
}

func (a *columnAnalysis) trackRange(f float64, digits int) {
	if a.numbers == 1 {
		a.min, a.max = f, f
		a.minDigits, a.maxDigits = digits, digits
		return
	}
	a.min, a.max = math.Min(a.min, f), math.Max(a.max, f)
	if digits < a.minDigits {
		a.minDigits = digits
	}
	if digits > a.maxDigits {
		a.maxDigits = digits
	}
}

// ============================================================================
// STEP 1 — HEADER MATCH
// ============================================================================

// classifyByName picks the first name-suggested role compatible with the
// values. Numeric columns prefer numeric roles so "item_count" is a
// quantity, not a product.
func classifyByName(header string, a *columnAnalysis) (Role, float64, bool) {
	matches := matchName(header)
	if len(matches) == 0 {
		return "", 0, false
	}
	if a.kind() == table.KindNumber {
		for _, m := range matches {
			if isNumericRole(m.role) && compatible(m.role, a) {
				return m.role, m.confidence, true
			}
		}
	}
	for _, m := range matches {
		if compatible(m.role, a) {
			return m.role, m.confidence, true
		}
	}
	return "", 0, false
}

func isNumericRole(r Role) bool { return r == RoleMonetary || r == RoleQuantity }

// compatible reports whether the sampled values can carry role r.
func compatible(r Role, a *columnAnalysis) bool {
	switch r {
	case RoleDate:
		return a.ratio(a.dates) >= dateRatioThreshold
	case RoleMonetary, RoleQuantity:
		// Majority is enough; stray text cells are scored by data quality.
		return a.kind() == table.KindNumber
	case RoleCustomer, RoleProduct, RoleCategory:
		return a.kind() != table.KindDate
	default:
		return true
	}
}

// ============================================================================
// STEP 2 — VALUE INFERENCE
// ============================================================================

// classifyByValues infers a role from value patterns alone.
// Confidence scales with the share of values supporting the decision.
func classifyByValues(header string, a *columnAnalysis) (Role, float64) {
	if r := a.ratio(a.dates); r >= dateRatioThreshold {
		return RoleDate, valueConfidence(r)
	}

	switch a.kind() {
	case table.KindNumber, table.KindDate:
		// A date-majority column under the date threshold reads as whatever
		// its numbers say, or falls through to text handling.
		if a.numbers >= a.texts && a.numbers > 0 {
			return classifyNumeric(a)
		}
	}
	return classifyText(header, a)
}

func classifyNumeric(a *columnAnalysis) (Role, float64) {
	conf := valueConfidence(a.ratio(a.numbers))
	switch {
	case a.currency:
		return RoleMonetary, conf
	case !a.integral && a.maxDecimals <= 2:
		return RoleMonetary, conf
	case a.integral && a.total() > minRowsForIdentifier && a.uniqueRatio() >= identifierUniqueRatio:
		if a.idLike() {
			return RoleIdentifier, conf
		}
		// Scattered whole amounts (1000, 1037, 1250, ...).
		return RoleMonetary, conf
	case a.integral && !a.negative && a.uniqueRatio() < repetitionThreshold:
		return RoleQuantity, conf
	}
	return RoleUnknown, 0
}

func classifyText(header string, a *columnAnalysis) (Role, float64) {
	conf := valueConfidence(a.ratio(a.texts))
	if a.uniqueRatio() < repetitionThreshold {
		tokens, key := tokenize(header), toSnakeCase(header)
		switch {
		case anyMatch(customerHints, tokens, key):
			return RoleCustomer, conf
		case anyMatch(productHints, tokens, key):
			return RoleProduct, conf
		}
		return RoleCategory, conf
	}
	if a.total() > minRowsForIdentifier &&
		a.uniqueRatio() >= identifierUniqueRatio &&
		a.ratio(a.codeLike) >= dateRatioThreshold {
		return RoleIdentifier, valueConfidence(a.ratio(a.codeLike))
	}
	return RoleText, conf
}

// valueConfidence maps a match ratio in [0,1] onto [0.5, 0.9].
func valueConfidence(ratio float64) float64 {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return math.Round((minValueConfidence+valueConfidenceSpan*ratio)*1000) / 1000
}

// ============================================================================
// HELPERS
// ============================================================================

// decimals counts fractional digits as written, so "12.50" counts 2.
func decimals(v any, f float64) int {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), ")"))
		if i := strings.LastIndex(s, "."); i >= 0 {
			return len(s) - i - 1
		}
		return 0
	}
	str := strconv.FormatFloat(f, 'f', -1, 64)
	if i := strings.IndexByte(str, '.'); i >= 0 {
		return len(str) - i - 1
	}
	return 0
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func looksLikeCode(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// collectSamples picks up to n representative values.
func collectSamples(uniqueSet map[string]bool, n int) []string {
	samples := make([]string, 0, len(uniqueSet))
	for v := range uniqueSet {
		samples = append(samples, v)
	}

	// Sort for deterministic output
	sort.Strings(samples)

	if len(samples) > n {
		samples = samples[:n]
	}
	return samples
}
