package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ============================================================================
// CELL VALUES — null / number / date / text interpretation
// ============================================================================
// Loaders hand over whatever the source produced: CSV gives strings, XLSX and
// databases give typed values. Everything downstream goes through these
// helpers so a "$1,234.50" string and a 1234.5 float read the same way.
// ============================================================================

// Kind is the coarse value type of a cell.
type Kind string

const (
	KindNull   Kind = "null"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindText   Kind = "text"
)

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"n/a":  true,
	"na":   true,
	"nan":  true,
	"none": true,
	"nil":  true,
	"-":    true,
}

// IsNull reports whether v counts as a missing value.
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return nullTokens[strings.ToLower(strings.TrimSpace(x))]
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	case time.Time:
		return x.IsZero()
	}
	return false
}

const currencySymbols = "$€£¥₹"

// HasCurrencySymbol reports whether a text cell carries a currency sign.
func HasCurrencySymbol(v any) bool {
	s, ok := v.(string)
	return ok && strings.ContainsAny(s, currencySymbols)
}

// Number interprets v as a number.
// Strings may carry currency symbols, thousands separators and accounting
// parentheses: "$1,234.50", "(12.00)", "€ 9".
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case float32:
		return Number(float64(x))
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		return parseNumber(x)
	}
	return 0, false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || strings.ContainsRune(currencySymbols, r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if negative {
		f = -f
	}
	return f, true
}

// DateFormats lists the layouts tried, in order, when reading text dates.
// Slash dates are month-first: "05/03/2024" is May 3. Day-first only
// applies when month-first cannot parse ("25/03/2024" is March 25).
// Bare years are deliberately absent so numeric columns never read as dates.
var DateFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"01-02-06", // spreadsheet default short date
	"1/2/06",
	"2/1/2006", // day-first, reached only when the day is above 12
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"Jan-2006",
	"January 2006",
	"2006-01",
}

// Time interprets v as a date.
func Time(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x, true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return *x, true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range DateFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

// Text renders v as a trimmed string ("" for null).
func Text(v any) string {
	if IsNull(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 {
			return x.Format("2006-01-02")
		}
		return x.Format(time.RFC3339)
	case []byte:
		return strings.TrimSpace(string(x))
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

// KindOf classifies a single cell. Dates win over numbers for text that
// parses as both.
func KindOf(v any) Kind {
	if IsNull(v) {
		return KindNull
	}
	if _, ok := Time(v); ok {
		return KindDate
	}
	if _, ok := Number(v); ok {
		return KindNumber
	}
	return KindText
}
