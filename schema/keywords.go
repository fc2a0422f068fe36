package schema

import (
	"strings"
	"unicode"
)

// ============================================================================
// HEADER KEYWORDS
// ============================================================================
// Curated synonyms per role. A keyword matches when it equals one header
// token, or (for keywords of 4+ chars) starts a word inside the snake_case
// header, so "Customername" and "order_date" both hit.
// ============================================================================

type roleKeywords struct {
	role    Role
	primary []string
	weak    []string // matched like primary but scored weakConfidence
}

// rolePriority is the order name matches are tried in.
var rolePriority = []roleKeywords{
	{role: RoleDate, primary: []string{
		"date", "created_at", "order_date", "invoice_date", "timestamp",
		"time", "day", "month", "period", "created", "purchased", "ordered",
	}},
	{role: RoleCustomer, primary: []string{
		"customer", "client", "buyer", "account", "cust", "consumer",
		"purchaser", "user", "member", "shopper", "patron",
	}},
	{role: RoleProduct, primary: []string{
		"product", "item", "sku", "article", "goods", "merchandise", "service",
	}},
	{role: RoleMonetary, primary: []string{
		"revenue", "sales", "amount", "total", "turnover", "income", "gmv",
		"net", "gross", "subtotal", "spend", "paid",
	}, weak: []string{
		"price", "cost", "fee", "value", "charge", "rate",
	}},
	{role: RoleQuantity, primary: []string{
		"qty", "quantity", "units", "count", "volume", "pieces", "pcs",
	}},
	{role: RoleIdentifier, primary: []string{
		"id", "order_id", "invoice", "order_no", "order_number",
		"transaction", "txn", "reference", "ref", "uuid", "receipt",
	}},
	{role: RoleCategory, primary: []string{
		"category", "region", "segment", "type", "status", "channel",
		"country", "city", "state", "department", "group", "class",
		"brand", "market", "territory", "store", "branch", "currency",
	}},
}

// weakConfidence scores unit-level money synonyms below totals so a
// "Revenue" column outranks a "Unit Price" column when both exist.
const weakConfidence = 0.95

// Weak name hints used only to split low-cardinality text columns.
var (
	customerHints = []string{"name", "company", "contact", "email", "owner", "person"}
	productHints  = []string{"model", "plan", "title", "variant", "package", "course"}
)

// tokenize splits a header into lowercase words.
func tokenize(header string) []string {
	return strings.FieldsFunc(toSnakeCase(header), func(r rune) bool {
		return r == '_' || !(unicode.IsLetter(r) || unicode.IsDigit(r))
	})
}

// keywordMatches reports whether kw hits the header.
func keywordMatches(kw string, tokens []string, key string) bool {
	for _, t := range tokens {
		if t == kw {
			return true
		}
	}
	if !strings.Contains(kw, "_") && len(kw) < 4 {
		return false
	}
	// Substring hits must start on a word boundary: "customername" matches
	// "customer", "account" does not match "count".
	for i := 0; i+len(kw) <= len(key); i++ {
		if key[i:i+len(kw)] == kw && (i == 0 || key[i-1] == '_') {
			return true
		}
	}
	return false
}

// nameMatch is one role suggested by the header.
type nameMatch struct {
	role       Role
	confidence float64
}

// matchName returns every role the header suggests, in priority order.
func matchName(header string) []nameMatch {
	tokens := tokenize(header)
	key := toSnakeCase(header)
	var out []nameMatch
	for _, rk := range rolePriority {
		switch {
		case anyMatch(rk.primary, tokens, key):
			out = append(out, nameMatch{role: rk.role, confidence: 1.0})
		case anyMatch(rk.weak, tokens, key):
			out = append(out, nameMatch{role: rk.role, confidence: weakConfidence})
		}
	}
	return out
}

func anyMatch(kws, tokens []string, key string) bool {
	for _, kw := range kws {
		if keywordMatches(kw, tokens, key) {
			return true
		}
	}
	return false
}

// toSnakeCase converts "Column Name" or "columnName" → "column_name".
func toSnakeCase(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			if unicode.IsLower(prev) || unicode.IsDigit(prev) {
				b.WriteRune('_')
			}
		}
		b.WriteRune(r)
	}

	s = strings.ToLower(b.String())
	s = strings.NewReplacer(" ", "_", "-", "_", ".", "_", "/", "_").Replace(s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// toDisplayName cleans a header for human display.
// "total_sales" → "Total Sales"; headers with spaces are kept as-is.
func toDisplayName(s string) string {
	if strings.Contains(strings.TrimSpace(s), " ") {
		return strings.TrimSpace(s)
	}
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
