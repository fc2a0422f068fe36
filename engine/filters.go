package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spektr-org/pulse/schema"
)

// ============================================================================
// FILTERS — Segment an analysis by canonical field values
// ============================================================================
// Single-pass filter: checks ALL field constraints per row in one loop.
// Fields are AND-combined; values within a field are OR-combined.
// Matching is case-insensitive on the trimmed text value.
// ============================================================================

// Filters restricts an analysis to rows whose field values are listed.
type Filters map[schema.Field][]string

// IsEmpty reports whether no field carries a value constraint.
func (f Filters) IsEmpty() bool {
	for _, values := range f {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// String renders filters in field order: "customer=Acme; product=Widget,Gadget".
func (f Filters) String() string {
	keys := make([]string, 0, len(f))
	for field, values := range f {
		if len(values) > 0 {
			keys = append(keys, string(field))
		}
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strings.Join(f[schema.Field(k)], ",")
	}
	return strings.Join(parts, "; ")
}

// ParseFilter parses "field=value1,value2" as given on the command line or
// in an upload form.
func ParseFilter(s string) (schema.Field, []string, error) {
	key, raw, ok := strings.Cut(s, "=")
	field := schema.Field(strings.ToLower(strings.TrimSpace(key)))
	if !ok || field == "" {
		return "", nil, fmt.Errorf("filter %q: want field=value[,value...]", s)
	}
	if !schema.IsField(field) {
		return "", nil, fmt.Errorf("filter %q: unknown field %q", s, field)
	}

	var values []string
	for _, v := range strings.Split(raw, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return "", nil, fmt.Errorf("filter %q: no values", s)
	}
	return field, values, nil
}

// FilterIndices returns the positions of the rows in view that match every
// filter. A filter on a field the view does not carry matches nothing.
func FilterIndices(view FieldView, filters Filters) []int {
	// Pre-build lowercase lookup sets for each field filter
	sets := make(map[schema.Field]map[string]bool)
	for field, allowed := range filters {
		if len(allowed) > 0 {
			sets[field] = toLowerSet(allowed)
		}
	}

	n := view.Len()
	indices := make([]int, 0, n)
	for i := 0; i < n; i++ {
		pass := true
		for field, set := range sets {
			val := strings.ToLower(strings.TrimSpace(view.Text(i, field)))
			if !set[val] {
				pass = false
				break
			}
		}
		if pass {
			indices = append(indices, i)
		}
	}
	return indices
}

// toLowerSet converts a string slice to a lowercase lookup set.
func toLowerSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}
