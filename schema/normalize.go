package schema

import "log"

// ============================================================================
// NORMALIZER — canonical field binding
// ============================================================================

// bindOrder is the order fields are bound in. The auxiliary order id comes
// last so it never competes with a canonical field.
var bindOrder = append(append([]Field{}, CanonicalFields...), FieldOrderID)

// Normalize binds each canonical field to its best column.
// For every field the highest-confidence descriptor of the matching role
// wins; ties go to the earliest column. Unknown and zero-confidence
// columns never bind. A missing field is simply absent.
func Normalize(descs []ColumnDescriptor) NormalizedSchema {
	s := NormalizedSchema{Bindings: make(map[Field]Binding)}
	used := make(map[int]bool)

	for _, f := range bindOrder {
		role := fieldRoles[f]
		best := -1
		for i, d := range descs {
			if d.Role != role || d.Confidence <= 0 || used[d.Index] {
				continue
			}
			if best < 0 || d.Confidence > descs[best].Confidence ||
				(d.Confidence == descs[best].Confidence && d.Index < descs[best].Index) {
				best = i
			}
		}
		if best < 0 {
			continue
		}
		d := descs[best]
		used[d.Index] = true
		s.Bindings[f] = Binding{Column: d.Name, Index: d.Index, Confidence: d.Confidence}
	}

	if missing := s.Missing(CanonicalFields...); len(missing) > 0 {
		log.Printf("⚠️ Pulse: unbound fields %v", missing)
	}
	return s
}
