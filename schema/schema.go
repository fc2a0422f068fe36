package schema

// ============================================================================
// SCHEMA — Semantic description of a sales table
// ============================================================================
// Classify() tags every column with a Role and a confidence.
// Normalize() binds the canonical business fields (date, customer, product,
// revenue, quantity) to at most one column each. Engines read the table only
// through those bindings, never through raw header names.
// ============================================================================

// Role is the semantic role inferred for a column.
type Role string

const (
	RoleDate       Role = "date"
	RoleIdentifier Role = "identifier"
	RoleCustomer   Role = "customer"
	RoleProduct    Role = "product"
	RoleMonetary   Role = "monetary"
	RoleQuantity   Role = "quantity"
	RoleCategory   Role = "category"
	RoleText       Role = "text"
	RoleUnknown    Role = "unknown"
)

// Source records how a role was decided.
type Source string

const (
	SourceName   Source = "name"   // header keyword match
	SourceValues Source = "values" // value-pattern inference
	SourceNone   Source = "none"   // no signal (all-null or ambiguous)
)

// ColumnDescriptor is the classification of one column.
type ColumnDescriptor struct {
	Name        string   `json:"name"`
	Key         string   `json:"key"`
	DisplayName string   `json:"displayName"`
	Index       int      `json:"index"`
	Role        Role     `json:"role"`
	Confidence  float64  `json:"confidence"`
	Source      Source   `json:"source"`
	Kind        string   `json:"kind"` // majority value kind: number, date, text, null
	NonNull     int      `json:"nonNull"`
	Nulls       int      `json:"nulls"`
	Unique      int      `json:"unique"`
	Samples     []string `json:"samples,omitempty"`
}

// Field is a canonical business field the engines consume.
type Field string

const (
	FieldDate     Field = "date"
	FieldCustomer Field = "customer"
	FieldProduct  Field = "product"
	FieldRevenue  Field = "revenue"
	FieldQuantity Field = "quantity"

	// FieldOrderID is auxiliary: it drives distinct order counting and
	// duplicate detection when an identifier column exists.
	FieldOrderID Field = "order_id"
)

// CanonicalFields lists the fields in binding order.
var CanonicalFields = []Field{FieldDate, FieldCustomer, FieldProduct, FieldRevenue, FieldQuantity}

// fieldRoles maps each bindable field to the role that can fill it.
var fieldRoles = map[Field]Role{
	FieldDate:     RoleDate,
	FieldCustomer: RoleCustomer,
	FieldProduct:  RoleProduct,
	FieldRevenue:  RoleMonetary,
	FieldQuantity: RoleQuantity,
	FieldOrderID:  RoleIdentifier,
}

// RoleFor returns the role a field is bound from.
func RoleFor(f Field) Role { return fieldRoles[f] }

// IsField reports whether f names a bindable field.
func IsField(f Field) bool {
	_, ok := fieldRoles[f]
	return ok
}

// Binding ties a canonical field to one column.
type Binding struct {
	Column     string  `json:"column"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

// NormalizedSchema is the field → column mapping used by the engines.
type NormalizedSchema struct {
	Bindings map[Field]Binding `json:"bindings"`
}

// Has reports whether f is bound.
func (s NormalizedSchema) Has(f Field) bool {
	_, ok := s.Bindings[f]
	return ok
}

// Column returns the column bound to f.
func (s NormalizedSchema) Column(f Field) (string, bool) {
	b, ok := s.Bindings[f]
	return b.Column, ok
}

// Missing returns the fields from want that are not bound, in order.
func (s NormalizedSchema) Missing(want ...Field) []Field {
	var out []Field
	for _, f := range want {
		if !s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}
