package engine

import (
	"time"

	"github.com/spektr-org/pulse/schema"
	"github.com/spektr-org/pulse/table"
)

// ============================================================================
// FIELD VIEW — typed access to canonical fields
// ============================================================================
// Engines never touch raw header names. They read through this interface,
// keyed by schema.Field. Column binding and value parsing happen once, when
// the view is built; the engines then read in tight loops.
//
// Implementations:
//   TableView — a table plus its NormalizedSchema, parsed up front
//   SubView   — filtered subset (indices into parent, zero-copy)
// ============================================================================

// FieldView provides indexed, typed access to the canonical fields of a dataset.
type FieldView interface {
	Len() int
	Has(f schema.Field) bool
	Text(i int, f schema.Field) string
	Number(i int, f schema.Field) (float64, bool)
	Time(i int, f schema.Field) (time.Time, bool)
}

// ============================================================================
// TABLE VIEW
// ============================================================================

type fieldColumn struct {
	name   string
	text   []string
	num    []float64
	numOK  []bool
	date   []time.Time
	dateOK []bool
}

// TableView binds a table to its normalized schema.
type TableView struct {
	table  table.Table
	schema schema.NormalizedSchema
	fields map[schema.Field]*fieldColumn
}

// NewTableView resolves every bound field to its column and parses it once.
func NewTableView(t table.Table, s schema.NormalizedSchema) *TableView {
	v := &TableView{
		table:  t,
		schema: s,
		fields: make(map[schema.Field]*fieldColumn, len(s.Bindings)),
	}
	n := t.Len()
	for f, b := range s.Bindings {
		fc := &fieldColumn{
			name:   b.Column,
			text:   make([]string, n),
			num:    make([]float64, n),
			numOK:  make([]bool, n),
			date:   make([]time.Time, n),
			dateOK: make([]bool, n),
		}
		for i, row := range t.Rows {
			raw := row[b.Column]
			fc.text[i] = table.Text(raw)
			fc.num[i], fc.numOK[i] = table.Number(raw)
			fc.date[i], fc.dateOK[i] = table.Time(raw)
		}
		v.fields[f] = fc
	}
	return v
}

// Table returns the underlying table.
func (v *TableView) Table() table.Table { return v.table }

// Schema returns the bindings the view was built from.
func (v *TableView) Schema() schema.NormalizedSchema { return v.schema }

func (v *TableView) Len() int { return v.table.Len() }

func (v *TableView) Has(f schema.Field) bool {
	_, ok := v.fields[f]
	return ok
}

func (v *TableView) Text(i int, f schema.Field) string {
	fc, ok := v.fields[f]
	if !ok || i < 0 || i >= len(fc.text) {
		return ""
	}
	return fc.text[i]
}

func (v *TableView) Number(i int, f schema.Field) (float64, bool) {
	fc, ok := v.fields[f]
	if !ok || i < 0 || i >= len(fc.num) {
		return 0, false
	}
	return fc.num[i], fc.numOK[i]
}

func (v *TableView) Time(i int, f schema.Field) (time.Time, bool) {
	fc, ok := v.fields[f]
	if !ok || i < 0 || i >= len(fc.date) {
		return time.Time{}, false
	}
	return fc.date[i], fc.dateOK[i]
}

// Raw returns the unparsed cell of a bound field.
func (v *TableView) Raw(i int, f schema.Field) any {
	fc, ok := v.fields[f]
	if !ok {
		return nil
	}
	return v.table.Value(i, fc.name)
}

// ============================================================================
// SUB VIEW — filtered subset (zero-copy)
// ============================================================================

// SubView is a filtered subset of a parent FieldView.
// Holds indices into the parent; rows are not copied.
type SubView struct {
	parent  FieldView
	indices []int
}

func newSubView(parent FieldView, indices []int) FieldView {
	return &SubView{parent: parent, indices: indices}
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Has(f schema.Field) bool { return v.parent.Has(f) }

func (v *SubView) Text(i int, f schema.Field) string {
	if i < 0 || i >= len(v.indices) {
		return ""
	}
	return v.parent.Text(v.indices[i], f)
}

func (v *SubView) Number(i int, f schema.Field) (float64, bool) {
	if i < 0 || i >= len(v.indices) {
		return 0, false
	}
	return v.parent.Number(v.indices[i], f)
}

func (v *SubView) Time(i int, f schema.Field) (time.Time, bool) {
	if i < 0 || i >= len(v.indices) {
		return time.Time{}, false
	}
	return v.parent.Time(v.indices[i], f)
}
