package engine

import (
	"errors"
	"fmt"
	"log"

	"github.com/spektr-org/pulse/schema"
	"github.com/spektr-org/pulse/table"
)

// ============================================================================
// EXECUTOR — Analyze() pipeline
// ============================================================================
// Entry point: Analyze(table, opts...)
//
// Pipeline:
//   1. Classify columns → descriptors
//   2. Normalize → canonical field bindings
//   3. Build a TableView (fields parsed once), narrowed by Filters
//   4. KPIs, alerts, churn, product concentration, dataset summary
//   5. Insights over the assembled result
//
// Pure: no I/O besides logging, no wall-clock reads, no shared state.
// ============================================================================

// Analyze fails only on these; missing fields degrade results instead.
var (
	// ErrEmptyTable: no columns, no rows, or no rows left after filtering.
	ErrEmptyTable = errors.New("empty table")
	// ErrInvalidConfig wraps a Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
)

// Analyze runs the full pipeline over t.
//
// Options:
//   - WithConfig(cfg) — replaces every threshold
//   - WithDeclineThreshold, WithHighSeverityThreshold, WithTrendMonths
//   - WithInactivityCeiling, WithRiskCutoffs, WithConcentrationThreshold
//   - WithTopN, WithSampleSize, WithAsOf, WithCurrency, WithFilter
func Analyze(t table.Table, opts ...Option) (*Analysis, error) {
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrEmptyTable)
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrEmptyTable)
	}
	cfg := applyOptions(opts)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	log.Printf("🔧 Pulse: analyzing %d rows × %d columns", t.Len(), len(t.Columns))

	a := &Analysis{RowCount: t.Len(), Config: *cfg}

	// 1. Classify (sampled above the soft row limit)
	sample := cfg.SampleSize
	if cfg.SoftRowLimit > 0 && t.Len() > cfg.SoftRowLimit {
		if sample <= 0 || sample > cfg.SoftRowLimit {
			sample = cfg.SoftRowLimit
		}
		a.Sampled = true
		a.Notes = append(a.Notes, fmt.Sprintf("%d rows exceed the soft limit of %d; column roles inferred from a %d-value sample",
			t.Len(), cfg.SoftRowLimit, sample))
		log.Printf("⚠️ Pulse: %d rows above soft limit %d, sampling classification", t.Len(), cfg.SoftRowLimit)
	}
	a.Columns = schema.Classify(t, schema.DiscoverOptions{SampleSize: sample})

	// 2. Normalize
	a.Schema = schema.Normalize(a.Columns)
	a.Notes = append(a.Notes, missingFieldNotes(a.Schema)...)

	// 3. View (segmented when filters are set)
	view := NewTableView(t, a.Schema)
	if !cfg.Filters.IsEmpty() {
		t = t.Select(FilterIndices(view, cfg.Filters))
		if t.Len() == 0 {
			return nil, fmt.Errorf("%w: no rows match filters %s", ErrEmptyTable, cfg.Filters)
		}
		a.Notes = append(a.Notes, fmt.Sprintf("filtered to %d of %d rows (%s)", t.Len(), a.RowCount, cfg.Filters))
		a.RowCount = t.Len()
		view = NewTableView(t, a.Schema)
	}

	// 4. Engines
	a.KPIs = ComputeKPIs(view, cfg)
	a.Alerts = DetectAlerts(view, cfg)
	a.Churn = ScoreChurn(view, cfg)
	a.Concentration = ProductConcentration(view, cfg)
	a.Dataset = SummarizeDataset(t, a.Columns)

	// 5. Insights
	a.Insights = GenerateInsights(a, cfg)

	log.Printf("✅ Pulse: %d alerts, %d customers scored, quality %.0f/100",
		len(a.Alerts), len(a.Churn), a.KPIs.DataQuality.Score)
	return a, nil
}

// missingFieldNotes explains which outputs a missing field disables.
func missingFieldNotes(s schema.NormalizedSchema) []string {
	var notes []string
	if !s.Has(schema.FieldRevenue) {
		notes = append(notes, "no revenue column: revenue KPIs, alerts, churn and product concentration unavailable")
	}
	if !s.Has(schema.FieldDate) {
		notes = append(notes, "no date column: growth, alerts and churn unavailable")
	}
	if !s.Has(schema.FieldCustomer) {
		notes = append(notes, "no customer column: unique customers and churn unavailable")
	}
	if !s.Has(schema.FieldProduct) {
		notes = append(notes, "no product column: product concentration unavailable")
	}
	return notes
}
