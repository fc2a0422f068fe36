package engine

import (
	"time"

	"github.com/spektr-org/pulse/schema"
)

// ============================================================================
// ANALYSIS — What Analyze() returns
// ============================================================================

// Analysis is the full, render-ready result of one pass over a table.
type Analysis struct {
	RowCount      int                       `json:"rowCount"`
	Columns       []schema.ColumnDescriptor `json:"columns"`
	Schema        schema.NormalizedSchema   `json:"schema"`
	KPIs          KPISnapshot               `json:"kpis"`
	Alerts        []Alert                   `json:"alerts"`
	Churn         []ChurnRecord             `json:"churn"`
	Concentration *Concentration            `json:"concentration,omitempty"`
	Insights      []Insight                 `json:"insights"`
	Dataset       *DatasetSummary           `json:"dataset"`
	Sampled       bool                      `json:"sampled"`
	Notes         []string                  `json:"notes,omitempty"`
	Config        Config                    `json:"config"`
}

// ============================================================================
// KPI TYPES
// ============================================================================

// Metric is a KPI value that may be unavailable when its inputs are missing.
type Metric struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
	Reason    string  `json:"reason,omitempty"`
}

func available(v float64) Metric { return Metric{Value: v, Available: true} }

func unavailable(reason string) Metric { return Metric{Reason: reason} }

// Format renders the value with fn, or "N/A".
func (m Metric) Format(fn func(float64) string) string {
	if !m.Available {
		return "N/A"
	}
	return fn(m.Value)
}

// KPISnapshot holds the headline metrics of a dataset.
type KPISnapshot struct {
	TotalRevenue    Metric `json:"totalRevenue"`
	OrderCount      Metric `json:"orderCount"`
	UniqueCustomers Metric `json:"uniqueCustomers"`
	AvgOrderValue   Metric `json:"avgOrderValue"`
	GrowthPct       Metric `json:"growthPct"`

	CurrentMonth  string `json:"currentMonth,omitempty"`
	PreviousMonth string `json:"previousMonth,omitempty"`

	DataQuality DataQuality `json:"dataQuality"`

	PeriodFrom     *time.Time    `json:"periodFrom,omitempty"`
	PeriodTo       *time.Time    `json:"periodTo,omitempty"`
	MonthlyRevenue []MonthBucket `json:"monthlyRevenue,omitempty"`
	TopCustomers   []Share       `json:"topCustomers,omitempty"`
	TopProducts    []Share       `json:"topProducts,omitempty"`
}

// DataQuality scores completeness and consistency on 0–100.
type DataQuality struct {
	Score  float64        `json:"score"`
	Issues []QualityIssue `json:"issues,omitempty"`
}

// Quality issue kinds.
const (
	IssueMissingField  = "missing_field"
	IssueNullValues    = "null_values"
	IssueInvalidValues = "invalid_values"
	IssueDuplicates    = "duplicates"
)

// QualityIssue is one class of data defect and the points it cost.
type QualityIssue struct {
	Kind    string  `json:"kind"`
	Column  string  `json:"column,omitempty"`
	Count   int     `json:"count"`
	Penalty float64 `json:"penalty"`
	Message string  `json:"message"`
}

// MonthBucket is revenue and order volume for one calendar month.
type MonthBucket struct {
	Month   time.Time `json:"month"`
	Label   string    `json:"label"`
	Revenue float64   `json:"revenue"`
	Orders  int       `json:"orders"`
}

// Share is one entry of a revenue leaderboard.
type Share struct {
	Name     string  `json:"name"`
	Revenue  float64 `json:"revenue"`
	SharePct float64 `json:"sharePct"`
	Orders   int     `json:"orders"`
}

// ============================================================================
// ALERT TYPES
// ============================================================================

// AlertKind distinguishes single-period drops from multi-month trends.
type AlertKind string

const (
	AlertDecline AlertKind = "decline"
	AlertTrend   AlertKind = "trend"
)

// Severity grades an alert.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Medium"
)

// Alert flags a revenue decline between two months or across a run of months.
type Alert struct {
	Kind            AlertKind `json:"kind"`
	PeriodStart     time.Time `json:"periodStart"`
	PeriodEnd       time.Time `json:"periodEnd"`
	StartLabel      string    `json:"startLabel"`
	EndLabel        string    `json:"endLabel"`
	DeclinePct      float64   `json:"declinePct"`
	PreviousRevenue float64   `json:"previousRevenue"`
	CurrentRevenue  float64   `json:"currentRevenue"`
	Severity        Severity  `json:"severity"`
	Message         string    `json:"message"`
}

// ============================================================================
// CHURN TYPES
// ============================================================================

// RiskTier buckets a churn score.
type RiskTier string

const (
	RiskHigh   RiskTier = "High"
	RiskMedium RiskTier = "Medium"
	RiskLow    RiskTier = "Low"
)

// ChurnRecord is the churn-risk breakdown for one customer.
type ChurnRecord struct {
	CustomerID     string    `json:"customerId"`
	LastPurchase   time.Time `json:"lastPurchase"`
	DaysInactive   int       `json:"daysInactive"`
	Orders         int       `json:"orders"`
	Revenue        float64   `json:"revenue"`
	RecencyScore   float64   `json:"recencyScore"`
	FrequencyScore float64   `json:"frequencyScore"`
	MonetaryScore  float64   `json:"monetaryScore"`
	TotalScore     float64   `json:"totalScore"`
	RiskTier       RiskTier  `json:"riskTier"`
}

// ============================================================================
// CONCENTRATION / INSIGHT TYPES
// ============================================================================

// Concentration describes how revenue spreads across products.
type Concentration struct {
	Products     []Share `json:"products"`
	Dependencies []Share `json:"dependencies,omitempty"` // products above the threshold
	TopSharePct  float64 `json:"topSharePct"`
	HHI          float64 `json:"hhi"` // sum of squared shares, 0–1
	Band         string  `json:"band"`
}

// Insight levels.
const (
	LevelAlert   = "alert"
	LevelWarning = "warning"
	LevelAction  = "action"
	LevelSuccess = "success"
	LevelOK      = "ok"
)

// Insight is one plain-language finding.
type Insight struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ============================================================================
// TABLE TYPES — render-ready tables for CLI / exports
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number", "currency", "percent"
	Align string `json:"align"` // "left", "right"
}

// Summary provides totals for a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// CHART / TEXT TYPES — render-ready summaries for front ends
// ============================================================================

// ChartConfig describes a chart independent of any charting library.
type ChartConfig struct {
	ChartType  string        `json:"chartType"` // "line", "bar", "pie"
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries is one named line, bar group or pie.
type ChartSeries struct {
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint is one labelled value. Flag marks points worth highlighting,
// e.g. the severity of an alert that ends in that month.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Flag  string  `json:"flag,omitempty"`
}

// TextData is a one-line headline: a value, its period and the change
// across that period.
type TextData struct {
	Value    string      `json:"value"`
	RawValue float64     `json:"rawValue"`
	Unit     string      `json:"unit"`
	Period   string      `json:"period"`
	Count    int         `json:"count"`
	Growth   *GrowthData `json:"growth,omitempty"`
}

// GrowthData compares the first and last month of a period.
type GrowthData struct {
	EarliestValue  float64 `json:"earliestValue"`
	LatestValue    float64 `json:"latestValue"`
	EarliestPeriod string  `json:"earliestPeriod"`
	LatestPeriod   string  `json:"latestPeriod"`
	ChangeAmount   float64 `json:"changeAmount"`
	ChangePercent  float64 `json:"changePercent"`
	Direction      string  `json:"direction"` // "increased", "decreased", "unchanged", "insufficient data"
	Display        string  `json:"display"`   // "↑ 12.5%"
}
