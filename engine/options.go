package engine

import (
	"fmt"
	"time"

	"github.com/spektr-org/pulse/schema"
)

// ============================================================================
// ENGINE OPTIONS — Thresholds and functional options for Analyze()
// ============================================================================
// Every business threshold lives here. Defaults match the documented rules;
// config files and callers override them through Config or the With* options.
// ============================================================================

// Config holds the thresholds every engine reads.
type Config struct {
	DeclineThreshold       float64   `yaml:"decline_threshold" json:"declineThreshold"`             // % month-over-month drop that raises an alert
	HighSeverityThreshold  float64   `yaml:"high_severity_threshold" json:"highSeverityThreshold"`  // % drop that makes it High
	TrendMonths            int       `yaml:"trend_months" json:"trendMonths"`                        // consecutive declining months for a trend alert
	InactivityCeilingDays  int       `yaml:"inactivity_ceiling_days" json:"inactivityCeilingDays"`  // days inactive that max out recency
	HighRiskCutoff         float64   `yaml:"high_risk_cutoff" json:"highRiskCutoff"`                 // churn score for High tier (inclusive)
	MediumRiskCutoff       float64   `yaml:"medium_risk_cutoff" json:"mediumRiskCutoff"`             // churn score for Medium tier (inclusive)
	ConcentrationThreshold float64   `yaml:"concentration_threshold" json:"concentrationThreshold"` // % revenue share flagged as product dependency
	TopN                   int       `yaml:"top_n" json:"topN"`
	SampleSize             int       `yaml:"sample_size" json:"sampleSize"`
	SoftRowLimit           int       `yaml:"soft_row_limit" json:"softRowLimit"`
	Currency               string    `yaml:"currency" json:"currency"` // display prefix, e.g. "$"
	AsOf                   time.Time `yaml:"as_of" json:"asOf,omitempty"`
	Filters                Filters   `yaml:"filters" json:"filters,omitempty"` // restrict the analysis to a segment
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		DeclineThreshold:       10,
		HighSeverityThreshold:  25,
		TrendMonths:            3,
		InactivityCeilingDays:  60,
		HighRiskCutoff:         70,
		MediumRiskCutoff:       40,
		ConcentrationThreshold: 40,
		TopN:                   5,
		SampleSize:             1000,
		SoftRowLimit:           200000,
		Currency:               "$",
	}
}

// Validate reports thresholds that cannot produce meaningful results.
func (c Config) Validate() error {
	switch {
	case c.DeclineThreshold < 0:
		return fmt.Errorf("decline_threshold must be >= 0, got %v", c.DeclineThreshold)
	case c.HighSeverityThreshold < c.DeclineThreshold:
		return fmt.Errorf("high_severity_threshold (%v) must be >= decline_threshold (%v)", c.HighSeverityThreshold, c.DeclineThreshold)
	case c.TrendMonths < 1:
		return fmt.Errorf("trend_months must be >= 1, got %d", c.TrendMonths)
	case c.InactivityCeilingDays < 1:
		return fmt.Errorf("inactivity_ceiling_days must be >= 1, got %d", c.InactivityCeilingDays)
	case c.MediumRiskCutoff < 0 || c.HighRiskCutoff > 100 || c.MediumRiskCutoff > c.HighRiskCutoff:
		return fmt.Errorf("risk cutoffs must satisfy 0 <= medium (%v) <= high (%v) <= 100", c.MediumRiskCutoff, c.HighRiskCutoff)
	case c.ConcentrationThreshold <= 0 || c.ConcentrationThreshold > 100:
		return fmt.Errorf("concentration_threshold must be in (0, 100], got %v", c.ConcentrationThreshold)
	}
	for f := range c.Filters {
		if !schema.IsField(f) {
			return fmt.Errorf("filters: unknown field %q", f)
		}
	}
	return nil
}

// Option configures engine behavior via functional options pattern.
type Option func(*Config)

// WithConfig replaces every threshold at once (e.g. from a config file).
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithDeclineThreshold sets the % drop that raises a decline alert.
func WithDeclineThreshold(pct float64) Option {
	return func(c *Config) {
		c.DeclineThreshold = pct
	}
}

// WithHighSeverityThreshold sets the % drop that makes a decline alert High.
func WithHighSeverityThreshold(pct float64) Option {
	return func(c *Config) {
		c.HighSeverityThreshold = pct
	}
}

// WithTrendMonths sets how many consecutive declining months raise a trend alert.
func WithTrendMonths(n int) Option {
	return func(c *Config) {
		c.TrendMonths = n
	}
}

// WithInactivityCeiling sets the days of inactivity that max out recency risk.
func WithInactivityCeiling(days int) Option {
	return func(c *Config) {
		c.InactivityCeilingDays = days
	}
}

// WithRiskCutoffs sets the inclusive churn score cutoffs for High and Medium.
func WithRiskCutoffs(high, medium float64) Option {
	return func(c *Config) {
		c.HighRiskCutoff = high
		c.MediumRiskCutoff = medium
	}
}

// WithConcentrationThreshold sets the revenue share (%) flagged as product dependency.
func WithConcentrationThreshold(pct float64) Option {
	return func(c *Config) {
		c.ConcentrationThreshold = pct
	}
}

// WithTopN sets how many customers/products the leaderboards keep.
func WithTopN(n int) Option {
	return func(c *Config) {
		c.TopN = n
	}
}

// WithSampleSize sets the per-column classification sample.
func WithSampleSize(n int) Option {
	return func(c *Config) {
		c.SampleSize = n
	}
}

// WithAsOf pins the reference date used for recency and "no recent sales".
// Zero (the default) means the latest date in the data.
func WithAsOf(t time.Time) Option {
	return func(c *Config) {
		c.AsOf = t
	}
}

// WithCurrency sets the display prefix used in messages.
func WithCurrency(symbol string) Option {
	return func(c *Config) {
		c.Currency = symbol
	}
}

// WithFilter restricts the analysis to rows whose field value is one of
// values. Repeated calls on the same field widen it; different fields narrow.
func WithFilter(field schema.Field, values ...string) Option {
	return func(c *Config) {
		next := make(Filters, len(c.Filters)+1)
		for f, v := range c.Filters {
			next[f] = v
		}
		next[field] = append(append([]string(nil), next[field]...), values...)
		c.Filters = next
	}
}

// applyOptions creates a config from functional options.
// Values that would break an engine fall back to their defaults.
func applyOptions(opts []Option) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	def := DefaultConfig()
	if cfg.TrendMonths < 1 {
		cfg.TrendMonths = def.TrendMonths
	}
	if cfg.InactivityCeilingDays < 1 {
		cfg.InactivityCeilingDays = def.InactivityCeilingDays
	}
	if cfg.TopN < 0 {
		cfg.TopN = 0
	}
	if cfg.ConcentrationThreshold <= 0 {
		cfg.ConcentrationThreshold = def.ConcentrationThreshold
	}
	return &cfg
}
