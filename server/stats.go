package server

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// LatencyStats records analysis durations in microseconds.
type LatencyStats struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

// StatsSnapshot is the JSON view of the recorded latencies, in milliseconds.
type StatsSnapshot struct {
	Count  int64   `json:"count"`
	MeanMs float64 `json:"meanMs"`
	P50Ms  float64 `json:"p50Ms"`
	P95Ms  float64 `json:"p95Ms"`
	P99Ms  float64 `json:"p99Ms"`
	MaxMs  float64 `json:"maxMs"`
}

// NewLatencyStats tracks values from 1µs up to 10,000s with 3 significant digits.
func NewLatencyStats() *LatencyStats {
	return &LatencyStats{hist: hdrhistogram.New(1, 10000000000, 3)}
}

// Record adds one observation. Values outside the trackable range are clamped.
func (l *LatencyStats) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.hist.RecordValue(us); err != nil {
		_ = l.hist.RecordValue(l.hist.HighestTrackableValue())
	}
}

// Snapshot returns the current percentiles.
func (l *LatencyStats) Snapshot() StatsSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hist.TotalCount() == 0 {
		return StatsSnapshot{}
	}
	ms := func(us int64) float64 { return float64(us) / 1000 }
	return StatsSnapshot{
		Count:  l.hist.TotalCount(),
		MeanMs: l.hist.Mean() / 1000,
		P50Ms:  ms(l.hist.ValueAtQuantile(50)),
		P95Ms:  ms(l.hist.ValueAtQuantile(95)),
		P99Ms:  ms(l.hist.ValueAtQuantile(99)),
		MaxMs:  ms(l.hist.Max()),
	}
}
