// Package metrics records timings and counters for the tree core.
//
// Everything is in-memory and lock free. Collection is on unless
// ARBOR_METRICS=0 is set.
//
//	func (t *Tree) Expand(id hierarchy.NodeID) error {
//	    defer metrics.Timer(metrics.Expand)()
//	    ...
//	}
package metrics

import (
	"os"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("ARBOR_METRICS") != "0")
}

// Enabled reports whether metrics are collected.
func Enabled() bool { return enabled.Load() }

// SetEnabled switches collection on or off.
func SetEnabled(e bool) { enabled.Store(e) }

// TimingMetric aggregates durations of one named operation.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 until the first sample
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)
	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.minNs.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

func (m *TimingMetric) Name() string { return m.name }

func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats snapshots the metric.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(total) / 1e6,
		AvgMs:   float64(avg) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
		MinMs:   float64(m.minNs.Load()) / 1e6,
	}
}

func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats is a JSON friendly snapshot of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer starts timing m; call the result to record the sample.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() { m.Record(time.Since(start)) }
}

// Counter is a monotonically growing count, such as rows measured.
type Counter struct {
	name string
	n    atomic.Int64
}

func newCounter(name string) *Counter { return &Counter{name: name} }

// Add increases the counter by n.
func (c *Counter) Add(n int) {
	if Enabled() {
		c.n.Add(int64(n))
	}
}

func (c *Counter) Name() string { return c.name }
func (c *Counter) Value() int64 { return c.n.Load() }
func (c *Counter) Reset() { c.n.Store(0) }

// Timings of the tree core.
var (
	Paint       = newTimingMetric("paint")
	Expand      = newTimingMetric("expand")
	Collapse    = newTimingMetric("collapse")
	Remove      = newTimingMetric("remove")
	WidthScan   = newTimingMetric("width_scan")
	OutlineLoad = newTimingMetric("outline_load")
)

// Counters of the tree core.
var (
	RowsPainted  = newCounter("rows_painted")
	RowsMeasured = newCounter("rows_measured")
)

// AllTimingMetrics lists every timing metric.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{Paint, Expand, Collapse, Remove, WidthScan, OutlineLoad}
}

// AllCounters lists every counter.
func AllCounters() []*Counter {
	return []*Counter{RowsPainted, RowsMeasured}
}

// ResetAll clears every metric.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
	for _, c := range AllCounters() {
		c.Reset()
	}
}

// Report is what --metrics prints.
type Report struct {
	Timings  []TimingStats    `json:"timings"`
	Counters map[string]int64 `json:"counters"`
}

// Snapshot returns the metrics that have data.
func Snapshot() Report {
	r := Report{Counters: make(map[string]int64)}
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			r.Timings = append(r.Timings, m.Stats())
		}
	}
	for _, c := range AllCounters() {
		if v := c.Value(); v > 0 {
			r.Counters[c.Name()] = v
		}
	}
	return r
}
