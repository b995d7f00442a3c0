package metrics

import (
	"testing"
	"time"
)

func TestTimingMetricRecord(t *testing.T) {
	m := newTimingMetric("test")
	m.Record(2 * time.Millisecond)
	m.Record(4 * time.Millisecond)

	s := m.Stats()
	if s.Count != 2 {
		t.Fatalf("count = %d", s.Count)
	}
	if s.MinMs != 2 || s.MaxMs != 4 || s.AvgMs != 3 {
		t.Errorf("unexpected stats %+v", s)
	}
	m.Reset()
	if m.Count() != 0 {
		t.Error("Reset left samples")
	}
}

func TestDisabledSkipsSamples(t *testing.T) {
	SetEnabled(false)
	defer SetEnabled(true)

	m := newTimingMetric("off")
	Timer(m)()
	c := newCounter("off")
	c.Add(3)
	if m.Count() != 0 || c.Value() != 0 {
		t.Error("disabled metrics recorded data")
	}
}

func TestSnapshotOnlyWithData(t *testing.T) {
	SetEnabled(true)
	ResetAll()
	defer ResetAll()

	Timer(Expand)()
	RowsPainted.Add(5)

	r := Snapshot()
	if len(r.Timings) != 1 || r.Timings[0].Name != "expand" {
		t.Errorf("timings = %+v", r.Timings)
	}
	if r.Counters["rows_painted"] != 5 || len(r.Counters) != 1 {
		t.Errorf("counters = %v", r.Counters)
	}
}
