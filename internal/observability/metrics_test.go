package observability

import (
	"fmt"
	"sync"
	"testing"
)

func TestMetricsCollector_Counters(t *testing.T) {
	m := NewMetricsCollector()

	m.Increment("x", 3)
	m.Increment("x", 2)

	if got := m.Counter("x"); got != 5 {
		t.Errorf("Counter(x) = %d, want 5", got)
	}
	if got := m.Counter("unknown"); got != 0 {
		t.Errorf("Counter(unknown) = %d, want 0", got)
	}

	m.Reset()
	if got := m.Counter("x"); got != 0 {
		t.Errorf("Counter(x) after reset = %d, want 0", got)
	}
}

func TestMetricsCollector_Summary(t *testing.T) {
	m := NewMetricsCollector()

	for _, v := range []float64{2, 4, 6} {
		m.Record("latency", v)
	}

	s := m.Summary("latency")
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.Sum != 12 {
		t.Errorf("Sum = %v, want 12", s.Sum)
	}
	if s.Avg != 4 {
		t.Errorf("Avg = %v, want 4", s.Avg)
	}
	if s.Min != 2 {
		t.Errorf("Min = %v, want 2", s.Min)
	}
	if s.Max != 6 {
		t.Errorf("Max = %v, want 6", s.Max)
	}
}

func TestMetricsCollector_SummaryUnknownName(t *testing.T) {
	m := NewMetricsCollector()

	s := m.Summary("never_recorded")
	if s != (Summary{}) {
		t.Errorf("Summary(never_recorded) = %+v, want zero value", s)
	}
}

func TestMetricsCollector_Snapshot(t *testing.T) {
	m := NewMetricsCollector()

	m.Record("a", 1)
	m.Record("a", 3)
	m.Record("b", 10)
	m.Increment("c", 7)

	snap := m.Snapshot()

	if len(snap.Series) != 2 {
		t.Fatalf("expected 2 series, got %d", len(snap.Series))
	}
	if snap.Series["a"].Count != 2 || snap.Series["a"].Sum != 4 {
		t.Errorf("series a = %+v", snap.Series["a"])
	}
	if snap.Counters["c"] != 7 {
		t.Errorf("counter c = %d, want 7", snap.Counters["c"])
	}

	// The snapshot is a copy: later writes must not appear in it.
	m.Increment("c", 1)
	if snap.Counters["c"] != 7 {
		t.Errorf("snapshot mutated by later increment")
	}
}

func TestMetricsCollector_Concurrent(t *testing.T) {
	m := NewMetricsCollector()

	const goroutines = 20
	const opsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < opsPerGoroutine; i++ {
				m.Increment("total", 1)
				m.Record(fmt.Sprintf("series_%d", id%4), float64(i))
			}
		}(g)
	}
	wg.Wait()

	if got := m.Counter("total"); got != goroutines*opsPerGoroutine {
		t.Errorf("Counter(total) = %d, want %d", got, goroutines*opsPerGoroutine)
	}

	count := 0
	for i := 0; i < 4; i++ {
		count += m.Summary(fmt.Sprintf("series_%d", i)).Count
	}
	if count != goroutines*opsPerGoroutine {
		t.Errorf("recorded %d values, want %d", count, goroutines*opsPerGoroutine)
	}
}
