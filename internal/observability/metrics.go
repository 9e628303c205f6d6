package observability

import "sync"

// Summary holds the derived statistics for one metric series. It is
// computed on read, so it always reflects every recorded value.
type Summary struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Avg   float64 `json:"avg"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// MetricsSnapshot is a point-in-time copy of every series summary and
// counter held by a collector.
type MetricsSnapshot struct {
	Series   map[string]Summary `json:"series"`
	Counters map[string]int64   `json:"counters"`
}

// MetricsCollector aggregates named value series and counters in memory.
// All methods are safe for concurrent use; state lasts for the process
// lifetime unless Reset is called.
type MetricsCollector struct {
	mu       sync.Mutex
	series   map[string][]float64
	counters map[string]int64
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		series:   make(map[string][]float64),
		counters: make(map[string]int64),
	}
}

// Record appends a value to the named series.
func (m *MetricsCollector) Record(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[name] = append(m.series[name], value)
}

// Increment adds delta to the named counter, creating it at zero if
// absent. Counters only ever grow; there is no decrement.
func (m *MetricsCollector) Increment(name string, delta int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[name] += delta
}

// Summary returns the statistics for the named series. Unknown names
// yield a zero Summary, never an error.
func (m *MetricsCollector) Summary(name string) Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return summarize(m.series[name])
}

// Counter returns the value of the named counter, or zero if unknown.
func (m *MetricsCollector) Counter(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[name]
}

// Snapshot returns a copy of every series summary and counter.
func (m *MetricsCollector) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		Series:   make(map[string]Summary, len(m.series)),
		Counters: make(map[string]int64, len(m.counters)),
	}
	for name, values := range m.series {
		snap.Series[name] = summarize(values)
	}
	for name, value := range m.counters {
		snap.Counters[name] = value
	}
	return snap
}

// Reset clears every series and counter.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series = make(map[string][]float64)
	m.counters = make(map[string]int64)
}

// summarize derives the summary statistics for a slice of values.
func summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	s := Summary{Count: len(values), Min: values[0], Max: values[0]}
	for _, v := range values {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	s.Avg = s.Sum / float64(len(values))
	return s
}
