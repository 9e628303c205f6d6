package observability

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/agentwf/pulse/pkg/models"
)

// EventFilter specifies criteria for reading events back from the log.
// A zero Date scans every known day file.
type EventFilter struct {
	Date   string // calendar day as YYYY-MM-DD
	Kind   models.Kind
	Source string
}

// EventLog defines the interface for the append-only audit trail.
type EventLog interface {
	Write(event models.Event) error
	Read(filter EventFilter) ([]models.Event, error)
	Close() error
}

// jsonlEventLog implements EventLog using one append-only JSONL file per
// calendar day under a log directory. Files are never rewritten.
type jsonlEventLog struct {
	dir string

	mu      sync.Mutex
	file    *os.File
	fileDay string
}

// NewEventLog creates an EventLog writing day-partitioned JSONL files
// under dir, creating the directory if it does not exist.
func NewEventLog(dir string) (EventLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	return &jsonlEventLog{dir: dir}, nil
}

// dayFile returns the log file path for a calendar day.
func (l *jsonlEventLog) dayFile(day string) string {
	return filepath.Join(l.dir, fmt.Sprintf("events_%s.jsonl", day))
}

// Write appends a JSON-encoded event followed by a newline to the file
// for the event's day, rolling over to a new file when the day changes.
func (l *jsonlEventLog) Write(event models.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	day := event.Day()
	if l.file == nil || l.fileDay != day {
		if l.file != nil {
			_ = l.file.Close()
		}
		f, err := os.OpenFile(l.dayFile(day), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			l.file = nil
			return fmt.Errorf("opening event log: %w", err)
		}
		l.file = f
		l.fileDay = day
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	data = append(data, '\n')

	if _, err := l.file.Write(data); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	return nil
}

// Read re-reads matching day files from disk and returns the events
// satisfying the filter. Results are not cached between calls.
func (l *jsonlEventLog) Read(filter EventFilter) ([]models.Event, error) {
	paths, err := l.filesFor(filter.Date)
	if err != nil {
		return nil, err
	}

	var events []models.Event
	for _, path := range paths {
		fileEvents, err := readEventFile(path, filter)
		if err != nil {
			return nil, err
		}
		events = append(events, fileEvents...)
	}
	return events, nil
}

// filesFor resolves the day files to scan for a filter date. An empty
// date globs every day file in the directory in name (= date) order.
func (l *jsonlEventLog) filesFor(date string) ([]string, error) {
	if date != "" {
		return []string{l.dayFile(date)}, nil
	}
	paths, err := filepath.Glob(filepath.Join(l.dir, "events_*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("listing event log files: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

// readEventFile scans one day file line by line, decoding each event and
// keeping those that match. Malformed lines are skipped.
func readEventFile(path string, filter EventFilter) ([]models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening event log for reading: %w", err)
	}
	defer func() { _ = f.Close() }()

	var events []models.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var event models.Event
		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber() // keep integer-valued data fields exact
		if err := dec.Decode(&event); err != nil {
			continue // skip malformed lines
		}

		if matchesEventFilter(event, filter) {
			events = append(events, event)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	return events, nil
}

// Close closes the current day's file handle, if any.
func (l *jsonlEventLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil
	l.fileDay = ""
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return nil
}

// matchesEventFilter checks whether an event satisfies all filter criteria.
func matchesEventFilter(event models.Event, filter EventFilter) bool {
	if filter.Kind != "" && event.Kind != filter.Kind {
		return false
	}
	if filter.Source != "" && event.Source != filter.Source {
		return false
	}
	return true
}
