package observability

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/agentwf/pulse/pkg/models"
)

func TestEventLog_WriteAndRead(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC().Truncate(time.Millisecond)
	events := []models.Event{
		{
			ID:        "script_started_1",
			Kind:      models.KindScriptStarted,
			Source:    "ingest_feed",
			Message:   "Started script: ingest_feed",
			Data:      map[string]any{"directive": "daily_sync"},
			Level:     models.LevelInfo,
			Timestamp: now,
		},
		{
			ID:        "script_completed_2",
			Kind:      models.KindScriptCompleted,
			Source:    "ingest_feed",
			Message:   "Completed script: ingest_feed",
			Data:      map[string]any{"duration": "1.20s", "rows": 42},
			Level:     models.LevelSuccess,
			Timestamp: now.Add(time.Second),
		},
	}

	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	result, err := log.Read(EventFilter{Date: now.Format("2006-01-02")})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}

	// Round-trip must preserve every field.
	for i, want := range events {
		got := result[i]
		if got.ID != want.ID {
			t.Errorf("event %d: ID = %q, want %q", i, got.ID, want.ID)
		}
		if got.Kind != want.Kind {
			t.Errorf("event %d: Kind = %q, want %q", i, got.Kind, want.Kind)
		}
		if got.Source != want.Source {
			t.Errorf("event %d: Source = %q, want %q", i, got.Source, want.Source)
		}
		if got.Message != want.Message {
			t.Errorf("event %d: Message = %q, want %q", i, got.Message, want.Message)
		}
		if got.Level != want.Level {
			t.Errorf("event %d: Level = %q, want %q", i, got.Level, want.Level)
		}
		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("event %d: Timestamp = %v, want %v", i, got.Timestamp, want.Timestamp)
		}
	}

	if got := result[0].Data["directive"]; got != "daily_sync" {
		t.Errorf("Data[directive] = %v, want daily_sync", got)
	}
	if got := result[1].Data["duration"]; got != "1.20s" {
		t.Errorf("Data[duration] = %v, want 1.20s", got)
	}
	rows, ok := result[1].Data["rows"].(json.Number)
	if !ok {
		t.Fatalf("Data[rows] = %T, want json.Number", result[1].Data["rows"])
	}
	if v, err := rows.Int64(); err != nil || v != 42 {
		t.Errorf("Data[rows] = %v, want 42", rows)
	}
}

func TestEventLog_IntegerDataStaysIntegral(t *testing.T) {
	log, err := NewEventLog(t.TempDir())
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	event := models.NewEvent(models.KindScriptFailed, "flaky", "boom",
		map[string]any{"attempt": 3, "big": int64(1 << 60)}, models.LevelError)
	if err := log.Write(event); err != nil {
		t.Fatalf("writing event: %v", err)
	}

	result, err := log.Read(EventFilter{Date: event.Day()})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 1 {
		t.Fatalf("expected 1 event, got %d", len(result))
	}

	for name, want := range map[string]int64{"attempt": 3, "big": 1 << 60} {
		num, ok := result[0].Data[name].(json.Number)
		if !ok {
			t.Fatalf("Data[%s] = %T, want json.Number", name, result[0].Data[name])
		}
		got, err := num.Int64()
		if err != nil {
			t.Fatalf("Data[%s] lost its integer value: %v", name, err)
		}
		if got != want {
			t.Errorf("Data[%s] = %d, want %d", name, got, want)
		}
	}
}

func TestEventLog_FilterByKindAndSource(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	now := time.Now().UTC()
	day := now.Format("2006-01-02")
	events := []models.Event{
		{ID: "a", Kind: models.KindScriptStarted, Source: "alpha", Message: "started", Level: models.LevelInfo, Timestamp: now},
		{ID: "b", Kind: models.KindScriptFailed, Source: "alpha", Message: "failed", Level: models.LevelError, Timestamp: now},
		{ID: "c", Kind: models.KindScriptStarted, Source: "beta", Message: "started", Level: models.LevelInfo, Timestamp: now},
	}

	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	byKind, err := log.Read(EventFilter{Date: day, Kind: models.KindScriptStarted})
	if err != nil {
		t.Fatalf("reading by kind: %v", err)
	}
	if len(byKind) != 2 {
		t.Fatalf("expected 2 script_started events, got %d", len(byKind))
	}

	bySource, err := log.Read(EventFilter{Date: day, Source: "alpha"})
	if err != nil {
		t.Fatalf("reading by source: %v", err)
	}
	if len(bySource) != 2 {
		t.Fatalf("expected 2 alpha events, got %d", len(bySource))
	}

	both, err := log.Read(EventFilter{Date: day, Kind: models.KindScriptFailed, Source: "alpha"})
	if err != nil {
		t.Fatalf("reading by kind+source: %v", err)
	}
	if len(both) != 1 || both[0].ID != "b" {
		t.Fatalf("expected exactly event b, got %v", both)
	}
}

func TestEventLog_DayPartitioning(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	day1 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 1, 16, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		{ID: "d1-a", Kind: models.KindScriptStarted, Source: "s", Message: "first", Level: models.LevelInfo, Timestamp: day1},
		{ID: "d1-b", Kind: models.KindScriptCompleted, Source: "s", Message: "second", Level: models.LevelSuccess, Timestamp: day1.Add(time.Hour)},
		{ID: "d2-a", Kind: models.KindScriptStarted, Source: "s", Message: "third", Level: models.LevelInfo, Timestamp: day2},
	}

	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}

	for _, name := range []string{"events_2025-01-15.jsonl", "events_2025-01-16.jsonl"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected day file %s: %v", name, err)
		}
	}

	day1Events, err := log.Read(EventFilter{Date: "2025-01-15"})
	if err != nil {
		t.Fatalf("reading day 1: %v", err)
	}
	if len(day1Events) != 2 {
		t.Fatalf("expected 2 events on day 1, got %d", len(day1Events))
	}

	all, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading all days: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events across days, got %d", len(all))
	}
	if all[0].ID != "d1-a" || all[2].ID != "d2-a" {
		t.Errorf("expected chronological day order, got %s..%s", all[0].ID, all[2].ID)
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	log, err := NewEventLog(t.TempDir())
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	result, err := log.Read(EventFilter{Date: "2025-01-15"})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected 0 events from empty log, got %d", len(result))
	}
}

func TestEventLog_SkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	ts := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	if err := log.Write(models.Event{ID: "ok", Kind: models.KindScriptStarted, Source: "s", Message: "m", Level: models.LevelInfo, Timestamp: ts}); err != nil {
		t.Fatalf("writing event: %v", err)
	}

	// Corrupt the file with a partial line.
	path := filepath.Join(dir, "events_2025-01-15.jsonl")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("opening day file: %v", err)
	}
	if _, err := f.WriteString("{\"id\": \"trunc\n"); err != nil {
		t.Fatalf("appending garbage: %v", err)
	}
	_ = f.Close()

	result, err := log.Read(EventFilter{Date: "2025-01-15"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 1 || result[0].ID != "ok" {
		t.Fatalf("expected only the valid event, got %v", result)
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	dir := t.TempDir()
	log, err := NewEventLog(dir)
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	defer log.Close()

	const goroutines = 50
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)

	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < eventsPerGoroutine; i++ {
				event := models.NewEvent(
					models.KindTaskProgress,
					fmt.Sprintf("worker_%d", id),
					"concurrent event",
					map[string]any{"index": i},
					models.LevelInfo,
				)
				if err := log.Write(event); err != nil {
					t.Errorf("concurrent write error: %v", err)
				}
			}
		}(g)
	}

	wg.Wait()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events after concurrent writes: %v", err)
	}

	expected := goroutines * eventsPerGoroutine
	if len(result) != expected {
		t.Errorf("expected %d events, got %d", expected, len(result))
	}

	// Every decoded line must carry its full payload, i.e. no torn lines.
	for _, e := range result {
		if e.Kind != models.KindTaskProgress || e.Source == "" {
			t.Fatalf("corrupted event after concurrent writes: %+v", e)
		}
	}
}
