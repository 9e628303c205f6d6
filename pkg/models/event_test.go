package models

import (
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestNewEvent(t *testing.T) {
	before := time.Now().UTC()
	e := NewEvent(KindScriptStarted, "ingest_feed", "Started", map[string]any{"k": "v"}, "")
	after := time.Now().UTC()

	prefix := "script_started_"
	if !strings.HasPrefix(e.ID, prefix) {
		t.Fatalf("ID = %q, want prefix %q", e.ID, prefix)
	}
	millis, err := strconv.ParseInt(strings.TrimPrefix(e.ID, prefix), 10, 64)
	if err != nil {
		t.Fatalf("ID suffix is not millis: %v", err)
	}
	if millis < before.UnixMilli() || millis > after.UnixMilli() {
		t.Errorf("ID millis %d outside [%d, %d]", millis, before.UnixMilli(), after.UnixMilli())
	}

	if e.Level != LevelInfo {
		t.Errorf("empty level should default to info, got %q", e.Level)
	}
	if e.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp location = %v, want UTC", e.Timestamp.Location())
	}
}

func TestEventDay(t *testing.T) {
	e := Event{Timestamp: time.Date(2026, 8, 26, 23, 59, 0, 0, time.UTC)}
	if got := e.Day(); got != "2026-08-26" {
		t.Errorf("Day() = %q, want 2026-08-26", got)
	}
}

func TestKindValid(t *testing.T) {
	for _, k := range []Kind{
		KindDirectiveStarted, KindDirectiveCompleted, KindDirectiveFailed,
		KindDirectiveUpdated, KindScriptStarted, KindScriptCompleted,
		KindScriptFailed, KindTaskProgress, KindTaskCheckpoint,
		KindLearningCaptured, KindErrorRecovered, KindSystemHealth,
		KindMetricRecorded,
	} {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
		if k.Title() == string(k) {
			t.Errorf("%q has no display title", k)
		}
	}
	if Kind("bogus").Valid() {
		t.Error("bogus kind should be invalid")
	}
}

func TestKindNotifiable(t *testing.T) {
	if KindTaskProgress.Notifiable() {
		t.Error("task_progress must stay local")
	}
	if !KindScriptFailed.Notifiable() {
		t.Error("script_failed should be notifiable")
	}
}

func TestLevelColor(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelInfo, "#36a64f"},
		{LevelWarning, "#ffcc00"},
		{LevelError, "#ff0000"},
		{LevelSuccess, "#2eb886"},
		{LevelDebug, "#808080"},
	}
	for _, tt := range tests {
		if got := tt.level.Color(); got != tt.want {
			t.Errorf("Color(%q) = %q, want %q", tt.level, got, tt.want)
		}
	}
}
