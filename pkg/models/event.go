package models

import (
	"fmt"
	"time"
)

// Level is the severity of an event or notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelSuccess Level = "success"
	LevelDebug   Level = "debug"
)

// Color returns the Slack attachment color for the level.
func (l Level) Color() string {
	switch l {
	case LevelWarning:
		return "#ffcc00"
	case LevelError:
		return "#ff0000"
	case LevelSuccess:
		return "#2eb886"
	case LevelDebug:
		return "#808080"
	default:
		return "#36a64f"
	}
}

// Icon returns the console marker for the level.
func (l Level) Icon() string {
	switch l {
	case LevelWarning:
		return "!"
	case LevelError:
		return "x"
	case LevelSuccess:
		return "+"
	case LevelDebug:
		return "?"
	default:
		return "i"
	}
}

// Kind identifies what happened in the agent workflow.
type Kind string

const (
	KindDirectiveStarted   Kind = "directive_started"
	KindDirectiveCompleted Kind = "directive_completed"
	KindDirectiveFailed    Kind = "directive_failed"
	KindDirectiveUpdated   Kind = "directive_updated"
	KindScriptStarted      Kind = "script_started"
	KindScriptCompleted    Kind = "script_completed"
	KindScriptFailed       Kind = "script_failed"
	KindTaskProgress       Kind = "task_progress"
	KindTaskCheckpoint     Kind = "task_checkpoint"
	KindLearningCaptured   Kind = "learning_captured"
	KindErrorRecovered     Kind = "error_recovered"
	KindSystemHealth       Kind = "system_health"
	KindMetricRecorded     Kind = "metric_recorded"
)

// kindTitles maps each kind to its notification title.
var kindTitles = map[Kind]string{
	KindDirectiveStarted:   "Directive Started",
	KindDirectiveCompleted: "Directive Completed",
	KindDirectiveFailed:    "Directive Failed",
	KindDirectiveUpdated:   "Directive Updated",
	KindScriptStarted:      "Script Started",
	KindScriptCompleted:    "Script Completed",
	KindScriptFailed:       "Script Failed",
	KindTaskProgress:       "Progress Update",
	KindTaskCheckpoint:     "Checkpoint",
	KindLearningCaptured:   "Learning Captured",
	KindErrorRecovered:     "Error Recovered",
	KindSystemHealth:       "System Health",
	KindMetricRecorded:     "Metrics",
}

// Title returns the notification title for the kind.
func (k Kind) Title() string {
	if title, ok := kindTitles[k]; ok {
		return title
	}
	return "Event"
}

// Valid reports whether k is one of the known event kinds.
func (k Kind) Valid() bool {
	_, ok := kindTitles[k]
	return ok
}

// Notifiable reports whether events of this kind should reach the
// notification channel by default. Progress updates stay local so they
// do not flood the channel.
func (k Kind) Notifiable() bool {
	return k != KindTaskProgress
}

// Event is an immutable record of an observed occurrence. Events are
// created once by the hub and never mutated afterwards.
type Event struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Level     Level          `json:"level"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent constructs an event stamped with the current instant. The ID
// combines the kind with a millisecond timestamp; it orders well within
// a log file but is not globally unique.
func NewEvent(kind Kind, source, message string, data map[string]any, level Level) Event {
	now := time.Now().UTC()
	if level == "" {
		level = LevelInfo
	}
	return Event{
		ID:        fmt.Sprintf("%s_%d", kind, now.UnixMilli()),
		Kind:      kind,
		Source:    source,
		Message:   message,
		Data:      data,
		Level:     level,
		Timestamp: now,
	}
}

// Day returns the UTC calendar day the event belongs to, used for
// partitioning the event log.
func (e Event) Day() string {
	return e.Timestamp.UTC().Format("2006-01-02")
}
