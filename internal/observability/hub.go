package observability

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agentwf/pulse/internal/core"
	"github.com/agentwf/pulse/pkg/models"
)

// Console level styles, matching the notification palette.
var (
	levelInfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	levelWarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	levelErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	levelSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("36"))
	levelDebugStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	sourceStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
)

func styleForLevel(level models.Level) lipgloss.Style {
	switch level {
	case models.LevelWarning:
		return levelWarningStyle
	case models.LevelError:
		return levelErrorStyle
	case models.LevelSuccess:
		return levelSuccessStyle
	case models.LevelDebug:
		return levelDebugStyle
	default:
		return levelInfoStyle
	}
}

// Hub is the single authoritative entry point for turning a semantic
// occurrence into a persisted, aggregated, and optionally notified
// event. All methods are safe for concurrent use.
type Hub struct {
	Metrics  *MetricsCollector
	Log      EventLog
	Notifier Notifier

	console        io.Writer
	consoleEnabled bool
	fileEnabled    bool
	notifyEnabled  bool

	subMu       sync.Mutex
	subscribers []func(models.Event)

	// Start times registered by the *Started wrappers, keyed by name.
	activeMu         sync.Mutex
	activeDirectives map[string]time.Time
	activeScripts    map[string]time.Time
}

// New creates a Hub from the given configuration, writing console output
// to console (os.Stdout if nil). If the event log directory cannot be
// created the file sink is disabled and a warning is printed; the hub is
// never the reason an emitting script aborts.
func New(cfg models.GlobalConfig, console io.Writer) *Hub {
	if console == nil {
		console = os.Stdout
	}

	h := &Hub{
		Metrics:          NewMetricsCollector(),
		Notifier:         NewSlackNotifier(cfg.Notifications, console),
		console:          console,
		consoleEnabled:   cfg.Sinks.Console,
		fileEnabled:      cfg.Sinks.File,
		notifyEnabled:    cfg.Notifications.Enabled,
		activeDirectives: make(map[string]time.Time),
		activeScripts:    make(map[string]time.Time),
	}

	if cfg.Sinks.File {
		log, err := NewEventLog(cfg.LogDir)
		if err != nil {
			fmt.Fprintf(console, "[hub] event log disabled: %v\n", err)
			h.fileEnabled = false
		} else {
			h.Log = log
		}
	}

	return h
}

var (
	defaultHub  *Hub
	defaultOnce sync.Once
)

// Default returns the process-wide hub, constructing it on first use
// from the environment-backed configuration. There is no teardown; the
// hub is valid for the lifetime of the process. Tests should construct
// their own hubs with New instead.
func Default() *Hub {
	defaultOnce.Do(func() {
		cfg, err := core.NewConfigurationManager(core.ResolveBasePath()).LoadGlobalConfig()
		if err != nil {
			defaults := core.DefaultGlobalConfig()
			cfg = &defaults
		}
		defaultHub = New(*cfg, nil)
	})
	return defaultHub
}

// Subscribe registers an in-process listener invoked with every emitted
// event. A panicking listener is isolated and does not interrupt the
// remaining listeners or the emitting caller.
func (h *Hub) Subscribe(fn func(models.Event)) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	h.subscribers = append(h.subscribers, fn)
}

// Emit constructs an event and routes it to every sink. The console and
// file sinks are unconditional (subject to configuration); the notifier
// runs only when notify is true. Each sink is guarded independently so
// one sink's failure is invisible to the others. The constructed event
// is returned to the caller.
func (h *Hub) Emit(kind models.Kind, source, message string, data map[string]any, level models.Level, notify bool) models.Event {
	event := models.NewEvent(kind, source, message, data, level)

	if h.consoleEnabled {
		h.logToConsole(event)
	}

	if h.fileEnabled && h.Log != nil {
		if err := h.Log.Write(event); err != nil {
			fmt.Fprintf(h.console, "[hub] event log write failed: %v\n", err)
		}
	}

	// The notifier call is bounded by its own timeout and holds no hub
	// lock, so a slow endpoint only delays the emitting caller.
	if notify && h.notifyEnabled {
		fields := notificationFields(event)
		h.Notifier.Send(event.Message, event.Level, event.Kind.Title(), fields, "")
	}

	h.subMu.Lock()
	subscribers := make([]func(models.Event), len(h.subscribers))
	copy(subscribers, h.subscribers)
	h.subMu.Unlock()
	for _, fn := range subscribers {
		h.notifySubscriber(fn, event)
	}

	return event
}

// notifySubscriber invokes one listener, isolating panics.
func (h *Hub) notifySubscriber(fn func(models.Event), event models.Event) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(h.console, "[hub] subscriber panic: %v\n", r)
		}
	}()
	fn(event)
}

// logToConsole renders one event line to the console sink.
func (h *Hub) logToConsole(event models.Event) {
	marker := styleForLevel(event.Level).Render(event.Level.Icon())
	source := sourceStyle.Render(event.Source)
	fmt.Fprintf(h.console, "[%s] %s [%s] %s\n",
		event.Timestamp.Format("15:04:05"), marker, source, event.Message)
}

// notificationFields builds the field table for an event notification:
// the source plus every data entry, stringified.
func notificationFields(event models.Event) map[string]string {
	fields := map[string]string{"Source": event.Source}
	for k, v := range event.Data {
		fields[k] = fmt.Sprintf("%v", v)
	}
	return fields
}

// --- Typed convenience wrappers ---

// DirectiveStarted records the start of a directive.
func (h *Hub) DirectiveStarted(name string, context map[string]any) models.Event {
	h.setStart(h.activeDirectives, name)
	return h.Emit(models.KindDirectiveStarted, name,
		fmt.Sprintf("Started directive: %s", name), context, models.LevelInfo, true)
}

// DirectiveCompleted records the successful end of a directive, with the
// elapsed duration since DirectiveStarted.
func (h *Hub) DirectiveCompleted(name string, result map[string]any) models.Event {
	data := map[string]any{"duration": h.takeDuration(h.activeDirectives, name)}
	for k, v := range result {
		data[k] = v
	}
	return h.Emit(models.KindDirectiveCompleted, name,
		fmt.Sprintf("Completed directive: %s", name), data, models.LevelSuccess, true)
}

// DirectiveFailed records a directive failure and counts it.
func (h *Hub) DirectiveFailed(name string, cause error) models.Event {
	h.Metrics.Increment("errors.total", 1)
	data := map[string]any{
		"duration": h.takeDuration(h.activeDirectives, name),
		"error":    errString(cause),
	}
	return h.Emit(models.KindDirectiveFailed, name,
		fmt.Sprintf("Failed directive: %s - %s", name, errString(cause)), data, models.LevelError, true)
}

// DirectiveUpdated records a change to a directive's definition.
func (h *Hub) DirectiveUpdated(name, summary string) models.Event {
	return h.Emit(models.KindDirectiveUpdated, name, summary, nil, models.LevelInfo, true)
}

// ScriptStarted records the start of a script, optionally tagged with
// its parent directive and caller-supplied context.
func (h *Hub) ScriptStarted(name, directive string, context map[string]any) models.Event {
	h.setStart(h.activeScripts, name)
	data := make(map[string]any, len(context)+1)
	for k, v := range context {
		data[k] = v
	}
	if directive != "" {
		data["directive"] = directive
	}
	if len(data) == 0 {
		data = nil
	}
	return h.Emit(models.KindScriptStarted, name,
		fmt.Sprintf("Started script: %s", name), data, models.LevelInfo, true)
}

// ScriptCompleted records the successful end of a script. Numeric values
// in results are also recorded as metric series named <script>.<key>.
func (h *Hub) ScriptCompleted(name string, results map[string]any) models.Event {
	data := map[string]any{"duration": h.takeDuration(h.activeScripts, name)}
	for k, v := range results {
		data[k] = v
		if value, ok := numeric(v); ok {
			h.Metrics.Record(fmt.Sprintf("%s.%s", name, k), value)
		}
	}
	return h.Emit(models.KindScriptCompleted, name,
		fmt.Sprintf("Completed script: %s", name), data, models.LevelSuccess, true)
}

// ScriptFailed records a script failure and increments the per-source
// and total error counters. Caller-supplied context rides along in the
// event data.
func (h *Hub) ScriptFailed(name string, cause error, context map[string]any) models.Event {
	h.Metrics.Increment("errors.total", 1)
	h.Metrics.Increment(fmt.Sprintf("errors.%s", name), 1)
	data := make(map[string]any, len(context)+2)
	for k, v := range context {
		data[k] = v
	}
	data["duration"] = h.takeDuration(h.activeScripts, name)
	data["error"] = errString(cause)
	return h.Emit(models.KindScriptFailed, name,
		fmt.Sprintf("Script failed: %s - %s", name, errString(cause)), data, models.LevelError, true)
}

// Progress records a progress update. Progress events stay local: they
// are logged and counted but never forwarded to the notification channel.
// A negative percent means "not measured" and omits the field; zero is a
// real value and is rendered as "0.0%".
func (h *Hub) Progress(source, message string, percent float64) models.Event {
	var data map[string]any
	if percent >= 0 {
		data = map[string]any{"percent": fmt.Sprintf("%.1f%%", percent*100)}
	}
	return h.Emit(models.KindTaskProgress, source, message, data, models.LevelInfo, false)
}

// Checkpoint records a named checkpoint within a long-running task.
func (h *Hub) Checkpoint(source, name string, data map[string]any) models.Event {
	return h.Emit(models.KindTaskCheckpoint, source,
		fmt.Sprintf("Checkpoint: %s", name), data, models.LevelInfo, true)
}

// Learning records a self-annealing learning event.
func (h *Hub) Learning(source, learning string, directiveUpdated bool) models.Event {
	data := map[string]any{"directive_updated": directiveUpdated}
	return h.Emit(models.KindLearningCaptured, source, learning, data, models.LevelInfo, true)
}

// ErrorRecovered records that a script recovered from an error on its own.
func (h *Hub) ErrorRecovered(source, detail string) models.Event {
	return h.Emit(models.KindErrorRecovered, source, detail, nil, models.LevelWarning, true)
}

// Health records a system health report.
func (h *Hub) Health(source, status string, data map[string]any) models.Event {
	return h.Emit(models.KindSystemHealth, source, status, data, models.LevelInfo, true)
}

// --- Duration bookkeeping ---

func (h *Hub) setStart(active map[string]time.Time, name string) {
	h.activeMu.Lock()
	defer h.activeMu.Unlock()
	active[name] = time.Now().UTC()
}

// takeDuration removes the start time registered under name and formats
// the elapsed duration, or "unknown" when no start was recorded.
func (h *Hub) takeDuration(active map[string]time.Time, name string) string {
	h.activeMu.Lock()
	start, ok := active[name]
	delete(active, name)
	h.activeMu.Unlock()

	if !ok {
		return "unknown"
	}
	return formatDuration(time.Since(start))
}

// formatDuration renders a duration for humans: seconds under a minute,
// minutes under an hour, hours beyond.
func formatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds < 60:
		return fmt.Sprintf("%.2fs", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%.1fm", seconds/60)
	default:
		return fmt.Sprintf("%.1fh", seconds/3600)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// numeric reports the float64 value of v when it carries a number.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
