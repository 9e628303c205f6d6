// Package mcp provides an MCP (Model Context Protocol) server that
// exposes the observability hub as MCP tools, so AI agents in the
// workflow can emit events and inspect the audit trail and metrics.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agentwf/pulse/internal/observability"
	"github.com/agentwf/pulse/pkg/models"
)

// Server wraps the observability services and exposes them as MCP tools.
type Server struct {
	server   *gomcp.Server
	hub      *observability.Hub
	eventLog observability.EventLog
	metrics  *observability.MetricsCollector
	notifier observability.Notifier
}

// NewServer creates a new MCP server around the given services. eventLog
// may be nil when the file sink is disabled.
func NewServer(hub *observability.Hub, eventLog observability.EventLog, metrics *observability.MetricsCollector, notifier observability.Notifier, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		hub:      hub,
		eventLog: eventLog,
		metrics:  metrics,
		notifier: notifier,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "pulse", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type emitEventInput struct {
	Kind     string            `json:"kind" jsonschema:"required,the event kind (e.g. script_started, script_completed, task_progress)"`
	Source   string            `json:"source" jsonschema:"required,the emitting script or directive name"`
	Message  string            `json:"message" jsonschema:"required,human-readable message"`
	Level    string            `json:"level,omitempty" jsonschema:"severity (info, warning, error, success, debug). Defaults to info."`
	Data     map[string]string `json:"data,omitempty" jsonschema:"structured key/value data attached to the event"`
	NoNotify bool              `json:"no_notify,omitempty" jsonschema:"skip the notification channel for this event"`
}

type emitEventOutput struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
}

type getEventsInput struct {
	Date   string `json:"date,omitempty" jsonschema:"calendar day as YYYY-MM-DD. Defaults to today; 'all' scans every day."`
	Kind   string `json:"kind,omitempty" jsonschema:"filter by event kind"`
	Source string `json:"source,omitempty" jsonschema:"filter by emitting source"`
}

type eventOutput struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Source    string         `json:"source"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Level     string         `json:"level"`
	Timestamp string         `json:"timestamp"`
}

type getEventsOutput struct {
	Events []eventOutput `json:"events"`
	Count  int           `json:"count"`
}

type getMetricsInput struct{}

type getMetricsOutput struct {
	Series   map[string]observability.Summary `json:"series"`
	Counters map[string]int64                 `json:"counters"`
}

type sendNotificationInput struct {
	Message string `json:"message" jsonschema:"required,message text"`
	Level   string `json:"level,omitempty" jsonschema:"severity (info, warning, error, success, debug). Defaults to info."`
	Title   string `json:"title,omitempty" jsonschema:"optional title"`
}

type sendNotificationOutput struct {
	Delivered bool `json:"delivered"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "emit_event",
		Description: "Emit an observability event. The event reaches the console, the audit log, and (unless no_notify) the notification channel.",
	}, s.handleEmitEvent)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_events",
		Description: "Read events back from the day-partitioned audit log with optional kind/source filters.",
	}, s.handleGetEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get a snapshot of the in-memory metrics: series summaries (count/sum/avg/min/max) and counters.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "send_notification",
		Description: "Send a message directly to the configured notification channel, bypassing the event pipeline.",
	}, s.handleSendNotification)
}

// --- Tool handlers ---

func (s *Server) handleEmitEvent(_ context.Context, _ *gomcp.CallToolRequest, input emitEventInput) (*gomcp.CallToolResult, emitEventOutput, error) {
	kind := models.Kind(input.Kind)
	if !kind.Valid() {
		return errorResult(fmt.Sprintf("unknown event kind %q", input.Kind)), emitEventOutput{}, nil
	}
	if input.Source == "" {
		return errorResult("source is required"), emitEventOutput{}, nil
	}
	if input.Message == "" {
		return errorResult("message is required"), emitEventOutput{}, nil
	}

	level, ok := parseLevel(input.Level)
	if !ok {
		return errorResult(fmt.Sprintf("unknown level %q", input.Level)), emitEventOutput{}, nil
	}

	var data map[string]any
	if len(input.Data) > 0 {
		data = make(map[string]any, len(input.Data))
		for k, v := range input.Data {
			data[k] = v
		}
	}

	notify := !input.NoNotify && kind.Notifiable()
	event := s.hub.Emit(kind, input.Source, input.Message, data, level, notify)

	out := emitEventOutput{
		ID:        event.ID,
		Timestamp: event.Timestamp.Format(time.RFC3339),
	}
	return nil, out, nil
}

func (s *Server) handleGetEvents(_ context.Context, _ *gomcp.CallToolRequest, input getEventsInput) (*gomcp.CallToolResult, getEventsOutput, error) {
	if s.eventLog == nil {
		return errorResult("event log not available (file sink may be disabled)"), getEventsOutput{}, nil
	}

	filter := observability.EventFilter{
		Kind:   models.Kind(input.Kind),
		Source: input.Source,
	}
	if input.Kind != "" && !filter.Kind.Valid() {
		return errorResult(fmt.Sprintf("unknown event kind %q", input.Kind)), getEventsOutput{}, nil
	}

	switch input.Date {
	case "all":
		// Zero date scans every day file.
	case "":
		filter.Date = time.Now().UTC().Format("2006-01-02")
	default:
		filter.Date = input.Date
	}

	events, err := s.eventLog.Read(filter)
	if err != nil {
		return errorResult(fmt.Sprintf("reading events: %s", err)), getEventsOutput{}, nil
	}

	out := getEventsOutput{
		Events: make([]eventOutput, len(events)),
		Count:  len(events),
	}
	for i, e := range events {
		out.Events[i] = eventOutput{
			ID:        e.ID,
			Kind:      string(e.Kind),
			Source:    e.Source,
			Message:   e.Message,
			Data:      e.Data,
			Level:     string(e.Level),
			Timestamp: e.Timestamp.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, _ getMetricsInput) (*gomcp.CallToolResult, getMetricsOutput, error) {
	if s.metrics == nil {
		return errorResult("metrics collector not available"), getMetricsOutput{}, nil
	}

	snap := s.metrics.Snapshot()
	out := getMetricsOutput{
		Series:   snap.Series,
		Counters: snap.Counters,
	}
	return nil, out, nil
}

func (s *Server) handleSendNotification(_ context.Context, _ *gomcp.CallToolRequest, input sendNotificationInput) (*gomcp.CallToolResult, sendNotificationOutput, error) {
	if s.notifier == nil {
		return errorResult("notifier not available"), sendNotificationOutput{}, nil
	}
	if input.Message == "" {
		return errorResult("message is required"), sendNotificationOutput{}, nil
	}

	level, ok := parseLevel(input.Level)
	if !ok {
		return errorResult(fmt.Sprintf("unknown level %q", input.Level)), sendNotificationOutput{}, nil
	}

	delivered := s.notifier.Send(input.Message, level, input.Title, nil, "")
	return nil, sendNotificationOutput{Delivered: delivered}, nil
}

// --- Helpers ---

func parseLevel(s string) (models.Level, bool) {
	switch s {
	case "", "info":
		return models.LevelInfo, true
	case "warning":
		return models.LevelWarning, true
	case "error":
		return models.LevelError, true
	case "success":
		return models.LevelSuccess, true
	case "debug":
		return models.LevelDebug, true
	default:
		return "", false
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
