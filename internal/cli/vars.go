package cli

import "github.com/agentwf/pulse/internal/observability"

// Observability service instances, set during app initialization in app.go.
var (
	Hub      *observability.Hub
	EventLog observability.EventLog
	Metrics  *observability.MetricsCollector
	Notifier observability.Notifier
)
