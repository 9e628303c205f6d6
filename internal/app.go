// Package internal provides the App struct that wires the pulse
// observability services together and initializes the CLI layer.
package internal

import (
	"github.com/agentwf/pulse/internal/cli"
	"github.com/agentwf/pulse/internal/core"
	"github.com/agentwf/pulse/internal/observability"
)

// App holds the service dependencies for the pulse system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Observability
	Hub *observability.Hub
}

// NewApp creates and wires the pulse services. basePath is the directory
// where .pulseconfig resides (typically the workflow root).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		// Use defaults if the config file is unreadable.
		defaults := core.DefaultGlobalConfig()
		cfg = &defaults
	}

	// --- Observability hub ---
	app.Hub = observability.New(*cfg, nil)

	// --- Wire CLI package-level variables ---
	cli.Hub = app.Hub
	cli.EventLog = app.Hub.Log
	cli.Metrics = app.Hub.Metrics
	cli.Notifier = app.Hub.Notifier

	return app, nil
}

// Close releases resources held by the App, such as the event log file
// handle. It is safe to call Close on an App whose log is nil.
func (a *App) Close() error {
	if a.Hub != nil && a.Hub.Log != nil {
		return a.Hub.Log.Close()
	}
	return nil
}
