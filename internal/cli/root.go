// Package cli implements the pulse command-line interface: event replay,
// metrics, manual emission, test notifications, the live dashboard, and
// the MCP server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "pulse",
	Short: "Pulse - runtime observability for agent workflows",
	Long: `Pulse records lifecycle events for the scripts and directives of an
agent workflow, aggregates metrics, keeps a day-partitioned JSONL audit
trail, and forwards human-readable notifications to a Slack webhook.

It provides CLI commands for emitting events, replaying the audit log,
inspecting metrics, and serving the same operations over MCP.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pulse %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
