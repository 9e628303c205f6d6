package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	pulsemcp "github.com/agentwf/pulse/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  "Commands for running the pulse MCP (Model Context Protocol) server.",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the pulse MCP server on stdio",
	Long: `Start the pulse MCP server on stdio transport.

The server exposes the observability hub as MCP tools that AI agents can
call: emit_event, get_events, get_metrics, send_notification.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Hub == nil {
			return fmt.Errorf("hub not initialized")
		}

		srv := pulsemcp.NewServer(Hub, EventLog, Metrics, Notifier, appVersion)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("running MCP server: %w", err)
		}

		return nil
	},
}

func init() {
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}
