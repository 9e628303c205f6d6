package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentwf/pulse/pkg/models"
)

var (
	emitKind     string
	emitSource   string
	emitMessage  string
	emitLevel    string
	emitData     []string
	emitNoNotify bool
)

var validLevels = map[string]models.Level{
	"info":    models.LevelInfo,
	"warning": models.LevelWarning,
	"error":   models.LevelError,
	"success": models.LevelSuccess,
	"debug":   models.LevelDebug,
}

var emitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Emit an event through the hub",
	Long: `Emit a single event through the observability hub. This is the entry
point for shell scripts in the workflow that cannot link against the
library: the event reaches the console, the audit log, and (unless
--no-notify) the notification channel.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Hub == nil {
			return fmt.Errorf("hub not initialized")
		}

		kind := models.Kind(emitKind)
		if !kind.Valid() {
			return fmt.Errorf("unknown event kind %q", emitKind)
		}

		level, ok := validLevels[emitLevel]
		if !ok {
			return fmt.Errorf("unknown level %q (use info, warning, error, success, debug)", emitLevel)
		}

		data, err := parseDataPairs(emitData)
		if err != nil {
			return err
		}

		notify := !emitNoNotify && kind.Notifiable()
		event := Hub.Emit(kind, emitSource, emitMessage, data, level, notify)
		fmt.Printf("emitted %s\n", event.ID)

		return nil
	},
}

// parseDataPairs turns repeated --data key=value flags into the event's
// data mapping.
func parseDataPairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	data := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid --data %q (use key=value)", pair)
		}
		data[key] = value
	}
	return data, nil
}

func init() {
	emitCmd.Flags().StringVar(&emitKind, "kind", "", "Event kind (e.g. script_completed)")
	emitCmd.Flags().StringVar(&emitSource, "source", "", "Emitting script or directive name")
	emitCmd.Flags().StringVar(&emitMessage, "message", "", "Human-readable message")
	emitCmd.Flags().StringVar(&emitLevel, "level", "info", "Severity level")
	emitCmd.Flags().StringArrayVar(&emitData, "data", nil, "Structured data as key=value (repeatable)")
	emitCmd.Flags().BoolVar(&emitNoNotify, "no-notify", false, "Skip the notification channel")
	_ = emitCmd.MarkFlagRequired("kind")
	_ = emitCmd.MarkFlagRequired("source")
	_ = emitCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(emitCmd)
}
