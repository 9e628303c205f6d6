package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	notifyMessage string
	notifyLevel   string
	notifyTitle   string
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Send a test notification to the configured channel",
	Long: `Send a single notification directly to the configured webhook,
bypassing the event pipeline. Useful for verifying the channel
configuration. Exits non-zero when delivery did not happen (unconfigured,
disabled, or a delivery failure).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Notifier == nil {
			return fmt.Errorf("notifier not initialized")
		}

		level, ok := validLevels[notifyLevel]
		if !ok {
			return fmt.Errorf("unknown level %q (use info, warning, error, success, debug)", notifyLevel)
		}

		if !Notifier.Send(notifyMessage, level, notifyTitle, nil, "") {
			return fmt.Errorf("notification not delivered")
		}
		fmt.Println("notification sent")

		return nil
	},
}

func init() {
	notifyCmd.Flags().StringVar(&notifyMessage, "message", "", "Message text")
	notifyCmd.Flags().StringVar(&notifyLevel, "level", "info", "Severity level")
	notifyCmd.Flags().StringVar(&notifyTitle, "title", "", "Optional title")
	_ = notifyCmd.MarkFlagRequired("message")
	rootCmd.AddCommand(notifyCmd)
}
