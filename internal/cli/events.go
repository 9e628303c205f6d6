package cli

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentwf/pulse/internal/observability"
	"github.com/agentwf/pulse/pkg/models"
)

var (
	eventsDate   string
	eventsAll    bool
	eventsKind   string
	eventsSource string
	eventsJSON   bool
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Replay events from the audit log",
	Long: `Read events back from the day-partitioned JSONL audit log with
optional filters.

By default only today's log file is read; --date selects another day and
--all scans every known day file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (file sink may be disabled)")
		}

		filter, err := buildEventFilter()
		if err != nil {
			return err
		}

		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		if eventsJSON {
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %-20s %-9s %-20s %s\n",
				e.Timestamp.Format(time.RFC3339), e.Kind, e.Level, e.Source, e.Message)
		}
		fmt.Printf("\n%d event(s).\n", len(events))

		return nil
	},
}

// buildEventFilter validates the flag combination and assembles the
// read filter. --all wins over --date; the default is today.
func buildEventFilter() (observability.EventFilter, error) {
	filter := observability.EventFilter{
		Kind:   models.Kind(eventsKind),
		Source: eventsSource,
	}

	if eventsKind != "" && !filter.Kind.Valid() {
		return filter, fmt.Errorf("unknown event kind %q", eventsKind)
	}

	switch {
	case eventsAll:
		// Zero date scans every day file.
	case eventsDate != "":
		if !datePattern.MatchString(eventsDate) {
			return filter, fmt.Errorf("invalid date %q (use YYYY-MM-DD)", eventsDate)
		}
		filter.Date = eventsDate
	default:
		filter.Date = time.Now().UTC().Format("2006-01-02")
	}

	return filter, nil
}

func init() {
	eventsCmd.Flags().StringVar(&eventsDate, "date", "", "Read events for a specific day (YYYY-MM-DD)")
	eventsCmd.Flags().BoolVar(&eventsAll, "all", false, "Read events across all known days")
	eventsCmd.Flags().StringVar(&eventsKind, "kind", "", "Filter by event kind (e.g. script_failed)")
	eventsCmd.Flags().StringVar(&eventsSource, "source", "", "Filter by emitting source")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	rootCmd.AddCommand(eventsCmd)
}
