package cli

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var metricsJSON bool

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display collected metrics and counters",
	Long: `Display a snapshot of the in-memory metrics collector: every value
series with its count/sum/avg/min/max summary, and every counter.

Metrics live in process memory only, so this shows what the current
process has collected since start (or the last reset).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Metrics == nil {
			return fmt.Errorf("metrics collector not initialized")
		}

		snap := Metrics.Snapshot()

		if metricsJSON {
			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(snap.Series) == 0 && len(snap.Counters) == 0 {
			fmt.Println("No metrics collected.")
			return nil
		}

		if len(snap.Series) > 0 {
			fmt.Println("Series:")
			names := make([]string, 0, len(snap.Series))
			for name := range snap.Series {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				s := snap.Series[name]
				fmt.Printf("  %-32s count=%d sum=%.2f avg=%.2f min=%.2f max=%.2f\n",
					name, s.Count, s.Sum, s.Avg, s.Min, s.Max)
			}
		}

		if len(snap.Counters) > 0 {
			fmt.Println("\nCounters:")
			names := make([]string, 0, len(snap.Counters))
			for name := range snap.Counters {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-32s %d\n", name, snap.Counters[name])
			}
		}

		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	rootCmd.AddCommand(metricsCmd)
}
