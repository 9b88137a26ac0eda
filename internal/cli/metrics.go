package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
)

var (
	metricsJSON  bool
	metricsSince string
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display invocation and delegation metrics",
	Long: `Display metrics derived from the event log: agent invocations, retries,
successes, failures and rejections, history records, tasks processed,
teammates notified and the success rate.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if MetricsCalc == nil {
			return fmt.Errorf("metrics calculator not initialized (event log may be disabled)")
		}

		sinceTime, err := observability.ParseSince(metricsSince, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		metrics, err := MetricsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating metrics: %w", err)
		}

		out := cmd.OutOrStdout()
		if metricsJSON {
			data, err := json.MarshalIndent(metrics, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting metrics as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		fmt.Fprintf(out, "Metrics (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Fprintf(out, "  %-24s %d\n", "Events recorded:", metrics.EventCount)
		fmt.Fprintf(out, "  %-24s %d\n", "Invocations:", metrics.Invocations)
		fmt.Fprintf(out, "  %-24s %d\n", "Retries:", metrics.Retries)
		fmt.Fprintf(out, "  %-24s %d\n", "Successes:", metrics.Successes)
		fmt.Fprintf(out, "  %-24s %d (%d rejected by the agent)\n", "Failures:", metrics.Failures, metrics.Rejections)
		fmt.Fprintf(out, "  %-24s %.0f%%\n", "Success rate:", metrics.SuccessRate*100)
		fmt.Fprintf(out, "  %-24s %d\n", "History records:", metrics.RecordsAppended)
		fmt.Fprintf(out, "  %-24s %d\n", "Tasks processed:", metrics.TasksProcessed)
		fmt.Fprintf(out, "  %-24s %d\n", "Teammates notified:", metrics.TeammatesNotified)

		if metrics.OldestEvent != nil {
			fmt.Fprintf(out, "\n  %-24s %s\n", "Oldest event:", metrics.OldestEvent.Format(time.RFC3339))
		}
		if metrics.NewestEvent != nil {
			fmt.Fprintf(out, "  %-24s %s\n", "Newest event:", metrics.NewestEvent.Format(time.RFC3339))
		}
		return nil
	},
}

func init() {
	metricsCmd.Flags().BoolVar(&metricsJSON, "json", false, "Output metrics as JSON")
	metricsCmd.Flags().StringVar(&metricsSince, "since", "7d", "Time window for metrics (e.g. 7d, 30d, 24h)")
	rootCmd.AddCommand(metricsCmd)
}
