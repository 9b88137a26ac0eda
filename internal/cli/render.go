package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/valter-silva-au/delegation-dashboard/internal/core"
	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
)

// resultJSON is the --json shape shared by process and sample.
type resultJSON struct {
	Summary    string                    `json:"summary"`
	Stats      core.DisplayStats         `json:"stats"`
	Items      []models.TaskItem         `json:"items"`
	History    []models.DelegationRecord `json:"history,omitempty"`
	SampleMode bool                      `json:"sample_mode"`
}

func writeViewJSON(w io.Writer, v core.View, withHistory bool) error {
	out := resultJSON{Stats: v.Stats, Items: v.Items, SampleMode: v.SampleMode}
	if v.Result != nil {
		out.Summary = v.Result.Summary
	}
	if withHistory {
		out.History = v.History
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting result as JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func writeViewText(w io.Writer, v core.View, withHistory bool) {
	if v.Result != nil && v.Result.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", v.Result.Summary)
	}
	fmt.Fprintf(w, "  %-22s %d\n", "Tasks processed:", v.Stats.TasksProcessed)
	fmt.Fprintf(w, "  %-22s %d\n", "Teammates notified:", v.Stats.TeammatesNotified)
	fmt.Fprintf(w, "  %-22s %d\n", "Pending items:", v.Stats.PendingItems)

	if len(v.Items) == 0 {
		fmt.Fprintln(w, "\nNo tasks found.")
	} else {
		fmt.Fprintf(w, "\nTasks (%d):\n", len(v.Items))
		for _, it := range v.Items {
			fmt.Fprintf(w, "  - %s [%s] -> %s (%s)\n",
				it.DisplayTitle(), it.DisplayPriority(), it.DisplayAssignee(), it.DisplayStatus())
			if it.EmailSubject != "" {
				fmt.Fprintf(w, "      from %s: %s\n", orNA(it.EmailFrom), it.EmailSubject)
			}
		}
	}

	if withHistory && len(v.History) > 0 {
		fmt.Fprintf(w, "\nHistory (%d):\n", len(v.History))
		for _, r := range v.History {
			fmt.Fprintf(w, "  %s  %-24s %s (%d tasks)\n", r.ID, models.FormatTime(r.Timestamp), r.Summary, len(r.Tasks))
		}
	}
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// notifyRun posts a run summary when a notifier is configured. Failures are
// reported on w and never fail the command.
func notifyRun(w io.Writer, v core.View) {
	if Notifier == nil || v.Result == nil {
		return
	}
	err := Notifier.NotifyRun(observability.RunSummary{
		Summary:           v.Result.Summary,
		TasksProcessed:    v.Stats.TasksProcessed,
		TeammatesNotified: v.Stats.TeammatesNotified,
		PendingItems:      v.Stats.PendingItems,
	})
	if err != nil {
		fmt.Fprintf(w, "Warning: sending run notification: %v\n", err)
	}
}

func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
