package core

import "github.com/valter-silva-au/delegation-dashboard/pkg/models"

// DisplayStats are the counters shown on the dashboard's stat cards.
type DisplayStats struct {
	TasksProcessed    int `json:"tasks_processed"`
	TeammatesNotified int `json:"teammates_notified"`
	PendingItems      int `json:"pending_items"`
}

// Project derives the display counters from the active result. A nil result
// projects to zeros.
func Project(result *models.AgentResult) DisplayStats {
	if result == nil {
		return DisplayStats{}
	}
	return DisplayStats{
		TasksProcessed:    result.Data.TasksProcessed,
		TeammatesNotified: result.Data.TeammatesNotified,
		PendingItems:      PendingItems(result.Items),
	}
}

// PendingItems counts items whose delegation-channel status is anything but
// "sent", compared case-insensitively.
func PendingItems(items []models.TaskItem) int {
	n := 0
	for _, t := range items {
		if t.IsPending() {
			n++
		}
	}
	return n
}
