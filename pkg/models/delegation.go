package models

import (
	"strings"
	"time"
)

// SlackStatusSent is the only delegation-channel status that does not count
// as pending.
const SlackStatusSent = "sent"

// TaskItem is one delegated task extracted from an email by the agent.
// Every field is optional; an empty string means the agent did not report it.
type TaskItem struct {
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Priority     string `json:"priority,omitempty" yaml:"priority,omitempty"`
	Assignee     string `json:"assignee,omitempty" yaml:"assignee,omitempty"`
	SlackStatus  string `json:"slack_status,omitempty" yaml:"slack_status,omitempty"`
	EmailSubject string `json:"email_subject,omitempty" yaml:"email_subject,omitempty"`
	EmailFrom    string `json:"email_from,omitempty" yaml:"email_from,omitempty"`
	Timestamp    string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// IsPending reports whether the task's notification has not been confirmed
// as sent. Unknown and missing statuses are pending.
func (t TaskItem) IsPending() bool {
	return !strings.EqualFold(t.SlackStatus, SlackStatusSent)
}

// DisplayTitle returns the title or a placeholder.
func (t TaskItem) DisplayTitle() string {
	return orDefault(t.Title, "Untitled Task")
}

// DisplayPriority returns the priority label or "normal".
func (t TaskItem) DisplayPriority() string {
	return orDefault(t.Priority, "normal")
}

// DisplayStatus returns the delegation-channel status or "unknown".
func (t TaskItem) DisplayStatus() string {
	return orDefault(t.SlackStatus, "unknown")
}

// DisplayAssignee returns the assignee or "Unassigned".
func (t TaskItem) DisplayAssignee() string {
	return orDefault(t.Assignee, "Unassigned")
}

// DelegationStats holds the counters reported by the agent for one run.
type DelegationStats struct {
	TasksProcessed    int `json:"tasks_processed" yaml:"tasks_processed"`
	TeammatesNotified int `json:"teammates_notified" yaml:"teammates_notified"`
}

// AgentResult is the canonical, normalized outcome of one agent invocation.
// Items is never nil once produced by the normalizer.
type AgentResult struct {
	Summary string          `json:"summary" yaml:"summary"`
	Data    DelegationStats `json:"data" yaml:"data"`
	Items   []TaskItem      `json:"items" yaml:"items"`
}

// Clone returns a deep copy so callers cannot alias another result's items.
func (r AgentResult) Clone() AgentResult {
	out := r
	out.Items = cloneItems(r.Items)
	return out
}

// DelegationRecord is an immutable history entry created from a successful
// invocation. The statistics are denormalized from the AgentResult.
type DelegationRecord struct {
	ID                string     `json:"id" yaml:"id"`
	Tasks             []TaskItem `json:"tasks" yaml:"tasks"`
	Summary           string     `json:"summary" yaml:"summary"`
	TasksProcessed    int        `json:"tasks_processed" yaml:"tasks_processed"`
	TeammatesNotified int        `json:"teammates_notified" yaml:"teammates_notified"`
	Timestamp         time.Time  `json:"timestamp" yaml:"timestamp"`
}

// Clone returns a deep copy of the record.
func (r DelegationRecord) Clone() DelegationRecord {
	out := r
	out.Tasks = cloneItems(r.Tasks)
	return out
}

// Result projects the record back into the canonical result shape.
func (r DelegationRecord) Result() AgentResult {
	return AgentResult{
		Summary: r.Summary,
		Data: DelegationStats{
			TasksProcessed:    r.TasksProcessed,
			TeammatesNotified: r.TeammatesNotified,
		},
		Items: cloneItems(r.Tasks),
	}
}

// PriorityRank orders priority labels from most to least urgent. Unknown
// labels sort last.
func PriorityRank(priority string) int {
	switch strings.ToLower(priority) {
	case "urgent":
		return 0
	case "high":
		return 1
	case "medium":
		return 2
	case "low":
		return 3
	default:
		return 4
	}
}

// FormatTimestamp renders an ISO-8601 timestamp for display. Empty input
// renders as "N/A"; unparseable input is returned unchanged.
func FormatTimestamp(ts string) string {
	if ts == "" {
		return "N/A"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return FormatTime(t)
}

// FormatTime renders a time the way the dashboard shows it.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 2, 2006, 03:04 PM")
}

func cloneItems(items []TaskItem) []TaskItem {
	out := make([]TaskItem, len(items))
	copy(out, items)
	return out
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
