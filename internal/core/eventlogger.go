package core

// EventLogger is the subset of the observability event log that the
// dashboard needs. Defining it here avoids importing the observability package.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// Dashboard event types written to the event log.
const (
	EventInvocationStarted   = "invocation.started"
	EventInvocationSucceeded = "invocation.succeeded"
	EventInvocationFailed    = "invocation.failed"
	EventHistoryAppended     = "history.appended"
	EventHistorySelected     = "history.selected"
	EventSelectionCleared    = "history.selection_cleared"
	EventSampleToggled       = "sample.toggled"
)
