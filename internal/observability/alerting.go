package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionConsecutiveFailures = "consecutive_failures"
	ConditionPendingItems        = "pending_items"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire. A zero threshold disables
// its rule.
type AlertThresholds struct {
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures" json:"max_consecutive_failures"`
	MaxPendingItems        int `yaml:"max_pending_items" json:"max_pending_items"`
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine over eventLog.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// Evaluate checks every rule against the invocation events.
func (ae *alertEngine) Evaluate() ([]Alert, error) {
	events, err := ae.eventLog.Read(EventFilter{Type: "invocation."})
	if err != nil {
		return nil, fmt.Errorf("reading invocation events: %w", err)
	}
	now := ae.now().UTC()

	var alerts []Alert
	if a, ok := ae.checkConsecutiveFailures(events, now); ok {
		alerts = append(alerts, a)
	}
	if a, ok := ae.checkPendingItems(events, now); ok {
		alerts = append(alerts, a)
	}
	return alerts, nil
}

// checkConsecutiveFailures counts failures since the most recent success.
func (ae *alertEngine) checkConsecutiveFailures(events []Event, now time.Time) (Alert, bool) {
	limit := ae.thresholds.MaxConsecutiveFailures
	if limit <= 0 {
		return Alert{}, false
	}

	streak := 0
	lastError := ""
	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Type == "invocation.succeeded" {
			break
		}
		if e.Type == "invocation.failed" {
			if streak == 0 {
				lastError, _ = e.Data["error"].(string)
			}
			streak++
		}
	}
	if streak < limit {
		return Alert{}, false
	}

	msg := fmt.Sprintf("agent invocation failed %d times in a row", streak)
	if lastError != "" {
		msg += ": " + lastError
	}
	return Alert{
		ID:          "consecutive-failures",
		Condition:   ConditionConsecutiveFailures,
		Severity:    SeverityHigh,
		Message:     msg,
		TriggeredAt: now,
	}, true
}

// checkPendingItems looks at the pending count of the latest successful run.
func (ae *alertEngine) checkPendingItems(events []Event, now time.Time) (Alert, bool) {
	limit := ae.thresholds.MaxPendingItems
	if limit <= 0 {
		return Alert{}, false
	}

	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		if e.Type != "invocation.succeeded" {
			continue
		}
		pending := intField(e.Data, "pending_items")
		if pending <= limit {
			return Alert{}, false
		}
		recordID, _ := e.Data["record_id"].(string)
		return Alert{
			ID:          fmt.Sprintf("pending-%s", recordID),
			Condition:   ConditionPendingItems,
			Severity:    SeverityMedium,
			Message:     fmt.Sprintf("latest run left %d tasks without a sent notification, exceeding the maximum of %d", pending, limit),
			TriggeredAt: now,
		}, true
	}
	return Alert{}, false
}
