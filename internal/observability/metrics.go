package observability

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Metrics summarizes dashboard activity derived from the event log.
type Metrics struct {
	Invocations       int        `json:"invocations"`
	Retries           int        `json:"retries"`
	Successes         int        `json:"successes"`
	Failures          int        `json:"failures"`
	Rejections        int        `json:"rejections"`
	RecordsAppended   int        `json:"records_appended"`
	TasksProcessed    int        `json:"tasks_processed"`
	TeammatesNotified int        `json:"teammates_notified"`
	SampleToggles     int        `json:"sample_toggles"`
	SuccessRate       float64    `json:"success_rate"`
	EventCount        int        `json:"event_count"`
	OldestEvent       *time.Time `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates all events since the given time. SuccessRate is
// successes over completed invocations, 0 when none completed.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{EventCount: len(events)}
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case "invocation.started":
			m.Invocations++
			if retry, _ := event.Data["retry"].(bool); retry {
				m.Retries++
			}
		case "invocation.succeeded":
			m.Successes++
			m.TasksProcessed += intField(event.Data, "tasks_processed")
			m.TeammatesNotified += intField(event.Data, "teammates_notified")
		case "invocation.failed":
			m.Failures++
			if kind, _ := event.Data["kind"].(string); kind == "rejection" {
				m.Rejections++
			}
		case "history.appended":
			m.RecordsAppended++
		case "sample.toggled":
			m.SampleToggles++
		}
	}

	if done := m.Successes + m.Failures; done > 0 {
		m.SuccessRate = float64(m.Successes) / float64(done)
	}
	return m, nil
}

// intField reads a numeric field from decoded event data, where JSON numbers
// arrive as float64.
func intField(data map[string]any, key string) int {
	switch v := data[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v)
	default:
		return 0
	}
}

// ParseSince converts a window such as "7d", "30d" or "24h" into the instant
// that far before now. An empty window means 7 days.
func ParseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	switch {
	case strings.HasSuffix(s, "d"):
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days < 0 {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	case strings.HasSuffix(s, "h"):
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil || hours < 0 {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
	}
}
