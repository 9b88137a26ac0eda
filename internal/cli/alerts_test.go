package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
)

type alertsMock struct {
	alerts []observability.Alert
	err    error
}

func (a *alertsMock) Evaluate() ([]observability.Alert, error) {
	return a.alerts, a.err
}

func withAlerts(t *testing.T, engine observability.AlertEngine, n observability.Notifier) *bytes.Buffer {
	t.Helper()
	origEngine, origNotifier, origNotify := AlertEngine, Notifier, alertsNotify
	t.Cleanup(func() {
		AlertEngine = origEngine
		Notifier = origNotifier
		alertsNotify = origNotify
		alertsCmd.SetOut(nil)
	})
	AlertEngine = engine
	Notifier = n
	var out bytes.Buffer
	alertsCmd.SetOut(&out)
	return &out
}

var sampleAlert = observability.Alert{
	ID:          "consecutive-failures",
	Condition:   observability.ConditionConsecutiveFailures,
	Severity:    observability.SeverityHigh,
	Message:     "agent invocation failed 3 times in a row",
	TriggeredAt: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	withAlerts(t, nil, nil)
	if err := alertsCmd.RunE(alertsCmd, nil); err == nil {
		t.Fatal("expected error when alert engine is nil")
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	out := withAlerts(t, &alertsMock{}, nil)
	if err := alertsCmd.RunE(alertsCmd, nil); err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if !strings.Contains(out.String(), "No active alerts.") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestAlertsCmd_ListsAlerts(t *testing.T) {
	out := withAlerts(t, &alertsMock{alerts: []observability.Alert{sampleAlert}}, nil)
	if err := alertsCmd.RunE(alertsCmd, nil); err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if !strings.Contains(out.String(), "[HIGH] agent invocation failed 3 times in a row") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestAlertsCmd_Notify(t *testing.T) {
	n := &recordingNotifier{}
	out := withAlerts(t, &alertsMock{alerts: []observability.Alert{sampleAlert}}, n)
	alertsNotify = true

	if err := alertsCmd.RunE(alertsCmd, nil); err != nil {
		t.Fatalf("alerts --notify: %v", err)
	}
	if len(n.alerts) != 1 || len(n.alerts[0]) != 1 {
		t.Errorf("expected one notification with one alert, got %+v", n.alerts)
	}
	if !strings.Contains(out.String(), "Alerts sent to Slack.") {
		t.Errorf("expected confirmation, got %q", out.String())
	}
}

func TestAlertsCmd_NotifyWithoutNotifier(t *testing.T) {
	withAlerts(t, &alertsMock{alerts: []observability.Alert{sampleAlert}}, nil)
	alertsNotify = true

	err := alertsCmd.RunE(alertsCmd, nil)
	if err == nil || !strings.Contains(err.Error(), "notifications are not enabled") {
		t.Fatalf("expected notifications error, got %v", err)
	}
}
