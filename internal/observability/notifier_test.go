package observability

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSlackNotifier_NoAlerts(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL)
	if err := n.Notify(nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.Notify([]Alert{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if called {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestSlackNotifier_SendsAlerts(t *testing.T) {
	var body []byte
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alerts := []Alert{
		{
			ID:          "consecutive-failures",
			Condition:   ConditionConsecutiveFailures,
			Severity:    SeverityHigh,
			Message:     "agent invocation failed 3 times in a row",
			TriggeredAt: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			ID:          "pending-rec-1",
			Condition:   ConditionPendingItems,
			Severity:    SeverityMedium,
			Message:     "latest run left 6 tasks without a sent notification",
			TriggeredAt: time.Date(2026, 1, 15, 10, 31, 0, 0, time.UTC),
		},
	}
	if err := NewSlackNotifier(srv.URL).Notify(alerts); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if contentType != "application/json" {
		t.Errorf("expected application/json, got %s", contentType)
	}
	var msg slackMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	// header, section, divider, section
	if len(msg.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[0].Text.Text != "dlg Alert Summary" {
		t.Errorf("unexpected header %q", msg.Blocks[0].Text.Text)
	}
	if !strings.Contains(msg.Blocks[1].Text.Text, "*[HIGH]*") {
		t.Errorf("expected severity tag in %q", msg.Blocks[1].Text.Text)
	}
	if msg.Blocks[2].Type != "divider" {
		t.Errorf("expected divider, got %s", msg.Blocks[2].Type)
	}
}

func TestSlackNotifier_NotifyRun(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).NotifyRun(RunSummary{TasksProcessed: 3, TeammatesNotified: 2, PendingItems: 1})
	if err != nil {
		t.Fatalf("NotifyRun: %v", err)
	}
	var msg slackMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(msg.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(msg.Blocks))
	}
	if msg.Blocks[1].Text.Text != "Tasks processed" {
		t.Errorf("expected default summary, got %q", msg.Blocks[1].Text.Text)
	}
	if !strings.Contains(msg.Blocks[2].Text.Text, "*Teammates notified:* 2") {
		t.Errorf("unexpected stats block %q", msg.Blocks[2].Text.Text)
	}
}

func TestSlackNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewSlackNotifier(srv.URL).Notify([]Alert{{Severity: SeverityLow, Message: "x"}})
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected status 500 error, got %v", err)
	}
}
