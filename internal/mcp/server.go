// Package mcp exposes the delegation dashboard as MCP (Model Context
// Protocol) tools so assistants can trigger runs and browse history.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/delegation-dashboard/internal/core"
	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
)

// Server wraps a dashboard and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	dashboard   *core.Dashboard
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates an MCP server over dashboard. metricsCalc and
// alertEngine may be nil when the event log is unavailable.
func NewServer(dashboard *core.Dashboard, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		dashboard:   dashboard,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: "dlg", Version: version}, nil)
	s.registerTools()
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type processTasksInput struct {
	Retry bool `json:"retry,omitempty" jsonschema:"retry the last failed run instead of starting a new one"`
}

type statsOutput struct {
	TasksProcessed    int `json:"tasks_processed"`
	TeammatesNotified int `json:"teammates_notified"`
	PendingItems      int `json:"pending_items"`
}

type recordOutput struct {
	ID                string            `json:"id"`
	Summary           string            `json:"summary"`
	TasksProcessed    int               `json:"tasks_processed"`
	TeammatesNotified int               `json:"teammates_notified"`
	Timestamp         string            `json:"timestamp"`
	Tasks             []models.TaskItem `json:"tasks"`
}

type dashboardOutput struct {
	Phase          string            `json:"phase"`
	StatusMessage  string            `json:"status_message,omitempty"`
	Error          string            `json:"error,omitempty"`
	AgentID        string            `json:"agent_id,omitempty"`
	SampleMode     bool              `json:"sample_mode"`
	Summary        string            `json:"summary,omitempty"`
	Stats          statsOutput       `json:"stats"`
	Items          []models.TaskItem `json:"items"`
	LastSync       string            `json:"last_sync,omitempty"`
	HistoryCount   int               `json:"history_count"`
	ViewingHistory string            `json:"viewing_history,omitempty"`
}

type getDashboardInput struct{}

type listHistoryInput struct {
	Query string `json:"query,omitempty" jsonschema:"case-insensitive text matched against summaries, task titles and assignees"`
}

type listHistoryOutput struct {
	Records []recordOutput `json:"records"`
	Count   int            `json:"count"`
}

type selectHistoryInput struct {
	RecordID string `json:"record_id" jsonschema:"required,the history record identifier"`
}

type clearSelectionInput struct{}

type setSampleModeInput struct {
	Enabled bool `json:"enabled" jsonschema:"true to preview the sample dataset, false to return to live data"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	Invocations       int     `json:"invocations"`
	Retries           int     `json:"retries"`
	Successes         int     `json:"successes"`
	Failures          int     `json:"failures"`
	Rejections        int     `json:"rejections"`
	RecordsAppended   int     `json:"records_appended"`
	TasksProcessed    int     `json:"tasks_processed"`
	TeammatesNotified int     `json:"teammates_notified"`
	SuccessRate       float64 `json:"success_rate"`
	EventCount        int     `json:"event_count"`
	OldestEvent       string  `json:"oldest_event,omitempty"`
	NewestEvent       string  `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "process_tasks",
		Description: "Ask the delegation agent to process recent emails into tasks and notify teammates. Blocks until the agent answers and returns the updated dashboard.",
	}, s.handleProcessTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_dashboard",
		Description: "Return the current dashboard: invocation status, statistics, task items and whether a history record is being viewed.",
	}, s.handleGetDashboard)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_history",
		Description: "List past delegation runs, newest first, optionally filtered by a search query.",
	}, s.handleListHistory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "select_history",
		Description: "Show a past delegation run in the dashboard's result view.",
	}, s.handleSelectHistory)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "clear_selection",
		Description: "Stop viewing a past delegation run.",
	}, s.handleClearSelection)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_sample_mode",
		Description: "Switch between live data and the built-in sample dataset.",
	}, s.handleSetSampleMode)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get invocation and delegation metrics aggregated from the event log.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (consecutive failures, pending items).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleProcessTasks(ctx context.Context, _ *gomcp.CallToolRequest, input processTasksInput) (*gomcp.CallToolResult, dashboardOutput, error) {
	var err error
	if input.Retry {
		err = s.dashboard.Retry(ctx)
	} else {
		err = s.dashboard.Process(ctx)
	}

	out := viewToOutput(s.dashboard.View())
	switch {
	case err == nil:
		return nil, out, nil
	case errors.Is(err, core.ErrInvocationInFlight), errors.Is(err, core.ErrSampleModeActive), errors.Is(err, core.ErrNoFailedInvocation):
		return errorResult(fmt.Sprintf("process ignored: %s", err)), out, nil
	case core.IsInvocationFailure(err):
		return errorResult(err.Error()), out, nil
	default:
		return nil, out, fmt.Errorf("processing tasks: %w", err)
	}
}

func (s *Server) handleGetDashboard(_ context.Context, _ *gomcp.CallToolRequest, _ getDashboardInput) (*gomcp.CallToolResult, dashboardOutput, error) {
	return nil, viewToOutput(s.dashboard.View()), nil
}

func (s *Server) handleListHistory(_ context.Context, _ *gomcp.CallToolRequest, input listHistoryInput) (*gomcp.CallToolResult, listHistoryOutput, error) {
	records := core.FilterHistory(input.Query, s.dashboard.View().History)

	out := listHistoryOutput{
		Records: make([]recordOutput, len(records)),
		Count:   len(records),
	}
	for i, r := range records {
		out.Records[i] = recordToOutput(r)
	}
	return nil, out, nil
}

func (s *Server) handleSelectHistory(_ context.Context, _ *gomcp.CallToolRequest, input selectHistoryInput) (*gomcp.CallToolResult, dashboardOutput, error) {
	if input.RecordID == "" {
		return errorResult("record_id is required"), viewToOutput(s.dashboard.View()), nil
	}
	if err := s.dashboard.Select(input.RecordID); err != nil {
		return errorResult(err.Error()), viewToOutput(s.dashboard.View()), nil
	}
	return nil, viewToOutput(s.dashboard.View()), nil
}

func (s *Server) handleClearSelection(_ context.Context, _ *gomcp.CallToolRequest, _ clearSelectionInput) (*gomcp.CallToolResult, dashboardOutput, error) {
	s.dashboard.ClearSelection()
	return nil, viewToOutput(s.dashboard.View()), nil
}

func (s *Server) handleSetSampleMode(_ context.Context, _ *gomcp.CallToolRequest, input setSampleModeInput) (*gomcp.CallToolResult, dashboardOutput, error) {
	s.dashboard.SetSampleMode(input.Enabled)
	return nil, viewToOutput(s.dashboard.View()), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), metricsOutput{}, nil
	}

	since, err := observability.ParseSince(input.Since, time.Now().UTC())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), metricsOutput{}, nil
	}

	m, err := s.metricsCalc.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), metricsOutput{}, nil
	}

	out := metricsOutput{
		Invocations:       m.Invocations,
		Retries:           m.Retries,
		Successes:         m.Successes,
		Failures:          m.Failures,
		Rejections:        m.Rejections,
		RecordsAppended:   m.RecordsAppended,
		TasksProcessed:    m.TasksProcessed,
		TeammatesNotified: m.TeammatesNotified,
		SuccessRate:       m.SuccessRate,
		EventCount:        m.EventCount,
	}
	if m.OldestEvent != nil {
		out.OldestEvent = m.OldestEvent.Format(time.RFC3339)
	}
	if m.NewestEvent != nil {
		out.NewestEvent = m.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (event log may be disabled)"), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{Alerts: []alertOutput{}}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

// --- Helpers ---

func viewToOutput(v core.View) dashboardOutput {
	out := dashboardOutput{
		Phase:         v.Phase.String(),
		StatusMessage: v.StatusMessage,
		Error:         v.Error,
		AgentID:       v.ActiveAgentID,
		SampleMode:    v.SampleMode,
		Stats: statsOutput{
			TasksProcessed:    v.Stats.TasksProcessed,
			TeammatesNotified: v.Stats.TeammatesNotified,
			PendingItems:      v.Stats.PendingItems,
		},
		Items:        v.Items,
		HistoryCount: len(v.History),
	}
	if out.Items == nil {
		out.Items = []models.TaskItem{}
	}
	if v.Result != nil {
		out.Summary = v.Result.Summary
	}
	if !v.LastSync.IsZero() {
		out.LastSync = v.LastSync.Format(time.RFC3339)
	}
	if v.Selected != nil {
		out.ViewingHistory = v.Selected.ID
	}
	return out
}

func recordToOutput(r models.DelegationRecord) recordOutput {
	tasks := r.Tasks
	if tasks == nil {
		tasks = []models.TaskItem{}
	}
	return recordOutput{
		ID:                r.ID,
		Summary:           r.Summary,
		TasksProcessed:    r.TasksProcessed,
		TeammatesNotified: r.TeammatesNotified,
		Timestamp:         r.Timestamp.Format(time.RFC3339),
		Tasks:             tasks,
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
