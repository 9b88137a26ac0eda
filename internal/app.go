// Package internal provides the App struct that wires all components of the
// delegation dashboard together and initializes the CLI layer.
package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/valter-silva-au/delegation-dashboard/internal/cli"
	"github.com/valter-silva-au/delegation-dashboard/internal/core"
	"github.com/valter-silva-au/delegation-dashboard/internal/integration"
	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	// EnvHome overrides base path discovery.
	EnvHome = "DLG_HOME"

	eventLogFileName = ".dlg_events.jsonl"
	logFileName      = "dlg.log"
)

// App holds all service dependencies for the delegation dashboard.
type App struct {
	BasePath string
	Config   *models.DashboardConfig
	Logger   *zap.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager

	// Core services
	Invoker   core.AgentInvoker
	History   core.HistoryStore
	Dashboard *core.Dashboard

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
}

// NewApp loads the configuration found in basePath and wires the dashboard,
// its agent invoker and the observability services.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Logging ---
	app.Logger, err = newLogger(filepath.Join(basePath, logFileName), cfg.Log.Level)
	if err != nil {
		// Non-fatal: run without a log file.
		app.Logger = zap.NewNop()
	}

	// --- Observability ---
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, eventLogFileName))
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.Logger.Warn("event log disabled", zap.Error(err))
		app.EventLog = nil
	}
	var events core.EventLogger
	if app.EventLog != nil {
		events = observability.NewRecorder(app.EventLog, nil)
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, observability.AlertThresholds{
			MaxConsecutiveFailures: cfg.Notifications.Alerts.MaxConsecutiveFailures,
			MaxPendingItems:        cfg.Notifications.Alerts.MaxPendingItems,
		})
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL)
	}

	// --- Agent ---
	app.Invoker, err = newInvoker(cfg.Agent, app.Logger)
	if err != nil {
		_ = app.closeResources()
		return nil, err
	}

	// --- Core services ---
	sample := core.DefaultSampleDataset()
	if cfg.Sample.Path != "" {
		path := cfg.Sample.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(basePath, path)
		}
		sample, err = core.LoadSampleDataset(path)
		if err != nil {
			_ = app.closeResources()
			return nil, err
		}
	}

	app.History = core.NewHistoryStore(cfg.History.Capacity)
	app.Dashboard, err = core.NewDashboard(core.DashboardOptions{
		AgentID:        cfg.Agent.ID,
		Prompt:         cfg.Agent.Prompt,
		Timeout:        cfg.Agent.Timeout,
		RestoreOnClear: cfg.Selection.RestoreOnClear,
		Invoker:        app.Invoker,
		History:        app.History,
		Sample:         &sample,
		Events:         events,
		Logger:         app.Logger,
	})
	if err != nil {
		_ = app.closeResources()
		return nil, err
	}

	// --- Wire CLI package-level variables ---
	cli.Dash = app.Dashboard
	cli.Keywords = cfg.Agent.Keywords
	cli.Channel = cfg.Agent.Channel

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier

	return app, nil
}

// newInvoker builds the agent invoker for the configured transport.
func newInvoker(cfg models.AgentConfig, logger *zap.Logger) (core.AgentInvoker, error) {
	switch cfg.Transport {
	case models.TransportHTTP:
		return integration.NewHTTPAgentInvoker(integration.HTTPAgentConfig{
			Endpoint: cfg.Endpoint,
			APIKey:   cfg.APIKey,
		}, logger), nil
	case models.TransportMCP:
		var transport integration.TransportFactory
		if cfg.MCP.URL != "" {
			transport = integration.StreamableTransport(cfg.MCP.URL)
		} else {
			transport = integration.CommandTransport(cfg.MCP.Command, cfg.MCP.Args...)
		}
		inv, err := integration.NewMCPAgentInvoker(integration.MCPAgentConfig{
			Tool:         cfg.MCP.Tool,
			NewTransport: transport,
			Version:      cli.Version(),
		}, logger)
		if err != nil {
			return nil, err
		}
		return inv, nil
	default:
		return nil, fmt.Errorf("unsupported agent transport %q", cfg.Transport)
	}
}

// newLogger builds a JSON zap logger writing to path at the given level.
// The terminal belongs to the dashboard UI and the MCP stdio transport, so
// nothing is logged to stdout or stderr.
func newLogger(path, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, nil
}

// Close flushes the logger and releases the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	return a.closeResources()
}

func (a *App) closeResources() error {
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the directory holding .dlgconfig, the event log
// and the log file. DLG_HOME wins; otherwise the nearest ancestor of the
// working directory containing .dlgconfig; otherwise the working directory.
func ResolveBasePath() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return cwd
}
