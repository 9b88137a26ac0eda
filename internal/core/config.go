// Package core contains the dashboard's business logic: the response
// normalizer, the invocation state machine, the in-memory history with its
// selection overlay, history search, display statistics and configuration.
package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/valter-silva-au/delegation-dashboard/pkg/models"
)

// ConfigFileName is the YAML file looked up in the base path.
const ConfigFileName = ".dlgconfig"

// DefaultAgentID identifies the task-delegation agent when none is configured.
const DefaultAgentID = "698901b47b0e3eacc4301937"

// DefaultPrompt is sent to the agent on every process action.
const DefaultPrompt = "Process my recent emails for task delegation. Look for emails with keywords: urgent, team, delegate. " +
	"Extract task details including title, description, priority, assignee mentions, and send Slack notifications " +
	"to the #slack-test channel. Return the results as structured JSON."

// ConfigurationManager loads and validates the dashboard configuration.
type ConfigurationManager interface {
	LoadConfig() (*models.DashboardConfig, error)
	ValidateConfig(cfg *models.DashboardConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading the YAML config file and DLG_* environment overrides.
type viperConfigManager struct {
	basePath string
}

// NewConfigurationManager creates a ConfigurationManager that reads
// .dlgconfig from basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultConfig returns a DashboardConfig populated with defaults.
func DefaultConfig() *models.DashboardConfig {
	return &models.DashboardConfig{
		Agent: models.AgentConfig{
			ID:        DefaultAgentID,
			Prompt:    DefaultPrompt,
			Transport: models.TransportHTTP,
			Endpoint:  "http://localhost:3000/api/agent",
			Timeout:   2 * time.Minute,
			MCP:       models.MCPAgentConfig{Tool: "delegate_tasks"},
			Keywords:  []string{"urgent", "team", "delegate"},
			Channel:   "slack-test",
		},
		Log: models.LogConfig{Level: "info"},
		Notifications: models.NotificationsConfig{
			Alerts: models.AlertThresholdsConfig{
				MaxConsecutiveFailures: 3,
				MaxPendingItems:        5,
			},
		},
	}
}

// LoadConfig reads .dlgconfig from the base path. A missing file yields the
// defaults, still subject to environment overrides.
func (cm *viperConfigManager) LoadConfig() (*models.DashboardConfig, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("DLG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key needs a default so that env overrides reach Unmarshal.
	v.SetDefault("agent.id", def.Agent.ID)
	v.SetDefault("agent.prompt", def.Agent.Prompt)
	v.SetDefault("agent.transport", def.Agent.Transport)
	v.SetDefault("agent.endpoint", def.Agent.Endpoint)
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.timeout", def.Agent.Timeout.String())
	v.SetDefault("agent.mcp.command", "")
	v.SetDefault("agent.mcp.args", []string{})
	v.SetDefault("agent.mcp.url", "")
	v.SetDefault("agent.mcp.tool", def.Agent.MCP.Tool)
	v.SetDefault("agent.keywords", def.Agent.Keywords)
	v.SetDefault("agent.channel", def.Agent.Channel)
	v.SetDefault("history.capacity", 0)
	v.SetDefault("selection.restore_on_clear", false)
	v.SetDefault("sample.path", "")
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("notifications.alerts.max_consecutive_failures", def.Notifications.Alerts.MaxConsecutiveFailures)
	v.SetDefault("notifications.alerts.max_pending_items", def.Notifications.Alerts.MaxPendingItems)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	cfg := &models.DashboardConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", ConfigFileName, err)
	}
	return cfg, nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks the configuration for invalid values and reports
// every problem at once.
func (cm *viperConfigManager) ValidateConfig(cfg *models.DashboardConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if strings.TrimSpace(cfg.Agent.ID) == "" {
		errs = append(errs, "agent.id must not be empty")
	}
	if cfg.Agent.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("agent.timeout must be non-negative, got %s", cfg.Agent.Timeout))
	}

	switch cfg.Agent.Transport {
	case models.TransportHTTP:
		if cfg.Agent.Endpoint == "" {
			errs = append(errs, "agent.endpoint must be set for the http transport")
		}
	case models.TransportMCP:
		if cfg.Agent.MCP.Command == "" && cfg.Agent.MCP.URL == "" {
			errs = append(errs, "agent.mcp.command or agent.mcp.url must be set for the mcp transport")
		}
		if cfg.Agent.MCP.Tool == "" {
			errs = append(errs, "agent.mcp.tool must not be empty")
		}
	default:
		errs = append(errs, fmt.Sprintf(
			"agent.transport %q is invalid, must be one of: %s, %s",
			cfg.Agent.Transport, models.TransportHTTP, models.TransportMCP,
		))
	}

	if cfg.History.Capacity < 0 {
		errs = append(errs, fmt.Sprintf("history.capacity must be non-negative, got %d", cfg.History.Capacity))
	}

	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level %q is invalid, must be one of: debug, info, warn, error", cfg.Log.Level))
	}

	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url must be set when notifications are enabled")
	}
	if cfg.Notifications.Alerts.MaxConsecutiveFailures < 0 || cfg.Notifications.Alerts.MaxPendingItems < 0 {
		errs = append(errs, "notifications.alerts thresholds must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
