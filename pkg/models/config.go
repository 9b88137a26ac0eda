package models

import "time"

// Agent transports understood by the dashboard.
const (
	TransportHTTP = "http"
	TransportMCP  = "mcp"
)

// AgentConfig describes how to reach the task-delegation agent.
type AgentConfig struct {
	ID        string         `yaml:"id" mapstructure:"id"`
	Prompt    string         `yaml:"prompt" mapstructure:"prompt"`
	Transport string         `yaml:"transport" mapstructure:"transport"`
	Endpoint  string         `yaml:"endpoint" mapstructure:"endpoint"`
	APIKey    string         `yaml:"api_key,omitempty" mapstructure:"api_key"`
	Timeout   time.Duration  `yaml:"timeout" mapstructure:"timeout"`
	MCP       MCPAgentConfig `yaml:"mcp" mapstructure:"mcp"`

	// Keywords and Channel are shown next to the process action.
	Keywords []string `yaml:"keywords,omitempty" mapstructure:"keywords"`
	Channel  string   `yaml:"channel,omitempty" mapstructure:"channel"`
}

// MCPAgentConfig configures an agent reached as an MCP tool, either by
// spawning Command over stdio or by connecting to URL.
type MCPAgentConfig struct {
	Command string   `yaml:"command,omitempty" mapstructure:"command"`
	Args    []string `yaml:"args,omitempty" mapstructure:"args"`
	URL     string   `yaml:"url,omitempty" mapstructure:"url"`
	Tool    string   `yaml:"tool" mapstructure:"tool"`
}

// HistoryConfig bounds the in-memory history. Capacity 0 means unbounded.
type HistoryConfig struct {
	Capacity int `yaml:"capacity" mapstructure:"capacity"`
}

// SelectionConfig controls the history selection overlay.
type SelectionConfig struct {
	// RestoreOnClear restores the live result that was displayed before a
	// history record was selected. When false, clearing a selection leaves
	// the selected record's data in the live slot.
	RestoreOnClear bool `yaml:"restore_on_clear" mapstructure:"restore_on_clear"`
}

// SampleConfig points at an alternative sample dataset. An empty Path uses
// the built-in dataset.
type SampleConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
}

// AlertThresholdsConfig holds alert thresholds from the config file.
type AlertThresholdsConfig struct {
	MaxConsecutiveFailures int `yaml:"max_consecutive_failures" mapstructure:"max_consecutive_failures"`
	MaxPendingItems        int `yaml:"max_pending_items" mapstructure:"max_pending_items"`
}

// SlackConfig holds the Slack webhook used for notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url,omitempty" mapstructure:"webhook_url"`
}

// NotificationsConfig groups notification settings.
type NotificationsConfig struct {
	Enabled bool                  `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig           `yaml:"slack" mapstructure:"slack"`
	Alerts  AlertThresholdsConfig `yaml:"alerts" mapstructure:"alerts"`
}

// DashboardConfig holds process-wide settings read from .dlgconfig via Viper.
// It is loaded once at startup and treated as immutable afterwards.
type DashboardConfig struct {
	Agent         AgentConfig         `yaml:"agent" mapstructure:"agent"`
	History       HistoryConfig       `yaml:"history" mapstructure:"history"`
	Selection     SelectionConfig     `yaml:"selection" mapstructure:"selection"`
	Sample        SampleConfig        `yaml:"sample" mapstructure:"sample"`
	Log           LogConfig           `yaml:"log" mapstructure:"log"`
	Notifications NotificationsConfig `yaml:"notifications" mapstructure:"notifications"`
}
