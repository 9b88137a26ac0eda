package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// lookPath is exec.LookPath, swappable in tests.
var lookPath = exec.LookPath

// TransportFactory returns a fresh MCP client transport for one call.
type TransportFactory func() (gomcp.Transport, error)

// CommandTransport spawns command with args and speaks MCP over its stdio.
func CommandTransport(command string, args ...string) TransportFactory {
	return func() (gomcp.Transport, error) {
		if _, err := lookPath(command); err != nil {
			return nil, fmt.Errorf("agent command not found: %s", command)
		}
		return &gomcp.CommandTransport{Command: exec.Command(command, args...)}, nil
	}
}

// StreamableTransport connects to an MCP server over streamable HTTP.
func StreamableTransport(url string) TransportFactory {
	return func() (gomcp.Transport, error) {
		return &gomcp.StreamableClientTransport{Endpoint: url}, nil
	}
}

// MCPAgentConfig configures an agent exposed as an MCP tool.
type MCPAgentConfig struct {
	Tool         string
	NewTransport TransportFactory
	Version      string
}

// MCPAgentInvoker calls the agent as a tool on an MCP server. Each Invoke
// opens its own session, so no connection outlives a call.
type MCPAgentInvoker struct {
	tool         string
	newTransport TransportFactory
	client       *gomcp.Client
	logger       *zap.Logger
}

// NewMCPAgentInvoker creates an invoker that calls cfg.Tool with
// {"prompt": ..., "agent_id": ...}.
func NewMCPAgentInvoker(cfg MCPAgentConfig, logger *zap.Logger) (*MCPAgentInvoker, error) {
	if cfg.Tool == "" {
		return nil, fmt.Errorf("creating MCP agent invoker: tool name is required")
	}
	if cfg.NewTransport == nil {
		return nil, fmt.Errorf("creating MCP agent invoker: transport is required")
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MCPAgentInvoker{
		tool:         cfg.Tool,
		newTransport: cfg.NewTransport,
		client:       gomcp.NewClient(&gomcp.Implementation{Name: "dlg", Version: cfg.Version}, nil),
		logger:       logger,
	}, nil
}

// Invoke returns a result object whose success mirrors the tool result's
// IsError flag and whose response is the tool's structured content, or its
// text content when no structured content was returned.
func (m *MCPAgentInvoker) Invoke(ctx context.Context, prompt, agentID string) ([]byte, error) {
	transport, err := m.newTransport()
	if err != nil {
		return nil, fmt.Errorf("creating MCP transport: %w", err)
	}

	session, err := m.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to MCP agent: %w", err)
	}
	defer func() { _ = session.Close() }()

	res, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name: m.tool,
		Arguments: map[string]any{
			"prompt":   prompt,
			"agent_id": agentID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("calling MCP tool %s: %w", m.tool, err)
	}

	m.logger.Debug("MCP agent responded",
		zap.String("tool", m.tool),
		zap.Bool("is_error", res.IsError),
		zap.Int("content_blocks", len(res.Content)))

	return mcpResultObject(res)
}

func mcpResultObject(res *gomcp.CallToolResult) ([]byte, error) {
	text := toolText(res)

	if res.IsError {
		payload, err := sjson.SetBytes([]byte(`{"status":"error"}`), "message", text)
		if err != nil {
			return nil, fmt.Errorf("building MCP error payload: %w", err)
		}
		return resultEnvelope(false, payload, text)
	}

	var payload []byte
	switch {
	case res.StructuredContent != nil:
		data, err := json.Marshal(res.StructuredContent)
		if err != nil {
			return nil, fmt.Errorf("encoding MCP structured content: %w", err)
		}
		payload = data
	case gjson.Valid(text) && gjson.Parse(text).IsObject():
		payload = []byte(text)
	default:
		data, err := sjson.SetBytes([]byte(`{}`), "text", text)
		if err != nil {
			return nil, fmt.Errorf("building MCP text payload: %w", err)
		}
		payload = data
	}

	if isResultEnvelope(payload) {
		return payload, nil
	}
	return resultEnvelope(true, withDefaultStatus(payload, "success"), "")
}

func toolText(res *gomcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*gomcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
