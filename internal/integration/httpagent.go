package integration

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// maxAgentResponseBytes caps how much of an agent response body is read.
const maxAgentResponseBytes = 8 << 20

// HTTPAgentConfig configures an agent reached over HTTP.
type HTTPAgentConfig struct {
	Endpoint string
	APIKey   string
	// Client defaults to an http.Client without a timeout; the dashboard
	// bounds each call through its context.
	Client *http.Client
}

// HTTPAgentInvoker posts the prompt to an agent endpoint as JSON.
type HTTPAgentInvoker struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

// NewHTTPAgentInvoker creates an invoker that POSTs
// {"message": prompt, "agent_id": id} to cfg.Endpoint.
func NewHTTPAgentInvoker(cfg HTTPAgentConfig, logger *zap.Logger) *HTTPAgentInvoker {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPAgentInvoker{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   client,
		logger:   logger,
	}
}

// Invoke returns the endpoint's body when it already is a result object.
// Otherwise the body is wrapped: 2xx JSON becomes the response payload with a
// default "success" status, anything else becomes an unsuccessful result.
// Transport errors are returned as errors.
func (h *HTTPAgentInvoker) Invoke(ctx context.Context, prompt, agentID string) ([]byte, error) {
	body, err := sjson.SetBytes([]byte(`{}`), "message", prompt)
	if err != nil {
		return nil, fmt.Errorf("building agent request: %w", err)
	}
	if body, err = sjson.SetBytes(body, "agent_id", agentID); err != nil {
		return nil, fmt.Errorf("building agent request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating agent request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("x-api-key", h.apiKey)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling agent at %s: %w", h.endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAgentResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading agent response: %w", err)
	}

	h.logger.Debug("agent responded",
		zap.String("endpoint", h.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("elapsed", time.Since(start)))

	return httpResultObject(resp.StatusCode, data)
}

func httpResultObject(statusCode int, data []byte) ([]byte, error) {
	if isResultEnvelope(data) {
		return data, nil
	}

	ok := statusCode >= 200 && statusCode < 300
	valid := len(data) > 0 && gjson.ValidBytes(data)

	switch {
	case ok && valid:
		return resultEnvelope(true, withDefaultStatus(data, "success"), "")
	case ok:
		return resultEnvelope(false, nil, "agent returned a non-JSON response")
	case valid:
		return resultEnvelope(false, data, fmt.Sprintf("agent returned HTTP %d", statusCode))
	default:
		msg := fmt.Sprintf("agent returned HTTP %d", statusCode)
		if text := strings.TrimSpace(string(data)); text != "" && len(text) <= 200 {
			msg += ": " + text
		}
		return resultEnvelope(false, nil, msg)
	}
}
