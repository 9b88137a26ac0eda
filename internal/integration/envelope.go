package integration

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// resultEnvelope builds the raw result object handed to the dashboard:
// {"success": ok, "response": payload, "error": errMsg}. payload must be
// valid JSON or nil; errMsg is omitted when empty.
func resultEnvelope(ok bool, payload []byte, errMsg string) ([]byte, error) {
	env := []byte(`{}`)
	var err error

	if env, err = sjson.SetBytes(env, "success", ok); err != nil {
		return nil, fmt.Errorf("building result envelope: %w", err)
	}
	if len(payload) > 0 {
		if env, err = sjson.SetRawBytes(env, "response", payload); err != nil {
			return nil, fmt.Errorf("building result envelope: %w", err)
		}
	}
	if errMsg != "" {
		if env, err = sjson.SetBytes(env, "error", errMsg); err != nil {
			return nil, fmt.Errorf("building result envelope: %w", err)
		}
	}
	return env, nil
}

// isResultEnvelope reports whether body already has the result-object shape,
// i.e. a JSON object with a boolean success field.
func isResultEnvelope(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return false
	}
	s := root.Get("success")
	return s.Type == gjson.True || s.Type == gjson.False
}

// withDefaultStatus sets "status" on a JSON object payload that lacks one.
// Non-object payloads are returned unchanged.
func withDefaultStatus(payload []byte, status string) []byte {
	root := gjson.ParseBytes(payload)
	if !root.IsObject() || root.Get("status").Exists() {
		return payload
	}
	out, err := sjson.SetBytes(payload, "status", status)
	if err != nil {
		return payload
	}
	return out
}
