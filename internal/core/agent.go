package core

import (
	"context"
	"errors"

	"github.com/tidwall/gjson"
)

// AgentInvoker is the single opaque call to the external task-delegation
// agent. It returns the raw result object, shaped like
//
//	{"success": true, "response": {"status": "success", ...payload}, "error": ""}
//
// A returned error means the call itself failed; a resolved call reports
// rejection through success=false or a non-"success" status.
type AgentInvoker interface {
	Invoke(ctx context.Context, prompt, agentID string) ([]byte, error)
}

// Fallback messages when nothing more specific is available.
const (
	fallbackRejectionMessage = "Unknown error occurred"
	fallbackFailureMessage   = "Failed to process tasks"
)

// InvocationError reports that the agent call itself failed.
type InvocationError struct {
	Err error
}

func (e *InvocationError) Error() string {
	if e.Err == nil || e.Err.Error() == "" {
		return fallbackFailureMessage
	}
	return e.Err.Error()
}

func (e *InvocationError) Unwrap() error { return e.Err }

// AgentRejectionError reports a call that resolved without success.
type AgentRejectionError struct {
	Message string
	Status  string
}

func (e *AgentRejectionError) Error() string {
	if e.Message == "" {
		return fallbackRejectionMessage
	}
	return e.Message
}

// succeeded reports whether raw carries success=true and a response status of
// "success".
func succeeded(raw []byte) bool {
	if !gjson.ValidBytes(raw) {
		return false
	}
	res := gjson.GetManyBytes(raw, "success", "response.status")
	return res[0].Type == gjson.True && res[1].Type == gjson.String && res[1].Str == "success"
}

// classifyFailure builds the error for a failed call. The most specific
// message wins: the response's own message, then the result's error field,
// then the call error, then a generic fallback.
func classifyFailure(raw []byte, callErr error) error {
	var msg, status string
	if len(raw) > 0 && gjson.ValidBytes(raw) {
		res := gjson.GetManyBytes(raw, "response.message", "error", "response.status")
		for _, r := range res[:2] {
			if r.Type == gjson.String && r.Str != "" {
				msg = r.Str
				break
			}
		}
		status = res[2].String()
	}

	if callErr != nil {
		if msg != "" {
			return &InvocationError{Err: &messageError{msg: msg, cause: callErr}}
		}
		return &InvocationError{Err: callErr}
	}
	return &AgentRejectionError{Message: msg, Status: status}
}

// messageError carries a response-embedded message while keeping the
// underlying call error reachable through errors.Is/As.
type messageError struct {
	msg   string
	cause error
}

func (e *messageError) Error() string { return e.msg }
func (e *messageError) Unwrap() error { return e.cause }

// IsInvocationFailure reports whether err came from a failed or rejected
// agent call, as opposed to a guard such as ErrInvocationInFlight.
func IsInvocationFailure(err error) bool {
	var ie *InvocationError
	var re *AgentRejectionError
	return errors.As(err, &ie) || errors.As(err, &re)
}
