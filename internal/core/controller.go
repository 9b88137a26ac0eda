package core

import (
	"errors"
	"fmt"
)

// Phase is the lifecycle state of the invocation controller.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Status messages shown while running and after a success.
const (
	StatusProcessing = "Processing emails for tasks..."
	StatusSucceeded  = "Tasks processed successfully!"
)

var (
	// ErrInvocationInFlight is returned when a process action arrives while
	// a call is already running. The action is ignored.
	ErrInvocationInFlight = errors.New("an agent invocation is already running")

	// ErrSampleModeActive is returned when a process action arrives while
	// sample data is being previewed. The action is ignored.
	ErrSampleModeActive = errors.New("sample mode is active")

	// ErrNoFailedInvocation is returned by retry when the last invocation
	// did not fail.
	ErrNoFailedInvocation = errors.New("no failed invocation to retry")

	// ErrStaleAttempt is returned when a completion does not belong to the
	// call currently in flight.
	ErrStaleAttempt = errors.New("completion does not match the running invocation")
)

// Attempt identifies one Idle->Running transition. Completions carry it back
// so a result can only finish the call that started it.
type Attempt struct {
	Seq     uint64
	AgentID string
}

// InvocationState is a read-only snapshot of the controller. StatusMessage is
// only set in Running and Succeeded, Error only in Failed, ActiveAgentID only
// in Running.
type InvocationState struct {
	Phase         Phase
	StatusMessage string
	Error         string
	ActiveAgentID string
}

// InvocationController is the four-state machine behind the process action.
// Its fields change only through the transition methods below; callers
// serialize access (Dashboard holds its mutex around every call).
type InvocationController struct {
	state   InvocationState
	seq     uint64
	current Attempt
}

// NewInvocationController returns a controller in the Idle phase.
func NewInvocationController() *InvocationController {
	return &InvocationController{}
}

// State returns the current snapshot.
func (c *InvocationController) State() InvocationState {
	return c.state
}

// Begin enters Running from Idle, Succeeded or Failed. Any previous error is
// cleared optimistically.
func (c *InvocationController) Begin(agentID string) (Attempt, error) {
	if c.state.Phase == PhaseRunning {
		return Attempt{}, ErrInvocationInFlight
	}
	c.seq++
	c.current = Attempt{Seq: c.seq, AgentID: agentID}
	c.state = InvocationState{
		Phase:         PhaseRunning,
		StatusMessage: StatusProcessing,
		ActiveAgentID: agentID,
	}
	return c.current, nil
}

// Succeed moves Running to Succeeded.
func (c *InvocationController) Succeed(a Attempt) error {
	if err := c.checkAttempt(a); err != nil {
		return err
	}
	c.state = InvocationState{
		Phase:         PhaseSucceeded,
		StatusMessage: StatusSucceeded,
	}
	return nil
}

// Fail moves Running to Failed with the given user-facing message.
func (c *InvocationController) Fail(a Attempt, message string) error {
	if err := c.checkAttempt(a); err != nil {
		return err
	}
	c.state = InvocationState{
		Phase: PhaseFailed,
		Error: message,
	}
	return nil
}

// Dismiss drops the outcome message of a finished call and returns to Idle.
// It does nothing while a call is running.
func (c *InvocationController) Dismiss() {
	if c.state.Phase == PhaseRunning {
		return
	}
	c.state = InvocationState{Phase: PhaseIdle}
}

func (c *InvocationController) checkAttempt(a Attempt) error {
	if c.state.Phase != PhaseRunning || a.Seq != c.current.Seq {
		return ErrStaleAttempt
	}
	return nil
}
