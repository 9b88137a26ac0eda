package core

import (
	"errors"
	"testing"
)

func TestInvocationController_Lifecycle(t *testing.T) {
	c := NewInvocationController()
	if st := c.State(); st.Phase != PhaseIdle || st.StatusMessage != "" || st.Error != "" {
		t.Fatalf("initial state = %+v", st)
	}

	a, err := c.Begin("agent-1")
	if err != nil {
		t.Fatal(err)
	}
	st := c.State()
	if st.Phase != PhaseRunning || st.StatusMessage != StatusProcessing || st.ActiveAgentID != "agent-1" {
		t.Fatalf("running state = %+v", st)
	}

	if _, err := c.Begin("agent-1"); !errors.Is(err, ErrInvocationInFlight) {
		t.Fatalf("second Begin: expected ErrInvocationInFlight, got %v", err)
	}

	if err := c.Fail(a, "boom"); err != nil {
		t.Fatal(err)
	}
	st = c.State()
	if st.Phase != PhaseFailed || st.Error != "boom" || st.StatusMessage != "" || st.ActiveAgentID != "" {
		t.Fatalf("failed state = %+v", st)
	}

	b, err := c.Begin("agent-1")
	if err != nil {
		t.Fatal(err)
	}
	if st := c.State(); st.Error != "" {
		t.Errorf("Begin must clear the previous error, got %q", st.Error)
	}
	if b.Seq <= a.Seq {
		t.Errorf("attempt sequence did not advance: %d -> %d", a.Seq, b.Seq)
	}

	if err := c.Succeed(b); err != nil {
		t.Fatal(err)
	}
	st = c.State()
	if st.Phase != PhaseSucceeded || st.StatusMessage != StatusSucceeded || st.Error != "" {
		t.Fatalf("succeeded state = %+v", st)
	}
}

func TestInvocationController_StaleAttempt(t *testing.T) {
	c := NewInvocationController()
	old, _ := c.Begin("a")
	if err := c.Succeed(old); err != nil {
		t.Fatal(err)
	}

	if err := c.Fail(old, "late"); !errors.Is(err, ErrStaleAttempt) {
		t.Errorf("completion after finish: expected ErrStaleAttempt, got %v", err)
	}

	_, _ = c.Begin("a")
	if err := c.Succeed(old); !errors.Is(err, ErrStaleAttempt) {
		t.Errorf("completion of previous attempt: expected ErrStaleAttempt, got %v", err)
	}
	if c.State().Phase != PhaseRunning {
		t.Error("stale completion must not change the phase")
	}
}

func TestInvocationController_Dismiss(t *testing.T) {
	c := NewInvocationController()
	a, _ := c.Begin("a")

	c.Dismiss()
	if c.State().Phase != PhaseRunning {
		t.Fatal("Dismiss must not interrupt a running call")
	}

	_ = c.Fail(a, "x")
	c.Dismiss()
	if st := c.State(); st.Phase != PhaseIdle || st.Error != "" {
		t.Errorf("after Dismiss state = %+v", st)
	}
}

func TestPhaseString(t *testing.T) {
	for phase, want := range map[Phase]string{
		PhaseIdle:      "idle",
		PhaseRunning:   "running",
		PhaseSucceeded: "succeeded",
		PhaseFailed:    "failed",
		Phase(9):       "phase(9)",
	} {
		if got := phase.String(); got != want {
			t.Errorf("Phase(%d).String() = %q, want %q", int(phase), got, want)
		}
	}
}
