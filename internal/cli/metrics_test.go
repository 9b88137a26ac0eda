package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/delegation-dashboard/internal/observability"
)

type metricsMock struct {
	calcFn func(since time.Time) (*observability.Metrics, error)
}

func (m *metricsMock) Calculate(since time.Time) (*observability.Metrics, error) {
	return m.calcFn(since)
}

func TestMetricsCmd_NilCalculator(t *testing.T) {
	orig := MetricsCalc
	defer func() { MetricsCalc = orig }()
	MetricsCalc = nil

	err := metricsCmd.RunE(metricsCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("expected not initialized error, got %v", err)
	}
}

func TestMetricsCmd_InvalidSince(t *testing.T) {
	orig, origSince := MetricsCalc, metricsSince
	defer func() {
		MetricsCalc = orig
		metricsSince = origSince
	}()
	MetricsCalc = &metricsMock{calcFn: func(time.Time) (*observability.Metrics, error) { return &observability.Metrics{}, nil }}

	metricsSince = "abc"
	err := metricsCmd.RunE(metricsCmd, []string{})
	if err == nil || !strings.Contains(err.Error(), "unsupported duration format") {
		t.Fatalf("expected duration error, got %v", err)
	}
}

func TestMetricsCmd_Output(t *testing.T) {
	orig, origSince, origJSON := MetricsCalc, metricsSince, metricsJSON
	defer func() {
		MetricsCalc = orig
		metricsSince = origSince
		metricsJSON = origJSON
	}()

	var gotSince time.Time
	MetricsCalc = &metricsMock{calcFn: func(since time.Time) (*observability.Metrics, error) {
		gotSince = since
		return &observability.Metrics{Invocations: 4, Successes: 3, Failures: 1, Rejections: 1, SuccessRate: 0.75, TasksProcessed: 9}, nil
	}}
	metricsSince = "24h"

	var out bytes.Buffer
	metricsCmd.SetOut(&out)
	defer metricsCmd.SetOut(nil)

	metricsJSON = false
	if err := metricsCmd.RunE(metricsCmd, []string{}); err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if d := time.Since(gotSince); d < 23*time.Hour || d > 25*time.Hour {
		t.Errorf("expected since ~24h ago, got %v", d)
	}
	for _, want := range []string{"Invocations:", "75%", "(1 rejected by the agent)", "Tasks processed:"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	metricsJSON = true
	if err := metricsCmd.RunE(metricsCmd, []string{}); err != nil {
		t.Fatalf("metrics --json: %v", err)
	}
	var m observability.Metrics
	if err := json.Unmarshal(out.Bytes(), &m); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if m.Invocations != 4 || m.TasksProcessed != 9 {
		t.Errorf("unexpected JSON metrics: %+v", m)
	}
}
