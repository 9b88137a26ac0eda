package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

func TestHTTPAgentInvoker_WrapsPayload(t *testing.T) {
	var gotBody []byte
	var gotKey, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotKey = r.Header.Get("x-api-key")
		gotType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte(`{"summary":"done","data":{"tasks_processed":1}}`))
	}))
	defer srv.Close()

	inv := NewHTTPAgentInvoker(HTTPAgentConfig{Endpoint: srv.URL, APIKey: "secret"}, nil)
	raw, err := inv.Invoke(context.Background(), "process emails", "agent-1")
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}

	if gotKey != "secret" || gotType != "application/json" {
		t.Errorf("unexpected headers: key=%q type=%q", gotKey, gotType)
	}
	if m := gjson.GetBytes(gotBody, "message").String(); m != "process emails" {
		t.Errorf("expected message in request, got %q", m)
	}
	if id := gjson.GetBytes(gotBody, "agent_id").String(); id != "agent-1" {
		t.Errorf("expected agent_id in request, got %q", id)
	}

	res := gjson.ParseBytes(raw)
	if !res.Get("success").Bool() {
		t.Errorf("expected success=true, got %s", raw)
	}
	if s := res.Get("response.status").String(); s != "success" {
		t.Errorf("expected default status success, got %q", s)
	}
	if s := res.Get("response.summary").String(); s != "done" {
		t.Errorf("expected payload preserved, got %q", s)
	}
}

func TestHTTPAgentInvoker_OmitsEmptyAPIKey(t *testing.T) {
	var hasKey bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasKey = r.Header["X-Api-Key"]
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	if _, err := NewHTTPAgentInvoker(HTTPAgentConfig{Endpoint: srv.URL}, nil).Invoke(context.Background(), "p", "a"); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if hasKey {
		t.Error("expected no x-api-key header")
	}
}

func TestHTTPResultObject(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantSuccess bool
		wantStatus  string
		wantError   string
	}{
		{name: "result object passes through", status: 200, body: `{"success":false,"error":"quota"}`, wantSuccess: false, wantError: "quota"},
		{name: "payload keeps own status", status: 200, body: `{"status":"error","message":"no emails"}`, wantSuccess: true, wantStatus: "error"},
		{name: "non json 2xx", status: 200, body: `ok`, wantSuccess: false, wantError: "agent returned a non-JSON response"},
		{name: "empty 2xx", status: 204, body: ``, wantSuccess: false, wantError: "agent returned a non-JSON response"},
		{name: "json error status", status: 502, body: `{"message":"upstream"}`, wantSuccess: false, wantError: "agent returned HTTP 502"},
		{name: "text error status", status: 500, body: `boom`, wantSuccess: false, wantError: "agent returned HTTP 500: boom"},
		{name: "long text dropped", status: 500, body: strings.Repeat("x", 201), wantSuccess: false, wantError: "agent returned HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := httpResultObject(tt.status, []byte(tt.body))
			if err != nil {
				t.Fatalf("httpResultObject: %v", err)
			}
			res := gjson.ParseBytes(raw)
			if res.Get("success").Bool() != tt.wantSuccess {
				t.Errorf("success = %v, want %v (%s)", res.Get("success").Bool(), tt.wantSuccess, raw)
			}
			if tt.wantStatus != "" && res.Get("response.status").String() != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Get("response.status").String(), tt.wantStatus)
			}
			if res.Get("error").String() != tt.wantError {
				t.Errorf("error = %q, want %q", res.Get("error").String(), tt.wantError)
			}
		})
	}
}

func TestHTTPAgentInvoker_ContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPAgentInvoker(HTTPAgentConfig{Endpoint: srv.URL}, nil).Invoke(ctx, "p", "a")
	if err == nil {
		t.Fatal("expected error on context deadline")
	}
	if !strings.Contains(err.Error(), "calling agent") {
		t.Errorf("expected wrapped call error, got %v", err)
	}
}
