package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/contextware/memchat/llm"
	"github.com/contextware/memchat/observability"
	"github.com/contextware/memchat/server"
	"github.com/contextware/memchat/session"
)

// fakeOrchestrator answers with a canned response and records calls.
type fakeOrchestrator struct {
	response string
	err      error
	cleared  []bool
	stats    session.Stats
}

func (f *fakeOrchestrator) Chat(_ context.Context, utterance string, _ map[string]string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeOrchestrator) ClearMemory(_ context.Context, clearLongTerm bool) error {
	f.cleared = append(f.cleared, clearLongTerm)
	return nil
}

func (f *fakeOrchestrator) Stats(context.Context) session.Stats {
	return f.stats
}

var testMetrics = observability.NewMetrics("memchat_test")

func newTestServer(orch server.Orchestrator) *httptest.Server {
	return httptest.NewServer(server.New(orch, testMetrics, nil).Router())
}

func TestHandleChat_OK(t *testing.T) {
	ts := newTestServer(&fakeOrchestrator{response: "hello back"})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/chat", "application/json",
		strings.NewReader(`{"message": "hello", "metadata": {"channel": "test"}}`))
	if err != nil {
		t.Fatalf("POST /v1/chat: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Response != "hello back" {
		t.Errorf("response = %q", body.Response)
	}
}

func TestHandleChat_EmptyMessage(t *testing.T) {
	ts := newTestServer(&fakeOrchestrator{response: "unused"})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/chat", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /v1/chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleChat_CompletionErrors(t *testing.T) {
	cases := []struct {
		kind       llm.Kind
		wantStatus int
	}{
		{llm.KindTimeout, http.StatusGatewayTimeout},
		{llm.KindRateLimit, http.StatusTooManyRequests},
		{llm.KindAuth, http.StatusBadGateway},
		{llm.KindUnknown, http.StatusBadGateway},
	}

	for _, tc := range cases {
		orch := &fakeOrchestrator{err: &llm.Error{Kind: tc.kind, Provider: "stub", Err: errors.New("boom")}}
		ts := newTestServer(orch)

		resp, err := http.Post(ts.URL+"/v1/chat", "application/json", strings.NewReader(`{"message": "hi"}`))
		if err != nil {
			t.Fatalf("POST /v1/chat: %v", err)
		}
		if resp.StatusCode != tc.wantStatus {
			t.Errorf("kind %v: status = %d, want %d", tc.kind, resp.StatusCode, tc.wantStatus)
		}
		var body struct {
			Kind string `json:"kind"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Kind != tc.kind.String() {
			t.Errorf("kind = %q, want %q", body.Kind, tc.kind.String())
		}
		resp.Body.Close()
		ts.Close()
	}
}

func TestHandleClear(t *testing.T) {
	orch := &fakeOrchestrator{}
	ts := newTestServer(orch)
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/v1/memory/clear", "application/json", strings.NewReader(`{"long_term": true}`))
	if err != nil {
		t.Fatalf("POST /v1/memory/clear: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(orch.cleared) != 1 || !orch.cleared[0] {
		t.Errorf("ClearMemory calls = %v, want [true]", orch.cleared)
	}
}

func TestHandleStats(t *testing.T) {
	orch := &fakeOrchestrator{stats: session.Stats{ShortTermTurns: 4, ShortTermWindow: 10, LongTermRecords: 7}}
	ts := newTestServer(orch)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/memory/stats")
	if err != nil {
		t.Fatalf("GET /v1/memory/stats: %v", err)
	}
	defer resp.Body.Close()

	var stats session.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats != orch.stats {
		t.Errorf("stats = %+v, want %+v", stats, orch.stats)
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(&fakeOrchestrator{})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}
