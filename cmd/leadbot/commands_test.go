package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/omarjafor/voice-chatbot-lead-backend/internal/config"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":{"message":"not found","type":"not_found"}}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func (ts *testServer) client() *apiClient {
	return &apiClient{
		baseURL:    ts.server.URL,
		httpClient: ts.server.Client(),
	}
}

func stubAPIClient(t *testing.T, ts *testServer) {
	t.Helper()
	old := newAPIClient
	newAPIClient = func() (*apiClient, error) { return ts.client(), nil }
	t.Cleanup(func() { newAPIClient = old })
}

func TestChatCommand_CompletesConversation(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /api/chat/start":   `{"session_id":"sess-1","message":"What is your name?"}`,
		"POST /api/chat/message": `{"session_id":"sess-1","agent_message":"Thank you for your information! Our team will contact you soon.","is_complete":true,"current_step":6,"should_auto_listen":false}`,
	})
	stubAPIClient(t, ts)

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe error: %v", err)
	}
	w.WriteString("John Doe\n")
	w.Close()
	oldStdin := os.Stdin
	os.Stdin = r
	defer func() { os.Stdin = oldStdin }()

	if err := chatCmd.RunE(chatCmd, nil); err != nil {
		t.Fatalf("chat command error: %v", err)
	}

	if len(ts.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(ts.requests))
	}
	if ts.requests[0].Path != "/api/chat/start" {
		t.Errorf("first path = %q, want /api/chat/start", ts.requests[0].Path)
	}

	var body map[string]string
	if err := json.Unmarshal([]byte(ts.requests[1].Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["session_id"] != "sess-1" {
		t.Errorf("body.session_id = %q, want sess-1", body["session_id"])
	}
	if body["message"] != "John Doe" {
		t.Errorf("body.message = %q, want 'John Doe'", body["message"])
	}
}

func TestLeadsListCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/leads": `[{"id":"lead-0001","session_id":"sess-1","name":"John Doe","email":"john@gmail.com","phone":"5551234567","interest":"Web Development","created_at":"2026-08-01T12:00:00Z"}]`,
	})
	stubAPIClient(t, ts)

	if err := leadsListCmd.RunE(leadsListCmd, nil); err != nil {
		t.Fatalf("leads list error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "GET" {
		t.Errorf("method = %q, want GET", r.Method)
	}
	if r.Path != "/api/leads" {
		t.Errorf("path = %q, want /api/leads", r.Path)
	}
}

func TestLeadsShowCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /api/leads/lead-0001": `{"id":"lead-0001","session_id":"sess-1","name":"John Doe","email":"john@gmail.com","phone":"5551234567","interest":"SEO","created_at":"2026-08-01T12:00:00Z"}`,
	})
	stubAPIClient(t, ts)

	if err := leadsShowCmd.RunE(leadsShowCmd, []string{"lead-0001"}); err != nil {
		t.Fatalf("leads show error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	if ts.requests[0].Path != "/api/leads/lead-0001" {
		t.Errorf("path = %q, want /api/leads/lead-0001", ts.requests[0].Path)
	}
}

func TestLeadsShowCommand_NotFound(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	stubAPIClient(t, ts)

	err := leadsShowCmd.RunE(leadsShowCmd, []string{"missing"})
	if err == nil {
		t.Fatal("expected error for unknown lead")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %q, want it to contain '404'", err.Error())
	}
}

func TestLeadsDeleteSessionCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"DELETE /api/sessions/sess-1": `{"message":"Lead deleted successfully using session id"}`,
	})
	stubAPIClient(t, ts)

	if err := leadsDeleteSessionCmd.RunE(leadsDeleteSessionCmd, []string{"sess-1"}); err != nil {
		t.Fatalf("delete-session error: %v", err)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "DELETE" {
		t.Errorf("method = %q, want DELETE", r.Method)
	}
	if r.Path != "/api/sessions/sess-1" {
		t.Errorf("path = %q, want /api/sessions/sess-1", r.Path)
	}
}

func TestStatusClient_Running(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"ok"}`,
	})

	resp, err := ts.client().get("/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
}

func TestStatusClient_Stopped(t *testing.T) {
	ts := newTestServer(t, map[string]string{})
	ts.server.Close()

	_, err := ts.client().get("/health")
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		w.Write([]byte(`{"error":{"message":"session_id is required","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := &apiClient{
		baseURL:    srv.URL,
		httpClient: srv.Client(),
	}

	resp, err := client.post("/api/chat/message", map[string]string{"message": "hi"})
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}

	var result any
	err = decodeJSON(resp, &result)
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %q, want it to contain '400'", err.Error())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := colorize(colorGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = colorize(colorGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("colorize with noColor=false should contain ANSI codes, got %q", result)
	}
}

func TestConfigShowAll(t *testing.T) {
	cfg := config.Config{}
	cfg.Server.Port = 9001

	keys := config.ShowAll(cfg)
	if len(keys) == 0 {
		t.Fatal("expected non-empty keys from ShowAll")
	}

	found := false
	for _, k := range keys {
		if k.Key == "server.port" && k.Value == "9001" {
			found = true
		}
	}
	if !found {
		t.Error("expected to find server.port=9001 in ShowAll output")
	}
}
