package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plexura/syndic/config"
)

// testConfig points the server at a stub backend with a fast request
// pace so multi-call handlers do not sleep through the limiter.
func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Publer: config.PublerConfig{
			APIKey:           "test-key",
			BaseURL:          baseURL,
			DefaultWorkspace: "ws-1",
		},
		Rate: config.RateConfig{WindowSeconds: 1, MaxCalls: 100},
	}
}

func newTestServer(t *testing.T, handler http.Handler) *Server {
	t.Helper()
	backend := httptest.NewServer(handler)
	t.Cleanup(backend.Close)

	s := New(testConfig(backend.URL), nil)
	s.SetHTTPClient(backend.Client())
	return s
}

// accountsJSON is the stub workspace: two active accounts and one
// expired one.
const accountsJSON = `{"data": [
	{"id": "tw-1", "type": "twitter", "name": "Main", "status": "active", "username": "main", "follower_count": 5000},
	{"id": "li-1", "type": "linkedin", "name": "Corp", "status": "active", "follower_count": 12000},
	{"id": "ig-1", "type": "instagram", "name": "Studio", "status": "expired"}
]}`

type handlerFunc func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// callTool invokes a handler directly and decodes its JSON payload.
func callTool(t *testing.T, handler handlerFunc, args map[string]any) map[string]any {
	t.Helper()
	res, err := handler(context.Background(), toolRequest(args))
	if err != nil {
		t.Fatalf("handler returned protocol error: %v", err)
	}
	return decodePayload(t, res)
}

func decodePayload(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	text := resultText(t, res)
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("decoding payload: %v\n%s", err, text)
	}
	return payload
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func nested(t *testing.T, payload map[string]any, key string) map[string]any {
	t.Helper()
	m, ok := payload[key].(map[string]any)
	if !ok {
		t.Fatalf("expected object under %q, got %T", key, payload[key])
	}
	return m
}

func entries(t *testing.T, payload map[string]any, key string) []any {
	t.Helper()
	l, ok := payload[key].([]any)
	if !ok {
		t.Fatalf("expected array under %q, got %T", key, payload[key])
	}
	return l
}

func entryAt(t *testing.T, list []any, i int) map[string]any {
	t.Helper()
	if i >= len(list) {
		t.Fatalf("expected at least %d entries, got %d", i+1, len(list))
	}
	m, ok := list[i].(map[string]any)
	if !ok {
		t.Fatalf("expected object at index %d, got %T", i, list[i])
	}
	return m
}

func TestCredentialResolution(t *testing.T) {
	t.Run("workspace argument overrides the default", func(t *testing.T) {
		var seenWorkspace string
		s := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenWorkspace = r.Header.Get("Publer-Workspace-Id")
			w.Write([]byte(accountsJSON))
		}))

		payload := callTool(t, s.handleListPlatforms, map[string]any{"workspace_id": "ws-override"})
		if payload["status"] != "success" {
			t.Errorf("expected success, got %v", payload["status"])
		}
		if seenWorkspace != "ws-override" {
			t.Errorf("expected ws-override header, got %q", seenWorkspace)
		}
	})

	t.Run("no workspace anywhere", func(t *testing.T) {
		requests := 0
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		t.Cleanup(backend.Close)

		cfg := testConfig(backend.URL)
		cfg.Publer.DefaultWorkspace = ""
		s := New(cfg, nil)
		s.SetHTTPClient(backend.Client())

		payload := callTool(t, s.handleListPlatforms, nil)
		if payload["status"] != "workspace_required" {
			t.Errorf("expected workspace_required, got %v", payload["status"])
		}
		if payload["action_required"] != "Pass a workspace_id argument or set SYNDIC_WORKSPACE_ID" {
			t.Errorf("unexpected action: %v", payload["action_required"])
		}
		if requests != 0 {
			t.Errorf("expected no upstream requests, got %d", requests)
		}
	})

	t.Run("no API key configured", func(t *testing.T) {
		requests := 0
		backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		t.Cleanup(backend.Close)

		cfg := testConfig(backend.URL)
		cfg.Publer.APIKey = ""
		s := New(cfg, nil)
		s.SetHTTPClient(backend.Client())

		payload := callTool(t, s.handleMultiScheduler, map[string]any{
			"content":          "hello",
			"target_platforms": []any{"tw-1"},
		})
		if payload["status"] != "authentication_failed" {
			t.Errorf("expected authentication_failed, got %v", payload["status"])
		}
		if requests != 0 {
			t.Errorf("expected no upstream requests, got %d", requests)
		}
	})
}
