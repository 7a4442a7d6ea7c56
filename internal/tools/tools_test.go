package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/pkg/types"
)

type echoTool struct{}

func (echoTool) Definition() types.ToolDefinition {
	return types.ToolDefinition{Name: "echo"}
}

func (echoTool) Execute(_ context.Context, arguments string) (string, error) {
	return arguments, nil
}

func TestRegistryDispatch(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(echoTool{})

	if got := reg.Execute(context.Background(), types.ToolCall{Name: "echo", Arguments: "hi"}); got != "hi" {
		t.Errorf("Execute(echo) = %q", got)
	}
	if got := reg.Execute(context.Background(), types.ToolCall{Name: "nope"}); !strings.Contains(got, "unknown tool") {
		t.Errorf("Execute(nope) = %q", got)
	}
	if defs := reg.Definitions(); len(defs) != 1 || defs[0].Name != "echo" {
		t.Errorf("Definitions() = %v", defs)
	}
}

func TestWebSearch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["query"] != "weather in Dubai" || body["api_key"] != "key-1" {
			t.Errorf("unexpected request body: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"answer": "Sunny, 41C.",
			"results": []map[string]string{
				{"title": "Dubai Weather", "url": "https://example.com", "content": "sunny"},
			},
		})
	}))
	t.Cleanup(srv.Close)

	ws := NewWebSearch(config.SearchConfig{APIKey: "key-1", BaseURL: srv.URL})
	got, err := ws.Execute(context.Background(), `{"query":"weather in Dubai"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(got, "Sunny, 41C.") || !strings.Contains(got, "Dubai Weather") {
		t.Errorf("result = %q", got)
	}
}

func TestWebSearchEmptyQuery(t *testing.T) {
	t.Parallel()

	ws := NewWebSearch(config.SearchConfig{APIKey: "k"})
	if _, err := ws.Execute(context.Background(), `{"query":"  "}`); err == nil {
		t.Fatal("expected error for empty query")
	}
}
