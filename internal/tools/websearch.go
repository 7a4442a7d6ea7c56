package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/casamind/casamind/internal/config"
	"github.com/casamind/casamind/pkg/types"
)

// defaultSearchURL is the Tavily search endpoint.
const defaultSearchURL = "https://api.tavily.com/search"

// WebSearch lets the chat model answer questions about the outside world.
type WebSearch struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

var _ Tool = (*WebSearch)(nil)

// NewWebSearch builds the web search tool from configuration.
func NewWebSearch(cfg config.SearchConfig) *WebSearch {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	return &WebSearch{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Definition implements Tool.
func (w *WebSearch) Definition() types.ToolDefinition {
	return types.ToolDefinition{
		Name:        "web_search",
		Description: "Search the web for current information: weather, news, places, facts.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "The search query.",
				},
			},
			"required": []string{"query"},
		},
	}
}

// Execute implements Tool.
func (w *WebSearch) Execute(ctx context.Context, arguments string) (string, error) {
	var args struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return "", fmt.Errorf("tools: web search arguments: %w", err)
	}
	if strings.TrimSpace(args.Query) == "" {
		return "", fmt.Errorf("tools: web search needs a query")
	}

	payload, err := json.Marshal(map[string]any{
		"api_key":     w.apiKey,
		"query":       args.Query,
		"max_results": 5,
	})
	if err != nil {
		return "", fmt.Errorf("tools: encode search request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("tools: build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("tools: web search: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("tools: read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tools: web search returned %d: %s", resp.StatusCode, raw)
	}

	var result struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("tools: decode search response: %w", err)
	}

	var b strings.Builder
	if result.Answer != "" {
		b.WriteString(result.Answer)
		b.WriteString("\n\n")
	}
	for _, r := range result.Results {
		fmt.Fprintf(&b, "- %s (%s): %s\n", r.Title, r.URL, r.Content)
	}
	if b.Len() == 0 {
		return "no results found", nil
	}
	return b.String(), nil
}
