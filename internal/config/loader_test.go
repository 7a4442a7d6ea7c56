package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/casamind/casamind/internal/config"
)

const validYAML = `
llm:
  provider: openai
  model: qwen-plus
backend:
  base_url: https://iot.example.com/api
space:
  project_uuid: p-1
  community_uuid: c-1
  space_uuid: s-1
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Errorf("llm.timeout = %v, want 30s", cfg.LLM.Timeout)
	}
	if cfg.LLM.MaxTokens != 3000 {
		t.Errorf("llm.max_tokens = %d, want 3000", cfg.LLM.MaxTokens)
	}
	if cfg.Backend.RetryAttempts != 3 {
		t.Errorf("backend.retry_attempts = %d, want 3", cfg.Backend.RetryAttempts)
	}
	if cfg.Graph.MaxSteps != 7 {
		t.Errorf("graph.max_steps = %d, want 7", cfg.Graph.MaxSteps)
	}
	if cfg.Graph.UnknownIntent != config.UnknownIntentChat {
		t.Errorf("graph.unknown_intent = %q, want chat", cfg.Graph.UnknownIntent)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("session.ttl = %v, want 24h", cfg.Session.TTL)
	}
}

func TestValidateMissingLLM(t *testing.T) {
	yaml := `
backend:
  base_url: https://iot.example.com/api
space:
  project_uuid: p-1
  community_uuid: c-1
  space_uuid: s-1
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing llm settings, got nil")
	}
	if !strings.Contains(err.Error(), "llm.provider") {
		t.Errorf("error should mention llm.provider, got: %v", err)
	}
	if !strings.Contains(err.Error(), "llm.model") {
		t.Errorf("error should mention llm.model, got: %v", err)
	}
}

func TestValidateMissingSpace(t *testing.T) {
	yaml := `
llm:
  provider: openai
  model: qwen-plus
backend:
  base_url: https://iot.example.com/api
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing space identifiers, got nil")
	}
	if !strings.Contains(err.Error(), "space.project_uuid") {
		t.Errorf("error should mention space identifiers, got: %v", err)
	}
}

func TestValidateBadUnknownIntent(t *testing.T) {
	yaml := validYAML + `
graph:
  unknown_intent: explode
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for bad unknown_intent, got nil")
	}
	if !strings.Contains(err.Error(), "unknown_intent") {
		t.Errorf("error should mention unknown_intent, got: %v", err)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	yaml := validYAML + `
typo_section:
  foo: bar
`
	if _, err := config.LoadFromReader(strings.NewReader(yaml)); err == nil {
		t.Fatal("expected error for unknown top-level field, got nil")
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("CASAMIND_LLM_API_KEY", "sk-from-env")
	t.Setenv("CASAMIND_BACKEND_EMAIL", "robot@example.com")

	cfg, err := config.LoadFromReader(strings.NewReader(validYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.LLM.APIKey != "sk-from-env" {
		t.Errorf("llm.api_key = %q, want env override", cfg.LLM.APIKey)
	}
	if cfg.Backend.Email != "robot@example.com" {
		t.Errorf("backend.email = %q, want env override", cfg.Backend.Email)
	}
}

func TestNATSSubjectDefault(t *testing.T) {
	yaml := validYAML + `
nats:
  url: nats://localhost:4222
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.NATS.Subject != "casamind.turn" {
		t.Errorf("nats.subject = %q, want casamind.turn", cfg.NATS.Subject)
	}
}
