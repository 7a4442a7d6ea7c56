package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// ValidLLMProviders lists the provider names the driver knows how to build.
var ValidLLMProviders = []string{
	"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
}

// Load reads the YAML configuration file at path, applies environment
// overrides for secrets, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment overrides
// for secrets, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyEnv(cfg)
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides secret-bearing fields from the environment so that
// credentials never need to live in the YAML file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CASAMIND_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("CASAMIND_BACKEND_EMAIL"); v != "" {
		cfg.Backend.Email = v
	}
	if v := os.Getenv("CASAMIND_BACKEND_PASSWORD"); v != "" {
		cfg.Backend.Password = v
	}
	if v := os.Getenv("CASAMIND_SEARCH_API_KEY"); v != "" {
		cfg.Search.APIKey = v
	}
}

// applyDefaults fills zero-value fields with their documented defaults.
func applyDefaults(cfg *Config) {
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 3000
	}
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 30 * time.Second
	}
	if cfg.Backend.RetryAttempts <= 0 {
		cfg.Backend.RetryAttempts = 3
	}
	if cfg.Backend.RetryDelay <= 0 {
		cfg.Backend.RetryDelay = time.Second
	}
	if cfg.Graph.MaxSteps <= 0 {
		cfg.Graph.MaxSteps = 7
	}
	if cfg.Graph.UnknownIntent == "" {
		cfg.Graph.UnknownIntent = UnknownIntentChat
	}
	if cfg.Session.TTL <= 0 {
		cfg.Session.TTL = 24 * time.Hour
	}
	if cfg.NATS.URL != "" && cfg.NATS.Subject == "" {
		cfg.NATS.Subject = "casamind.turn"
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.LLM.Provider == "" {
		errs = append(errs, errors.New("llm.provider is required"))
	} else if !slices.Contains(ValidLLMProviders, cfg.LLM.Provider) {
		slog.Warn("unknown LLM provider name — may be a typo",
			"name", cfg.LLM.Provider,
			"known", ValidLLMProviders,
		)
	}
	if cfg.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}

	if cfg.Backend.BaseURL == "" {
		errs = append(errs, errors.New("backend.base_url is required"))
	}
	if cfg.Backend.Email == "" || cfg.Backend.Password == "" {
		slog.Warn("backend credentials are not set; device operations will fail at login")
	}

	if cfg.Space.ProjectUUID == "" || cfg.Space.CommunityUUID == "" || cfg.Space.SpaceUUID == "" {
		errs = append(errs, errors.New("space.project_uuid, space.community_uuid, and space.space_uuid are required"))
	}

	if !cfg.Graph.UnknownIntent.IsValid() {
		errs = append(errs, fmt.Errorf("graph.unknown_intent %q is invalid; valid values: chat, reject", cfg.Graph.UnknownIntent))
	}

	if cfg.Devices.CodebookPath == "" {
		slog.Warn("devices.codebook_path is empty; control resolution will run without product-type descriptions")
	}

	return errors.Join(errs...)
}
