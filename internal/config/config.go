// Package config provides the configuration schema, loader, and validation
// for the Casamind smart-home assistant.
package config

import "time"

// LogLevel controls log verbosity for the assistant.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// UnknownIntentPolicy selects what the router does with an intent kind it
// does not recognise.
type UnknownIntentPolicy string

const (
	// UnknownIntentChat routes unrecognised kinds to the chat node and logs
	// a warning. This is the default.
	UnknownIntentChat UnknownIntentPolicy = "chat"

	// UnknownIntentReject aborts the turn with an error.
	UnknownIntentReject UnknownIntentPolicy = "reject"
)

// IsValid reports whether p is a recognised policy.
func (p UnknownIntentPolicy) IsValid() bool {
	return p == UnknownIntentChat || p == UnknownIntentReject
}

// Config is the root configuration structure for Casamind.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	LLM     LLMConfig     `yaml:"llm"`
	Backend BackendConfig `yaml:"backend"`
	Space   SpaceConfig   `yaml:"space"`
	Graph   GraphConfig   `yaml:"graph"`
	Session SessionConfig `yaml:"session"`
	Journal JournalConfig `yaml:"journal"`
	NATS    NATSConfig    `yaml:"nats"`
	Search  SearchConfig  `yaml:"search"`
	Devices DevicesConfig `yaml:"devices"`
}

// ServerConfig holds logging and metrics settings.
type ServerConfig struct {
	// MetricsAddr is the TCP address the Prometheus /metrics endpoint
	// listens on (e.g., ":9090"). Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// LLMConfig selects and configures the LLM oracle backend.
type LLMConfig struct {
	// Provider selects the backend: "openai" (any OpenAI-compatible
	// endpoint, including DashScope for Qwen) or one of the any-llm-go
	// names ("anthropic", "gemini", "ollama", "deepseek", "mistral",
	// "groq").
	Provider string `yaml:"provider"`

	// Model selects a specific model (e.g., "qwen-plus", "gpt-4o-mini").
	Model string `yaml:"model"`

	// APIKey is the authentication key. Usually populated from the
	// environment rather than the YAML file.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`

	// MaxTokens caps completion length per oracle call. Default: 3000.
	MaxTokens int `yaml:"max_tokens"`
}

// BackendConfig configures the IoT platform HTTP client.
type BackendConfig struct {
	// BaseURL is the IoT platform API root.
	BaseURL string `yaml:"base_url"`

	// Email and Password are the login credentials. Usually populated from
	// the environment rather than the YAML file.
	Email    string `yaml:"email"`
	Password string `yaml:"password"`

	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration `yaml:"timeout"`

	// RetryAttempts is the total number of tries per call including the
	// first. Default: 3.
	RetryAttempts int `yaml:"retry_attempts"`

	// RetryDelay is the wait before the first retry. Default: 1s.
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// SpaceConfig identifies the project/community/space the assistant serves
// and the acting user.
type SpaceConfig struct {
	ProjectUUID   string `yaml:"project_uuid"`
	CommunityUUID string `yaml:"community_uuid"`
	SpaceUUID     string `yaml:"space_uuid"`
	UserUUID      string `yaml:"user_uuid"`
}

// GraphConfig holds tuning knobs for the conversation graph.
type GraphConfig struct {
	// MaxSteps bounds the confirmation re-prompt self-loop, the only
	// cycle in the conversation graph. Default: 7.
	MaxSteps int `yaml:"max_steps"`

	// UnknownIntent selects what to do with unrecognised intent kinds.
	// Default: "chat".
	UnknownIntent UnknownIntentPolicy `yaml:"unknown_intent"`
}

// SessionConfig configures conversation history storage.
type SessionConfig struct {
	// RedisURL, when set, selects the Redis-backed session store
	// (e.g., "redis://localhost:6379/0"). Empty selects the in-memory
	// store, which is fine for a single-process CLI.
	RedisURL string `yaml:"redis_url"`

	// TTL is how long an idle session is retained in Redis. Default: 24h.
	TTL time.Duration `yaml:"ttl"`
}

// JournalConfig configures the optional device usage journal.
type JournalConfig struct {
	// PostgresDSN is the PostgreSQL connection string. Empty disables the
	// journal.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// NATSConfig configures the optional NATS request/reply gateway.
type NATSConfig struct {
	// URL is the NATS server address (e.g., "nats://localhost:4222").
	// Empty disables the gateway.
	URL string `yaml:"url"`

	// Subject is the request subject the gateway subscribes to.
	// Default: "casamind.turn".
	Subject string `yaml:"subject"`
}

// SearchConfig configures the web search tool used by the chat node.
type SearchConfig struct {
	// APIKey authenticates against the search API. Empty disables the
	// tool; the chat node then answers without search.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the search API endpoint.
	BaseURL string `yaml:"base_url"`
}

// DevicesConfig configures the device directory layer.
type DevicesConfig struct {
	// CodebookPath is the CSV file mapping product types to their
	// controllable codes and values.
	CodebookPath string `yaml:"codebook_path"`

	// CacheTTL is how long a fetched device directory may be reused across
	// turns. Zero fetches fresh every turn.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}
