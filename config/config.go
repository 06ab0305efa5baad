// Package config loads relay configuration from YAML, .env files and the
// process environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/jeeves/core"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JEEVES_"

// Config holds all relay configuration.
type Config struct {
	// Persona is the relay's display name, used for self-loop detection,
	// mention triggers and prompt attribution.
	Persona       string   `yaml:"persona"`
	DefaultModel  string   `yaml:"default_model"`
	AllowedModels []string `yaml:"allowed_models"`
	SystemPrompt  string   `yaml:"system_prompt"`
	// ResponsePolicy seeds communities created by a command.
	ResponsePolicy core.ResponsePolicy `yaml:"response_policy"`

	Completion CompletionConfig `yaml:"completion"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	State      StateConfig      `yaml:"state"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	LLM        LLMConfig        `yaml:"llm"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// CompletionConfig configures backend calls.
type CompletionConfig struct {
	Timeout     string  `yaml:"timeout"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// DispatchConfig configures outbound delivery.
type DispatchConfig struct {
	ChunkSize     int     `yaml:"chunk_size"`
	AckTimeout    string  `yaml:"ack_timeout"`
	RatePerSecond float64 `yaml:"rate_per_second"` // 0 disables pacing
	Burst         int     `yaml:"burst"`
}

// StateConfig selects the state store backend.
type StateConfig struct {
	Backend string `yaml:"backend"` // memory | file | pebble
	Path    string `yaml:"path"`
}

// GatewayConfig configures the platform REST client.
type GatewayConfig struct {
	BaseURL       string `yaml:"base_url"`
	ApplicationID string `yaml:"application_id"`
	BotToken      string `yaml:"bot_token"`
}

// LLMConfig holds backend credentials and endpoints.
type LLMConfig struct {
	OpenAIAPIKey    string `yaml:"openai_api_key"`
	OpenAIBaseURL   string `yaml:"openai_base_url"`
	LocalBaseURL    string `yaml:"local_base_url"`
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// StateBackends lists the supported state store backends.
var StateBackends = []string{"memory", "file", "pebble"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Persona:      "Jeeves",
		DefaultModel: "gpt-3.5-turbo",
		AllowedModels: []string{
			"local",
			"gpt-3.5-turbo",
			"gpt-4",
			"gpt-4-1106-preview",
			"gpt-4-turbo-preview",
		},
		SystemPrompt:   DefaultSystemPrompt,
		ResponsePolicy: core.ResponsePolicy{Kind: core.RespondToEveryMessage},
		Completion: CompletionConfig{
			Timeout:     "30s",
			MaxTokens:   900,
			Temperature: 1.25,
		},
		Dispatch: DispatchConfig{
			ChunkSize:  900,
			AckTimeout: "5s",
			Burst:      1,
		},
		State: StateConfig{
			Backend: "file",
			Path:    filepath.Join("data", "jeeves-state.json"),
		},
		Gateway: GatewayConfig{
			BaseURL: "https://discord.com/api/v10",
		},
		LLM: LLMConfig{
			LocalBaseURL: "http://localhost:8080/v1/",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. A .env file next to the working directory is loaded first;
// environment variables override file values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() error {
	// conventional provider variables first, prefixed ones win
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAIAPIKey = key
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		c.LLM.AnthropicAPIKey = key
	}
	if tok := os.Getenv("DISCORD_BOT_TOKEN"); tok != "" {
		c.Gateway.BotToken = tok
	}

	strs := map[string]*string{
		"PERSONA":              &c.Persona,
		"DEFAULT_MODEL":        &c.DefaultModel,
		"SYSTEM_PROMPT":        &c.SystemPrompt,
		"COMPLETION_TIMEOUT":   &c.Completion.Timeout,
		"DISPATCH_ACK_TIMEOUT": &c.Dispatch.AckTimeout,
		"STATE_BACKEND":        &c.State.Backend,
		"STATE_PATH":           &c.State.Path,
		"GATEWAY_BASE_URL":     &c.Gateway.BaseURL,
		"APPLICATION_ID":       &c.Gateway.ApplicationID,
		"BOT_TOKEN":            &c.Gateway.BotToken,
		"OPENAI_API_KEY":       &c.LLM.OpenAIAPIKey,
		"OPENAI_BASE_URL":      &c.LLM.OpenAIBaseURL,
		"LOCAL_BASE_URL":       &c.LLM.LocalBaseURL,
		"ANTHROPIC_API_KEY":    &c.LLM.AnthropicAPIKey,
		"LOG_LEVEL":            &c.Logging.Level,
		"LOG_FORMAT":           &c.Logging.Format,
		"METRICS_ADDR":         &c.Metrics.Addr,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "ALLOWED_MODELS"); ok {
		c.AllowedModels = splitList(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DISPATCH_CHUNK_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sDISPATCH_CHUNK_SIZE: %w", EnvPrefix, err)
		}
		c.Dispatch.ChunkSize = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "COMPLETION_MAX_TOKENS"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sCOMPLETION_MAX_TOKENS: %w", EnvPrefix, err)
		}
		c.Completion.MaxTokens = n
	}
	if v, ok := os.LookupEnv(EnvPrefix + "COMPLETION_TEMPERATURE"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sCOMPLETION_TEMPERATURE: %w", EnvPrefix, err)
		}
		c.Completion.Temperature = f
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// GetCompletionTimeout returns the completion timeout as a duration.
func (c *Config) GetCompletionTimeout() time.Duration {
	d, err := time.ParseDuration(c.Completion.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// GetAckTimeout returns the dispatch acknowledgement window as a duration.
func (c *Config) GetAckTimeout() time.Duration {
	d, err := time.ParseDuration(c.Dispatch.AckTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// Defaults returns the seed values for newly created communities.
func (c *Config) Defaults() core.Defaults {
	return core.Defaults{
		Model:          c.DefaultModel,
		SystemPrompt:   c.SystemPrompt,
		ResponsePolicy: c.ResponsePolicy,
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Persona == "" {
		return fmt.Errorf("persona must not be empty")
	}
	if len(c.AllowedModels) == 0 {
		return fmt.Errorf("allowed_models must not be empty")
	}
	if !slices.Contains(c.AllowedModels, c.DefaultModel) {
		return fmt.Errorf("default model %q is not in allowed_models %v", c.DefaultModel, c.AllowedModels)
	}
	if !c.ResponsePolicy.Valid() {
		return fmt.Errorf("invalid response_policy %q", c.ResponsePolicy.Kind)
	}
	if d, err := time.ParseDuration(c.Completion.Timeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid completion.timeout %q", c.Completion.Timeout)
	}
	if d, err := time.ParseDuration(c.Dispatch.AckTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid dispatch.ack_timeout %q", c.Dispatch.AckTimeout)
	}
	if c.Dispatch.ChunkSize <= 0 {
		return fmt.Errorf("dispatch.chunk_size must be positive, got %d", c.Dispatch.ChunkSize)
	}
	if c.Dispatch.RatePerSecond < 0 {
		return fmt.Errorf("dispatch.rate_per_second must not be negative")
	}
	if c.Completion.MaxTokens <= 0 {
		return fmt.Errorf("completion.max_tokens must be positive, got %d", c.Completion.MaxTokens)
	}
	if !slices.Contains(StateBackends, c.State.Backend) {
		return fmt.Errorf("invalid state.backend %q (valid: %v)", c.State.Backend, StateBackends)
	}
	if c.State.Backend != "memory" && c.State.Path == "" {
		return fmt.Errorf("state.path is required for backend %q", c.State.Backend)
	}
	return nil
}
