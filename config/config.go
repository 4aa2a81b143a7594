// Package config loads agentlab configuration from YAML with environment
// variable expansion and .env support.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/agentlab/core"
)

// Backend identifiers.
const (
	BackendOpenAI      = "openai"
	BackendHuggingFace = "huggingface"
	BackendOllama      = "ollama"
	BackendGemini      = "gemini"
	BackendAnthropic   = "anthropic"
	BackendStability   = "stability"
	BackendMock        = "mock"
)

var backends = map[string]bool{
	BackendOpenAI: true, BackendHuggingFace: true, BackendOllama: true, BackendGemini: true,
	BackendAnthropic: true, BackendStability: true, BackendMock: true,
}

// Config is the root configuration document.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Orchestrator OrchestratorConfig `yaml:"orchestrator"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
	Agents       []AgentConfig      `yaml:"agents"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Address        string        `yaml:"address"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ShutdownGrace  time.Duration `yaml:"shutdown_grace"`
	// DiscardSessions drops a session's history when its channel closes.
	DiscardSessions bool `yaml:"discard_sessions"`
}

// OrchestratorConfig tunes message processing.
type OrchestratorConfig struct {
	ContextWindow int           `yaml:"context_window"`
	Pacing        time.Duration `yaml:"pacing"`
	AgentTimeout  time.Duration `yaml:"agent_timeout"`
}

// LoggingConfig selects level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// AgentConfig declares one agent. Order in the file is emission order.
type AgentConfig struct {
	ID           string   `yaml:"id"`
	Personality  string   `yaml:"personality"`
	Backend      string   `yaml:"backend"`
	Model        string   `yaml:"model,omitempty"`
	APIKey       string   `yaml:"api_key,omitempty"`
	BaseURL      string   `yaml:"base_url,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	MaxTokens    int      `yaml:"max_tokens,omitempty"`
	Instructions string   `yaml:"instructions,omitempty"`
}

// DefaultAgents returns the stock five-agent lineup.
func DefaultAgents() []AgentConfig {
	return []AgentConfig{
		{ID: "OpenAI", Personality: string(core.PersonalityLogicalAnalytical), Backend: BackendOpenAI},
		{ID: "HuggingFace", Personality: string(core.PersonalityCreativeInnovative), Backend: BackendHuggingFace},
		{ID: "Gemini", Personality: string(core.PersonalityVersatileBalanced), Backend: BackendGemini},
		{ID: "Ollama", Personality: string(core.PersonalityPrivacyFocused), Backend: BackendOllama},
		{ID: "Stability", Personality: string(core.PersonalityVisualArtist), Backend: BackendStability},
	}
}

// DefaultOrchestrator returns the orchestration defaults. Zero is a valid
// context window and pacing, so these are preset before decoding instead of
// being filled in by SetDefaults.
func DefaultOrchestrator() OrchestratorConfig {
	return OrchestratorConfig{
		ContextWindow: 10,
		Pacing:        500 * time.Millisecond,
		AgentTimeout:  30 * time.Second,
	}
}

// Default returns a configuration with every default applied.
func Default() *Config {
	c := &Config{Orchestrator: DefaultOrchestrator()}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero values that have no meaning of their own.
func (c *Config) SetDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.ShutdownGrace == 0 {
		c.Server.ShutdownGrace = 10 * time.Second
	}
	if c.Orchestrator.AgentTimeout == 0 {
		c.Orchestrator.AgentTimeout = 30 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if len(c.Agents) == 0 {
		c.Agents = DefaultAgents()
	}
	for i := range c.Agents {
		a := &c.Agents[i]
		if a.APIKey == "" {
			if env := APIKeyEnv(a.Backend); env != "" {
				a.APIKey = os.Getenv(env)
			}
		}
	}
}

// Validate checks the configuration for structural errors. Missing API keys
// are not errors; the affected agents fail closed at runtime.
func (c *Config) Validate() error {
	var errs []error
	if c.Orchestrator.ContextWindow < 0 {
		errs = append(errs, errors.New("orchestrator.context_window must not be negative"))
	}
	if c.Orchestrator.Pacing < 0 {
		errs = append(errs, errors.New("orchestrator.pacing must not be negative"))
	}
	if c.Orchestrator.AgentTimeout < 0 {
		errs = append(errs, errors.New("orchestrator.agent_timeout must not be negative"))
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}
	if len(c.Agents) == 0 {
		errs = append(errs, errors.New("at least one agent is required"))
	}

	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if strings.TrimSpace(a.ID) == "" {
			errs = append(errs, fmt.Errorf("agents[%d]: id is required", i))
			continue
		}
		key := strings.ToLower(a.ID)
		if seen[key] {
			errs = append(errs, fmt.Errorf("agents[%d]: duplicate id %q", i, a.ID))
		}
		seen[key] = true
		if _, err := core.ParsePersonality(a.Personality); err != nil {
			errs = append(errs, fmt.Errorf("agents[%d] (%s): %w", i, a.ID, err))
		}
		if !backends[a.Backend] {
			errs = append(errs, fmt.Errorf("agents[%d] (%s): unknown backend %q", i, a.ID, a.Backend))
		}
		if a.Backend == BackendStability && a.Personality != string(core.PersonalityVisualArtist) {
			errs = append(errs, fmt.Errorf("agents[%d] (%s): backend stability requires personality %s", i, a.ID, core.PersonalityVisualArtist))
		}
	}
	return errors.Join(errs...)
}

// UseMockBackends switches every agent to the mock backend.
func (c *Config) UseMockBackends() {
	for i := range c.Agents {
		c.Agents[i].Backend = BackendMock
	}
}

// Parse decodes YAML, expands environment references, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	expandNode(&root)

	cfg := &Config{Orchestrator: DefaultOrchestrator()}
	if root.Kind != 0 {
		if err := root.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Load reads .env files, then the YAML file at path. An empty path yields
// the default configuration.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}
