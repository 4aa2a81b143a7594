package agentlab

import (
	"errors"
	"fmt"

	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/config"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/internal/util"
	"github.com/hupe1980/agentlab/model"
	"github.com/hupe1980/agentlab/model/anthropic"
	"github.com/hupe1980/agentlab/model/gemini"
	"github.com/hupe1980/agentlab/model/openai"
	"github.com/hupe1980/agentlab/model/stability"
)

// FromConfig builds a Lab whose agents and orchestration settings come from cfg.
// Agents whose backend cannot be set up (usually a missing API key) are
// registered fail-closed and report a configuration failure on every call.
func FromConfig(cfg *config.Config, optFns ...func(o *Options)) (*Lab, error) {
	providers, err := BuildProviders(cfg.Agents)
	if err != nil {
		return nil, err
	}
	return New(providers, append([]func(o *Options){func(o *Options) {
		o.ContextWindow = cfg.Orchestrator.ContextWindow
		o.Pacing = cfg.Orchestrator.Pacing
		o.AgentTimeout = cfg.Orchestrator.AgentTimeout
	}}, optFns...)...)
}

// BuildProviders turns agent declarations into providers, preserving order.
func BuildProviders(agents []config.AgentConfig) ([]core.Provider, error) {
	providers := make([]core.Provider, 0, len(agents))
	for _, ac := range agents {
		p, err := core.ParsePersonality(ac.Personality)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", ac.ID, err)
		}
		identity := core.Identity{ID: ac.ID, Personality: p}

		provider, err := buildProvider(identity, ac)
		if err != nil {
			var ce *core.ConfigurationError
			if !errors.As(err, &ce) {
				return nil, fmt.Errorf("agent %s: %w", ac.ID, err)
			}
			provider = agent.NewUnavailable(identity, err)
		}
		providers = append(providers, provider)
	}
	return providers, nil
}

func buildProvider(identity core.Identity, ac config.AgentConfig) (core.Provider, error) {
	instructions, err := instructionsFor(identity, ac)
	if err != nil {
		return nil, err
	}
	withInstructions := func(o *agent.ModelAgentOptions) { o.Instructions = instructions }
	missingKey := &core.ConfigurationError{AgentID: identity.ID, Setting: "api_key"}

	switch ac.Backend {
	case config.BackendMock:
		if identity.Personality == core.PersonalityVisualArtist {
			return agent.NewVisualAgent(identity.ID, &model.MockImageModel{}), nil
		}
		return agent.NewModelAgent(identity.ID, identity.Personality, model.NewMockModel(identity.ID, "mock"), withInstructions), nil

	case config.BackendOpenAI:
		if ac.APIKey == "" {
			return nil, missingKey
		}
		m := openai.NewModel(func(o *openai.Options) {
			o.APIKey = ac.APIKey
			applyOpenAIOverrides(o, ac)
		})
		return agent.NewModelAgent(identity.ID, identity.Personality, m, withInstructions), nil

	case config.BackendHuggingFace:
		if ac.APIKey == "" {
			return nil, missingKey
		}
		m := openai.NewHuggingFace(ac.APIKey, func(o *openai.Options) { applyOpenAIOverrides(o, ac) })
		return agent.NewModelAgent(identity.ID, identity.Personality, m, withInstructions), nil

	case config.BackendOllama:
		m := openai.NewOllama(func(o *openai.Options) { applyOpenAIOverrides(o, ac) })
		return agent.NewModelAgent(identity.ID, identity.Personality, m, withInstructions), nil

	case config.BackendGemini:
		if ac.APIKey == "" {
			return nil, missingKey
		}
		m, err := gemini.NewModel(func(o *gemini.Options) {
			o.APIKey = ac.APIKey
			o.BaseURL = ac.BaseURL
			if ac.Model != "" {
				o.Model = ac.Model
			}
			if ac.Temperature != nil {
				o.Temperature = *ac.Temperature
			}
			if ac.MaxTokens > 0 {
				o.MaxTokens = ac.MaxTokens
			}
		})
		if err != nil {
			return nil, &core.ConfigurationError{AgentID: identity.ID, Setting: "gemini client", Err: err}
		}
		return agent.NewModelAgent(identity.ID, identity.Personality, m, withInstructions), nil

	case config.BackendAnthropic:
		if ac.APIKey == "" {
			return nil, missingKey
		}
		m := anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = ac.APIKey
			o.BaseURL = ac.BaseURL
			if ac.Model != "" {
				o.Model = ac.Model
			}
			if ac.Temperature != nil {
				o.Temperature = *ac.Temperature
			}
			if ac.MaxTokens > 0 {
				o.MaxTokens = int64(ac.MaxTokens)
			}
		})
		return agent.NewModelAgent(identity.ID, identity.Personality, m, withInstructions), nil

	case config.BackendStability:
		if ac.APIKey == "" {
			return nil, missingKey
		}
		c, err := stability.New(func(o *stability.Options) {
			o.APIKey = ac.APIKey
			if ac.BaseURL != "" {
				o.BaseURL = ac.BaseURL
			}
			if ac.Model != "" {
				o.Engine = ac.Model
			}
		})
		if err != nil {
			return nil, &core.ConfigurationError{AgentID: identity.ID, Setting: "stability client", Err: err}
		}
		return agent.NewVisualAgent(identity.ID, c), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", ac.Backend)
	}
}

func applyOpenAIOverrides(o *openai.Options, ac config.AgentConfig) {
	if ac.Model != "" {
		o.Model = ac.Model
	}
	if ac.BaseURL != "" {
		o.BaseURL = ac.BaseURL
	}
	if ac.Temperature != nil {
		o.Temperature = *ac.Temperature
	}
	if ac.MaxTokens > 0 {
		o.MaxCompletionTokens = int64(ac.MaxTokens)
	}
}

// instructionsFor renders configured instructions as a template with the
// agent's id and personality, falling back to the persona prompt.
func instructionsFor(identity core.Identity, ac config.AgentConfig) (string, error) {
	if ac.Instructions == "" {
		return agent.PersonaInstructions(identity.Personality), nil
	}
	out, err := util.RenderTemplate(ac.Instructions, map[string]any{
		"id":          identity.ID,
		"personality": string(identity.Personality),
		"persona":     agent.PersonaInstructions(identity.Personality),
	})
	if err != nil {
		return "", fmt.Errorf("render instructions: %w", err)
	}
	return out, nil
}
