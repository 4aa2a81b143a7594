package agent

import (
	"context"
	"errors"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

var personaInstructions = map[core.Personality]string{
	core.PersonalityLogicalAnalytical: "I am a logical, analytical AI that provides structured and well-reasoned responses. " +
		"I excel at breaking down complex problems and offering step-by-step solutions.",
	core.PersonalityCreativeInnovative: "I am a creative and diverse AI that draws from a vast community of models. " +
		"I bring innovative perspectives and love exploring unconventional solutions.",
	core.PersonalityVersatileBalanced: "I am a versatile and intuitive AI with multimodal capabilities. " +
		"I excel at understanding context, providing balanced perspectives, and generating both text and visual insights.",
	core.PersonalityPrivacyFocused: "I am a local, privacy-focused AI that runs on your hardware. " +
		"I'm reliable, efficient, and provide thoughtful responses while keeping your data secure.",
	core.PersonalityVisualArtist: "I am a visual AI artist that transforms ideas into stunning images. " +
		"I specialize in creative visualization and bringing concepts to life through advanced image generation.",
}

// PersonaInstructions returns the default system prompt for a personality.
func PersonaInstructions(p core.Personality) string {
	return personaInstructions[p]
}

// ModelAgentOptions configures a ModelAgent.
type ModelAgentOptions struct {
	// Instructions overrides the persona prompt derived from the personality.
	Instructions string
}

// ModelAgent answers by delegating to a model.Model.
type ModelAgent struct {
	identity     core.Identity
	model        model.Model
	instructions string
}

// NewModelAgent creates a ModelAgent.
func NewModelAgent(id string, personality core.Personality, m model.Model, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{Instructions: PersonaInstructions(personality)}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ModelAgent{
		identity:     core.Identity{ID: id, Personality: personality},
		model:        m,
		instructions: opts.Instructions,
	}
}

// Identity implements core.Provider.
func (a *ModelAgent) Identity() core.Identity { return a.identity }

// Model returns the backing model.
func (a *ModelAgent) Model() model.Model { return a.model }

// Respond implements core.Provider.
func (a *ModelAgent) Respond(ctx context.Context, prompt, window string) core.Outcome {
	id := a.identity.ID
	resp, err := a.model.Generate(ctx, model.Request{
		Instructions: a.instructions,
		Prompt:       prompt,
		Context:      window,
	})
	if err != nil {
		return core.Failed(id, classify(id, err))
	}
	if resp.Text == "" {
		return core.Failed(id, core.NewAgentFailure(id, core.FailureMalformed, "empty response", model.ErrEmptyResponse))
	}
	return core.Succeeded(id, resp.Text)
}

func classify(id string, err error) *core.AgentFailure {
	switch {
	case errors.Is(err, model.ErrEmptyResponse):
		return core.NewAgentFailure(id, core.FailureMalformed, "empty response", err)
	case errors.Is(err, model.ErrMalformedResponse):
		return core.NewAgentFailure(id, core.FailureMalformed, err.Error(), err)
	}
	return core.FailureFromError(id, err, core.FailureTransport)
}
