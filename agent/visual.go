package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/model"
)

// VisualAgent takes part in conversations with a short text reply and
// renders images on explicit request.
type VisualAgent struct {
	identity core.Identity
	images   model.ImageModel
}

// NewVisualAgent creates a VisualAgent with the visual_artist personality.
func NewVisualAgent(id string, images model.ImageModel) *VisualAgent {
	return &VisualAgent{
		identity: core.Identity{ID: id, Personality: core.PersonalityVisualArtist},
		images:   images,
	}
}

// Identity implements core.Provider.
func (a *VisualAgent) Identity() core.Identity { return a.identity }

// Respond implements core.Provider without any network I/O.
func (a *VisualAgent) Respond(_ context.Context, prompt, _ string) core.Outcome {
	return core.Succeeded(a.identity.ID, fmt.Sprintf(
		"🎨 As a visual AI, I would create an image representing: %s. Would you like me to generate this visualization?", prompt))
}

// GenerateImage implements core.ImageGenerator.
func (a *VisualAgent) GenerateImage(ctx context.Context, prompt, window string) core.Outcome {
	id := a.identity.ID
	img, err := a.images.GenerateImage(ctx, model.ImageRequest{Prompt: ImagePrompt(prompt, window)})
	if err != nil {
		return core.Failed(id, classify(id, err))
	}
	return core.SucceededWithImage(id, fmt.Sprintf("🎨 I've created a visual representation of '%s'", prompt), img.Data)
}

// ImagePrompt builds the text-to-image prompt, prefixing the conversation
// context when there is one.
func ImagePrompt(prompt, window string) string {
	p := "Professional, high-quality image: " + prompt
	if window != "" {
		p = window + ". " + p
	}
	return p
}
