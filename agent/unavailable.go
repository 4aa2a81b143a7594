package agent

import (
	"context"
	"errors"

	"github.com/hupe1980/agentlab/core"
)

// Unavailable is a fail-closed stand-in for an agent that could not be
// configured. It keeps its slot in the registry order and answers every
// call with a configuration failure.
type Unavailable struct {
	identity core.Identity
	failure  *core.AgentFailure
}

// NewUnavailable creates a fail-closed provider. Visual artists also fail
// closed for image generation so the image endpoint reports the real cause.
func NewUnavailable(identity core.Identity, cause error) core.Provider {
	var ce *core.ConfigurationError
	if !errors.As(cause, &ce) {
		cause = &core.ConfigurationError{AgentID: identity.ID, Setting: "backend", Err: cause}
	}
	u := &Unavailable{
		identity: identity,
		failure:  core.FailureFromError(identity.ID, cause, core.FailureConfiguration),
	}
	if identity.Personality == core.PersonalityVisualArtist {
		return &unavailableImage{u}
	}
	return u
}

// Identity implements core.Provider.
func (u *Unavailable) Identity() core.Identity { return u.identity }

// Respond implements core.Provider.
func (u *Unavailable) Respond(context.Context, string, string) core.Outcome {
	return core.Failed(u.identity.ID, u.failure)
}

// Available implements Availability.
func (u *Unavailable) Available() bool { return false }

// Cause returns the configuration failure.
func (u *Unavailable) Cause() *core.AgentFailure { return u.failure }

type unavailableImage struct {
	*Unavailable
}

func (u *unavailableImage) GenerateImage(context.Context, string, string) core.Outcome {
	return core.Failed(u.identity.ID, u.failure)
}
