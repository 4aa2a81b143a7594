package agent

import (
	"context"

	"github.com/hupe1980/agentlab/core"
)

// RespondFunc is the signature of a function-backed agent.
type RespondFunc func(ctx context.Context, prompt, window string) core.Outcome

// Func adapts a plain function into a core.Provider.
type Func struct {
	identity core.Identity
	fn       RespondFunc
}

// NewFunc creates a function-backed agent.
func NewFunc(identity core.Identity, fn RespondFunc) *Func {
	return &Func{identity: identity, fn: fn}
}

// NewStatic creates an agent that always answers with text.
func NewStatic(identity core.Identity, text string) *Func {
	return NewFunc(identity, func(context.Context, string, string) core.Outcome {
		return core.Succeeded(identity.ID, text)
	})
}

// Identity implements core.Provider.
func (f *Func) Identity() core.Identity { return f.identity }

// Respond implements core.Provider.
func (f *Func) Respond(ctx context.Context, prompt, window string) core.Outcome {
	return f.fn(ctx, prompt, window)
}
