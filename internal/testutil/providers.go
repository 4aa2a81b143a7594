package testutil

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentlab/core"
)

// ScriptedAgent answers with a fixed text or failure after an optional delay
// and records every call it receives.
type ScriptedAgent struct {
	identity core.Identity
	text     string
	fail     *core.AgentFailure
	delay    time.Duration
	hang     bool

	calls   atomic.Int32
	mu      sync.Mutex
	windows []string
}

// NewScriptedAgent creates an agent with the logical_analytical personality answering text.
func NewScriptedAgent(id, text string) *ScriptedAgent {
	return &ScriptedAgent{
		identity: core.Identity{ID: id, Personality: core.PersonalityLogicalAnalytical},
		text:     text,
	}
}

// WithPersonality sets the personality (chainable).
func (a *ScriptedAgent) WithPersonality(p core.Personality) *ScriptedAgent {
	a.identity.Personality = p
	return a
}

// WithDelay delays every answer by d, honouring cancellation (chainable).
func (a *ScriptedAgent) WithDelay(d time.Duration) *ScriptedAgent {
	a.delay = d
	return a
}

// Failing makes the agent answer with a transport failure (chainable).
func (a *ScriptedAgent) Failing(detail string) *ScriptedAgent {
	a.fail = core.NewAgentFailure(a.identity.ID, core.FailureTransport, detail, errors.New(detail))
	return a
}

// Hanging makes the agent block until its context ends (chainable).
func (a *ScriptedAgent) Hanging() *ScriptedAgent {
	a.hang = true
	return a
}

// Identity implements core.Provider.
func (a *ScriptedAgent) Identity() core.Identity { return a.identity }

// Respond implements core.Provider.
func (a *ScriptedAgent) Respond(ctx context.Context, _, window string) core.Outcome {
	a.calls.Add(1)
	a.mu.Lock()
	a.windows = append(a.windows, window)
	a.mu.Unlock()

	if a.hang {
		<-ctx.Done()
		return core.Failed(a.identity.ID, core.FailureFromError(a.identity.ID, ctx.Err(), core.FailureTransport))
	}
	if a.delay > 0 {
		t := time.NewTimer(a.delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return core.Failed(a.identity.ID, core.FailureFromError(a.identity.ID, ctx.Err(), core.FailureTransport))
		case <-t.C:
		}
	}
	if a.fail != nil {
		return core.Failed(a.identity.ID, a.fail)
	}
	return core.Succeeded(a.identity.ID, a.text)
}

// Calls returns how often Respond was invoked.
func (a *ScriptedAgent) Calls() int { return int(a.calls.Load()) }

// Windows returns the context windows received, in call order.
func (a *ScriptedAgent) Windows() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.windows))
	copy(out, a.windows)
	return out
}
