package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentlab/core"
)

// DefaultTimeout bounds a single agent invocation.
const DefaultTimeout = 30 * time.Second

// Invoke runs p.Respond under a deadline and converts every way the call can
// go wrong into a failure outcome. It always returns within timeout, even if
// the provider ignores its context.
func Invoke(ctx context.Context, p core.Provider, timeout time.Duration, prompt, window string) core.Outcome {
	return guard(ctx, p.Identity().ID, timeout, func(ctx context.Context) core.Outcome {
		return p.Respond(ctx, prompt, window)
	})
}

// InvokeImage is Invoke for image generation. Providers that cannot generate
// images yield a configuration failure.
func InvokeImage(ctx context.Context, p core.Provider, timeout time.Duration, prompt, window string) core.Outcome {
	id := p.Identity().ID
	gen, ok := p.(core.ImageGenerator)
	if !ok {
		return core.Failed(id, core.NewAgentFailure(id, core.FailureConfiguration, "agent does not generate images", nil))
	}
	return guard(ctx, id, timeout, func(ctx context.Context) core.Outcome {
		return gen.GenerateImage(ctx, prompt, window)
	})
}

func guard(parent context.Context, id string, timeout time.Duration, call func(ctx context.Context) core.Outcome) core.Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	done := make(chan core.Outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- core.Failed(id, core.NewAgentFailure(id, core.FailurePanic, fmt.Sprintf("agent panicked: %v", r), nil))
			}
		}()
		done <- call(ctx)
	}()

	select {
	case out := <-done:
		return checkOutcome(id, out)
	case <-ctx.Done():
		// A result that raced the deadline still wins.
		select {
		case out := <-done:
			return checkOutcome(id, out)
		default:
		}
		return core.Failed(id, core.FailureFromError(id, ctx.Err(), core.FailureTimeout))
	}
}

func checkOutcome(id string, out core.Outcome) core.Outcome {
	if out.AgentID != id {
		return core.Failed(id, core.NewAgentFailure(id, core.FailureMalformed,
			fmt.Sprintf("response attributed to %q", out.AgentID), nil))
	}
	if out.Err != nil && out.Err.AgentID == "" {
		failure := *out.Err
		failure.AgentID = id
		out.Err = &failure
	}
	return out
}
