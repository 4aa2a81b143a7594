package agent

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/agentlab/core"
)

// Observer is notified once per finished invocation, from the invoking goroutine.
type Observer func(out core.Outcome, elapsed time.Duration)

// InvokeAll fans the prompt out to every provider concurrently and joins on
// all of them. The result slice is index-aligned with providers regardless of
// completion order. A failing provider never affects its siblings, so the
// group itself never returns an error. observe may be nil.
func InvokeAll(ctx context.Context, providers []core.Provider, timeout time.Duration, prompt, window string, observe Observer) []core.Outcome {
	outcomes := make([]core.Outcome, len(providers))

	var g errgroup.Group
	for i, p := range providers {
		g.Go(func() error {
			start := time.Now()
			outcomes[i] = Invoke(ctx, p, timeout, prompt, window)
			if observe != nil {
				observe(outcomes[i], time.Since(start))
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
