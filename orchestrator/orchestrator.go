package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/metrics"
)

// Options configures an Orchestrator.
type Options struct {
	// ContextWindow is the number of recent messages rendered for agents.
	// Zero or less hands agents no history.
	ContextWindow int
	// Pacing is the pause after each emitted success line that is followed by another line.
	Pacing time.Duration
	// AgentTimeout bounds every single agent invocation.
	AgentTimeout time.Duration
	Logger       logging.Logger
	Metrics      metrics.Recorder
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		ContextWindow: 10,
		Pacing:        500 * time.Millisecond,
		AgentTimeout:  agent.DefaultTimeout,
		Logger:        logging.NoOpLogger{},
		Metrics:       metrics.NoOp{},
	}
}

// Orchestrator runs one message through ingest, context build, fan-out and
// emission. It keeps no state of its own between calls.
type Orchestrator struct {
	store    core.SessionStore
	registry *agent.Registry
	opts     Options
}

// New creates an Orchestrator.
func New(store core.SessionStore, registry *agent.Registry, optFns ...func(o *Options)) *Orchestrator {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.AgentTimeout <= 0 {
		opts.AgentTimeout = agent.DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoOp{}
	}
	return &Orchestrator{store: store, registry: registry, opts: opts}
}

// Registry returns the agents the orchestrator dispatches to.
func (o *Orchestrator) Registry() *agent.Registry { return o.registry }

// Options returns the effective options.
func (o *Orchestrator) Options() Options { return o.opts }

// Handle processes one inbound message for a session and emits one line per
// registered agent through sender, in registry order.
//
// It returns a *core.ValidationError for empty input, a *core.TransportError
// when sender fails, the context error when ctx ends during pacing, or nil.
// Session state written before an error is kept.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, text string, sender core.Sender) error {
	log := logging.With(o.opts.Logger, "session_id", sessionID)

	if reason := validate(text); reason != "" {
		o.opts.Metrics.RecordMessage(ctx, "rejected")
		log.Debug("rejected message", "reason", reason)
		if err := sender.Send(ctx, InvalidInputLine); err != nil {
			return &core.TransportError{Op: "send", Err: err}
		}
		return &core.ValidationError{Reason: reason}
	}

	if err := o.store.Append(sessionID, core.NewUserMessage(text)); err != nil {
		return fmt.Errorf("append user message: %w", err)
	}
	window := o.store.Context(sessionID, o.opts.ContextWindow)

	providers := o.registry.Providers()
	outcomes := o.dispatch(ctx, log, providers, text, window)

	for i, out := range outcomes {
		identity := providers[i].Identity()
		if !out.IsFailure() {
			if err := o.store.Append(sessionID, core.NewAgentMessage(identity.ID, out.Text)); err != nil {
				return fmt.Errorf("append agent message: %w", err)
			}
		}
		if err := sender.Send(ctx, FormatOutcome(identity, out)); err != nil {
			o.opts.Metrics.RecordMessage(ctx, "aborted")
			log.Warn("emission aborted", "agent", identity.ID, "error", err)
			return &core.TransportError{Op: "send", Err: err}
		}
		if !out.IsFailure() && i < len(outcomes)-1 {
			if err := pause(ctx, o.opts.Pacing); err != nil {
				o.opts.Metrics.RecordMessage(ctx, "aborted")
				return err
			}
		}
	}

	o.opts.Metrics.RecordMessage(ctx, "dispatched")
	return nil
}

// Dispatch fans prompt out to every registered agent and returns one outcome
// per agent in registry order. It touches no session.
func (o *Orchestrator) Dispatch(ctx context.Context, prompt, window string) []core.Outcome {
	return o.dispatch(ctx, o.opts.Logger, o.registry.Providers(), prompt, window)
}

func (o *Orchestrator) dispatch(ctx context.Context, log logging.Logger, providers []core.Provider, prompt, window string) []core.Outcome {
	return agent.InvokeAll(ctx, providers, o.opts.AgentTimeout, prompt, window, func(out core.Outcome, elapsed time.Duration) {
		status := metrics.StatusOK
		if out.IsFailure() {
			status = string(out.Err.Kind)
			log.Warn("agent failed", "agent", out.AgentID, "kind", out.Err.Kind, "error", out.Err.Summary(), "elapsed", elapsed)
		} else {
			log.Debug("agent responded", "agent", out.AgentID, "elapsed", elapsed)
		}
		o.opts.Metrics.RecordAgentCall(ctx, out.AgentID, elapsed, status)
	})
}

// validate returns why text cannot be dispatched, or "" when it can.
func validate(text string) string {
	switch {
	case !utf8.ValidString(text):
		return "message is not valid UTF-8"
	case strings.TrimSpace(text) == "":
		return "message is empty"
	default:
		return ""
	}
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
