// Package agentlab provides a high-level façade over the orchestrator, the
// agent registry and the session store, enabling a single user message to be
// answered by several agents at once. Most applications interact with this
// package by:
//  1. Creating a Lab via New() with a list of agents, or via FromConfig()
//  2. Feeding inbound messages to Handle with a Sender for the output lines
//  3. Optionally calling single agents (Ask) or the image agent (GenerateImage)
//
// All defaults are safe for local development and testing: sessions live in
// memory and logging is disabled unless a Logger is supplied.
package agentlab

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/metrics"
	"github.com/hupe1980/agentlab/orchestrator"
	"github.com/hupe1980/agentlab/session"
)

var (
	// ErrUnknownAgent is returned when no registered agent has the requested id.
	ErrUnknownAgent = errors.New("unknown agent")
	// ErrNoImageAgent is returned when no registered agent generates images.
	ErrNoImageAgent = errors.New("no image agent registered")
)

// Options configures the Lab instance.
type Options struct {
	// ContextWindow is the number of recent messages handed to agents.
	ContextWindow int
	// Pacing is the pause between emitted lines after a success.
	Pacing time.Duration
	// AgentTimeout bounds each agent invocation.
	AgentTimeout time.Duration

	// SessionStore defaults to an in-memory store.
	SessionStore core.SessionStore
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
	// Metrics defaults to a NoOp recorder.
	Metrics metrics.Recorder
}

// Lab is the high-level façade aggregating the registry, store and orchestrator.
type Lab struct {
	opts         Options
	registry     *agent.Registry
	orchestrator *orchestrator.Orchestrator
}

// New creates a Lab for the given agents in emission order.
func New(providers []core.Provider, optFns ...func(o *Options)) (*Lab, error) {
	defaults := orchestrator.DefaultOptions()
	opts := Options{
		ContextWindow: defaults.ContextWindow,
		Pacing:        defaults.Pacing,
		AgentTimeout:  defaults.AgentTimeout,
		SessionStore:  session.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
		Metrics:       metrics.NoOp{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	registry, err := agent.NewRegistry(providers...)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(opts.SessionStore, registry, func(o *orchestrator.Options) {
		o.ContextWindow = opts.ContextWindow
		o.Pacing = opts.Pacing
		o.AgentTimeout = opts.AgentTimeout
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	return &Lab{opts: opts, registry: registry, orchestrator: orch}, nil
}

// Registry returns the ordered agent registry.
func (l *Lab) Registry() *agent.Registry { return l.registry }

// Store returns the session store.
func (l *Lab) Store() core.SessionStore { return l.opts.SessionStore }

// Logger returns the configured logger.
func (l *Lab) Logger() logging.Logger { return l.opts.Logger }

// Metrics returns the configured recorder.
func (l *Lab) Metrics() metrics.Recorder { return l.opts.Metrics }

// Handle runs one inbound message through the orchestrator.
func (l *Lab) Handle(ctx context.Context, sessionID, text string, sender core.Sender) error {
	return l.orchestrator.Handle(ctx, sessionID, text, sender)
}

// HandleSync is a synchronous helper that collects the emitted lines instead
// of streaming them.
func (l *Lab) HandleSync(ctx context.Context, sessionID, text string) ([]string, error) {
	var (
		mu    sync.Mutex
		lines []string
	)
	err := l.orchestrator.Handle(ctx, sessionID, text, core.SenderFunc(func(_ context.Context, line string) error {
		mu.Lock()
		defer mu.Unlock()
		lines = append(lines, line)
		return nil
	}))
	return lines, err
}

// Dispatch fans a prompt out to every agent without touching any session.
func (l *Lab) Dispatch(ctx context.Context, prompt, window string) []core.Outcome {
	return l.orchestrator.Dispatch(ctx, prompt, window)
}

// Ask invokes a single agent statelessly.
func (l *Lab) Ask(ctx context.Context, agentID, prompt, window string) (core.Outcome, error) {
	p, ok := l.registry.Lookup(agentID)
	if !ok {
		return core.Outcome{}, ErrUnknownAgent
	}
	start := time.Now()
	out := agent.Invoke(ctx, p, l.opts.AgentTimeout, prompt, window)
	l.record(ctx, out, time.Since(start))
	return out, nil
}

// GenerateImage asks the image agent for a picture.
func (l *Lab) GenerateImage(ctx context.Context, prompt, window string) (core.Outcome, error) {
	p, ok := l.registry.ImageGenerator()
	if !ok {
		return core.Outcome{}, ErrNoImageAgent
	}
	start := time.Now()
	out := agent.InvokeImage(ctx, p, l.opts.AgentTimeout, prompt, window)
	l.record(ctx, out, time.Since(start))
	return out, nil
}

// EndSession drops a session's history.
func (l *Lab) EndSession(sessionID string) { l.opts.SessionStore.Delete(sessionID) }

func (l *Lab) record(ctx context.Context, out core.Outcome, elapsed time.Duration) {
	status := metrics.StatusOK
	if out.IsFailure() {
		status = string(out.Err.Kind)
		l.opts.Logger.Warn("agent failed", "agent", out.AgentID, "kind", out.Err.Kind, "error", out.Err.Summary())
	}
	l.opts.Metrics.RecordAgentCall(ctx, out.AgentID, elapsed, status)
}
