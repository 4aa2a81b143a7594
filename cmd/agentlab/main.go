// Command agentlab runs the multi-agent collaboration lab.
//
// Usage:
//
//	agentlab serve --config lab.yaml
//	agentlab serve --mock --address :8000
//	agentlab ask --mock "How do rainbows form?"
//	agentlab agents --config lab.yaml
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/hupe1980/agentlab"
	"github.com/hupe1980/agentlab/agent"
	"github.com/hupe1980/agentlab/config"
	"github.com/hupe1980/agentlab/core"
	"github.com/hupe1980/agentlab/logging"
	"github.com/hupe1980/agentlab/metrics"
	"github.com/hupe1980/agentlab/orchestrator"
	"github.com/hupe1980/agentlab/server"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP and websocket server."`
	Ask     AskCmd     `cmd:"" help:"Send one message to every agent and print the replies."`
	Agents  AgentsCmd  `cmd:"" help:"List configured agents and their status."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	Mock      bool   `help:"Replace every agent backend with a mock model."`
	LogLevel  string `help:"Log level (debug, info, warn, error). Overrides the config file."`
	LogFormat string `help:"Log format (text, json). Overrides the config file."`
}

// load reads the configuration and applies CLI overrides.
func (c *CLI) load() (*config.Config, logging.Logger, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, nil, err
	}
	if c.Mock {
		cfg.UseMockBackends()
	}
	if c.LogLevel != "" {
		cfg.Logging.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Logging.Format = c.LogFormat
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Logging.Format,
		Output:    os.Stderr,
		Component: "agentlab",
	})
	return cfg, logger, nil
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("agentlab version %s\n", version)
	return nil
}

// ServeCmd starts the server.
type ServeCmd struct {
	Address string `help:"Listen address. Overrides the config file."`
	Metrics *bool  `help:"Expose Prometheus metrics (use --no-metrics to disable)." negatable:""`
}

func (c *ServeCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := cli.load()
	if err != nil {
		return err
	}
	if c.Address != "" {
		cfg.Server.Address = c.Address
	}
	if c.Metrics != nil {
		cfg.Metrics.Enabled = *c.Metrics
	}

	var recorder metrics.Recorder = metrics.NoOp{}
	var prom *metrics.Prometheus
	if cfg.Metrics.Enabled {
		prom, err = metrics.NewPrometheus()
		if err != nil {
			return err
		}
		defer func() { _ = prom.Shutdown(context.Background()) }()
		recorder = prom
	}

	lab, err := agentlab.FromConfig(cfg, func(o *agentlab.Options) {
		o.Logger = logger
		o.Metrics = recorder
	})
	if err != nil {
		return err
	}
	logUnavailable(lab, logger)

	srv := server.New(lab, func(o *server.Options) {
		o.AllowedOrigins = cfg.Server.AllowedOrigins
		o.DiscardSessions = cfg.Server.DiscardSessions
		o.MetricsPath = cfg.Metrics.Path
		if prom != nil {
			o.MetricsHandler = prom.Handler()
		}
	})
	return srv.ListenAndServe(ctx, cfg.Server.Address, cfg.Server.ShutdownGrace)
}

// AskCmd runs one message through the orchestrator and prints the lines.
type AskCmd struct {
	Message []string `arg:"" help:"Message to send."`
	Agent   string   `short:"a" help:"Ask a single agent instead of all of them."`
}

func (c *AskCmd) Run(cli *CLI) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := cli.load()
	if err != nil {
		return err
	}
	lab, err := agentlab.FromConfig(cfg, func(o *agentlab.Options) { o.Logger = logger })
	if err != nil {
		return err
	}
	return ask(ctx, os.Stdout, lab, c.Agent, strings.Join(c.Message, " "))
}

func ask(ctx context.Context, w io.Writer, lab *agentlab.Lab, agentID, text string) error {
	if agentID != "" {
		out, err := lab.Ask(ctx, agentID, text, "")
		if err != nil {
			return err
		}
		p, _ := lab.Registry().Lookup(agentID)
		_, err = fmt.Fprintln(w, orchestrator.FormatOutcome(p.Identity(), out))
		return err
	}

	lines, err := lab.HandleSync(ctx, "cli", text)
	for _, line := range lines {
		if _, werr := fmt.Fprintln(w, line); werr != nil {
			return werr
		}
	}
	return err
}

// AgentsCmd lists the registry.
type AgentsCmd struct{}

func (c *AgentsCmd) Run(cli *CLI) error {
	cfg, logger, err := cli.load()
	if err != nil {
		return err
	}
	lab, err := agentlab.FromConfig(cfg, func(o *agentlab.Options) { o.Logger = logger })
	if err != nil {
		return err
	}
	return listAgents(os.Stdout, lab)
}

func listAgents(w io.Writer, lab *agentlab.Lab) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPERSONALITY\tGLYPH\tSTATUS")
	for _, p := range lab.Registry().Providers() {
		id := p.Identity()
		status := "ready"
		if !agent.IsAvailable(p) {
			status = "unavailable"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", id.ID, id.Personality, id.Glyph(), status)
	}
	return tw.Flush()
}

func logUnavailable(lab *agentlab.Lab, logger logging.Logger) {
	for _, p := range lab.Registry().Providers() {
		if u, ok := p.(interface{ Cause() *core.AgentFailure }); ok && !agent.IsAvailable(p) {
			logger.Warn("agent unavailable", "agent", p.Identity().ID, "reason", u.Cause().Summary())
		}
	}
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("agentlab"),
		kong.Description("AI multi-agent collaboration lab"),
		kong.UsageOnError(),
	)
	err := ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
