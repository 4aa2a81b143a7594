// Package metrics records orchestration metrics through OpenTelemetry
// instruments and exposes them in Prometheus text format.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// StatusOK labels successful agent calls.
const StatusOK = "ok"

// Recorder is the metrics surface used by the orchestrator and server.
type Recorder interface {
	// RecordAgentCall records one agent invocation. status is StatusOK or a failure kind.
	RecordAgentCall(ctx context.Context, agentID string, duration time.Duration, status string)
	// RecordMessage records an inbound message; result is "dispatched", "rejected" or "aborted".
	RecordMessage(ctx context.Context, result string)
	// ConnectionOpened and ConnectionClosed track open duplex channels.
	ConnectionOpened(ctx context.Context)
	ConnectionClosed(ctx context.Context)
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordAgentCall(context.Context, string, time.Duration, string) {}
func (NoOp) RecordMessage(context.Context, string)                          {}
func (NoOp) ConnectionOpened(context.Context)                               {}
func (NoOp) ConnectionClosed(context.Context)                               {}

// Prometheus implements Recorder with a private Prometheus registry.
type Prometheus struct {
	registry *prometheus.Registry
	provider *sdkmetric.MeterProvider

	agentDuration metric.Float64Histogram
	agentCalls    metric.Int64Counter
	messages      metric.Int64Counter
	connections   metric.Int64UpDownCounter
}

// NewPrometheus wires the OpenTelemetry SDK to a Prometheus exporter.
func NewPrometheus() (*Prometheus, error) {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("agentlab")

	agentDuration, err := meter.Float64Histogram(
		"agentlab_agent_call_duration",
		metric.WithDescription("Agent call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent duration histogram: %w", err)
	}

	agentCalls, err := meter.Int64Counter(
		"agentlab_agent_calls",
		metric.WithDescription("Total agent calls by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent calls counter: %w", err)
	}

	messages, err := meter.Int64Counter(
		"agentlab_messages",
		metric.WithDescription("Total inbound messages by result"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages counter: %w", err)
	}

	connections, err := meter.Int64UpDownCounter(
		"agentlab_active_connections",
		metric.WithDescription("Currently open duplex channels"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create connections gauge: %w", err)
	}

	return &Prometheus{
		registry:      registry,
		provider:      provider,
		agentDuration: agentDuration,
		agentCalls:    agentCalls,
		messages:      messages,
		connections:   connections,
	}, nil
}

func (m *Prometheus) RecordAgentCall(ctx context.Context, agentID string, duration time.Duration, status string) {
	attrs := metric.WithAttributes(
		attribute.String("agent", agentID),
		attribute.String("status", status),
	)
	m.agentDuration.Record(ctx, duration.Seconds(), attrs)
	m.agentCalls.Add(ctx, 1, attrs)
}

func (m *Prometheus) RecordMessage(ctx context.Context, result string) {
	m.messages.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *Prometheus) ConnectionOpened(ctx context.Context) { m.connections.Add(ctx, 1) }

func (m *Prometheus) ConnectionClosed(ctx context.Context) { m.connections.Add(ctx, -1) }

// Handler serves the registry in Prometheus exposition format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown flushes and stops the meter provider.
func (m *Prometheus) Shutdown(ctx context.Context) error {
	return m.provider.Shutdown(ctx)
}
