package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidInput matches every ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError rejects an inbound payload before any agent is dispatched.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return ErrInvalidInput.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidInput, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) true for every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// FailureKind classifies why an agent invocation failed.
type FailureKind string

const (
	FailureTimeout       FailureKind = "timeout"
	FailureTransport     FailureKind = "transport"
	FailureMalformed     FailureKind = "malformed_response"
	FailureConfiguration FailureKind = "configuration"
	FailurePanic         FailureKind = "panic"
	FailureCanceled      FailureKind = "canceled"
)

// AgentFailure is the failure half of an Outcome. It is isolated to one agent
// and never fatal to the batch it belongs to.
type AgentFailure struct {
	AgentID string
	Kind    FailureKind
	Detail  string
	Err     error
}

// NewAgentFailure builds an AgentFailure wrapping cause.
func NewAgentFailure(agentID string, kind FailureKind, detail string, cause error) *AgentFailure {
	return &AgentFailure{AgentID: agentID, Kind: kind, Detail: detail, Err: cause}
}

func (e *AgentFailure) Error() string {
	return fmt.Sprintf("agent %s failed (%s): %s", e.AgentID, e.Kind, e.Summary())
}

// Unwrap returns the underlying cause.
func (e *AgentFailure) Unwrap() error { return e.Err }

// Summary returns the human-readable part of the failure used in output lines.
func (e *AgentFailure) Summary() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

// FailureFromError converts an arbitrary error into an AgentFailure choosing
// the kind from well-known causes. fallback applies to everything else.
func FailureFromError(agentID string, err error, fallback FailureKind) *AgentFailure {
	var af *AgentFailure
	if errors.As(err, &af) {
		return af
	}
	var ce *ConfigurationError
	switch {
	case errors.As(err, &ce):
		return NewAgentFailure(agentID, FailureConfiguration, ce.Error(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return NewAgentFailure(agentID, FailureTimeout, "timed out waiting for a response", err)
	case errors.Is(err, context.Canceled):
		return NewAgentFailure(agentID, FailureCanceled, "request canceled", err)
	default:
		return NewAgentFailure(agentID, fallback, err.Error(), err)
	}
}

// TransportError reports that the duplex channel itself broke. It is terminal
// to the current request only.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid setting for an agent at
// construction time. Agents hit by it fail closed.
type ConfigurationError struct {
	AgentID string
	Setting string
	Err     error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("agent %s is not configured: missing %s", e.AgentID, e.Setting)
	if e.Err != nil {
		msg = fmt.Sprintf("agent %s is not configured: %s: %v", e.AgentID, e.Setting, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ConfigurationError) Unwrap() error { return e.Err }
