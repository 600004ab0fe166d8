package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrInvalidSessionID   = errors.New("invalid session id")
	ErrUnsupportedFormat  = errors.New("unsupported document format")
	ErrCapabilityMissing  = errors.New("no agent registered for capability")
	ErrEmptyUtterance     = errors.New("utterance is empty")
	ErrMalformedModelJSON = errors.New("malformed model output")
)

type FailureKind string

const (
	FailureNone      FailureKind = ""
	FailureInference FailureKind = "inference_failure"
	FailureFormat    FailureKind = "format_mismatch"
	FailureRender    FailureKind = "render_failure"
	FailureNotFound  FailureKind = "not_found"
)

// Retryable reports whether the generation loop may re-invoke the agent.
func (k FailureKind) Retryable() bool {
	return k == FailureFormat
}

// AgentError carries the failure taxonomy across adapter boundaries.
type AgentError struct {
	Kind       FailureKind
	Capability CapabilityKind
	Err        error
}

func NewAgentError(kind FailureKind, capability CapabilityKind, err error) *AgentError {
	return &AgentError{Kind: kind, Capability: capability, Err: err}
}

func (e *AgentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Capability, e.Kind)
	}

	return fmt.Sprintf("%s: %s: %v", e.Capability, e.Kind, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

// FailureKindOf extracts the failure kind from err, defaulting to an inference failure.
func FailureKindOf(err error) FailureKind {
	if err == nil {
		return FailureNone
	}

	var agentErr *AgentError
	if errors.As(err, &agentErr) {
		return agentErr.Kind
	}

	return FailureInference
}
