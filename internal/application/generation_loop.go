package application

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	"github.com/charmbracelet/log"
)

const (
	DefaultMaxGenerationRetries = 3
	MaxGenerationRetriesCeiling = 10
)

type GenerationState string

const (
	GenerationRequested       GenerationState = "requested"
	GenerationGenerated       GenerationState = "generated"
	GenerationValidated       GenerationState = "validated"
	GenerationRejected        GenerationState = "rejected"
	GenerationExhausted       GenerationState = "exhausted_retries"
	GenerationRenderFailed    GenerationState = "render_failed"
	GenerationInferenceFailed GenerationState = "inference_failed"
)

func (s GenerationState) Terminal() bool {
	switch s {
	case GenerationValidated, GenerationExhausted, GenerationRenderFailed, GenerationInferenceFailed:
		return true
	default:
		return false
	}
}

type GenerationOutcome struct {
	State       GenerationState
	Transitions []GenerationState
	Result      domain.AgentResult
	Invocations []domain.Invocation
	Attempts    int
}

// GenerationLoop drives one document request through the retry-and-validate states.
type GenerationLoop struct {
	agent      ports.Agent
	maxRetries int
	clock      ports.Clock
	logger     *log.Logger
}

func NewGenerationLoop(agent ports.Agent, maxRetries int, clock ports.Clock, logger *log.Logger) *GenerationLoop {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &GenerationLoop{
		agent:      agent,
		maxRetries: ClampGenerationRetries(maxRetries),
		clock:      clock,
		logger:     loggerOrDiscard(logger),
	}
}

func ClampGenerationRetries(value int) int {
	if value < 0 {
		return 0
	}
	if value > MaxGenerationRetriesCeiling {
		return MaxGenerationRetriesCeiling
	}

	return value
}

func (l *GenerationLoop) MaxRetries() int {
	return l.maxRetries
}

// Run never returns a document whose declared format differs from spec.Format.
func (l *GenerationLoop) Run(ctx context.Context, base domain.AgentRequest, spec domain.GenerationSpec) GenerationOutcome {
	outcome := GenerationOutcome{}
	state := GenerationRequested
	outcome.Transitions = append(outcome.Transitions, state)

	retries := 0
	var result domain.AgentResult
	for !state.Terminal() {
		switch state {
		case GenerationRequested:
			if retries > l.maxRetries {
				state = GenerationExhausted
				break
			}
			if err := ctx.Err(); err != nil {
				result = domain.Failed(domain.NewAgentError(domain.FailureInference, domain.CapabilityGeneration, err))
				state = GenerationInferenceFailed
				break
			}

			attempt := spec
			attempt.Attempt = retries + 1
			attempt.Outline = append([]string(nil), spec.Outline...)
			request := base
			request.Capability = domain.CapabilityGeneration
			request.Generation = &attempt

			started := l.clock.Now()
			result = l.agent.Execute(ctx, request)
			outcome.Invocations = append(outcome.Invocations, invocationFor(domain.CapabilityGeneration, attempt.Attempt, result, started, l.clock.Now()))
			outcome.Attempts = attempt.Attempt

			switch {
			case result.Failure == domain.FailureNone, result.Failure.Retryable():
				state = GenerationGenerated
			case result.Failure == domain.FailureRender:
				state = GenerationRenderFailed
			default:
				state = GenerationInferenceFailed
			}
		case GenerationGenerated:
			if matchesRequestedFormat(result, spec.Format) {
				state = GenerationValidated
			} else {
				state = GenerationRejected
			}
		case GenerationRejected:
			l.logger.Warn("document format rejected", "requested", spec.Format, "declared", result.Format, "attempt", retries+1)
			retries++
			spec.Hint = retryHint(spec.Format, result.Format)
			state = GenerationRequested
		}
		outcome.Transitions = append(outcome.Transitions, state)
	}

	outcome.State = state
	outcome.Result = result
	if state == GenerationExhausted {
		outcome.Result = domain.AgentResult{
			Format:  result.Format,
			Failure: domain.FailureFormat,
			Detail:  fmt.Sprintf("expected %s after %d attempts, last declared %q", spec.Format, outcome.Attempts, result.Format),
		}
	}

	return outcome
}

func matchesRequestedFormat(result domain.AgentResult, requested domain.Format) bool {
	if !result.Success || result.Format != requested || result.Document == nil {
		return false
	}

	return result.Document.Format == requested
}

func retryHint(requested, declared domain.Format) string {
	if declared == "" {
		return fmt.Sprintf("The previous answer did not declare a file type. The file_type MUST be %q.", requested)
	}

	return fmt.Sprintf("The previous answer produced %q but the user asked for %q. The file_type MUST be %q.", declared, requested, requested)
}

func invocationFor(capability domain.CapabilityKind, attempt int, result domain.AgentResult, started, finished time.Time) domain.Invocation {
	return domain.Invocation{
		Capability: capability,
		Attempt:    attempt,
		Success:    result.Success,
		Format:     result.Format,
		Failure:    result.Failure,
		Detail:     result.Detail,
		StartedAt:  started,
		Duration:   finished.Sub(started),
	}
}
