package ports

import (
	"context"

	"github.com/bnema/clipmind/internal/domain"
)

// Agent wraps one model-backed capability. Failures are reported in the result, never as panics.
type Agent interface {
	Capability() domain.CapabilityKind
	Execute(ctx context.Context, req domain.AgentRequest) domain.AgentResult
}

type IntentClassifier interface {
	Classify(ctx context.Context, utterance string, video domain.VideoContext) (domain.Intent, error)
}

type FrameSampler interface {
	Sample(ctx context.Context, video domain.VideoRef, count int) ([]domain.FrameDescription, error)
}
