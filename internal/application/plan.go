package application

import "github.com/bnema/clipmind/internal/domain"

// BuildPlan orders the capabilities needed to satisfy intent. Steps whose artifacts already
// exist in video are marked reused unless the intent asks for reprocessing.
func BuildPlan(intent domain.Intent, video domain.VideoContext) []domain.PlanStep {
	switch intent.Kind {
	case domain.IntentTranscribe:
		return []domain.PlanStep{step(domain.CapabilityTranscription, video, intent.Reprocess)}
	case domain.IntentAnalyzeVisual:
		return []domain.PlanStep{step(domain.CapabilityVision, video, intent.Reprocess)}
	case domain.IntentGenerateDocument:
		plan := make([]domain.PlanStep, 0, 3)
		for _, dependency := range []domain.CapabilityKind{domain.CapabilityTranscription, domain.CapabilityVision} {
			plan = append(plan, step(dependency, video, intent.Reprocess))
		}
		return append(plan, domain.PlanStep{Capability: domain.CapabilityGeneration})
	default:
		return nil
	}
}

func step(capability domain.CapabilityKind, video domain.VideoContext, reprocess bool) domain.PlanStep {
	return domain.PlanStep{Capability: capability, Reused: !reprocess && satisfied(capability, video)}
}

// satisfied reports whether every artifact the capability produces is already cached.
func satisfied(capability domain.CapabilityKind, video domain.VideoContext) bool {
	produced := capability.Produces()
	if len(produced) == 0 {
		return false
	}
	for _, kind := range produced {
		if !video.Has(kind) {
			return false
		}
	}

	return true
}

func planNeedsAgents(plan []domain.PlanStep) bool {
	for _, step := range plan {
		if !step.Reused {
			return true
		}
	}

	return false
}
