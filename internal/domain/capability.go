package domain

type CapabilityKind string

const (
	CapabilityTranscription CapabilityKind = "transcription"
	CapabilityVision        CapabilityKind = "vision"
	CapabilityGeneration    CapabilityKind = "document_generation"
)

func (k CapabilityKind) Valid() bool {
	switch k {
	case CapabilityTranscription, CapabilityVision, CapabilityGeneration:
		return true
	default:
		return false
	}
}

// Produces lists the artifact kinds a capability writes into the video context.
func (k CapabilityKind) Produces() []ArtifactKind {
	switch k {
	case CapabilityTranscription:
		return []ArtifactKind{ArtifactTranscript}
	case CapabilityVision:
		return []ArtifactKind{ArtifactFrameDescriptions, ArtifactDetectedObjects, ArtifactSceneSummary}
	case CapabilityGeneration:
		return []ArtifactKind{ArtifactDocument}
	default:
		return nil
	}
}
