package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

const DefaultFrameCount = 8

type visionRequest struct {
	Video  string         `json:"video"`
	Query  string         `json:"query,omitempty"`
	Frames []framePayload `json:"frames"`
}

type visionResponse struct {
	Detections  []detectionPayload `json:"detections"`
	Description string             `json:"description"`
	Frames      []framePayload     `json:"frames,omitempty"`
}

type detectionPayload struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	FrameIndex int     `json:"frame_index"`
}

type VisionAgent struct {
	command    Command
	sampler    ports.FrameSampler
	frameCount int
	run        runFunc
}

var _ ports.Agent = (*VisionAgent)(nil)

func NewVisionAgent(command Command, sampler ports.FrameSampler, frameCount int) *VisionAgent {
	if frameCount <= 0 {
		frameCount = DefaultFrameCount
	}

	return &VisionAgent{command: command, sampler: sampler, frameCount: frameCount, run: runAgentCommand}
}

func (a *VisionAgent) Capability() domain.CapabilityKind {
	return domain.CapabilityVision
}

func (a *VisionAgent) Execute(ctx context.Context, req domain.AgentRequest) domain.AgentResult {
	if !req.Video.IsSet() {
		return a.fail(domain.FailureNotFound, errors.New("no video in request"))
	}

	sampled, err := a.sampler.Sample(ctx, req.Video, a.frameCount)
	if err != nil {
		return a.fail(domain.FailureInference, err)
	}

	request := visionRequest{Video: string(req.Video), Query: req.Query}
	for _, frame := range sampled {
		request.Frames = append(request.Frames, framePayload{Index: frame.Index, Timestamp: frame.Timestamp, Text: frame.Text})
	}

	stdout, err := call(ctx, a.run, a.command, request)
	if err != nil {
		return a.fail(domain.FailureInference, err)
	}

	var response visionResponse
	if err := decodeModelJSON(stdout, &response); err != nil {
		return a.fail(domain.FailureInference, err)
	}

	description := cleanModelOutput([]byte(response.Description))
	detections := make([]domain.Detection, 0, len(response.Detections))
	for _, detection := range response.Detections {
		label := strings.TrimSpace(detection.Label)
		if label == "" {
			continue
		}
		if detection.Confidence < 0 || detection.Confidence > 1 {
			return a.fail(domain.FailureInference, fmt.Errorf("%w: confidence %v for %q", domain.ErrMalformedModelJSON, detection.Confidence, label))
		}
		detections = append(detections, domain.Detection{Label: label, Confidence: detection.Confidence, FrameIndex: detection.FrameIndex})
	}
	if description == "" && len(detections) == 0 {
		return a.fail(domain.FailureInference, errors.New("vision returned neither a description nor detections"))
	}
	if len(detections) == 0 {
		detections = nil
	}

	return domain.Succeeded(domain.FormatDetections,
		domain.Artifact{Kind: domain.ArtifactFrameDescriptions, Frames: describeFrames(sampled, response.Frames)},
		domain.Artifact{Kind: domain.ArtifactDetectedObjects, Detections: detections},
		domain.Artifact{Kind: domain.ArtifactSceneSummary, Text: description},
	)
}

// describeFrames pairs the sampled frames with the captions the model returned for them.
func describeFrames(sampled []domain.FrameDescription, captions []framePayload) []domain.FrameDescription {
	byIndex := make(map[int]string, len(captions))
	for _, caption := range captions {
		byIndex[caption.Index] = strings.TrimSpace(caption.Text)
	}

	frames := make([]domain.FrameDescription, 0, len(sampled))
	for _, frame := range sampled {
		frames = append(frames, domain.FrameDescription{Index: frame.Index, Timestamp: frame.Timestamp, Text: byIndex[frame.Index]})
	}
	if len(frames) == 0 {
		return nil
	}

	return frames
}

func (a *VisionAgent) fail(kind domain.FailureKind, err error) domain.AgentResult {
	return domain.Failed(domain.NewAgentError(kind, domain.CapabilityVision, err))
}
