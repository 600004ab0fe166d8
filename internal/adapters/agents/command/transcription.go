package command

import (
	"context"
	"errors"
	"strings"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

type transcriptionRequest struct {
	Video    string `json:"video"`
	Language string `json:"language,omitempty"`
}

type transcriptionResponse struct {
	Segments []segmentPayload `json:"segments"`
	Text     string           `json:"text,omitempty"`
	// Silent marks inputs without speech, where no segments is a valid answer.
	Silent bool `json:"silent,omitempty"`
}

type segmentPayload struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type TranscriptionAgent struct {
	command  Command
	language string
	run      runFunc
}

var _ ports.Agent = (*TranscriptionAgent)(nil)

func NewTranscriptionAgent(command Command, language string) *TranscriptionAgent {
	return &TranscriptionAgent{command: command, language: strings.TrimSpace(language), run: runAgentCommand}
}

func (a *TranscriptionAgent) Capability() domain.CapabilityKind {
	return domain.CapabilityTranscription
}

func (a *TranscriptionAgent) Execute(ctx context.Context, req domain.AgentRequest) domain.AgentResult {
	if !req.Video.IsSet() {
		return a.fail(domain.FailureNotFound, errors.New("no video in request"))
	}

	stdout, err := call(ctx, a.run, a.command, transcriptionRequest{Video: string(req.Video), Language: a.language})
	if err != nil {
		return a.fail(domain.FailureInference, err)
	}

	var response transcriptionResponse
	if err := decodeModelJSON(stdout, &response); err != nil {
		return a.fail(domain.FailureInference, err)
	}

	segments := make([]domain.TranscriptSegment, 0, len(response.Segments))
	for _, segment := range response.Segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		segments = append(segments, domain.TranscriptSegment{Start: segment.Start, End: segment.End, Text: text})
	}

	text := strings.TrimSpace(response.Text)
	if text == "" {
		text = domain.JoinSegments(segments)
	}
	if len(segments) == 0 {
		segments = nil
	}
	if text == "" && !response.Silent {
		return a.fail(domain.FailureInference, errors.New("transcription returned no segments"))
	}

	return domain.Succeeded(domain.FormatTranscript, domain.Artifact{
		Kind:     domain.ArtifactTranscript,
		Text:     text,
		Segments: segments,
	})
}

func (a *TranscriptionAgent) fail(kind domain.FailureKind, err error) domain.AgentResult {
	return domain.Failed(domain.NewAgentError(kind, domain.CapabilityTranscription, err))
}
