package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

type classifyRequest struct {
	Utterance string   `json:"utterance"`
	Video     string   `json:"video,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`
	Agents    []string `json:"agents"`
}

// classifyResponse mirrors the supervisor model's routing answer.
type classifyResponse struct {
	TaskName  string `json:"Task_name"`
	AgentName string `json:"agent_name"`
	FileType  string `json:"file_type,omitempty"`
	Reprocess bool   `json:"reprocess,omitempty"`
}

var supervisorAgents = []string{"transcription", "vision", "generation", "chat", "none"}

// ModelClassifier routes utterances with a supervisor model. It errors on anything outside
// the known agent names so a fallback classifier can take over.
type ModelClassifier struct {
	command Command
	run     runFunc
}

var _ ports.IntentClassifier = (*ModelClassifier)(nil)

func NewModelClassifier(command Command) *ModelClassifier {
	return &ModelClassifier{command: command, run: runAgentCommand}
}

func (c *ModelClassifier) Classify(ctx context.Context, utterance string, video domain.VideoContext) (domain.Intent, error) {
	request := classifyRequest{Utterance: utterance, Video: string(video.Video), Agents: supervisorAgents}
	for _, kind := range video.Kinds() {
		request.Artifacts = append(request.Artifacts, string(kind))
	}

	stdout, err := call(ctx, c.run, c.command, request)
	if err != nil {
		return domain.Intent{}, fmt.Errorf("classify utterance: %w", err)
	}

	var response classifyResponse
	if err := decodeModelJSON(stdout, &response); err != nil {
		return domain.Intent{}, fmt.Errorf("classify utterance: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(response.AgentName)) {
	case "transcription", "transcription_agent", "audio":
		return domain.Intent{Kind: domain.IntentTranscribe, Reprocess: response.Reprocess}, nil
	case "vision", "vision_agent", "visual":
		return domain.Intent{Kind: domain.IntentAnalyzeVisual, Reprocess: response.Reprocess}, nil
	case "generation", "generation_agent", "report", "report_agent":
		format, err := responseFormat(response, utterance)
		if err != nil {
			return domain.Intent{}, fmt.Errorf("classify utterance: %w", err)
		}
		return domain.Intent{Kind: domain.IntentGenerateDocument, Format: format, Reprocess: response.Reprocess}, nil
	case "chat", "none", "general":
		return domain.Intent{Kind: domain.IntentGeneralQuery}, nil
	default:
		return domain.Intent{}, fmt.Errorf("classify utterance: %w: unknown agent %q", domain.ErrMalformedModelJSON, response.AgentName)
	}
}

// responseFormat prefers the explicit file_type, then any format named in the task or utterance.
func responseFormat(response classifyResponse, utterance string) (domain.Format, error) {
	if strings.TrimSpace(response.FileType) != "" {
		return domain.ParseDocumentFormat(response.FileType)
	}

	for _, text := range []string{response.TaskName, utterance} {
		for _, word := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
			return r == ' ' || r == ',' || r == '.' || r == '!' || r == '?'
		}) {
			if format, err := domain.ParseDocumentFormat(word); err == nil {
				return format, nil
			}
		}
	}

	return "", fmt.Errorf("%w: no file type for generation task", domain.ErrUnsupportedFormat)
}
