package command

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
	"github.com/google/uuid"
)

const (
	generateFileTool = "generate_file"
	excerptRunes     = 1200
)

const plannerSystemPrompt = `You produce a single JSON object that instructs how to generate a report or presentation file.
Output exactly one JSON object and nothing else: no markdown, no code fences, no reasoning.

You have access to this function:
generate_file(file_type, title, sections, output_path)
- file_type: "pdf" or "pptx"
- title: the document or presentation title
- sections: list of {"heading": string, "content": string}
- output_path: short descriptive filename without extension

Required output:
{"tool_name": "generate_file", "args": {"file_type": "<pdf or pptx>", "title": "<title>", "sections": [{"heading": "<heading>", "content": "<content>"}], "output_path": "<filename>"}}`

type plannerRequest struct {
	System  string `json:"system"`
	Prompt  string `json:"prompt"`
	Format  string `json:"format"`
	Attempt int    `json:"attempt"`
}

type toolCall struct {
	ToolName string   `json:"tool_name"`
	Args     fileArgs `json:"args"`
}

type fileArgs struct {
	FileType   string    `json:"file_type"`
	Title      string    `json:"title"`
	Sections   []section `json:"sections"`
	OutputPath string    `json:"output_path,omitempty"`
}

type section struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// GenerationAgent asks a planner model for a generate_file call, renders it and stores the bytes.
type GenerationAgent struct {
	planner  Command
	renderer Command
	store    ports.ArtifactStore
	run      runFunc
	newID    func() string
}

var _ ports.Agent = (*GenerationAgent)(nil)

func NewGenerationAgent(planner, renderer Command, store ports.ArtifactStore) *GenerationAgent {
	return &GenerationAgent{
		planner:  planner,
		renderer: renderer,
		store:    store,
		run:      runAgentCommand,
		newID:    uuid.NewString,
	}
}

func (a *GenerationAgent) Capability() domain.CapabilityKind {
	return domain.CapabilityGeneration
}

func (a *GenerationAgent) Execute(ctx context.Context, req domain.AgentRequest) domain.AgentResult {
	if req.Generation == nil {
		return a.fail(domain.FailureInference, errors.New("generation spec is missing"))
	}
	spec := *req.Generation
	if err := spec.Validate(); err != nil {
		return a.fail(domain.FailureInference, err)
	}

	stdout, err := call(ctx, a.run, a.planner, plannerRequest{
		System:  plannerSystemPrompt,
		Prompt:  BuildPlannerPrompt(req),
		Format:  string(spec.Format),
		Attempt: spec.Attempt,
	})
	if err != nil {
		return a.fail(domain.FailureInference, err)
	}

	var tool toolCall
	if err := decodeModelJSON(stdout, &tool); err != nil {
		return a.mismatch("", err)
	}
	if tool.ToolName != generateFileTool {
		return a.mismatch("", fmt.Errorf("%w: unexpected tool %q", domain.ErrMalformedModelJSON, tool.ToolName))
	}

	declared, err := domain.ParseDocumentFormat(tool.Args.FileType)
	if err != nil {
		return a.mismatch(domain.Format(strings.ToLower(strings.TrimSpace(tool.Args.FileType))), err)
	}
	if declared != spec.Format {
		return a.mismatch(declared, fmt.Errorf("planner declared %s, requested %s", declared, spec.Format))
	}

	args := tool.Args
	args.FileType = string(declared)
	if strings.TrimSpace(args.Title) == "" {
		args.Title = spec.Title
	}

	data, stderr, err := a.run(ctx, mustJSON(args), a.renderer.Name, a.renderer.Args...)
	if err != nil {
		return a.fail(domain.FailureRender, formatError(a.renderer, err, stderr))
	}
	if len(data) == 0 {
		return a.fail(domain.FailureRender, errors.New("renderer produced no bytes"))
	}

	id := a.newID()
	path, err := a.store.Put(ctx, artifactName(args, id, declared), data)
	if err != nil {
		return a.fail(domain.FailureRender, fmt.Errorf("store document: %w", err))
	}

	result := domain.Succeeded(declared)
	result.Document = &domain.DocumentHandle{
		ID:     id,
		Format: declared,
		Title:  args.Title,
		Path:   path,
		Size:   int64(len(data)),
	}

	return result
}

func (a *GenerationAgent) fail(kind domain.FailureKind, err error) domain.AgentResult {
	return domain.Failed(domain.NewAgentError(kind, domain.CapabilityGeneration, err))
}

func (a *GenerationAgent) mismatch(declared domain.Format, err error) domain.AgentResult {
	result := a.fail(domain.FailureFormat, err)
	result.Format = declared
	return result
}

// BuildPlannerPrompt assembles the conversation, the known video facts and the request.
func BuildPlannerPrompt(req domain.AgentRequest) string {
	spec := req.Generation
	var builder strings.Builder

	if len(req.History) > 0 {
		builder.WriteString("Conversation so far:\n")
		for _, line := range req.History {
			fmt.Fprintf(&builder, "%s: %s\n", line.Role, strings.TrimSpace(line.Content))
		}
		builder.WriteString("\n")
	}

	builder.WriteString("Video facts:\n")
	if transcript := req.Context.TranscriptText(); transcript != "" {
		fmt.Fprintf(&builder, "- Transcript: %s\n", excerpt(transcript, excerptRunes))
	}
	if summary := req.Context.SceneSummary(); summary != "" {
		fmt.Fprintf(&builder, "- Scene: %s\n", summary)
	}
	if detections := req.Context.Detections(); len(detections) > 0 {
		labels := make([]string, 0, len(detections))
		for _, detection := range detections {
			labels = append(labels, detection.Label)
		}
		fmt.Fprintf(&builder, "- Objects: %s\n", strings.Join(labels, ", "))
	}

	fmt.Fprintf(&builder, "\nRequest: %s\n", strings.TrimSpace(spec.Instructions))
	fmt.Fprintf(&builder, "file_type: %s\n", spec.Format)
	fmt.Fprintf(&builder, "title: %s\n", spec.Title)
	if len(spec.Outline) > 0 {
		fmt.Fprintf(&builder, "sections: %s\n", strings.Join(spec.Outline, "; "))
	}
	if spec.Hint != "" {
		fmt.Fprintf(&builder, "\nIMPORTANT: %s\n", spec.Hint)
	}

	return builder.String()
}

// artifactName builds "<output_path>-<id prefix>.<ext>" from a filesystem-safe slug.
func artifactName(args fileArgs, id string, format domain.Format) string {
	base := slugify(args.OutputPath)
	if base == "" {
		base = slugify(args.Title)
	}
	if base == "" {
		base = "report"
	}

	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}

	return base + "-" + short + format.Extension()
}

func slugify(value string) string {
	value = strings.TrimSuffix(strings.TrimSpace(value), ".pdf")
	value = strings.TrimSuffix(value, ".pptx")

	var builder strings.Builder
	dash := false
	for _, r := range strings.ToLower(value) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			builder.WriteRune(r)
			dash = false
		case !dash && builder.Len() > 0:
			builder.WriteRune('-')
			dash = true
		}
	}

	return strings.Trim(builder.String(), "-")
}

func excerpt(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}

	return string(runes[:limit]) + "..."
}
