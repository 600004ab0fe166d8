package application

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bnema/clipmind/internal/domain"
)

const (
	excerptLimit   = 280
	detectionLimit = 5
)

func clarificationReply() string {
	return "I'm not sure what you'd like me to do. I can transcribe the video, describe what happens in it, or build a PDF or PPTX summary."
}

func needsVideoReply(intent domain.Intent) string {
	action := "work on it"
	switch intent.Kind {
	case domain.IntentTranscribe:
		action = "transcribe it"
	case domain.IntentAnalyzeVisual:
		action = "look at it"
	case domain.IntentGenerateDocument:
		action = fmt.Sprintf("build the %s", strings.ToUpper(string(intent.Format)))
	}

	return fmt.Sprintf("Please upload a video first (use --video) so I can %s.", action)
}

func answerReply(intent domain.Intent, plan []domain.PlanStep, video domain.VideoContext) string {
	reused := len(plan) > 0 && !planNeedsAgents(plan)

	var builder strings.Builder
	switch intent.Kind {
	case domain.IntentTranscribe:
		transcriptReply(&builder, video, reused)
	case domain.IntentAnalyzeVisual:
		visualReply(&builder, video, reused)
	default:
		builder.WriteString(generalReply(video, nil))
	}

	return strings.TrimSpace(builder.String())
}

func transcriptReply(builder *strings.Builder, video domain.VideoContext, reused bool) {
	artifact, _ := video.Get(domain.ArtifactTranscript)
	text := video.TranscriptText()
	if text == "" {
		builder.WriteString("The video has no speech to transcribe.")
		return
	}

	if reused {
		builder.WriteString("Here is the transcript I already have")
	} else {
		builder.WriteString("Here is the transcript")
	}
	if count := len(artifact.Segments); count > 0 {
		last := artifact.Segments[count-1]
		fmt.Fprintf(builder, " (%d segments, %s):\n", count, formatTimestamp(last.End))
	} else {
		builder.WriteString(":\n")
	}
	builder.WriteString(text)
}

func visualReply(builder *strings.Builder, video domain.VideoContext, reused bool) {
	summary := strings.TrimSpace(video.SceneSummary())
	if summary == "" {
		summary = "I couldn't describe the scene."
	}
	if reused {
		builder.WriteString("From my earlier look at the video: ")
	}
	builder.WriteString(summary)

	labels := topDetections(video.Detections(), detectionLimit)
	if len(labels) > 0 {
		builder.WriteString("\nDetected: ")
		builder.WriteString(strings.Join(labels, ", "))
	}
}

func documentReply(document domain.DocumentHandle) string {
	return fmt.Sprintf("Your %s is ready: %s\nSaved to %s", strings.ToUpper(string(document.Format)), document.Title, document.Path)
}

func exhaustedReply(requested domain.Format, attempts int, declared domain.Format) string {
	got := "no file type"
	if declared != "" {
		got = strings.ToUpper(string(declared))
	}

	return fmt.Sprintf("I couldn't produce a %s after %d attempts (the generator kept returning %s). Please try again or rephrase the request.",
		strings.ToUpper(string(requested)), attempts, got)
}

func failureReply(capability domain.CapabilityKind, format domain.Format, result domain.AgentResult) string {
	detail := strings.TrimSpace(result.Detail)
	if detail == "" {
		detail = "no details were reported"
	}

	switch result.Failure {
	case domain.FailureRender:
		return fmt.Sprintf("Sorry, building the %s file failed: %s.", strings.ToUpper(string(format)), detail)
	case domain.FailureNotFound:
		return fmt.Sprintf("Sorry, the %s step could not find its input: %s. Try uploading the video again.", capabilityLabel(capability), detail)
	default:
		return fmt.Sprintf("Sorry, the %s step failed: %s. Please try the request again.", capabilityLabel(capability), detail)
	}
}

// generalReply answers from what is already known about the video and the conversation.
func generalReply(video domain.VideoContext, turns []domain.Turn) string {
	if !video.HasVideo() {
		if len(turns) == 0 {
			return "No video is attached yet. Upload one with --video and ask me to transcribe it, describe it, or summarize it as a PDF or PPTX."
		}
		return fmt.Sprintf("No video is attached yet. We've exchanged %d messages so far.", len(turns))
	}

	name := filepath.Base(string(video.Video))
	parts := make([]string, 0, 4)
	if summary := strings.TrimSpace(video.SceneSummary()); summary != "" {
		parts = append(parts, "Scene: "+summary)
	}
	if transcript := video.TranscriptText(); transcript != "" {
		parts = append(parts, "Speech: "+excerpt(transcript, excerptLimit))
	}
	if labels := topDetections(video.Detections(), detectionLimit); len(labels) > 0 {
		parts = append(parts, "Objects: "+strings.Join(labels, ", "))
	}
	if document, ok := video.Get(domain.ArtifactDocument); ok && document.Document != nil {
		parts = append(parts, fmt.Sprintf("Last document: %s (%s)", document.Document.Title, document.Document.Path))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("I haven't analyzed %s yet. Ask me to transcribe it or describe what happens in it.", name)
	}

	return fmt.Sprintf("Here's what I know about %s:\n%s", name, strings.Join(parts, "\n"))
}

// topDetections keeps the best confidence per label, highest first.
func topDetections(detections []domain.Detection, limit int) []string {
	best := map[string]float64{}
	for _, detection := range detections {
		label := strings.TrimSpace(detection.Label)
		if label == "" {
			continue
		}
		if current, ok := best[label]; !ok || detection.Confidence > current {
			best[label] = detection.Confidence
		}
	}

	labels := make([]string, 0, len(best))
	for label := range best {
		labels = append(labels, label)
	}
	slices.SortFunc(labels, func(a, b string) int {
		if best[a] != best[b] {
			if best[a] > best[b] {
				return -1
			}
			return 1
		}
		return strings.Compare(a, b)
	})
	if len(labels) > limit {
		labels = labels[:limit]
	}

	formatted := make([]string, 0, len(labels))
	for _, label := range labels {
		formatted = append(formatted, fmt.Sprintf("%s (%.0f%%)", label, best[label]*100))
	}

	return formatted
}

func capabilityLabel(capability domain.CapabilityKind) string {
	return strings.ReplaceAll(string(capability), "_", " ")
}

func formatTimestamp(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func excerpt(text string, limit int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= limit {
		return string(runes)
	}

	return strings.TrimSpace(string(runes[:limit])) + "..."
}
