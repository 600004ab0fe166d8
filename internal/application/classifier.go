package application

import (
	"context"
	"strings"
	"unicode"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/bnema/clipmind/internal/ports"
)

var _ ports.IntentClassifier = RuleClassifier{}

// RuleClassifier maps utterances onto the closed intent set using keyword cues.
type RuleClassifier struct{}

var (
	pdfCues        = []string{"pdf"}
	pptxCues       = []string{"pptx", "ppt", "powerpoint", "slides", "slide", "deck", "presentation"}
	documentCues   = []string{"report", "document", "handout", "one-pager", "briefing"}
	transcribeCues = []string{"transcribe", "transcript", "transcription", "subtitles", "captions", "speech", "spoken", "say", "says", "said", "saying", "dialogue", "lyrics", "words", "audio", "speaker", "narration"}
	visualCues     = []string{"see", "visual", "visually", "scene", "scenes", "object", "objects", "frame", "frames", "happening", "describe", "look", "looks", "colour", "color", "people", "person", "animal", "identify", "detect", "count", "watch", "appear", "appears", "shown", "background"}
	reprocessCues  = []string{"again", "redo", "reprocess", "re-process", "retranscribe", "re-transcribe", "refresh", "rerun", "re-run", "reanalyze", "re-analyze"}
	creationCues   = []string{"create", "make", "generate", "build", "export", "write", "produce", "prepare", "draft", "compile", "turn", "convert", "put", "give", "send"}
	fileTypeCues   = []string{"pdf", "pptx", "ppt", "powerpoint"}
	questionStarts = []string{"what", "who", "where", "when", "why", "how", "which", "is", "are", "was", "were", "does", "do", "did", "can", "could"}
	questionCues   = []string{"what", "who", "where", "when", "why", "how", "which", "is", "are", "does", "did", "can", "summarize", "summarise", "summary", "recap", "tell", "explain"}
)

func (RuleClassifier) Classify(_ context.Context, utterance string, video domain.VideoContext) (domain.Intent, error) {
	return ClassifyUtterance(utterance, video), nil
}

// ClassifyUtterance is the deterministic rule set shared by RuleClassifier and model fallbacks.
func ClassifyUtterance(utterance string, video domain.VideoContext) domain.Intent {
	normalized := strings.ToLower(strings.TrimSpace(utterance))
	tokens := tokenize(normalized)
	if len(tokens) == 0 {
		return domain.Intent{Kind: domain.IntentUnknown}
	}

	reprocess := hasAny(tokens, reprocessCues) || strings.Contains(normalized, "from scratch")

	if format, ok := documentFormat(tokens); ok && asksForDocument(tokens, normalized) {
		return domain.Intent{Kind: domain.IntentGenerateDocument, Format: format, Reprocess: reprocess}
	}
	if hasAny(tokens, transcribeCues) {
		return domain.Intent{Kind: domain.IntentTranscribe, Reprocess: reprocess}
	}
	if hasAny(tokens, visualCues) {
		return domain.Intent{Kind: domain.IntentAnalyzeVisual, Reprocess: reprocess}
	}
	if hasAny(tokens, questionCues) || strings.HasSuffix(normalized, "?") {
		// Questions about an unanalyzed video need the vision pass first.
		if video.HasVideo() && !video.Has(domain.ArtifactSceneSummary) && !video.Has(domain.ArtifactTranscript) {
			return domain.Intent{Kind: domain.IntentAnalyzeVisual, Reprocess: reprocess}
		}
		return domain.Intent{Kind: domain.IntentGeneralQuery}
	}

	return domain.Intent{Kind: domain.IntentUnknown}
}

// documentFormat picks the first file format named in tokens; a bare "report" defaults to pdf.
func documentFormat(tokens []string) (domain.Format, bool) {
	for _, token := range tokens {
		if contains(pdfCues, token) {
			return domain.FormatPDF, true
		}
		if contains(pptxCues, token) {
			return domain.FormatPPTX, true
		}
	}
	if hasAny(tokens, documentCues) {
		return domain.FormatPDF, true
	}

	return "", false
}

// asksForDocument separates "make me slides" from "what is on the slide?": a creation verb
// always counts, and an explicit file type counts unless the utterance is a question.
func asksForDocument(tokens []string, normalized string) bool {
	if hasAny(tokens, creationCues) {
		return true
	}
	if !hasAny(tokens, fileTypeCues) {
		return false
	}

	return !contains(questionStarts, tokens[0]) && !strings.HasSuffix(normalized, "?")
}

func tokenize(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
}

func hasAny(tokens []string, cues []string) bool {
	for _, token := range tokens {
		if contains(cues, token) {
			return true
		}
	}

	return false
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}

	return false
}
