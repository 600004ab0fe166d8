package command

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/bnema/clipmind/internal/domain"
	"github.com/charmbracelet/x/ansi"
)

var (
	thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	responsePrefix    = regexp.MustCompile(`^\S*\s*Response:\s*`)
	assistantPattern  = regexp.MustCompile(`(?s)Assistant:\s*(.*)`)
	codeFencePattern  = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")
)

// CleanThinkBlocks removes <think>...</think> sections emitted by reasoning models,
// along with any terminal escape codes a wrapper CLI colored its output with.
func CleanThinkBlocks(text string) string {
	return strings.TrimSpace(thinkBlockPattern.ReplaceAllString(ansi.Strip(text), ""))
}

// ExtractAssistantResponse keeps only the text after the first "Assistant:" marker.
func ExtractAssistantResponse(text string) string {
	cleaned := responsePrefix.ReplaceAllString(strings.TrimSpace(text), "")
	if match := assistantPattern.FindStringSubmatch(cleaned); match != nil {
		return strings.TrimSpace(match[1])
	}

	return strings.TrimSpace(cleaned)
}

// cleanModelOutput strips reasoning and chat-transcript noise around a model answer.
func cleanModelOutput(raw []byte) string {
	return ExtractAssistantResponse(CleanThinkBlocks(string(raw)))
}

// decodeModelJSON finds the JSON object inside noisy model output and decodes it into target.
func decodeModelJSON(raw []byte, target any) error {
	text := CleanThinkBlocks(string(raw))
	if match := codeFencePattern.FindStringSubmatch(text); match != nil {
		text = strings.TrimSpace(match[1])
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return fmt.Errorf("%w: no JSON object in output", domain.ErrMalformedModelJSON)
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), target); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedModelJSON, err)
	}

	return nil
}
