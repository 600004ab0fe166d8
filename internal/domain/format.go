package domain

import (
	"fmt"
	"strings"
)

// Format is the output-format tag an agent declares on its result.
type Format string

const (
	FormatTranscript Format = "transcript"
	FormatDetections Format = "detections"
	FormatPDF        Format = "pdf"
	FormatPPTX       Format = "pptx"
)

func (f Format) IsDocument() bool {
	switch f {
	case FormatPDF, FormatPPTX:
		return true
	default:
		return false
	}
}

func (f Format) Extension() string {
	return "." + string(f)
}

// ParseDocumentFormat accepts the tags a planner model tends to emit ("PDF", ".pptx", "powerpoint").
func ParseDocumentFormat(raw string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.TrimPrefix(normalized, ".")

	switch normalized {
	case "pdf":
		return FormatPDF, nil
	case "pptx", "ppt", "powerpoint", "slides":
		return FormatPPTX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, raw)
	}
}
