package domain

import "fmt"

type IntentKind string

const (
	IntentTranscribe       IntentKind = "transcribe"
	IntentAnalyzeVisual    IntentKind = "analyze_visual"
	IntentGenerateDocument IntentKind = "generate_document"
	IntentGeneralQuery     IntentKind = "general_query"
	IntentUnknown          IntentKind = "unknown"
)

func (k IntentKind) Valid() bool {
	switch k {
	case IntentTranscribe, IntentAnalyzeVisual, IntentGenerateDocument, IntentGeneralQuery, IntentUnknown:
		return true
	default:
		return false
	}
}

type Intent struct {
	Kind IntentKind
	// Format is only set for IntentGenerateDocument.
	Format    Format
	Reprocess bool
}

func (i Intent) Validate() error {
	if !i.Kind.Valid() {
		return fmt.Errorf("unknown intent kind %q", i.Kind)
	}
	if i.Kind == IntentGenerateDocument && !i.Format.IsDocument() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, i.Format)
	}
	if i.Kind != IntentGenerateDocument && i.Format != "" {
		return fmt.Errorf("format %q set on %s intent", i.Format, i.Kind)
	}

	return nil
}

func (i Intent) String() string {
	if i.Kind == IntentGenerateDocument {
		return fmt.Sprintf("%s(%s)", i.Kind, i.Format)
	}

	return string(i.Kind)
}
