package domain

import (
	"fmt"
	"strings"
)

type GenerationSpec struct {
	Format       Format
	Title        string
	Outline      []string
	Instructions string
	// Hint is appended to the planner prompt on retries.
	Hint    string
	Attempt int
}

func (s GenerationSpec) Validate() error {
	if !s.Format.IsDocument() {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, s.Format)
	}

	return nil
}

type HistoryLine struct {
	Role    string
	Content string
}

type AgentRequest struct {
	Capability CapabilityKind
	Video      VideoRef
	Query      string
	Generation *GenerationSpec
	// Context is a snapshot; agents never see the live VideoContext.
	Context VideoContext
	History []HistoryLine
}

type AgentResult struct {
	Success   bool
	Format    Format
	Artifacts []Artifact
	Document  *DocumentHandle
	Failure   FailureKind
	Detail    string
}

func Succeeded(format Format, artifacts ...Artifact) AgentResult {
	return AgentResult{Success: true, Format: format, Artifacts: artifacts}
}

// Failed converts err into a failed result, keeping its failure kind.
func Failed(err error) AgentResult {
	return AgentResult{Failure: FailureKindOf(err), Detail: errorDetail(err)}
}

func errorDetail(err error) string {
	if err == nil {
		return ""
	}

	return strings.TrimSpace(err.Error())
}
