package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

type VideoRef string

func (v VideoRef) IsSet() bool {
	return strings.TrimSpace(string(v)) != ""
}

type ArtifactKind string

const (
	ArtifactTranscript        ArtifactKind = "transcript"
	ArtifactFrameDescriptions ArtifactKind = "frame_descriptions"
	ArtifactDetectedObjects   ArtifactKind = "detected_objects"
	ArtifactSceneSummary      ArtifactKind = "scene_summary"
	ArtifactDocument          ArtifactKind = "document"
)

type Provenance struct {
	Capability CapabilityKind
	ProducedAt time.Time
}

type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

type Detection struct {
	Label      string
	Confidence float64
	FrameIndex int
}

type FrameDescription struct {
	Index     int
	Timestamp float64
	Text      string
}

type DocumentHandle struct {
	ID     string
	Format Format
	Title  string
	Path   string
	Size   int64
}

// Artifact is one derived value in a VideoContext. Only the fields relevant to Kind are set.
type Artifact struct {
	Kind       ArtifactKind
	Text       string
	Segments   []TranscriptSegment
	Detections []Detection
	Frames     []FrameDescription
	Document   *DocumentHandle
	Provenance Provenance
}

func (a Artifact) Clone() Artifact {
	cloned := a
	cloned.Segments = cloneSlice(a.Segments)
	cloned.Detections = cloneSlice(a.Detections)
	cloned.Frames = cloneSlice(a.Frames)
	if a.Document != nil {
		doc := *a.Document
		cloned.Document = &doc
	}

	return cloned
}

// VideoContext maps artifact kinds derived from one uploaded video to their latest value.
type VideoContext struct {
	Video     VideoRef
	Artifacts map[ArtifactKind]Artifact
}

func NewVideoContext(video VideoRef) VideoContext {
	return VideoContext{Video: video}
}

func (c VideoContext) HasVideo() bool {
	return c.Video.IsSet()
}

func (c VideoContext) Has(kind ArtifactKind) bool {
	_, ok := c.Artifacts[kind]
	return ok
}

func (c VideoContext) Get(kind ArtifactKind) (Artifact, bool) {
	artifact, ok := c.Artifacts[kind]
	if !ok {
		return Artifact{}, false
	}

	return artifact.Clone(), true
}

// Put stores artifact under its kind, replacing any prior entry.
func (c *VideoContext) Put(artifact Artifact) error {
	if artifact.Kind == "" {
		return fmt.Errorf("artifact kind is required")
	}
	if c.Artifacts == nil {
		c.Artifacts = map[ArtifactKind]Artifact{}
	}

	c.Artifacts[artifact.Kind] = artifact.Clone()
	return nil
}

func (c VideoContext) Kinds() []ArtifactKind {
	kinds := make([]ArtifactKind, 0, len(c.Artifacts))
	for kind := range c.Artifacts {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)

	return kinds
}

func (c VideoContext) Clone() VideoContext {
	cloned := VideoContext{Video: c.Video}
	if len(c.Artifacts) == 0 {
		return cloned
	}

	cloned.Artifacts = make(map[ArtifactKind]Artifact, len(c.Artifacts))
	for kind, artifact := range c.Artifacts {
		cloned.Artifacts[kind] = artifact.Clone()
	}

	return cloned
}

func (c VideoContext) TranscriptText() string {
	artifact, ok := c.Artifacts[ArtifactTranscript]
	if !ok {
		return ""
	}
	if artifact.Text != "" {
		return artifact.Text
	}

	return JoinSegments(artifact.Segments)
}

func (c VideoContext) SceneSummary() string {
	return c.Artifacts[ArtifactSceneSummary].Text
}

func (c VideoContext) Detections() []Detection {
	return cloneSlice(c.Artifacts[ArtifactDetectedObjects].Detections)
}

func JoinSegments(segments []TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}

	return strings.Join(parts, " ")
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}

	return append([]T(nil), items...)
}
