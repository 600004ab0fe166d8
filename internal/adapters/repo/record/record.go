// Package record holds the storage and export shape of a session shared by the repository backends.
package record

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bnema/clipmind/internal/domain"
)

type Session struct {
	ID        string     `toml:"id" json:"id" yaml:"id"`
	Video     string     `toml:"video,omitempty" json:"video,omitempty" yaml:"video,omitempty"`
	CreatedAt string     `toml:"created_at" json:"created_at" yaml:"created_at"`
	UpdatedAt string     `toml:"updated_at" json:"updated_at" yaml:"updated_at"`
	Artifacts []Artifact `toml:"artifacts,omitempty" json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Turns     []Turn     `toml:"turns,omitempty" json:"turns,omitempty" yaml:"turns,omitempty"`
}

type Artifact struct {
	Kind       string      `toml:"kind" json:"kind" yaml:"kind"`
	Text       string      `toml:"text,omitempty" json:"text,omitempty" yaml:"text,omitempty"`
	Capability string      `toml:"capability,omitempty" json:"capability,omitempty" yaml:"capability,omitempty"`
	ProducedAt string      `toml:"produced_at,omitempty" json:"produced_at,omitempty" yaml:"produced_at,omitempty"`
	Segments   []Segment   `toml:"segments,omitempty" json:"segments,omitempty" yaml:"segments,omitempty"`
	Detections []Detection `toml:"detections,omitempty" json:"detections,omitempty" yaml:"detections,omitempty"`
	Frames     []Frame     `toml:"frames,omitempty" json:"frames,omitempty" yaml:"frames,omitempty"`
	Document   *Document   `toml:"document,omitempty" json:"document,omitempty" yaml:"document,omitempty"`
}

type Segment struct {
	Start float64 `toml:"start" json:"start" yaml:"start"`
	End   float64 `toml:"end" json:"end" yaml:"end"`
	Text  string  `toml:"text" json:"text" yaml:"text"`
}

type Detection struct {
	Label      string  `toml:"label" json:"label" yaml:"label"`
	Confidence float64 `toml:"confidence" json:"confidence" yaml:"confidence"`
	FrameIndex int     `toml:"frame_index" json:"frame_index" yaml:"frame_index"`
}

type Frame struct {
	Index     int     `toml:"index" json:"index" yaml:"index"`
	Timestamp float64 `toml:"timestamp" json:"timestamp" yaml:"timestamp"`
	Text      string  `toml:"text" json:"text" yaml:"text"`
}

type Document struct {
	ID     string `toml:"id" json:"id" yaml:"id"`
	Format string `toml:"format" json:"format" yaml:"format"`
	Title  string `toml:"title" json:"title" yaml:"title"`
	Path   string `toml:"path" json:"path" yaml:"path"`
	Size   int64  `toml:"size" json:"size" yaml:"size"`
}

type Turn struct {
	ID                 string       `toml:"id" json:"id" yaml:"id"`
	Utterance          string       `toml:"utterance" json:"utterance" yaml:"utterance"`
	Intent             string       `toml:"intent" json:"intent" yaml:"intent"`
	Format             string       `toml:"format,omitempty" json:"format,omitempty" yaml:"format,omitempty"`
	Reprocess          bool         `toml:"reprocess,omitempty" json:"reprocess,omitempty" yaml:"reprocess,omitempty"`
	Plan               []PlanStep   `toml:"plan,omitempty" json:"plan,omitempty" yaml:"plan,omitempty"`
	Invocations        []Invocation `toml:"invocations,omitempty" json:"invocations,omitempty" yaml:"invocations,omitempty"`
	Response           string       `toml:"response" json:"response" yaml:"response"`
	Outcome            string       `toml:"outcome" json:"outcome" yaml:"outcome"`
	Failure            string       `toml:"failure,omitempty" json:"failure,omitempty" yaml:"failure,omitempty"`
	Document           *Document    `toml:"document,omitempty" json:"document,omitempty" yaml:"document,omitempty"`
	GenerationAttempts int          `toml:"generation_attempts,omitempty" json:"generation_attempts,omitempty" yaml:"generation_attempts,omitempty"`
	CreatedAt          string       `toml:"created_at" json:"created_at" yaml:"created_at"`
}

type PlanStep struct {
	Capability string `toml:"capability" json:"capability" yaml:"capability"`
	Reused     bool   `toml:"reused,omitempty" json:"reused,omitempty" yaml:"reused,omitempty"`
}

type Invocation struct {
	Capability string `toml:"capability" json:"capability" yaml:"capability"`
	Attempt    int    `toml:"attempt" json:"attempt" yaml:"attempt"`
	Success    bool   `toml:"success" json:"success" yaml:"success"`
	Format     string `toml:"format,omitempty" json:"format,omitempty" yaml:"format,omitempty"`
	Failure    string `toml:"failure,omitempty" json:"failure,omitempty" yaml:"failure,omitempty"`
	Detail     string `toml:"detail,omitempty" json:"detail,omitempty" yaml:"detail,omitempty"`
	StartedAt  string `toml:"started_at" json:"started_at" yaml:"started_at"`
	DurationNS int64  `toml:"duration_ns" json:"duration_ns" yaml:"duration_ns"`
}

// Apply returns session with turn appended and its video context replaced by video.
func Apply(session domain.Session, turn domain.Turn, video domain.VideoContext) domain.Session {
	session = session.Clone()
	session.Context = video.Clone()
	session.Turns = append(session.Turns, turn.Clone())
	session.UpdatedAt = turn.CreatedAt
	if session.CreatedAt.IsZero() {
		session.CreatedAt = turn.CreatedAt
	}

	return session
}

func FromDomain(session domain.Session) Session {
	encoded := Session{
		ID:        string(session.ID),
		Video:     text(string(session.Context.Video)),
		CreatedAt: formatTime(session.CreatedAt),
		UpdatedAt: formatTime(session.UpdatedAt),
	}
	for _, kind := range session.Context.Kinds() {
		encoded.Artifacts = append(encoded.Artifacts, fromArtifact(session.Context.Artifacts[kind]))
	}
	for _, turn := range session.Turns {
		encoded.Turns = append(encoded.Turns, fromTurn(turn))
	}

	return encoded
}

func ToDomain(encoded Session) (domain.Session, error) {
	session := domain.Session{
		ID:        domain.SessionID(encoded.ID),
		Context:   domain.NewVideoContext(domain.VideoRef(encoded.Video)),
		CreatedAt: parseTime(encoded.CreatedAt),
		UpdatedAt: parseTime(encoded.UpdatedAt),
	}
	for _, artifact := range encoded.Artifacts {
		if err := session.Context.Put(toArtifact(artifact)); err != nil {
			return domain.Session{}, err
		}
	}
	for _, turn := range encoded.Turns {
		session.Turns = append(session.Turns, toTurn(turn))
	}

	return session, nil
}

func fromArtifact(artifact domain.Artifact) Artifact {
	encoded := Artifact{
		Kind:       string(artifact.Kind),
		Text:       text(artifact.Text),
		Capability: string(artifact.Provenance.Capability),
		ProducedAt: formatTime(artifact.Provenance.ProducedAt),
		Document:   fromDocument(artifact.Document),
	}
	for _, segment := range artifact.Segments {
		encoded.Segments = append(encoded.Segments, Segment{Start: segment.Start, End: segment.End, Text: text(segment.Text)})
	}
	for _, detection := range artifact.Detections {
		encoded.Detections = append(encoded.Detections, Detection{Label: text(detection.Label), Confidence: detection.Confidence, FrameIndex: detection.FrameIndex})
	}
	for _, frame := range artifact.Frames {
		encoded.Frames = append(encoded.Frames, Frame{Index: frame.Index, Timestamp: frame.Timestamp, Text: text(frame.Text)})
	}

	return encoded
}

func toArtifact(encoded Artifact) domain.Artifact {
	artifact := domain.Artifact{
		Kind:     domain.ArtifactKind(encoded.Kind),
		Text:     encoded.Text,
		Document: toDocument(encoded.Document),
		Provenance: domain.Provenance{
			Capability: domain.CapabilityKind(encoded.Capability),
			ProducedAt: parseTime(encoded.ProducedAt),
		},
	}
	for _, segment := range encoded.Segments {
		artifact.Segments = append(artifact.Segments, domain.TranscriptSegment{Start: segment.Start, End: segment.End, Text: segment.Text})
	}
	for _, detection := range encoded.Detections {
		artifact.Detections = append(artifact.Detections, domain.Detection{Label: detection.Label, Confidence: detection.Confidence, FrameIndex: detection.FrameIndex})
	}
	for _, frame := range encoded.Frames {
		artifact.Frames = append(artifact.Frames, domain.FrameDescription{Index: frame.Index, Timestamp: frame.Timestamp, Text: frame.Text})
	}

	return artifact
}

func fromTurn(turn domain.Turn) Turn {
	encoded := Turn{
		ID:                 turn.ID,
		Utterance:          text(turn.Utterance),
		Intent:             string(turn.Intent.Kind),
		Format:             string(turn.Intent.Format),
		Reprocess:          turn.Intent.Reprocess,
		Response:           text(turn.Response),
		Outcome:            string(turn.Outcome),
		Failure:            string(turn.Failure),
		Document:           fromDocument(turn.Document),
		GenerationAttempts: turn.GenerationAttempts,
		CreatedAt:          formatTime(turn.CreatedAt),
	}
	for _, step := range turn.Plan {
		encoded.Plan = append(encoded.Plan, PlanStep{Capability: string(step.Capability), Reused: step.Reused})
	}
	for _, invocation := range turn.Invocations {
		encoded.Invocations = append(encoded.Invocations, Invocation{
			Capability: string(invocation.Capability),
			Attempt:    invocation.Attempt,
			Success:    invocation.Success,
			Format:     string(invocation.Format),
			Failure:    string(invocation.Failure),
			Detail:     text(invocation.Detail),
			StartedAt:  formatTime(invocation.StartedAt),
			DurationNS: int64(invocation.Duration),
		})
	}

	return encoded
}

func toTurn(encoded Turn) domain.Turn {
	turn := domain.Turn{
		ID:        encoded.ID,
		Utterance: encoded.Utterance,
		Intent: domain.Intent{
			Kind:      domain.IntentKind(encoded.Intent),
			Format:    domain.Format(encoded.Format),
			Reprocess: encoded.Reprocess,
		},
		Response:           encoded.Response,
		Outcome:            domain.Outcome(encoded.Outcome),
		Failure:            domain.FailureKind(encoded.Failure),
		Document:           toDocument(encoded.Document),
		GenerationAttempts: encoded.GenerationAttempts,
		CreatedAt:          parseTime(encoded.CreatedAt),
	}
	for _, step := range encoded.Plan {
		turn.Plan = append(turn.Plan, domain.PlanStep{Capability: domain.CapabilityKind(step.Capability), Reused: step.Reused})
	}
	for _, invocation := range encoded.Invocations {
		turn.Invocations = append(turn.Invocations, domain.Invocation{
			Capability: domain.CapabilityKind(invocation.Capability),
			Attempt:    invocation.Attempt,
			Success:    invocation.Success,
			Format:     domain.Format(invocation.Format),
			Failure:    domain.FailureKind(invocation.Failure),
			Detail:     invocation.Detail,
			StartedAt:  parseTime(invocation.StartedAt),
			Duration:   time.Duration(invocation.DurationNS),
		})
	}

	return turn
}

func fromDocument(document *domain.DocumentHandle) *Document {
	if document == nil {
		return nil
	}

	return &Document{
		ID:     document.ID,
		Format: string(document.Format),
		Title:  text(document.Title),
		Path:   text(document.Path),
		Size:   document.Size,
	}
}

func toDocument(document *Document) *domain.DocumentHandle {
	if document == nil {
		return nil
	}

	return &domain.DocumentHandle{
		ID:     document.ID,
		Format: domain.Format(document.Format),
		Title:  document.Title,
		Path:   document.Path,
		Size:   document.Size,
	}
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed.UTC()
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339Nano)
}

// text replaces invalid UTF-8 so encoders never write a record their decoders reject.
func text(value string) string {
	return strings.ToValidUTF8(value, string(utf8.RuneError))
}
